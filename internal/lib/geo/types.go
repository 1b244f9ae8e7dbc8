package geo

import (
	"errors"

	"github.com/paulmach/orb"
)

// ErrUnsupportedGeometry is returned for geometry that has no single vertex sequence
var ErrUnsupportedGeometry = errors.New("geometry must be a LineString, Polygon or MultiPoint")

// Point represents a geographic coordinate in decimal degrees
type Point struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

// Orb returns the point as an orb.Point, which is ordered (lon, lat)
func (p Point) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// FromOrb converts an orb.Point to a Point
func FromOrb(p orb.Point) Point {
	return Point{Longitude: p.Lon(), Latitude: p.Lat()}
}

// FromOrbPoints converts a sequence of orb points, preserving order
func FromOrbPoints(points []orb.Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = FromOrb(p)
	}
	return out
}

// FromOrbGeometry extracts the ordered vertices of drawn geometry. A polygon contributes
// its outer ring as-is, closing vertex included.
func FromOrbGeometry(g orb.Geometry) ([]Point, error) {
	switch v := g.(type) {
	case orb.LineString:
		return FromOrbPoints(v), nil
	case orb.MultiPoint:
		return FromOrbPoints(v), nil
	case orb.Ring:
		return FromOrbPoints(v), nil
	case orb.Polygon:
		if len(v) == 0 {
			return nil, nil
		}
		return FromOrbPoints(v[0]), nil
	default:
		return nil, ErrUnsupportedGeometry
	}
}

// Projection names the coordinate space raw map input arrives in
type Projection string

const (
	// WebMercator is the map's native space (meters), as emitted by draw interactions
	WebMercator Projection = "EPSG:3857"
	// LonLat is plain longitude/latitude in degrees
	LonLat Projection = "EPSG:4326"
)
