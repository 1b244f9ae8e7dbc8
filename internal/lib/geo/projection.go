package geo

import (
	"fmt"

	"github.com/paulmach/orb/project"
)

// ToLonLat converts a Web Mercator coordinate (meters) to longitude/latitude
func ToLonLat(p Point) Point {
	return FromOrb(project.Mercator.ToWGS84(p.Orb()))
}

// FromLonLat converts longitude/latitude to a Web Mercator coordinate (meters)
func FromLonLat(p Point) Point {
	return FromOrb(project.WGS84.ToMercator(p.Orb()))
}

// ParseProjection resolves a projection name. The empty string selects WebMercator.
func ParseProjection(name string) (Projection, error) {
	switch Projection(name) {
	case "", WebMercator:
		return WebMercator, nil
	case LonLat:
		return LonLat, nil
	default:
		return "", fmt.Errorf("unsupported projection %q", name)
	}
}

// ToLonLat converts raw input points from this projection to longitude/latitude.
// The input slice is not modified.
func (p Projection) ToLonLat(points []Point) []Point {
	out := make([]Point, len(points))
	for i, pt := range points {
		if p == LonLat {
			out[i] = pt
			continue
		}
		out[i] = ToLonLat(pt)
	}
	return out
}
