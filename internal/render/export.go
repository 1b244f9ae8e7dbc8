package render

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
	"github.com/suryamshetty/marine-draw/internal/lib/route"
)

// GeoJSON returns a FeatureCollection with the route path (when it has at least two
// waypoints) followed by one Point feature per waypoint in route order.
func GeoJSON(name string, waypoints []route.Waypoint) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	if len(waypoints) > 1 {
		path := make(orb.LineString, len(waypoints))
		for i, w := range waypoints {
			path[i] = w.Coordinates.Orb()
		}
		f := geojson.NewFeature(path)
		f.Properties["name"] = name
		f.Properties["total_distance"] = route.TotalDistance(waypoints)
		fc.Append(f)
	}

	for i, w := range waypoints {
		coords := w.CoordinateStrings()
		f := geojson.NewFeature(w.Coordinates.Orb())
		f.ID = w.ID
		f.Properties["id"] = w.ID
		f.Properties["sequence"] = i
		f.Properties["coordinates"] = coords[:]
		f.Properties["distance"] = w.DistanceString()
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson: %w", err)
	}
	return data, nil
}

// KML writes the route as a KML document: one placemark per waypoint and a path placemark
func KML(w io.Writer, name string, waypoints []route.Waypoint) error {
	children := []kml.Element{kml.Name(name)}

	coords := make([]kml.Coordinate, len(waypoints))
	for i, wp := range waypoints {
		coords[i] = kml.Coordinate{Lon: wp.Coordinates.Longitude, Lat: wp.Coordinates.Latitude}
		children = append(children, kml.Placemark(
			kml.Name(wp.ID),
			kml.Description(fmt.Sprintf("Distance from previous waypoint: %s m", wp.DistanceString())),
			kml.Point(kml.Coordinates(coords[i])),
		))
	}

	if len(coords) > 1 {
		children = append(children, kml.Placemark(
			kml.Name(name+" path"),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}

// EncodePolyline encodes the route's coordinates as a Google polyline
func EncodePolyline(waypoints []route.Waypoint) string {
	points := make([]geo.Point, len(waypoints))
	for i, w := range waypoints {
		points[i] = w.Coordinates
	}
	return geo.EncodePolyline(points)
}
