package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
	"github.com/suryamshetty/marine-draw/internal/lib/route"
	"github.com/suryamshetty/marine-draw/internal/render"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "plan":
		handlePlan()
	case "distance":
		handleDistance()
	case "project":
		handleProject()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePlan() {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	lineFile := fs.String("line", "", "GeoJSON file with the route line (- for stdin)")
	linePolyline := fs.String("line-polyline", "", "Route line as an encoded polyline")
	polygonFile := fs.String("polygon", "", "GeoJSON file with a survey polygon to splice in")
	polygonPolyline := fs.String("polygon-polyline", "", "Survey polygon as an encoded polyline")
	anchor := fs.Int("anchor", 0, "Index of the waypoint the polygon is inserted against")
	side := fs.String("side", "after", "Insert the polygon before or after the anchor")
	projection := fs.String("projection", string(geo.LonLat), "Projection of GeoJSON input (EPSG:4326 or EPSG:3857)")
	format := fs.String("format", "table", "Output format: table, geojson, kml or polyline")
	name := fs.String("name", "mission", "Route name used in exports")

	fs.Parse(os.Args[2:])

	if *lineFile == "" && *linePolyline == "" {
		fmt.Println("Example usage:")
		fmt.Println("  missionctl plan --line-polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		fmt.Println("  missionctl plan --line route.geojson --polygon survey.geojson --anchor 1 --side before --format kml")
		os.Exit(1)
	}

	proj, err := geo.ParseProjection(*projection)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	line, err := loadPoints(*lineFile, *linePolyline, proj)
	if err != nil {
		log.Fatalf("Error reading line: %v", err)
	}

	model := route.NewModel()
	model.BuildFromLine(line)

	if *polygonFile != "" || *polygonPolyline != "" {
		vertices, err := loadPoints(*polygonFile, *polygonPolyline, proj)
		if err != nil {
			log.Fatalf("Error reading polygon: %v", err)
		}
		s, err := route.ParseSide(*side)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if *anchor < 0 || *anchor >= model.Len() {
			log.Fatalf("Error: anchor %d out of range, route has %d waypoints", *anchor, model.Len())
		}
		if len(vertices) == 0 {
			log.Fatal("Error: polygon has no vertices")
		}
		model.InsertPolygon(vertices, *anchor, s)
	}

	waypoints := model.Waypoints()

	switch *format {
	case "table":
		fmt.Println(render.Table(render.Views(waypoints)))
		fmt.Printf("Total distance: %.2f m (%.2f km)\n", model.TotalDistance(), model.TotalDistance()/1000)
	case "geojson":
		data, err := render.GeoJSON(*name, waypoints)
		if err != nil {
			log.Fatalf("Error encoding GeoJSON: %v", err)
		}
		fmt.Println(string(data))
	case "kml":
		if err := render.KML(os.Stdout, *name, waypoints); err != nil {
			log.Fatalf("Error encoding KML: %v", err)
		}
		fmt.Println()
	case "polyline":
		fmt.Println(render.EncodePolyline(waypoints))
	default:
		log.Fatalf("Unknown format: %s", *format)
	}
}

func handleDistance() {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  missionctl distance --lat1 38.0675 --lng1 -120.5436 --lat2 38.1391 --lng2 -120.4561")
		os.Exit(1)
	}

	p1 := geo.Point{Latitude: *lat1, Longitude: *lng1}
	p2 := geo.Point{Latitude: *lat2, Longitude: *lng2}
	distance := geo.Distance(p1, p2)

	fmt.Printf("Great-circle distance:\n")
	fmt.Printf("  Point 1: (%.8f, %.8f)\n", p1.Longitude, p1.Latitude)
	fmt.Printf("  Point 2: (%.8f, %.8f)\n", p2.Longitude, p2.Latitude)
	fmt.Printf("  Distance: %.2f meters (%.2f km, %.2f nautical miles)\n",
		distance, distance/1000, distance/1852)
}

func handleProject() {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	x := fs.Float64("x", 0, "Web Mercator x in meters")
	y := fs.Float64("y", 0, "Web Mercator y in meters")
	lng := fs.Float64("lng", 0, "Longitude in degrees")
	lat := fs.Float64("lat", 0, "Latitude in degrees")
	inverse := fs.Bool("to-mercator", false, "Convert --lng/--lat to Web Mercator instead")

	fs.Parse(os.Args[2:])

	if *inverse {
		p := geo.FromLonLat(geo.Point{Longitude: *lng, Latitude: *lat})
		fmt.Printf("EPSG:3857: x=%.2f y=%.2f\n", p.Longitude, p.Latitude)
		return
	}

	p := geo.ToLonLat(geo.Point{Longitude: *x, Latitude: *y})
	fmt.Printf("EPSG:4326: lng=%.8f lat=%.8f\n", p.Longitude, p.Latitude)
}

// loadPoints reads vertices from a GeoJSON file or an encoded polyline.
// Polylines are always longitude/latitude; GeoJSON is converted from proj.
func loadPoints(path, encoded string, proj geo.Projection) ([]geo.Point, error) {
	if encoded != "" {
		return geo.DecodePolyline(encoded)
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	g, err := parseGeometry(data)
	if err != nil {
		return nil, err
	}

	points, err := geo.FromOrbGeometry(g.Geometry())
	if err != nil {
		return nil, err
	}
	return proj.ToLonLat(points), nil
}

// parseGeometry accepts a bare geometry, a Feature, or the first feature of a FeatureCollection
func parseGeometry(data []byte) (*geojson.Geometry, error) {
	data = bytes.TrimSpace(data)

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		return geojson.NewGeometry(fc.Features[0].Geometry), nil
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		return geojson.NewGeometry(f.Geometry), nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("not a GeoJSON geometry, feature or feature collection: %w", err)
	}
	return g, nil
}

func printUsage() {
	fmt.Println("missionctl - offline mission route planning")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  missionctl <command> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  plan       Build a route from a line and optionally splice in a survey polygon")
	fmt.Println("  distance   Great-circle distance between two points")
	fmt.Println("  project    Convert between Web Mercator and longitude/latitude")
	fmt.Println("  help       Show this help message")
	fmt.Println("")
	fmt.Println("Run 'missionctl <command>' without flags for examples.")
}
