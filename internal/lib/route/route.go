package route

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
)

const (
	coordinateDecimals = 8
	distanceDecimals   = 2

	linePrefix    = "WP"
	polygonPrefix = "Poly"
)

// Model owns an ordered waypoint sequence.
// It is not safe for concurrent use; callers serialize mutations.
type Model struct {
	waypoints []Waypoint
	renderers []Renderer
}

// NewModel creates an empty route that pushes every change to the given renderers
func NewModel(renderers ...Renderer) *Model {
	return &Model{
		waypoints: []Waypoint{},
		renderers: renderers,
	}
}

// AddRenderer registers another rendering collaborator
func (m *Model) AddRenderer(r Renderer) {
	m.renderers = append(m.renderers, r)
}

// BuildFromLine replaces the whole route with waypoints for a freshly drawn line.
// Points must already be longitude/latitude.
func (m *Model) BuildFromLine(points []geo.Point) {
	m.waypoints = LineWaypoints(points)
	m.notify()
}

// InsertPolygon splices the polygon's vertices into the route next to the anchor waypoint.
//
// It panics if anchorIndex is outside the current route, side is invalid or vertices is
// empty. Callers validate against the route snapshot they were given.
func (m *Model) InsertPolygon(vertices []geo.Point, anchorIndex int, side Side) {
	if anchorIndex < 0 || anchorIndex >= len(m.waypoints) {
		panic(fmt.Sprintf("route: anchor index %d out of range [0, %d)", anchorIndex, len(m.waypoints)))
	}
	if len(vertices) == 0 {
		panic("route: polygon has no vertices")
	}

	block := PolygonWaypoints(m.waypoints[anchorIndex].Coordinates, vertices)
	m.waypoints = Splice(m.waypoints, block, anchorIndex, side)
	m.notify()
}

// Waypoints returns a snapshot of the route
func (m *Model) Waypoints() []Waypoint {
	return slices.Clone(m.waypoints)
}

// Len returns the number of waypoints
func (m *Model) Len() int {
	return len(m.waypoints)
}

// TotalDistance sums the stored distances of all waypoints
func (m *Model) TotalDistance() float64 {
	return TotalDistance(m.waypoints)
}

func (m *Model) notify() {
	for _, r := range m.renderers {
		r.Render(m.Waypoints())
	}
}

// LineWaypoints creates WP(NN) waypoints for a drawn line. The first waypoint has distance 0,
// every other one the distance from the previous input point.
func LineWaypoints(points []geo.Point) []Waypoint {
	waypoints := make([]Waypoint, len(points))
	for i, p := range points {
		distance := 0.0
		if i > 0 {
			distance = geo.Distance(points[i-1], p)
		}
		waypoints[i] = newWaypoint(linePrefix, i, p, distance)
	}
	return waypoints
}

// PolygonWaypoints creates Poly(NN) waypoints for polygon vertices. The first vertex's
// distance is measured from anchor.
func PolygonWaypoints(anchor geo.Point, vertices []geo.Point) []Waypoint {
	waypoints := make([]Waypoint, len(vertices))
	for i, v := range vertices {
		from := anchor
		if i > 0 {
			from = vertices[i-1]
		}
		waypoints[i] = newWaypoint(polygonPrefix, i, v, geo.Distance(from, v))
	}
	return waypoints
}

// Splice returns a new sequence with block inserted at anchorIndex (Before) or
// anchorIndex+1 (After). No distance outside block is touched, including the anchor's.
func Splice(waypoints, block []Waypoint, anchorIndex int, side Side) []Waypoint {
	at := anchorIndex
	switch side {
	case Before:
	case After:
		at++
	default:
		panic(fmt.Sprintf("route: invalid side %q", side))
	}

	out := make([]Waypoint, 0, len(waypoints)+len(block))
	out = append(out, waypoints[:at]...)
	out = append(out, block...)
	return append(out, waypoints[at:]...)
}

// TotalDistance sums the stored distances of waypoints
func TotalDistance(waypoints []Waypoint) float64 {
	total := 0.0
	for _, w := range waypoints {
		total += w.Distance
	}
	return total
}

// newWaypoint builds a waypoint labeled with its batch-local index
func newWaypoint(prefix string, index int, p geo.Point, distance float64) Waypoint {
	return Waypoint{
		ID: fmt.Sprintf("%s(%02d)", prefix, index),
		Coordinates: geo.Point{
			Longitude: fixed(p.Longitude, coordinateDecimals),
			Latitude:  fixed(p.Latitude, coordinateDecimals),
		},
		Distance: fixed(distance, distanceDecimals),
	}
}

// fixed rounds v to the value its decimal text with the given number of fractional digits denotes
func fixed(v float64, decimals int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	return f
}
