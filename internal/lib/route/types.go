package route

import (
	"fmt"
	"strconv"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
)

// Side selects where a polygon is spliced relative to its anchor waypoint
type Side string

const (
	Before Side = "before" // block takes the anchor's index, anchor follows it
	After  Side = "after"  // block starts right after the anchor
)

// Valid reports whether s is one of Before or After
func (s Side) Valid() bool {
	return s == Before || s == After
}

// ParseSide converts a user supplied side value
func ParseSide(value string) (Side, error) {
	side := Side(value)
	if !side.Valid() {
		return "", fmt.Errorf("invalid side %q: must be %q or %q", value, Before, After)
	}
	return side, nil
}

// Waypoint is one labeled point of a route.
// Coordinates and Distance are fixed when the waypoint is created and never recomputed.
type Waypoint struct {
	ID          string    `json:"id"`
	Coordinates geo.Point `json:"coordinates"`
	Distance    float64   `json:"distance"` // meters from the previous waypoint
}

// CoordinateStrings returns longitude and latitude with exactly 8 fractional digits
func (w Waypoint) CoordinateStrings() [2]string {
	return [2]string{
		strconv.FormatFloat(w.Coordinates.Longitude, 'f', coordinateDecimals, 64),
		strconv.FormatFloat(w.Coordinates.Latitude, 'f', coordinateDecimals, 64),
	}
}

// DistanceString returns the distance with exactly 2 fractional digits
func (w Waypoint) DistanceString() string {
	return strconv.FormatFloat(w.Distance, 'f', distanceDecimals, 64)
}

// Renderer receives the full route every time it changes
type Renderer interface {
	Render(waypoints []Waypoint)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(waypoints []Waypoint)

// Render calls f(waypoints)
func (f RendererFunc) Render(waypoints []Waypoint) {
	f(waypoints)
}
