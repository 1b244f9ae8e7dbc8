package render

import (
	"fmt"

	"github.com/suryamshetty/marine-draw/internal/lib/route"
)

const (
	CoordinatesUnavailable = "Coordinates unavailable"
	DistanceUnavailable    = "Distance unavailable"
)

// View is the display form of a waypoint. Values arrive as fixed-precision strings;
// a view decoded from a client may be only partly populated.
type View struct {
	ID          string   `json:"id"`
	Coordinates []string `json:"coordinates,omitempty"` // [lon, lat], 8 fractional digits
	Distance    string   `json:"distance,omitempty"`    // meters, 2 fractional digits
}

// NewView formats a waypoint for display
func NewView(w route.Waypoint) View {
	coords := w.CoordinateStrings()
	return View{
		ID:          w.ID,
		Coordinates: coords[:],
		Distance:    w.DistanceString(),
	}
}

// Views formats a whole route, preserving order
func Views(waypoints []route.Waypoint) []View {
	views := make([]View, len(waypoints))
	for i, w := range waypoints {
		views[i] = NewView(w)
	}
	return views
}

// CoordinatesLabel renders "(lon, lat)" or the unavailable sentinel
func (v View) CoordinatesLabel() string {
	if len(v.Coordinates) != 2 {
		return CoordinatesUnavailable
	}
	return fmt.Sprintf("(%s, %s)", v.Coordinates[0], v.Coordinates[1])
}

// DistanceLabel renders "12.34 m" or the unavailable sentinel
func (v View) DistanceLabel() string {
	if v.Distance == "" {
		return DistanceUnavailable
	}
	return v.Distance + " m"
}
