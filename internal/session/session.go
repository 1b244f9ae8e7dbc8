package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
	"github.com/suryamshetty/marine-draw/internal/lib/route"
	"github.com/suryamshetty/marine-draw/internal/metrics"
)

var (
	ErrAnchorOutOfRange = errors.New("anchor index out of range")
	ErrInvalidSide      = errors.New("side must be \"before\" or \"after\"")
	ErrInvalidCapture   = errors.New("capture kind must be \"line\" or \"polygon\"")
	ErrNoSelection      = errors.New("no insertion point selected")
	ErrNoCapture        = errors.New("no capture in progress")
	ErrEmptyPolygon     = errors.New("polygon has no vertices")
)

// CaptureKind identifies the drawing interaction a session is waiting on
type CaptureKind string

const (
	CaptureNone    CaptureKind = ""
	CaptureLine    CaptureKind = "line"
	CapturePolygon CaptureKind = "polygon"
)

// Selection is the anchor a pending polygon will be spliced against
type Selection struct {
	AnchorIndex int        `json:"anchor_index"`
	Side        route.Side `json:"side"`
}

// Snapshot is a consistent copy of session state
type Snapshot struct {
	ID            string           `json:"id"`
	Waypoints     []route.Waypoint `json:"waypoints"`
	Selection     *Selection       `json:"selection,omitempty"`
	Capture       CaptureKind      `json:"capture,omitempty"`
	TotalDistance float64          `json:"total_distance"`
}

// Session is one user's planning context. It owns the route and the UI state that
// drives mutations of it, and admits one mutation at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	route     *route.Model
	selection *Selection
	capture   CaptureKind
	onClose   []func()
	logger    *zap.SugaredLogger
}

// New creates a session with an empty route
func New(id string, logger *zap.SugaredLogger) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		route:     route.NewModel(),
		logger:    logger.With("session", id),
	}
}

// Subscribe registers a rendering collaborator that receives the full route on every change
func (s *Session) Subscribe(r route.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.route.AddRenderer(r)
}

// OnClose registers a hook run when the session is removed from its store
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onClose = append(s.onClose, fn)
}

// Select records where the next polygon goes. The anchor is checked against the current route.
func (s *Session) Select(anchorIndex int, side route.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !side.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidSide, side)
	}
	if anchorIndex < 0 || anchorIndex >= s.route.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrAnchorOutOfRange, anchorIndex, s.route.Len())
	}

	s.selection = &Selection{AnchorIndex: anchorIndex, Side: side}
	s.logger.Debugw("Insertion point selected", "anchor_index", anchorIndex, "side", side)
	return nil
}

// ClearSelection drops a pending selection and any polygon capture depending on it
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = nil
	if s.capture == CapturePolygon {
		s.capture = CaptureNone
	}
}

// BeginCapture starts a drawing interaction. Starting a line discards any pending selection;
// starting a polygon requires one.
func (s *Session) BeginCapture(kind CaptureKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case CaptureLine:
		s.selection = nil
	case CapturePolygon:
		if s.selection == nil {
			return ErrNoSelection
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidCapture, kind)
	}

	s.capture = kind
	s.logger.Debugw("Capture started", "kind", kind)
	return nil
}

// CancelCapture ends the current drawing interaction without touching the route
func (s *Session) CancelCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capture = CaptureNone
}

// CommitCapture hands the drawn points to the route and ends the capture.
// Points are in the given projection and converted to longitude/latitude first.
func (s *Session) CommitCapture(points []geo.Point, projection geo.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lonLat := projection.ToLonLat(points)

	switch s.capture {
	case CaptureLine:
		s.route.BuildFromLine(lonLat)
		// Anchors picked against the replaced route are meaningless now
		s.selection = nil
		metrics.RouteOperationsTotal.WithLabelValues("build_line").Inc()
		s.logger.Infow("Route built from line", "waypoints", s.route.Len())

	case CapturePolygon:
		if len(lonLat) == 0 {
			return ErrEmptyPolygon
		}
		sel := s.selection
		if sel == nil {
			return ErrNoSelection
		}
		if sel.AnchorIndex >= s.route.Len() {
			s.selection = nil
			return fmt.Errorf("%w: %d not in [0, %d)", ErrAnchorOutOfRange, sel.AnchorIndex, s.route.Len())
		}
		s.route.InsertPolygon(lonLat, sel.AnchorIndex, sel.Side)
		s.selection = nil
		metrics.RouteOperationsTotal.WithLabelValues("insert_polygon").Inc()
		metrics.PolygonVertices.Observe(float64(len(lonLat)))
		s.logger.Infow("Polygon inserted",
			"anchor_index", sel.AnchorIndex, "side", sel.Side,
			"vertices", len(lonLat), "waypoints", s.route.Len())

	default:
		return ErrNoCapture
	}

	s.capture = CaptureNone
	return nil
}

// Snapshot returns the current route and selection state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.ID,
		Waypoints:     s.route.Waypoints(),
		Capture:       s.capture,
		TotalDistance: s.route.TotalDistance(),
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
	}
	return snap
}

func (s *Session) close() {
	s.mu.Lock()
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
