package services

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/suryamshetty/marine-draw/internal/config"
	"github.com/suryamshetty/marine-draw/internal/lib/geo"
	"github.com/suryamshetty/marine-draw/internal/lib/route"
	"github.com/suryamshetty/marine-draw/internal/render"
	"github.com/suryamshetty/marine-draw/internal/session"
)

// MissionService exposes planning sessions over HTTP
type MissionService struct {
	store      *session.Store
	projection geo.Projection
	logger     *zap.SugaredLogger
	upgrader   websocket.Upgrader

	mu           sync.Mutex
	broadcasters map[string]*Broadcaster
}

// SessionResponse is the rendered state of a session
type SessionResponse struct {
	ID            string             `json:"id"`
	Waypoints     []render.View      `json:"waypoints"`
	Selection     *session.Selection `json:"selection,omitempty"`
	Capture       string             `json:"capture,omitempty"`
	TotalDistance string             `json:"total_distance"`
}

// SelectionRequest picks the anchor for the next polygon
type SelectionRequest struct {
	AnchorIndex *int   `json:"anchor_index" binding:"required"`
	Side        string `json:"side" binding:"required"`
}

// CaptureRequest starts a drawing interaction
type CaptureRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// CommitRequest carries the geometry produced by a finished drawing interaction.
// Projection defaults to the configured input projection.
type CommitRequest struct {
	Geometry   *geojson.Geometry `json:"geometry" binding:"required"`
	Projection string            `json:"projection"`
}

// NewMissionService creates the HTTP handlers for sessions held in store
func NewMissionService(store *session.Store, cfg config.MapConfig, logger *zap.SugaredLogger) (*MissionService, error) {
	projection, err := geo.ParseProjection(cfg.InputProjection)
	if err != nil {
		return nil, fmt.Errorf("map.input_projection: %w", err)
	}

	return &MissionService{
		store:        store,
		projection:   projection,
		logger:       logger,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		broadcasters: make(map[string]*Broadcaster),
	}, nil
}

// RegisterRoutes mounts the session API on r
func (s *MissionService) RegisterRoutes(r gin.IRouter) {
	r.POST("/sessions", s.CreateSession)
	r.GET("/sessions/:id", s.GetSession)
	r.DELETE("/sessions/:id", s.DeleteSession)

	r.PUT("/sessions/:id/selection", s.SelectInsertion)
	r.DELETE("/sessions/:id/selection", s.ClearSelection)

	r.POST("/sessions/:id/capture", s.BeginCapture)
	r.DELETE("/sessions/:id/capture", s.CancelCapture)
	r.POST("/sessions/:id/capture/commit", s.CommitCapture)

	r.GET("/sessions/:id/export.geojson", s.ExportGeoJSON)
	r.GET("/sessions/:id/export.kml", s.ExportKML)
	r.GET("/sessions/:id/export.polyline", s.ExportPolyline)

	r.GET("/sessions/:id/ws", s.Subscribe)
}

// CreateSession starts an empty planning session
func (s *MissionService) CreateSession(c *gin.Context) {
	sess, err := s.store.Create(func(sess *session.Session) {
		b := NewBroadcaster(s.logger.With("session", sess.ID))
		sess.Subscribe(b)

		s.mu.Lock()
		s.broadcasters[sess.ID] = b
		s.mu.Unlock()

		id := sess.ID
		sess.OnClose(func() {
			b.Close()
			s.mu.Lock()
			delete(s.broadcasters, id)
			s.mu.Unlock()
		})
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(sess.Snapshot()))
}

// GetSession returns the session's route and selection state
func (s *MissionService) GetSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// DeleteSession discards a session and disconnects its subscribers
func (s *MissionService) DeleteSession(c *gin.Context) {
	if !s.store.Delete(c.Param("id")) {
		s.fail(c, session.ErrSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectInsertion records the anchor and side for the next polygon
func (s *MissionService) SelectInsertion(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.Select(*req.AnchorIndex, route.Side(req.Side)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// ClearSelection drops a pending selection
func (s *MissionService) ClearSelection(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.ClearSelection()
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// BeginCapture starts a line or polygon drawing interaction
func (s *MissionService) BeginCapture(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.BeginCapture(session.CaptureKind(req.Kind)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// CancelCapture ends a drawing interaction without changing the route
func (s *MissionService) CancelCapture(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.CancelCapture()
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// CommitCapture applies the drawn geometry to the route
func (s *MissionService) CommitCapture(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projection := s.projection
	if req.Projection != "" {
		p, err := geo.ParseProjection(req.Projection)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		projection = p
	}

	points, err := geo.FromOrbGeometry(req.Geometry.Geometry())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := sess.CommitCapture(points, projection); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess.Snapshot()))
}

// ExportGeoJSON returns the route as a GeoJSON FeatureCollection
func (s *MissionService) ExportGeoJSON(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	data, err := render.GeoJSON(sess.ID, sess.Snapshot().Waypoints)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// ExportKML returns the route as a KML document
func (s *MissionService) ExportKML(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.KML(&buf, sess.ID, sess.Snapshot().Waypoints); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/vnd.google-earth.kml+xml", buf.Bytes())
}

// ExportPolyline returns the route as a Google encoded polyline
func (s *MissionService) ExportPolyline(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, render.EncodePolyline(sess.Snapshot().Waypoints))
}

// Subscribe upgrades to a websocket that receives the full route after every change
func (s *MissionService) Subscribe(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	s.mu.Lock()
	b := s.broadcasters[sess.ID]
	s.mu.Unlock()
	if b == nil {
		s.fail(c, session.ErrSessionNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Warnw("Websocket upgrade failed", "session", sess.ID, "error", err)
		return
	}

	s.logger.Infow("Websocket subscriber connected", "session", sess.ID)
	b.Serve(conn)
	s.logger.Infow("Websocket subscriber disconnected", "session", sess.ID)
}

func (s *MissionService) session(c *gin.Context) (*session.Session, bool) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

func (s *MissionService) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNoCapture), errors.Is(err, session.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, session.ErrAnchorOutOfRange),
		errors.Is(err, session.ErrInvalidSide),
		errors.Is(err, session.ErrInvalidCapture),
		errors.Is(err, session.ErrEmptyPolygon):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newSessionResponse(snap session.Snapshot) SessionResponse {
	return SessionResponse{
		ID:            snap.ID,
		Waypoints:     render.Views(snap.Waypoints),
		Selection:     snap.Selection,
		Capture:       string(snap.Capture),
		TotalDistance: formatDistance(snap.TotalDistance),
	}
}

func formatDistance(meters float64) string {
	return strconv.FormatFloat(meters, 'f', 2, 64)
}
