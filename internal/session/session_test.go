package session

import (
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/suryamshetty/marine-draw/internal/lib/geo"
	"github.com/suryamshetty/marine-draw/internal/lib/route"
	"github.com/suryamshetty/marine-draw/internal/metrics"
)

func newTestSession(t *testing.T) *Session {
	return New("test-session", zaptest.NewLogger(t).Sugar())
}

var testLine = []geo.Point{
	{Longitude: -120.5436, Latitude: 38.0675}, // Angels Camp
	{Longitude: -120.4561, Latitude: 38.1391}, // Murphys
	{Longitude: -120.3486, Latitude: 38.2458}, // Arnold
}

var testPolygon = []geo.Point{
	{Longitude: -120.50, Latitude: 38.10},
	{Longitude: -120.49, Latitude: 38.10},
	{Longitude: -120.49, Latitude: 38.11},
	{Longitude: -120.50, Latitude: 38.10},
}

func TestSession_LineCapture(t *testing.T) {
	sess := newTestSession(t)

	require.NoError(t, sess.BeginCapture(CaptureLine))
	assert.Equal(t, CaptureLine, sess.Snapshot().Capture)

	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))

	snap := sess.Snapshot()
	assert.Equal(t, CaptureNone, snap.Capture, "Capture ends after commit")
	require.Len(t, snap.Waypoints, 3)
	assert.Equal(t, "WP(00)", snap.Waypoints[0].ID)
	assert.Equal(t, route.TotalDistance(snap.Waypoints), snap.TotalDistance)

	// A second commit needs a new capture
	assert.ErrorIs(t, sess.CommitCapture(testLine, geo.LonLat), ErrNoCapture)
}

func TestSession_LineCaptureConvertsWebMercator(t *testing.T) {
	sess := newTestSession(t)

	projected := make([]geo.Point, len(testLine))
	for i, p := range testLine {
		projected[i] = geo.FromLonLat(p)
	}

	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(projected, geo.WebMercator))

	waypoints := sess.Snapshot().Waypoints
	require.Len(t, waypoints, 3)
	for i, w := range waypoints {
		assert.InDelta(t, testLine[i].Longitude, w.Coordinates.Longitude, 1e-8)
		assert.InDelta(t, testLine[i].Latitude, w.Coordinates.Latitude, 1e-8)
	}
	assert.InDelta(t, geo.Distance(testLine[0], testLine[1]), waypoints[1].Distance, 0.01)
}

func TestSession_PolygonInsertion(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	original := sess.Snapshot().Waypoints

	// Polygon capture needs a selection first
	assert.ErrorIs(t, sess.BeginCapture(CapturePolygon), ErrNoSelection)

	require.NoError(t, sess.Select(1, route.After))
	assert.Equal(t, &Selection{AnchorIndex: 1, Side: route.After}, sess.Snapshot().Selection)

	require.NoError(t, sess.BeginCapture(CapturePolygon))
	require.NoError(t, sess.CommitCapture(testPolygon, geo.LonLat))

	snap := sess.Snapshot()
	assert.Nil(t, snap.Selection, "Selection is cleared after insertion")
	assert.Equal(t, CaptureNone, snap.Capture)
	require.Len(t, snap.Waypoints, len(testLine)+len(testPolygon))

	assert.Equal(t, original[1], snap.Waypoints[1])
	assert.Equal(t, "Poly(00)", snap.Waypoints[2].ID)
	assert.Equal(t, "Poly(03)", snap.Waypoints[5].ID)
	assert.Equal(t, original[2], snap.Waypoints[6])
	assert.InDelta(t, geo.Distance(original[1].Coordinates, testPolygon[0]), snap.Waypoints[2].Distance, 0.005)

	// A further insertion needs a fresh selection
	assert.ErrorIs(t, sess.BeginCapture(CapturePolygon), ErrNoSelection)
}

func TestSession_SelectValidation(t *testing.T) {
	sess := newTestSession(t)

	assert.ErrorIs(t, sess.Select(0, route.Before), ErrAnchorOutOfRange, "Empty route has no anchors")

	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))

	assert.ErrorIs(t, sess.Select(-1, route.Before), ErrAnchorOutOfRange)
	assert.ErrorIs(t, sess.Select(3, route.After), ErrAnchorOutOfRange)
	assert.ErrorIs(t, sess.Select(0, route.Side("inside")), ErrInvalidSide)
	assert.Nil(t, sess.Snapshot().Selection)

	require.NoError(t, sess.Select(2, route.After))
}

func TestSession_EmptyPolygonKeepsCapture(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	require.NoError(t, sess.Select(0, route.Before))
	require.NoError(t, sess.BeginCapture(CapturePolygon))

	assert.ErrorIs(t, sess.CommitCapture(nil, geo.LonLat), ErrEmptyPolygon)

	snap := sess.Snapshot()
	assert.Equal(t, CapturePolygon, snap.Capture)
	assert.NotNil(t, snap.Selection)
	assert.Len(t, snap.Waypoints, len(testLine))
}

func TestSession_LineCaptureClearsSelection(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	require.NoError(t, sess.Select(2, route.After))

	require.NoError(t, sess.BeginCapture(CaptureLine))
	assert.Nil(t, sess.Snapshot().Selection)

	// A shorter line cannot leave a stale anchor behind
	require.NoError(t, sess.CommitCapture(testLine[:1], geo.LonLat))
	assert.ErrorIs(t, sess.BeginCapture(CapturePolygon), ErrNoSelection)
}

func TestSession_SelectDuringLineCapture(t *testing.T) {
	sess := newTestSession(t)
	long := append(slices.Clone(testLine), geo.Point{Longitude: -120.30, Latitude: 38.30}, geo.Point{Longitude: -120.25, Latitude: 38.35})
	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(long, geo.LonLat))

	// Selecting while a new line is being drawn is allowed against the current route
	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.Select(4, route.After))

	require.NoError(t, sess.CommitCapture(testLine[:2], geo.LonLat))
	assert.Nil(t, sess.Snapshot().Selection, "Committing a line drops the old anchor")
	assert.ErrorIs(t, sess.BeginCapture(CapturePolygon), ErrNoSelection)

	require.NoError(t, sess.Select(1, route.After))
	require.NoError(t, sess.BeginCapture(CapturePolygon))
	assert.NotPanics(t, func() {
		assert.NoError(t, sess.CommitCapture([]geo.Point{{Longitude: 5, Latitude: 5}}, geo.LonLat))
	})
	assert.Len(t, sess.Snapshot().Waypoints, 3)
}

func TestSession_CancelAndClear(t *testing.T) {
	sess := newTestSession(t)
	assert.ErrorIs(t, sess.BeginCapture(CaptureKind("circle")), ErrInvalidCapture)

	require.NoError(t, sess.BeginCapture(CaptureLine))
	sess.CancelCapture()
	assert.ErrorIs(t, sess.CommitCapture(testLine, geo.LonLat), ErrNoCapture)

	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	require.NoError(t, sess.Select(0, route.Before))
	require.NoError(t, sess.BeginCapture(CapturePolygon))

	sess.ClearSelection()
	snap := sess.Snapshot()
	assert.Nil(t, snap.Selection)
	assert.Equal(t, CaptureNone, snap.Capture)
}

func TestSession_SubscribeAndClose(t *testing.T) {
	sess := newTestSession(t)

	var pushed []route.Waypoint
	sess.Subscribe(route.RendererFunc(func(w []route.Waypoint) { pushed = w }))

	closed := 0
	sess.OnClose(func() { closed++ })

	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	assert.Len(t, pushed, 3)

	sess.close()
	sess.close()
	assert.Equal(t, 1, closed, "Close hooks run once")
}

func TestSession_RecordsOperations(t *testing.T) {
	sess := newTestSession(t)
	lines := testutil.ToFloat64(metrics.RouteOperationsTotal.WithLabelValues("build_line"))
	polygons := testutil.ToFloat64(metrics.RouteOperationsTotal.WithLabelValues("insert_polygon"))

	require.NoError(t, sess.BeginCapture(CaptureLine))
	require.NoError(t, sess.CommitCapture(testLine, geo.LonLat))
	require.NoError(t, sess.Select(1, route.After))
	require.NoError(t, sess.BeginCapture(CapturePolygon))
	require.NoError(t, sess.CommitCapture(testPolygon, geo.LonLat))

	assert.Equal(t, lines+1, testutil.ToFloat64(metrics.RouteOperationsTotal.WithLabelValues("build_line")))
	assert.Equal(t, polygons+1, testutil.ToFloat64(metrics.RouteOperationsTotal.WithLabelValues("insert_polygon")))
}
