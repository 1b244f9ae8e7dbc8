package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/suryamshetty/marine-draw/internal/lib/route"
	"github.com/suryamshetty/marine-draw/internal/metrics"
	"github.com/suryamshetty/marine-draw/internal/render"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

// RouteMessage is pushed to websocket subscribers whenever the route changes
type RouteMessage struct {
	Type          string        `json:"type"`
	Waypoints     []render.View `json:"waypoints"`
	TotalDistance string        `json:"total_distance"`
}

// Broadcaster is a session's websocket rendering collaborator. It hands every
// subscriber the full route after each change; new subscribers start with the latest one.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	latest      []byte
	closed      bool
	logger      *zap.SugaredLogger
}

type subscriber struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// NewBroadcaster creates a broadcaster whose latest state is an empty route
func NewBroadcaster(logger *zap.SugaredLogger) *Broadcaster {
	b := &Broadcaster{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger,
	}
	b.latest = b.encode(nil)
	return b
}

// Render implements route.Renderer
func (b *Broadcaster) Render(waypoints []route.Waypoint) {
	msg := b.encode(waypoints)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = msg
	for sub := range b.subscribers {
		select {
		case sub.send <- msg:
		default:
			// Slow reader; it still gets the next full route
			b.logger.Warnw("Dropped route update for slow websocket subscriber")
		}
	}
}

// Serve pushes route updates to conn until the client goes away or the broadcaster closes.
// It blocks for the lifetime of the connection.
func (b *Broadcaster) Serve(conn *websocket.Conn) {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	sub.send <- b.latest
	b.subscribers[sub] = struct{}{}
	metrics.WebsocketSubscribers.Inc()
	b.mu.Unlock()

	defer b.remove(sub)

	go sub.writeLoop(b.logger)

	// Drain client frames so close and ping/pong are processed
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Debugw("Websocket read failed", "error", err)
			}
			return
		}
	}
}

// Close disconnects all subscribers; later Serve calls return immediately
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		metrics.WebsocketSubscribers.Dec()
		sub.close()
	}
}

// Subscribers returns the number of connected clients
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

func (b *Broadcaster) remove(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		metrics.WebsocketSubscribers.Dec()
	}
	sub.close()
}

func (b *Broadcaster) encode(waypoints []route.Waypoint) []byte {
	msg, err := json.Marshal(RouteMessage{
		Type:          "route",
		Waypoints:     render.Views(waypoints),
		TotalDistance: formatDistance(route.TotalDistance(waypoints)),
	})
	if err != nil {
		b.logger.Errorw("Failed to encode route message", "error", err)
	}
	return msg
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.send) })
}

func (s *subscriber) writeLoop(logger *zap.SugaredLogger) {
	defer s.conn.Close()

	for msg := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugw("Websocket write failed", "error", err)
			return
		}
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
