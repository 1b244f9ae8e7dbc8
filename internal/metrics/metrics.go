package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RouteOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marine_route_operations_total",
		Help: "Route mutations by operation (build_line, insert_polygon)",
	}, []string{"op"})
	PolygonVertices = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marine_polygon_vertices",
		Help:    "Number of vertices spliced into a route per polygon insertion",
		Buckets: []float64{3, 4, 5, 8, 12, 20, 50, 100},
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marine_sessions_active",
		Help: "Planning sessions currently held in memory",
	})
	SessionsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marine_sessions_expired_total",
		Help: "Sessions removed after their idle timeout",
	})
	WebsocketSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marine_websocket_subscribers",
		Help: "Open websocket route subscriptions",
	})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marine_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(RouteOperationsTotal)
	prometheus.MustRegister(PolygonVertices)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SessionsExpiredTotal)
	prometheus.MustRegister(WebsocketSubscribers)
	prometheus.MustRegister(RequestDurationMs)
}

// Handler exposes the registered collectors for scraping
func Handler() http.Handler { return promhttp.Handler() }
