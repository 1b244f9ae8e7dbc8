package services

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suryamshetty/marine-draw/internal/metrics"
)

// NewRouter wires the HTTP API, metrics endpoint and homepage
func NewRouter(missions *MissionService, logger *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/", homepageHandler)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	missions.RegisterRoutes(r.Group("/api/v1"))

	return r
}

// requestLogger records request latency per route template
func requestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RequestDurationMs.WithLabelValues(path).Observe(float64(elapsed.Microseconds()) / 1000)
		logger.Debugw("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", elapsed)
	}
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(c *gin.Context) {
	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>marine-draw</title>
    <style>
        body { 
            font-family: 'Courier New', Consolas, monospace; 
            background: #000; 
            color: #0f0; 
            padding: 20px; 
            line-height: 1.4; 
        }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">marine-draw</span>

Mission planning API: draw a route, splice survey polygons into it.

<span class="header">API Endpoints:</span>

  POST   /api/v1/sessions                           - Start a planning session
  GET    /api/v1/sessions/{id}                      - Waypoints, selection, capture state
  DELETE /api/v1/sessions/{id}                      - Discard a session
  PUT    /api/v1/sessions/{id}/selection            - {"anchor_index": 0, "side": "before|after"}
  DELETE /api/v1/sessions/{id}/selection            - Clear the insertion point
  POST   /api/v1/sessions/{id}/capture              - {"kind": "line|polygon"}
  DELETE /api/v1/sessions/{id}/capture              - Cancel drawing
  POST   /api/v1/sessions/{id}/capture/commit       - {"geometry": GeoJSON, "projection": "EPSG:3857"}
  GET    /api/v1/sessions/{id}/export.geojson       - Route as GeoJSON
  GET    /api/v1/sessions/{id}/export.kml           - Route as KML
  GET    /api/v1/sessions/{id}/export.polyline      - Route as encoded polyline
  GET    /api/v1/sessions/{id}/ws                   - Live route updates (websocket)
  GET    /metrics                                   - Prometheus metrics
</pre>
</body>
</html>`

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := fmt.Fprint(c.Writer, html); err != nil {
		_ = c.Error(err)
	}
}
