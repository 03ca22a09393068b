package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blogpulse_ws_connections",
		Help: "Current number of active websocket room connections",
	})
	WsMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blogpulse_ws_comments_total",
		Help: "Total number of comments submitted over websocket",
	})
	ChatStreamChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blogpulse_chat_stream_chunks_total",
		Help: "Total number of streamed completion chunks relayed to clients",
	})
	ChatCompletionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blogpulse_chat_completion_errors_total",
		Help: "Total number of upstream chat completion failures",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, WsMessagesTotal, ChatStreamChunks,
		ChatCompletionErrors, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 統計基礎請求指標，供 Prometheus 拉取
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
