package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_ws_connections",
		Help: "Current number of active websocket connections",
	})
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "watchparty_active_rooms",
		Help: "Current number of rooms with live state",
	})
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watchparty_events_total",
		Help: "Total number of realtime events processed",
	}, []string{"type"})
	ChatMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "watchparty_chat_messages_total",
		Help: "Total number of room chat messages relayed",
	})
	DirectMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "watchparty_direct_messages_total",
		Help: "Total number of private messages relayed",
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
	prometheus.MustRegister(WsConnections, ActiveRooms, EventsTotal, ChatMessagesTotal, DirectMessagesTotal, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 统计基础请求指标，供 Prometheus 拉取。
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
