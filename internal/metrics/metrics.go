package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogicum_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogicum_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EntityWrites counts successful writes, e.g. ("post", "create").
	EntityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogicum_entity_writes_total",
			Help: "Successful writes by entity and operation",
		},
		[]string{"entity", "operation"},
	)

	SearchIndexErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blogicum_search_index_errors_total",
			Help: "Failed search index updates",
		},
	)
)

// Middleware records request counts and latency labelled by the matched
// route pattern, so path parameters do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordWrite(entity, operation string) {
	EntityWrites.WithLabelValues(entity, operation).Inc()
}
