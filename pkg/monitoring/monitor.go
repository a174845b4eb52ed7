package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 准入码核销结果计数（success 或稳定原因码）
	VerificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_verification_total",
			Help: "Access credential verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	// 监考违规计数，按严重度
	ViolationsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctoring_violations_total",
			Help: "Proctoring violations recorded by severity",
		},
		[]string{"severity"},
	)

	// 会话终止计数，按终态与终止原因
	SessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_closed_total",
			Help: "Assessment sessions reaching a terminal state",
		},
		[]string{"status", "reason"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(VerificationOutcomes)
	prometheus.MustRegister(ViolationsRecorded)
	prometheus.MustRegister(SessionsClosed)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
