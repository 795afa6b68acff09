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

	// 吞掉的尽力而为副作用失败必须可观测：证书生成/上传失败计数
	CertificateFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_certificate_failures_total",
			Help: "Certificate render or upload failures (swallowed, enrollment state unaffected)",
		},
		[]string{"stage"},
	)

	// 邮件通知失败计数，按模板区分
	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_notification_failures_total",
			Help: "Outbound notification failures (swallowed)",
		},
		[]string{"template"},
	)

	IMOnlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lms_im_online_users",
			Help: "Number of users with a live WebSocket connection",
		},
	)

	IMMessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_im_messages_total",
			Help: "WebSocket messages by event and direction",
		},
		[]string{"event", "direction"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(CertificateFailures)
	prometheus.MustRegister(NotificationFailures)
	prometheus.MustRegister(IMOnlineUsers)
	prometheus.MustRegister(IMMessageCounter)
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
