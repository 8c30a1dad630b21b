package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Webhook deliveries by platform and outcome. Outcome is one of
	// "created", "duplicate", "not_monitored", "not_task", "challenge",
	// "auth_failed", "config_missing", "skipped", "error".
	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhook_webhook_events_total",
			Help: "Total number of webhook deliveries by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// Task operations through the dashboard API
	TaskOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhook_task_operations_total",
			Help: "Total number of task operations",
		},
		[]string{"operation"}, // "create", "list", "update_status", "update_memo", "delete", "bulk_delete"
	)

	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskhook_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Notification sends by channel and result
	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhook_notifications_total",
			Help: "Total number of notification mail attempts",
		},
		[]string{"channel", "result"}, // channel "api"/"smtp", result "sent"/"failed"/"skipped"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhook_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhook_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhook_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhook_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskhook_info",
			Help: "Information about the taskhook service",
		},
		[]string{"version"},
	)

	// Active monitored rooms
	ActiveRoomsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskhook_active_rooms",
			Help: "Number of currently monitored rooms",
		},
	)
)

func init() {
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(TaskOperationCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(NotificationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(ErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveRoomsGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordWebhookEvent records a webhook delivery outcome
func RecordWebhookEvent(source, outcome string) {
	WebhookEventCounter.With(prometheus.Labels{"source": source, "outcome": outcome}).Inc()
}

// RecordTaskOperation records a task operation
func RecordTaskOperation(operation string) {
	TaskOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordNotification records a notification attempt
func RecordNotification(channel, result string) {
	NotificationCounter.With(prometheus.Labels{"channel": channel, "result": result}).Inc()
}

// RecordError records an error by type
func RecordError(errorType string) {
	ErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
