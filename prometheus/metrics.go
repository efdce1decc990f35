package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"pms-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Email verification counter
	VerificationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_email_verification_total",
			Help: "Total number of email verification attempts",
		},
	)

	// Password reset counter
	PasswordResetCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_password_reset_total",
			Help: "Total number of password reset operations",
		},
		[]string{"step"}, // step can be "request" or "reset"
	)

	// Leave operation counter
	LeaveOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_leave_operations_total",
			Help: "Total number of leave request operations",
		},
		[]string{"operation"}, // operation can be "submit", "approve", "reject", "list"
	)

	// Payslip generation counter
	PayslipCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pms_payslips_generated_total",
			Help: "Total number of payslips generated",
		},
	)

	// Attendance punch counter
	AttendanceCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_attendance_punches_total",
			Help: "Total number of attendance clock punches",
		},
		[]string{"direction"}, // direction is "in" or "out"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	// Auth operation counter
	AuthOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pms_auth_operations_total",
			Help: "Total number of authentication operations",
		},
		[]string{"operation"}, // operation can be "sign_out", "password_change", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pms_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pms_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active sessions
	ActiveSessionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pms_active_sessions",
			Help: "Number of currently active sessions",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pms_info",
			Help: "Information about the personnel management service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(VerificationCounter)
	prometheus.MustRegister(PasswordResetCounter)
	prometheus.MustRegister(LeaveOperationCounter)
	prometheus.MustRegister(PayslipCounter)
	prometheus.MustRegister(AttendanceCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthOperationCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveSessionsGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// InitMetrics applies metrics configuration at startup
func InitMetrics(cfg *config.Config) {
	// Prefix is reserved for push-gateway style deployments; registration
	// happens in init so the handler works without configuration.
	_ = cfg
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

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
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

// IncreaseActiveSessions increments the active sessions gauge
func IncreaseActiveSessions() {
	ActiveSessionsGauge.Inc()
}

// DecreaseActiveSessions decrements the active sessions gauge
func DecreaseActiveSessions() {
	ActiveSessionsGauge.Dec()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthOperation records an authentication operation by type
func RecordAuthOperation(operation string) {
	AuthOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordLeaveOperation records a leave request operation
func RecordLeaveOperation(operation string) {
	LeaveOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordPasswordReset records a password reset step
func RecordPasswordReset(step string) {
	PasswordResetCounter.With(prometheus.Labels{"step": step}).Inc()
}

// RecordAttendancePunch records a clock-in or clock-out
func RecordAttendancePunch(direction string) {
	AttendanceCounter.With(prometheus.Labels{"direction": direction}).Inc()
}
