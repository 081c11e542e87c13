package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metric collectors for the Trellis server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Auth metrics.
	AuthFailuresTotal  *prometheus.CounterVec
	AuthSuccessesTotal *prometheus.CounterVec

	// Rate limiting.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Permission checks.
	PermissionDenialsTotal *prometheus.CounterVec

	// Reminder engine.
	ReminderClassificationsTotal *prometheus.CounterVec

	// Activity collector.
	ActivityBufferSize   prometheus.Gauge
	ActivityFlushesTotal *prometheus.CounterVec
	ActivityEventsTotal  prometheus.Counter

	// Integrations.
	IntegrationRequestsTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trellis_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		PermissionDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_permission_denials_total",
			Help: "Total number of denied garden capability checks.",
		}, []string{"capability"}),

		ReminderClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_reminder_classifications_total",
			Help: "Total number of schedule due-status classifications served.",
		}, []string{"status"}),

		ActivityBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trellis_activity_buffer_size",
			Help: "Current number of buffered activity events.",
		}),

		ActivityFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_activity_flushes_total",
			Help: "Total number of activity collector flushes.",
		}, []string{"status"}),

		ActivityEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trellis_activity_events_total",
			Help: "Total number of activity events recorded.",
		}),

		IntegrationRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trellis_integration_requests_total",
			Help: "Total number of outbound integration calls.",
		}, []string{"integration", "status"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trellis_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.RateLimitRejectionsTotal,
		m.PermissionDenialsTotal,
		m.ReminderClassificationsTotal,
		m.ActivityBufferSize,
		m.ActivityFlushesTotal,
		m.ActivityEventsTotal,
		m.IntegrationRequestsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncPermissionDenial increments the denied capability check counter.
func (m *Metrics) IncPermissionDenial(capability string) {
	m.PermissionDenialsTotal.WithLabelValues(capability).Inc()
}

// IncReminderClassification counts a served due-status classification.
func (m *Metrics) IncReminderClassification(status string) {
	m.ReminderClassificationsTotal.WithLabelValues(status).Inc()
}

// IncIntegrationRequest counts an outbound integration call by result.
func (m *Metrics) IncIntegrationRequest(integration, status string) {
	m.IntegrationRequestsTotal.WithLabelValues(integration, status).Inc()
}

// SetActivityBufferSize records the current activity collector buffer length.
func (m *Metrics) SetActivityBufferSize(n int) {
	m.ActivityBufferSize.Set(float64(n))
}

// IncActivityFlush counts an activity batch flush by outcome ("ok" or "error").
func (m *Metrics) IncActivityFlush(status string) {
	m.ActivityFlushesTotal.WithLabelValues(status).Inc()
}

// AddActivityEvents counts events successfully written to the feed.
func (m *Metrics) AddActivityEvents(n int) {
	m.ActivityEventsTotal.Add(float64(n))
}
