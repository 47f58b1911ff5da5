package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry           *prometheus.Registry
	registryOnce       sync.Once
	defaultMetricsPath = "/metrics"
	metricsEnabled     = true

	// Classification metrics
	ClassificationsTotal  *prometheus.CounterVec
	ClassificationLatency *prometheus.HistogramVec
	EscalationsTotal      *prometheus.CounterVec

	// Full-duplex metrics
	OverlapResolutions *prometheus.CounterVec
	MixerRamps         *prometheus.CounterVec
	DuplexStateChanges prometheus.Counter

	// Discourse metrics
	PhaseTransitions *prometheus.CounterVec
	TopicShifts      prometheus.Counter

	// Session metrics
	SessionsActive   prometheus.Gauge
	SessionsCreated  prometheus.Counter
	SessionsClosed   *prometheus.CounterVec
	SessionDuration  prometheus.Histogram
	WebSocketClients prometheus.Gauge
	RateLimited      *prometheus.CounterVec

	// AMQP metrics
	AMQPPublishedMessages *prometheus.CounterVec
	AMQPConnectionStatus  prometheus.Gauge
)

// Init creates and registers every metric. Calls after the first are no-ops.
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		ClassificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_classifications_total",
				Help: "Total number of classified utterances",
			},
			[]string{"classification", "intent", "language"},
		)

		ClassificationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "duplex_classification_latency_seconds",
				Help:    "Time taken to classify an utterance",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~20ms
			},
			[]string{"language"},
		)

		EscalationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_backchannel_escalations_total",
				Help: "Backchannel bursts reinterpreted as interruptions",
			},
			[]string{"language"},
		)

		OverlapResolutions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_overlap_resolutions_total",
				Help: "Overlap resolutions issued by the full-duplex manager",
			},
			[]string{"action", "reason"},
		)

		MixerRamps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_mixer_operations_total",
				Help: "Gain operations applied to the AI channel",
			},
			[]string{"operation"},
		)

		DuplexStateChanges = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "duplex_state_changes_total",
				Help: "Observable duplex state changes",
			},
		)

		PhaseTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_discourse_phase_transitions_total",
				Help: "Discourse phase transitions",
			},
			[]string{"from", "to"},
		)

		TopicShifts = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "duplex_discourse_topic_shifts_total",
				Help: "Detected topic shifts",
			},
		)

		SessionsActive = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplex_sessions_active",
				Help: "Number of open conversation sessions",
			},
		)

		SessionsCreated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "duplex_sessions_created_total",
				Help: "Conversation sessions created",
			},
		)

		SessionsClosed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_sessions_closed_total",
				Help: "Conversation sessions closed",
			},
			[]string{"reason"},
		)

		SessionDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "duplex_session_duration_seconds",
				Help:    "Lifetime of conversation sessions",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5 hours
			},
		)

		WebSocketClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplex_websocket_clients",
				Help: "Connected session stream clients",
			},
		)

		RateLimited = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_http_rate_limited_total",
				Help: "Session API requests refused by the rate limiter",
			},
			[]string{"outcome"},
		)

		AMQPPublishedMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplex_amqp_published_messages_total",
				Help: "Events published to AMQP",
			},
			[]string{"event", "status"},
		)

		AMQPConnectionStatus = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "duplex_amqp_connection_status",
				Help: "AMQP connection status (1 connected, 0 disconnected)",
			},
		)

		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

			ClassificationsTotal,
			ClassificationLatency,
			EscalationsTotal,

			OverlapResolutions,
			MixerRamps,
			DuplexStateChanges,

			PhaseTransitions,
			TopicShifts,

			SessionsActive,
			SessionsCreated,
			SessionsClosed,
			SessionDuration,
			WebSocketClients,
			RateLimited,

			AMQPPublishedMessages,
			AMQPConnectionStatus,
		)

		if logger != nil {
			logger.Info("Prometheus metrics initialized")
		}
	})
}

// GetRegistry returns the prometheus registry, nil before Init
func GetRegistry() *prometheus.Registry {
	return registry
}

// SetMetricsPath sets the HTTP path for the metrics endpoint
func SetMetricsPath(path string) {
	defaultMetricsPath = path
}

// EnableMetrics enables or disables metrics collection
func EnableMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IsMetricsEnabled returns whether metrics are enabled
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// RegisterHandler mounts the metrics endpoint on mux
func RegisterHandler(mux *http.ServeMux) {
	if !metricsEnabled || registry == nil {
		return
	}
	handler := promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          registry,
		},
	)
	mux.Handle(defaultMetricsPath, handler)
}

// StartMetrics initializes collection, or disables it
func StartMetrics(logger *logrus.Logger, enabled bool) {
	if !enabled {
		EnableMetrics(false)
		logger.Info("Metrics collection is disabled")
		return
	}

	Init(logger)
	EnableMetrics(true)
	logger.WithField("metrics_path", defaultMetricsPath).Info("Metrics endpoint initialized")
}

// The Record helpers are safe to call before Init; they do nothing until the
// vectors exist.

// RecordClassification records one classified utterance
func RecordClassification(classification, intent, language string, latency time.Duration) {
	if metricsEnabled && ClassificationsTotal != nil {
		ClassificationsTotal.WithLabelValues(classification, intent, language).Inc()
		ClassificationLatency.WithLabelValues(language).Observe(latency.Seconds())
	}
}

// RecordEscalation records a backchannel escalation
func RecordEscalation(language string) {
	if metricsEnabled && EscalationsTotal != nil {
		EscalationsTotal.WithLabelValues(language).Inc()
	}
}

// RecordOverlapResolution records the action chosen for one update tick
func RecordOverlapResolution(action, reason string) {
	if metricsEnabled && OverlapResolutions != nil {
		OverlapResolutions.WithLabelValues(action, reason).Inc()
	}
}

// RecordMixerOperation records a duck, restore, fade or interrupt
func RecordMixerOperation(operation string) {
	if metricsEnabled && MixerRamps != nil {
		MixerRamps.WithLabelValues(operation).Inc()
	}
}

// RecordDuplexStateChange records an emitted state_change event
func RecordDuplexStateChange() {
	if metricsEnabled && DuplexStateChanges != nil {
		DuplexStateChanges.Inc()
	}
}

// RecordPhaseTransition records a discourse phase change
func RecordPhaseTransition(from, to string) {
	if metricsEnabled && PhaseTransitions != nil {
		PhaseTransitions.WithLabelValues(from, to).Inc()
	}
}

// RecordTopicShift records a discourse topic change
func RecordTopicShift() {
	if metricsEnabled && TopicShifts != nil {
		TopicShifts.Inc()
	}
}

// StartSessionTimer counts a new session and returns a function that records
// its closing reason and lifetime.
func StartSessionTimer() func(reason string) {
	if !metricsEnabled || SessionsActive == nil {
		return func(string) {}
	}

	SessionsCreated.Inc()
	SessionsActive.Inc()
	start := time.Now()
	return func(reason string) {
		SessionsActive.Dec()
		SessionsClosed.WithLabelValues(reason).Inc()
		SessionDuration.Observe(time.Since(start).Seconds())
	}
}

// TrackWebSocketClient increments the client gauge and returns its decrement
func TrackWebSocketClient() func() {
	if !metricsEnabled || WebSocketClients == nil {
		return func() {}
	}
	WebSocketClients.Inc()
	return WebSocketClients.Dec
}

// RecordRateLimited records a refused request. outcome is "limited" for the
// request that emptied the bucket and "blocked" while the client is blocked.
func RecordRateLimited(outcome string) {
	if metricsEnabled && RateLimited != nil {
		RateLimited.WithLabelValues(outcome).Inc()
	}
}

// RecordAMQPPublish records metrics for an AMQP publish
func RecordAMQPPublish(event, status string) {
	if metricsEnabled && AMQPPublishedMessages != nil {
		AMQPPublishedMessages.WithLabelValues(event, status).Inc()
	}
}

// SetAMQPConnectionStatus sets the AMQP connection status
func SetAMQPConnectionStatus(connected bool) {
	if !metricsEnabled || AMQPConnectionStatus == nil {
		return
	}
	if connected {
		AMQPConnectionStatus.Set(1)
	} else {
		AMQPConnectionStatus.Set(0)
	}
}
