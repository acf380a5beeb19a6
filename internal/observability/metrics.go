package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agent_gateway_active_connections",
		Help: "Number of active voice WebSocket connections",
	})

	totalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_gateway_connections_total",
		Help: "Total number of voice connections accepted",
	})

	// Turn metrics
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_turns_total",
		Help: "Total number of voice turns processed",
	}, []string{"status"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_gateway_turn_duration_seconds",
		Help:    "End-to-end duration of a voice turn in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// STT metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_stt_requests_total",
		Help: "Total number of STT requests",
	}, []string{"status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_gateway_stt_latency_seconds",
		Help:    "STT processing latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_tts_requests_total",
		Help: "Total number of TTS requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_gateway_tts_latency_seconds",
		Help:    "TTS processing latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Upstream agent metrics
	agentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_agent_requests_total",
		Help: "Total number of upstream agent queries",
	}, []string{"status"})

	agentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_gateway_agent_latency_seconds",
		Help:    "Upstream agent stream duration in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agent_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// Artifact metrics
	artifactsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_gateway_artifacts_swept_total",
		Help: "Total number of expired audio artifacts removed by the sweep",
	})
)

// ConnMetrics tracks metrics for a single client connection
type ConnMetrics struct {
	connectionID string
	turnStart    time.Time
	sttStart     time.Time
	ttsStart     time.Time
	agentStart   time.Time
	mu           sync.Mutex
}

// NewConnMetrics creates a new metrics tracker for a connection
func NewConnMetrics(connectionID string) *ConnMetrics {
	return &ConnMetrics{connectionID: connectionID}
}

// RecordConnect records a newly accepted connection
func (m *ConnMetrics) RecordConnect() {
	activeConnections.Inc()
	totalConnections.Inc()
}

// RecordDisconnect records a closed connection
func (m *ConnMetrics) RecordDisconnect() {
	activeConnections.Dec()
}

// RecordTurnStart records the start of a voice turn
func (m *ConnMetrics) RecordTurnStart() {
	m.mu.Lock()
	m.turnStart = time.Now()
	m.mu.Unlock()
}

// RecordTurnEnd records the end of a voice turn
func (m *ConnMetrics) RecordTurnEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.turnStart.IsZero() {
		turnDuration.Observe(time.Since(m.turnStart).Seconds())
	}
	turnsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordSTTStart records the start of STT processing
func (m *ConnMetrics) RecordSTTStart() {
	m.mu.Lock()
	m.sttStart = time.Now()
	m.mu.Unlock()
}

// RecordSTTEnd records the end of STT processing
func (m *ConnMetrics) RecordSTTEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sttStart.IsZero() {
		sttLatency.Observe(time.Since(m.sttStart).Seconds())
	}
	sttRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordTTSStart records the start of TTS processing
func (m *ConnMetrics) RecordTTSStart() {
	m.mu.Lock()
	m.ttsStart = time.Now()
	m.mu.Unlock()
}

// RecordTTSEnd records the end of TTS processing
func (m *ConnMetrics) RecordTTSEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ttsStart.IsZero() {
		ttsLatency.Observe(time.Since(m.ttsStart).Seconds())
	}
	ttsRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordAgentStart records the start of an upstream agent query
func (m *ConnMetrics) RecordAgentStart() {
	m.mu.Lock()
	m.agentStart = time.Now()
	m.mu.Unlock()
}

// RecordAgentEnd records the end of an upstream agent query
func (m *ConnMetrics) RecordAgentEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.agentStart.IsZero() {
		agentLatency.Observe(time.Since(m.agentStart).Seconds())
	}
	agentRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordError records an error
func (m *ConnMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordArtifactsSwept records removed audio artifacts
func RecordArtifactsSwept(n int) {
	artifactsSwept.Add(float64(n))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
