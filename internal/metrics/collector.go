package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector manages all Prometheus metrics for the bot
type Collector struct {
	commandsTotal       *prometheus.CounterVec
	commandDuration     *prometheus.HistogramVec
	messagesStoredTotal prometheus.Counter
	voiceNotesTotal     *prometheus.CounterVec

	llmRequestDuration *prometheus.HistogramVec
	llmTokensTotal     *prometheus.CounterVec

	cleanupRemovedTotal prometheus.Counter
	cleanupDuration     prometheus.Histogram

	queueDepth       *prometheus.GaugeVec
	activeChatsGauge prometheus.Gauge

	mu          sync.Mutex
	activeChats map[int64]time.Time
}

// NewCollector creates a collector registered on the global registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(nil)
}

// NewCollectorWithRegistry creates a collector on a custom registry. A nil
// registry means the default global one. Tests pass their own registry so
// collectors don't collide.
func NewCollectorWithRegistry(registry *prometheus.Registry) *Collector {
	var factory promauto.Factory
	if registry == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	} else {
		factory = promauto.With(registry)
	}

	return &Collector{
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_commands_total",
				Help: "Total number of bot commands processed",
			},
			[]string{"command", "status"},
		),

		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bot_command_duration_seconds",
				Help:    "Time spent processing commands",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command", "status"},
		),

		messagesStoredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_messages_stored_total",
				Help: "Total number of messages archived",
			},
		),

		voiceNotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_voice_notes_total",
				Help: "Total number of voice notes handled",
			},
			[]string{"status"},
		),

		llmRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bot_llm_request_duration_seconds",
				Help:    "Time spent on LLM requests",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"operation", "status"},
		),

		llmTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_llm_tokens_total",
				Help: "Total LLM tokens consumed",
			},
			[]string{"operation", "direction"},
		),

		cleanupRemovedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_cleanup_removed_messages_total",
				Help: "Total number of messages removed by retention sweeps",
			},
		),

		cleanupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bot_cleanup_duration_seconds",
				Help:    "Time spent on retention sweeps",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 60},
			},
		),

		queueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bot_queue_depth",
				Help: "Current depth of the worker queues",
			},
			[]string{"queue"},
		),

		activeChatsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bot_active_chats",
				Help: "Number of chats with recent activity",
			},
		),

		activeChats: make(map[int64]time.Time),
	}
}

// RecordCommand records one processed command and marks the chat active.
func (m *Collector) RecordCommand(chatID int64, command, status string, duration time.Duration) {
	m.commandsTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command, status).Observe(duration.Seconds())

	m.mu.Lock()
	m.activeChats[chatID] = time.Now()
	m.mu.Unlock()

	m.updateActiveChatsGauge()
}

// RecordMessageStored counts one archived message.
func (m *Collector) RecordMessageStored() {
	m.messagesStoredTotal.Inc()
}

// RecordVoiceNote counts one handled voice note by outcome.
func (m *Collector) RecordVoiceNote(status string) {
	m.voiceNotesTotal.WithLabelValues(status).Inc()
}

// RecordLLMRequest records duration and token usage for an LLM call.
func (m *Collector) RecordLLMRequest(operation, status string, duration time.Duration, promptTokens, completionTokens int) {
	m.llmRequestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(operation, "input").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(operation, "output").Add(float64(completionTokens))
	}
}

// RecordCleanup records the outcome of one retention sweep.
func (m *Collector) RecordCleanup(removed int, duration time.Duration) {
	m.cleanupRemovedTotal.Add(float64(removed))
	m.cleanupDuration.Observe(duration.Seconds())
}

// UpdateQueueDepth sets the current depth of a named worker queue.
func (m *Collector) UpdateQueueDepth(queue string, depth int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// updateActiveChatsGauge drops chats idle for more than 5 minutes.
func (m *Collector) updateActiveChatsGauge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-5 * time.Minute)
	for chatID, lastSeen := range m.activeChats {
		if lastSeen.Before(cutoff) {
			delete(m.activeChats, chatID)
		}
	}
	m.activeChatsGauge.Set(float64(len(m.activeChats)))
}

// ActiveChatsCount returns the number of chats with recent activity.
func (m *Collector) ActiveChatsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeChats)
}
