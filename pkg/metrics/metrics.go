// Package metrics exposes Prometheus collectors for the surfer: tool
// invocations, model requests, turn latency and blocked navigations.
//
// A nil *Collector is valid and records nothing, so components can take an
// optional collector without nil checks at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "surfer"

// Outcome labels for tool invocations and model requests.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds the surfer's metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	toolCalls          *prometheus.CounterVec
	llmRequests        *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokens          *prometheus.CounterVec
	turnDuration       prometheus.Histogram
	navigationsBlocked prometheus.Counter
}

// NewCollector creates a collector registered on its own registry, along with
// the Go runtime and process collectors.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Browser tool invocations by tool and outcome",
			},
			[]string{"tool", "outcome"},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Model requests by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		llmRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Model request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Tokens consumed by model and type (prompt, completion)",
			},
			[]string{"model", "type"},
		),
		turnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of one surfer turn, from observation to reply",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		navigationsBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_blocked_total",
				Help:      "HTML navigations replaced by the blocked page",
			},
		),
	}
}

// RecordToolCall counts one tool invocation.
func (c *Collector) RecordToolCall(tool string, err error) {
	if c == nil {
		return
	}
	c.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

// RecordLLMRequest records a model request's latency, outcome and token usage.
func (c *Collector) RecordLLMRequest(model string, duration time.Duration, promptTokens, completionTokens int, err error) {
	if c == nil {
		return
	}
	c.llmRequests.WithLabelValues(model, outcome(err)).Inc()
	c.llmRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		c.llmTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.llmTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
}

// ObserveTurn records the duration of one turn.
func (c *Collector) ObserveTurn(duration time.Duration) {
	if c == nil {
		return
	}
	c.turnDuration.Observe(duration.Seconds())
}

// RecordNavigationBlocked counts one blocked navigation.
func (c *Collector) RecordNavigationBlocked() {
	if c == nil {
		return
	}
	c.navigationsBlocked.Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
