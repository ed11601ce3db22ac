// Copyright 2026 Sage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the Reactive Loop, the LLM
// Transport, the Parallel Executor, the Trajectory Log, and the
// Supervisor.
type Metrics struct {
	registry *prometheus.Registry

	stepsTotal      *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	executionsTotal *prometheus.CounterVec

	llmCalls         *prometheus.CounterVec
	llmCallDuration  *prometheus.HistogramVec
	llmTokensInput   *prometheus.CounterVec
	llmTokensOutput  *prometheus.CounterVec
	llmRetries       *prometheus.CounterVec

	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	toolErrors       *prometheus.CounterVec

	trajectoryWrites *prometheus.CounterVec

	supervisorRestarts  *prometheus.CounterVec
	supervisorEscalated *prometheus.CounterVec
}

// NewMetrics builds a Metrics instance registered against its own
// prometheus.Registry (not the global default, so multiple Managers in
// the same process — e.g. one per test — never collide on metric names).
func NewMetrics(cfg MetricsConfig) *Metrics {
	cfg.setDefaults()
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.stepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "loop", Name: "steps_total",
		Help: "Total number of Reactive Loop steps executed, labeled by terminal state.",
	}, []string{"state"})

	m.stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "loop", Name: "step_duration_seconds",
		Help:    "Step duration in seconds, Thinking start to ToolExecution end.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{})

	m.executionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "loop", Name: "executions_total",
		Help: "Total number of completed executions, labeled by outcome.",
	}, []string{"outcome"})

	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "calls_total",
		Help: "Total number of LLM provider calls, labeled by provider and outcome.",
	}, []string{"provider", "model", "outcome"})

	m.llmCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "call_duration_seconds",
		Help:    "LLM provider call duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"provider", "model"})

	m.llmTokensInput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "tokens_input_total",
		Help: "Total input tokens consumed.",
	}, []string{"provider", "model"})

	m.llmTokensOutput = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "tokens_output_total",
		Help: "Total output tokens produced.",
	}, []string{"provider", "model"})

	m.llmRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "retries_total",
		Help: "Total LLM call retries, labeled by error classification.",
	}, []string{"provider", "class"})

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "tool", Name: "calls_total",
		Help: "Total tool calls, labeled by tool name and success.",
	}, []string{"tool", "success"})

	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "tool", Name: "call_duration_seconds",
		Help:    "Tool call duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
	}, []string{"tool"})

	m.toolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "tool", Name: "errors_total",
		Help: "Total tool call errors, labeled by tool name and error kind.",
	}, []string{"tool", "kind"})

	m.trajectoryWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "trajectory", Name: "writes_total",
		Help: "Total trajectory record writes, labeled by success.",
	}, []string{"success"})

	m.supervisorRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "supervisor", Name: "restarts_total",
		Help: "Total supervised-loop restarts, labeled by policy kind.",
	}, []string{"policy"})

	m.supervisorEscalated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "supervisor", Name: "escalations_total",
		Help: "Total supervised-loop escalations, labeled by policy kind.",
	}, []string{"policy"})

	m.registry.MustRegister(
		m.stepsTotal, m.stepDuration, m.executionsTotal,
		m.llmCalls, m.llmCallDuration, m.llmTokensInput, m.llmTokensOutput, m.llmRetries,
		m.toolCalls, m.toolCallDuration, m.toolErrors,
		m.trajectoryWrites,
		m.supervisorRestarts, m.supervisorEscalated,
	)
	return m
}

// Handler returns the HTTP handler a host should mount at the configured
// metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordStep(state string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(state).Inc()
	m.stepDuration.WithLabelValues().Observe(dur.Seconds())
}

func (m *Metrics) RecordExecution(outcome string) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLLMCall(provider, model, outcome string, dur time.Duration, tokensIn, tokensOut int) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, model, outcome).Inc()
	m.llmCallDuration.WithLabelValues(provider, model).Observe(dur.Seconds())
	if tokensIn > 0 {
		m.llmTokensInput.WithLabelValues(provider, model).Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		m.llmTokensOutput.WithLabelValues(provider, model).Add(float64(tokensOut))
	}
}

func (m *Metrics) RecordLLMRetry(provider, class string) {
	if m == nil {
		return
	}
	m.llmRetries.WithLabelValues(provider, class).Inc()
}

func (m *Metrics) RecordToolCall(tool string, success bool, dur time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, boolLabel(success)).Inc()
	m.toolCallDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

func (m *Metrics) RecordToolError(tool, kind string) {
	if m == nil {
		return
	}
	m.toolErrors.WithLabelValues(tool, kind).Inc()
}

func (m *Metrics) RecordTrajectoryWrite(success bool) {
	if m == nil {
		return
	}
	m.trajectoryWrites.WithLabelValues(boolLabel(success)).Inc()
}

func (m *Metrics) RecordSupervisorRestart(policy string) {
	if m == nil {
		return
	}
	m.supervisorRestarts.WithLabelValues(policy).Inc()
}

func (m *Metrics) RecordSupervisorEscalation(policy string) {
	if m == nil {
		return
	}
	m.supervisorEscalated.WithLabelValues(policy).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
