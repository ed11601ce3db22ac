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

// Package observability wires this module's execution to Prometheus
// metrics and OpenTelemetry tracing. Grounded on the teacher's
// pkg/observability (Config/TracingConfig/MetricsConfig shape,
// Manager-owns-tracer-and-metrics lifecycle, NewManager's enabled-gated
// initialization order) and scoped down from Hector's agent/RAG/memory/
// HTTP/session metric families to the Reactive Loop's own domain: steps,
// LLM calls, tool calls, trajectory writes, and supervisor restarts.
package observability

// Config configures the observability system.
type Config struct {
	Tracing TracingConfig `yaml:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Exporter selects the span exporter. "stdout" writes spans as JSON to
	// Writer (or os.Stderr by default); there is no other exporter in
	// this module's dependency surface — see DESIGN.md for why an OTLP
	// exporter was left out.
	Exporter     string  `yaml:"exporter,omitempty"`
	ServiceName  string  `yaml:"service_name,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty"`
}

func (t *TracingConfig) setDefaults() {
	if t.Exporter == "" {
		t.Exporter = "stdout"
	}
	if t.ServiceName == "" {
		t.ServiceName = "sage-core"
	}
	if t.SamplingRate == 0 {
		t.SamplingRate = 1.0
	}
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
}

func (m *MetricsConfig) setDefaults() {
	if m.Namespace == "" {
		m.Namespace = "sage"
	}
	if m.Endpoint == "" {
		m.Endpoint = "/metrics"
	}
}

// DefaultMetricsPath is returned by Manager.MetricsEndpoint when no Manager
// (or no Config) is available.
const DefaultMetricsPath = "/metrics"

func (c *Config) setDefaults() {
	c.Tracing.setDefaults()
	c.Metrics.setDefaults()
}
