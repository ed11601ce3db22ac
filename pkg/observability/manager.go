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
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// Manager owns the lifecycle of this process's tracing and metrics
// components. Grounded on the teacher's pkg/observability.Manager
// (enabled-gated init order, nil-receiver-safe accessors so a caller can
// pass around a possibly-nil *Manager without a nil check at every call
// site).
type Manager struct {
	cfg     Config
	tracer  trace.TracerProvider
	metrics *Metrics
}

// NewManager builds a Manager from cfg, initializing tracing and/or
// metrics per their Enabled flags.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	cfg.setDefaults()
	m := &Manager{cfg: cfg}

	if cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("observability: failed to initialize tracing: %w", err)
		}
		m.tracer = tp
		slog.Info("observability: tracing initialized", "exporter", cfg.Tracing.Exporter, "sampling_rate", cfg.Tracing.SamplingRate)
	}

	if cfg.Metrics.Enabled {
		m.metrics = NewMetrics(cfg.Metrics)
		slog.Info("observability: metrics initialized", "namespace", cfg.Metrics.Namespace, "endpoint", cfg.Metrics.Endpoint)
	}

	return m, nil
}

// Tracer returns a named tracer, or a no-op tracer if m is nil or tracing
// is disabled.
func (m *Manager) Tracer(name string) trace.Tracer {
	if m == nil || m.tracer == nil {
		return trace.NewNoopTracerProvider().Tracer(name)
	}
	return m.tracer.Tracer(name)
}

// Metrics returns the metrics collector, or nil if disabled; every
// Metrics method is nil-receiver-safe so callers need not check.
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// MetricsHandler returns the HTTP handler for the metrics endpoint.
func (m *Manager) MetricsHandler() http.Handler {
	return m.Metrics().Handler()
}

// MetricsEndpoint returns the configured metrics path.
func (m *Manager) MetricsEndpoint() string {
	if m == nil {
		return DefaultMetricsPath
	}
	return m.cfg.Metrics.Endpoint
}

// TracingEnabled reports whether tracing is active.
func (m *Manager) TracingEnabled() bool { return m != nil && m.tracer != nil }

// MetricsEnabled reports whether metrics are active.
func (m *Manager) MetricsEnabled() bool { return m != nil && m.metrics != nil }

// Shutdown flushes and releases the tracer provider, if any.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil || m.tracer == nil {
		return nil
	}
	type shutdowner interface {
		Shutdown(context.Context) error
	}
	if sd, ok := m.tracer.(shutdowner); ok {
		if err := sd.Shutdown(ctx); err != nil {
			return fmt.Errorf("observability: tracer shutdown: %w", err)
		}
	}
	return nil
}
