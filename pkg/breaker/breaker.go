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

// Package breaker implements a per-target circuit breaker: a
// closed/open/half-open state machine that stops calling a failing
// dependency for a recovery window before cautiously testing it again.
// Grounded on itsneelabh-gomind/telemetry's TelemetryCircuitBreaker (atomic
// state, mutex-guarded transitions, structured logging of every
// transition), generalized from a single telemetry sink into a registry
// keyed by arbitrary target name (one breaker per LLM provider, per MCP
// server, etc.).
package breaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sagerun/sage-core/pkg/logger"
)

// State is one node of the circuit breaker's finite state machine.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Config controls the failure threshold and recovery behavior of a Breaker.
type Config struct {
	// MaxFailures is the consecutive failure count that opens the circuit
	// (default 5).
	MaxFailures int
	// RecoveryTime is how long the circuit stays open before allowing a
	// half-open trial (default 30s).
	RecoveryTime time.Duration
	// HalfOpenMax is how many trial successes in half-open state are
	// required to close the circuit again (default 1).
	HalfOpenMax int
}

func (c Config) withDefaults() Config {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.RecoveryTime <= 0 {
		c.RecoveryTime = 30 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 1
	}
	return c
}

// Breaker protects a single target (an LLM provider, an MCP server) from
// repeated calls while it is failing.
type Breaker struct {
	name   string
	config Config

	state           atomic.Int32
	failures        atomic.Int64
	successes       atomic.Int64
	lastFailureTime atomic.Value // time.Time

	mu sync.Mutex
}

// New creates a Breaker for name with the given config.
func New(name string, config Config) *Breaker {
	b := &Breaker{name: name, config: config.withDefaults()}
	b.lastFailureTime.Store(time.Time{})
	return b
}

// Allow reports whether a call to the protected target should proceed.
// Closed always allows; Open allows only once RecoveryTime has elapsed
// since the last failure (transitioning to HalfOpen); HalfOpen allows only
// while fewer than HalfOpenMax trial successes have been recorded.
func (b *Breaker) Allow() bool {
	switch b.State() {
	case Open:
		last, _ := b.lastFailureTime.Load().(time.Time)
		if last.IsZero() || time.Since(last) <= b.config.RecoveryTime {
			return false
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if State(b.state.Load()) == Open {
			b.state.Store(int32(HalfOpen))
			b.successes.Store(0)
			logger.Get().Info("circuit breaker entering half-open state",
				"target", b.name, "recovery_wait", b.config.RecoveryTime.String())
		}
		return true
	case HalfOpen:
		return b.successes.Load() < int64(b.config.HalfOpenMax)
	default:
		return true
	}
}

// RecordSuccess reports a successful call. In HalfOpen state, enough
// successes close the circuit; in Closed state it resets the failure
// counter.
func (b *Breaker) RecordSuccess() {
	b.successes.Add(1)

	switch b.State() {
	case HalfOpen:
		if b.successes.Load() >= int64(b.config.HalfOpenMax) {
			b.mu.Lock()
			if State(b.state.Load()) == HalfOpen {
				b.state.Store(int32(Closed))
				b.failures.Store(0)
				logger.Get().Info("circuit breaker closed, target recovered", "target", b.name)
			}
			b.mu.Unlock()
		}
	case Closed:
		b.failures.Store(0)
	}
}

// RecordFailure reports a failed call, opening the circuit once
// MaxFailures consecutive failures have been recorded.
func (b *Breaker) RecordFailure() {
	failures := b.failures.Add(1)
	b.lastFailureTime.Store(time.Now())

	if failures >= int64(b.config.MaxFailures) {
		b.mu.Lock()
		if State(b.state.Load()) != Open {
			previous := State(b.state.Load())
			b.state.Store(int32(Open))
			b.successes.Store(0)
			logger.Get().Warn("circuit breaker opened, target calls will be rejected",
				"target", b.name, "previous_state", previous.String(),
				"failure_count", failures, "recovery_time", b.config.RecoveryTime.String())
		}
		b.mu.Unlock()
		return
	}

	// A half-open trial failure reopens the circuit immediately.
	if State(b.state.Load()) == HalfOpen {
		b.mu.Lock()
		b.state.Store(int32(Open))
		b.mu.Unlock()
		logger.Get().Warn("circuit breaker half-open trial failed, reopening", "target", b.name)
	}
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Reset forces the breaker back to Closed, clearing failure and success
// counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Store(int32(Closed))
	b.failures.Store(0)
	b.successes.Store(0)
	b.lastFailureTime.Store(time.Time{})
}

// ErrOpen is returned by Registry.Call when the target's breaker rejects
// the call.
type ErrOpen struct{ Target string }

func (e ErrOpen) Error() string {
	return fmt.Sprintf("breaker: %q circuit is open", e.Target)
}

// Registry is a process-wide collection of Breakers keyed by target name,
// created lazily with a shared Config on first use.
type Registry struct {
	mu       sync.Mutex
	config   Config
	breakers map[string]*Breaker
}

// NewRegistry creates a Registry whose breakers all share config.
func NewRegistry(config Config) *Registry {
	return &Registry{config: config, breakers: make(map[string]*Breaker)}
}

// Get returns the Breaker for target, creating it on first access.
func (r *Registry) Get(target string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[target]
	if !ok {
		b = New(target, r.config)
		r.breakers[target] = b
	}
	return b
}

// Call runs fn through the named target's breaker: rejects immediately if
// the circuit is open, otherwise records the outcome.
func (r *Registry) Call(target string, fn func() error) error {
	b := r.Get(target)
	if !b.Allow() {
		return ErrOpen{Target: target}
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}
