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

// Package supervisor wraps a Reactive Loop run in a restart policy,
// shielding a long-running session from transient panics in the loop
// driver. Grounded on spec §4.9's {Restart(max,window), Resume, Stop,
// Escalate} policy set, on this module's own pkg/breaker for the
// rolling-window failure-counting idiom (itself grounded on
// itsneelabh-gomind/telemetry's circuit breaker), and on
// other_examples' dagu agent.Loop's retrier.Reset()-after-success
// pattern for clearing a failure count once a run has made it past
// the part that used to fail.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sagerun/sage-core/pkg/cancel"
	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/loop"
)

// PolicyKind selects how the Supervisor reacts to a failed run.
type PolicyKind int

const (
	// PolicyRestart re-runs the loop from scratch, up to Max times within
	// Window; exceeding the budget escalates.
	PolicyRestart PolicyKind = iota
	// PolicyResume re-invokes run unconditionally, trusting run itself
	// (backed by a checkpoint) to pick up where it left off rather than
	// starting over. The Supervisor places no restart budget on Resume: an
	// unbounded retry is the point of resuming rather than restarting.
	PolicyResume
	// PolicyStop gives up after the first failure, returning it to the
	// caller without retrying.
	PolicyStop
	// PolicyEscalate never retries; every failure is immediately reported
	// as escalated.
	PolicyEscalate
)

// Policy configures a Supervisor.
type Policy struct {
	Kind PolicyKind
	// Max is the restart budget within Window (PolicyRestart only).
	Max int
	// Window is the rolling window Max is counted over (PolicyRestart only).
	Window time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.Kind == PolicyRestart {
		if p.Max <= 0 {
			p.Max = 3
		}
		if p.Window <= 0 {
			p.Window = 5 * time.Minute
		}
	}
	return p
}

// RunFunc executes one attempt of the supervised loop. attempt is a fresh
// child token scoped to this attempt so a panic or cancellation in one
// attempt cannot poison the next.
type RunFunc func(ctx context.Context, attempt *cancel.Token) (loop.Outcome, error)

// Supervisor runs a RunFunc under a restart Policy, recovering panics from
// the loop driver and counting restart-triggering failures in a rolling
// window.
type Supervisor struct {
	policy Policy
	bus    *eventbus.Bus

	mu       sync.Mutex
	failures []time.Time
}

func New(policy Policy, bus *eventbus.Bus) *Supervisor {
	return &Supervisor{policy: policy.withDefaults(), bus: bus}
}

// Supervise runs run under root until it returns cleanly, the policy
// decides to stop, or the restart budget is exhausted. root is the
// session's parent cancellation token; each attempt gets its own child so
// a recovered panic's in-flight cancellation doesn't leak into the retry.
func (s *Supervisor) Supervise(ctx context.Context, root *cancel.Token, run RunFunc) (loop.Outcome, error) {
	for {
		outcome, failure := s.attempt(ctx, root, run)
		if failure == nil {
			s.resetFailures()
			return outcome, nil
		}

		s.publish("supervisor_failure", failure)

		switch s.policy.Kind {
		case PolicyStop:
			return outcome, failure

		case PolicyEscalate:
			s.publish("supervisor_escalate", failure)
			return outcome, fmt.Errorf("supervisor: escalated: %w", failure)

		case PolicyResume:
			continue

		case PolicyRestart:
			if !s.withinBudget() {
				s.publish("supervisor_escalate", failure)
				return outcome, fmt.Errorf("supervisor: restart budget (%d in %s) exhausted: %w", s.policy.Max, s.policy.Window, failure)
			}
			continue

		default:
			return outcome, failure
		}
	}
}

// attempt runs one invocation of run, recovering any panic into failure so
// the caller's Supervise loop can apply the restart policy uniformly
// whether the attempt returned an error or panicked outright.
func (s *Supervisor) attempt(ctx context.Context, root *cancel.Token, run RunFunc) (outcome loop.Outcome, failure error) {
	child := root.Child()
	defer child.Cancel(nil)
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Errorf("supervisor: recovered panic in loop driver: %v", r)
		}
	}()

	o, err := run(ctx, child)
	if err != nil {
		return o, err
	}
	return o, nil
}

// withinBudget records a new failure timestamp, evicts any outside the
// rolling window, and reports whether the count is still within Max.
func (s *Supervisor) withinBudget() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-s.policy.Window)
	kept := s.failures[:0]
	for _, f := range s.failures {
		if f.After(cutoff) {
			kept = append(kept, f)
		}
	}
	kept = append(kept, now)
	s.failures = kept

	return len(s.failures) <= s.policy.Max
}

func (s *Supervisor) resetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = nil
}

func (s *Supervisor) publish(kind string, err error) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Kind: kind, Data: map[string]any{"error": err.Error()}})
}
