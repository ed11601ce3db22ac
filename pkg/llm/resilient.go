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

package llm

import (
	"context"

	"github.com/sagerun/sage-core/pkg/breaker"
	"github.com/sagerun/sage-core/pkg/ratelimit"
	"github.com/sagerun/sage-core/pkg/task"
)

// resilient wraps a Provider with rate limiting and a circuit breaker,
// both keyed by the provider's own Name(), so a builder can compose the
// two cross-cutting concerns onto any concrete backend without each
// backend package knowing about either. Grounded on pkg/breaker.Registry's
// own Call convention, adapted from its synchronous func() error shape to
// wrap Complete's (Result, error) return.
type resilient struct {
	Provider
	limiter  *ratelimit.Registry
	breakers *breaker.Registry
}

// Resilient wraps p so every Complete/Stream call first acquires a rate
// limiter token (if limiter is non-nil) then runs through the named
// circuit breaker (if breakers is non-nil). Either may be nil to disable
// that concern.
func Resilient(p Provider, limiter *ratelimit.Registry, breakers *breaker.Registry) Provider {
	if limiter == nil && breakers == nil {
		return p
	}
	return &resilient{Provider: p, limiter: limiter, breakers: breakers}
}

func (r *resilient) Complete(ctx context.Context, messages []task.Message, tools []ToolDefinition) (Result, error) {
	if r.limiter != nil {
		if err := r.limiter.Get(r.Name()).Acquire(ctx); err != nil {
			return Result{}, err
		}
	}
	if r.breakers == nil {
		return r.Provider.Complete(ctx, messages, tools)
	}

	var result Result
	err := r.breakers.Call(r.Name(), func() error {
		var callErr error
		result, callErr = r.Provider.Complete(ctx, messages, tools)
		return callErr
	})
	return result, err
}

// Stream bypasses the circuit breaker (a streaming call's failure mode -
// mid-stream error on an already-open channel - doesn't fit the breaker's
// single func() error call shape) but still honors the rate limiter.
func (r *resilient) Stream(ctx context.Context, messages []task.Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	if r.limiter != nil {
		if err := r.limiter.Get(r.Name()).Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return r.Provider.Stream(ctx, messages, tools)
}
