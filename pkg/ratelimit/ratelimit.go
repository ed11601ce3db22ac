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

// Package ratelimit implements per-target token-bucket rate limiting: a
// sustained rate plus burst allowance, with both a blocking Acquire and a
// non-blocking TryAcquire. The bucket math comes from golang.org/x/time/rate
// rather than the teacher's own pkg/ratelimit, which is a window-counter
// limiter (fixed windows of token/request counts) and not a token bucket;
// the Config/registry shape below still follows the teacher's
// Config-plus-registry convention.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config describes one target's sustained rate and burst allowance.
type Config struct {
	// RatePerSecond is the sustained number of operations per second
	// allowed once the burst is exhausted.
	RatePerSecond float64
	// Burst is the number of operations allowed instantaneously before
	// the sustained rate applies.
	Burst int
}

func (c Config) withDefaults() Config {
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// Limiter wraps a golang.org/x/time/rate.Limiter for a single target.
type Limiter struct {
	rl *rate.Limiter
}

// New creates a Limiter for the given config.
func New(config Config) *Limiter {
	config = config.withDefaults()
	return &Limiter{rl: rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst)}
}

// Acquire blocks until a token is available or ctx is done, whichever
// comes first.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// TryAcquire reports whether a token was available right now, consuming it
// if so, without blocking.
func (l *Limiter) TryAcquire() bool {
	return l.rl.Allow()
}

// Tokens reports the number of tokens currently available, for
// observability.
func (l *Limiter) Tokens() float64 {
	return l.rl.Tokens()
}

// Registry is a process-wide collection of Limiters keyed by target name
// (typically the LLM provider), created lazily from a per-target config
// lookup on first use.
type Registry struct {
	mu       sync.Mutex
	configs  map[string]Config
	fallback Config
	limiters map[string]*Limiter
}

// NewRegistry creates a Registry. fallback is used for any target without
// an explicit entry in configs.
func NewRegistry(configs map[string]Config, fallback Config) *Registry {
	if configs == nil {
		configs = make(map[string]Config)
	}
	return &Registry{
		configs:  configs,
		fallback: fallback,
		limiters: make(map[string]*Limiter),
	}
}

// Get returns the Limiter for target, creating it from the registered (or
// fallback) config on first access.
func (r *Registry) Get(target string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[target]; ok {
		return l
	}
	cfg, ok := r.configs[target]
	if !ok {
		cfg = r.fallback
	}
	l := New(cfg)
	r.limiters[target] = l
	return l
}

// Acquire blocks on the named target's bucket until a token is available
// or ctx is done.
func (r *Registry) Acquire(ctx context.Context, target string) error {
	return r.Get(target).Acquire(ctx)
}

// waitForTokens is a test seam: it lets tests observe how long Acquire
// actually blocked without depending on wall-clock flakiness elsewhere.
func waitForTokens(ctx context.Context, l *Limiter) (time.Duration, error) {
	start := time.Now()
	err := l.Acquire(ctx)
	return time.Since(start), err
}
