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

// Package retry implements bounded-attempt execution with error
// classification and exponential backoff plus jitter, grounded on the
// teacher's pkg/httpclient retry loop (exponential delay, capped, smart vs.
// conservative retry) but generalized beyond HTTP and built on
// github.com/cenkalti/backoff/v5 for the backoff math itself.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Class is the outcome of classifying an error for retry purposes.
type Class int

const (
	// Unknown errors get a small, limited retry budget: we don't know
	// whether retrying helps, but failing fast on every novel error would
	// make the loop too brittle.
	Unknown Class = iota
	// Transient errors (network errors, timeouts, 429, 5xx, provider
	// "overloaded" text) are retried up to the full attempt budget.
	Transient
	// Permanent errors (invalid arguments, auth failures, config errors)
	// are never retried: attempts = 1.
	Permanent
)

// Classifier assigns a Class to an error returned by the wrapped operation.
type Classifier func(error) Class

// Policy configures the bounded-attempt, backoff-with-jitter execution.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first
	// (default 3).
	MaxAttempts int
	// BaseDelay is the first retry's delay before exponential growth
	// (default 1s).
	BaseDelay time.Duration
	// Multiplier grows the delay each attempt (default 2).
	Multiplier float64
	// MaxDelay caps the computed delay before jitter (default 30s).
	MaxDelay time.Duration
	// JitterFraction is the fraction of the computed delay added as
	// uniform random jitter, in [0,1] (default 0.5, i.e. 0-50%).
	JitterFraction float64
	// Classify determines whether an error is worth retrying. A nil
	// Classifier treats every error as Transient.
	Classify Classifier
	// OnRetry, if set, is called before each sleep with the attempt
	// number (1-based) and the delay about to be taken.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.JitterFraction <= 0 {
		p.JitterFraction = 0.5
	}
	if p.Classify == nil {
		p.Classify = func(error) Class { return Transient }
	}
	return p
}

// PermanentError marks err so Do stops retrying immediately regardless of
// what Classify would have said, mirroring backoff.Permanent.
func PermanentError(err error) error {
	return backoff.Permanent(err)
}

// Do executes op, retrying per policy until it succeeds, the context is
// cancelled, or the attempt budget is exhausted. It returns the last result
// and error. A Classifier returning Permanent forces attempts = 1 (the
// retry law spec.md §8 requires).
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.Multiplier = policy.Multiplier
	b.MaxInterval = policy.MaxDelay
	b.RandomizationFactor = 0 // we apply our own uniform jitter below

	var zero T
	var lastErr error
	delay := policy.BaseDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var permanent *backoff.PermanentError
		forcedPermanent := errors.As(err, &permanent)
		class := policy.Classify(err)
		if forcedPermanent {
			class = Permanent
		}

		if class == Permanent {
			return zero, unwrapPermanent(err)
		}
		if attempt == policy.MaxAttempts {
			break
		}

		maxRetriesForClass := policy.MaxAttempts
		if class == Unknown && maxRetriesForClass > 2 {
			maxRetriesForClass = 2
		}
		if attempt >= maxRetriesForClass {
			break
		}

		next, nextErr := b.NextBackOff()
		if nextErr == backoff.Stop {
			break
		}
		delay = applyJitter(next, policy.JitterFraction)

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		} else {
			slog.Debug("retry: backing off", "attempt", attempt, "delay", delay, "error", err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("retry: exhausted %d attempt(s): %w", policy.MaxAttempts, lastErr)
}

func applyJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	jitter := time.Duration(rand.Float64() * fraction * float64(d))
	return d + jitter
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Unwrap()
	}
	return err
}
