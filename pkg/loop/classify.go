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

package loop

import (
	"strings"

	"github.com/sagerun/sage-core/pkg/retry"
)

// classifyLLMError implements spec §4.2's three-way error classification
// for LLM transport failures: Permanent (invalid arguments, auth,
// configuration) never retries; a recognized Transient condition (network
// error, timeout, 429, 5xx, provider "overloaded"/"rate limit" text)
// retries up to the full attempt budget; anything unrecognized gets
// retry.Unknown's smaller budget.
func classifyLLMError(err error) retry.Class {
	if err == nil {
		return retry.Transient
	}
	msg := strings.ToLower(err.Error())

	if containsAny(msg, "invalid argument", "invalid request", "bad request", "unauthorized",
		"forbidden", "authentication", "invalid api key", "configuration error") {
		return retry.Permanent
	}

	if containsAny(msg, "timeout", "timed out", "connection reset", "connection refused",
		"429", "too many requests", "rate limit", "500", "502", "503", "504",
		"overloaded", "temporarily unavailable", "eof") {
		return retry.Transient
	}

	return retry.Unknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
