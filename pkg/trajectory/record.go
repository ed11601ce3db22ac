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

// Package trajectory implements the append-only execution log: one
// line-delimited JSON record per event, keyed by a monotonic per-execution
// sequence number, written to a file named after the execution's start
// time and id. Persistence errors are reported on the event bus and
// retried with a bounded attempt budget; they never fail or block the
// loop, per spec.
package trajectory

import "time"

// SchemaVersion tags every Record so a future reader can tell which shape
// it is parsing.
const SchemaVersion = 1

// Kind identifies what a Record represents.
type Kind string

const (
	KindExecutionStart Kind = "execution_start"
	KindStepStart      Kind = "step_start"
	KindLLMRequest     Kind = "llm_request"
	KindLLMResponse    Kind = "llm_response"
	KindMessage        Kind = "message"
	KindToolCall       Kind = "tool_call"
	KindToolResult     Kind = "tool_result"
	KindStepComplete   Kind = "step_complete"
	KindError          Kind = "error"
	KindExecutionEnd   Kind = "execution_end"
)

// Record is one line of the trajectory log.
type Record struct {
	SchemaVersion int       `json:"schema_version"`
	Seq           int64     `json:"seq"`
	ExecutionID   string    `json:"execution_id"`
	Kind          Kind      `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
	Data          any       `json:"data,omitempty"`
}
