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

// Package tool defines the interfaces tools implement to be invoked by the
// executor, grounded on the teacher's pkg/tool.Tool/CallableTool hierarchy
// (base Tool plus a synchronous Call, an iter.Seq2 streaming variant, and
// IsLongRunning/RequiresApproval flags), generalized here with the
// risk_level and concurrency_mode the loop's executor needs to schedule
// and gate calls, and adapted from the teacher's agent.CallbackContext onto
// sage-core's own pkg/task types.
package tool

import (
	"context"
	"iter"

	"github.com/sagerun/sage-core/pkg/task"
)

// Category groups tools for policy matching and catalog listing.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategorySearch     Category = "search"
	CategoryExecution  Category = "execution"
	CategoryNetwork    Category = "network"
	CategoryTaskMgmt   Category = "task_management"
	CategoryReasoning  Category = "reasoning"
	CategoryExternal   Category = "external"
)

// Tool is the base interface every tool implements, whether callable
// synchronously or streaming.
type Tool interface {
	// Name returns the tool's unique catalog key.
	Name() string

	// Description is shown to the model so it can decide when to call this
	// tool.
	Description() string

	// Schema returns the JSON schema for this tool's arguments, or nil if
	// the tool takes none.
	Schema() map[string]any

	// RiskLevel is the severity the executor and permission gate use to
	// decide whether a call needs approval.
	RiskLevel() task.RiskLevel

	// ConcurrencyMode is this tool's preferred batch scheduling policy.
	ConcurrencyMode() task.ConcurrencyMode

	// Category groups this tool for policy matching.
	Category() Category

	// RequiresApproval reports whether execution must pause for a human
	// decision before running, independent of RiskLevel.
	RequiresApproval() bool
}

// CallableTool executes synchronously and returns one result.
type CallableTool interface {
	Tool
	Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error)
}

// StreamingTool yields incremental chunks before a final result, mapped by
// the executor onto the trajectory as append-style output.
type StreamingTool interface {
	Tool
	CallStreaming(ctx context.Context, call task.ToolCall) iter.Seq2[StreamChunk, error]
}

// StreamChunk is one increment of a StreamingTool's output.
type StreamChunk struct {
	Content string
	Final   bool
	Result  *task.ToolResult // set only when Final is true
}

// ErrorKind enumerates the ways a tool call can fail, reported one-to-one
// onto task.ToolResult so the executor never has to type-assert a concrete
// error to decide how to record an outcome.
type ErrorKind int

const (
	ErrInvalidArguments ErrorKind = iota
	ErrPermissionDenied
	ErrExecutionFailed
	ErrValidationFailed
	ErrNotFound
	ErrTimeout
	ErrCancelled
	ErrInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidArguments:
		return "invalid_arguments"
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrExecutionFailed:
		return "execution_failed"
	case ErrValidationFailed:
		return "validation_failed"
	case ErrNotFound:
		return "not_found"
	case ErrTimeout:
		return "timeout"
	case ErrCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}

// Error is the typed failure a tool's Call returns. The executor maps Kind
// directly onto a task.ToolResult instead of pattern-matching error text.
type Error struct {
	Kind    ErrorKind
	Tool    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Tool + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Tool + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs a tool Error of the given kind.
func NewError(kind ErrorKind, toolName, message string) *Error {
	return &Error{Kind: kind, Tool: toolName, Message: message}
}

// ToolResultKind maps an ErrorKind onto the task.ErrorKind the Execution
// records when a tool call terminates the loop.
func (k ErrorKind) ToolResultKind() task.ErrorKind {
	switch k {
	case ErrInvalidArguments, ErrValidationFailed:
		return task.ErrToolInvalidArgs
	case ErrPermissionDenied:
		return task.ErrPermissionDenied
	case ErrTimeout:
		return task.ErrToolTimeout
	case ErrCancelled:
		return task.ErrCancelled
	case ErrExecutionFailed, ErrNotFound:
		return task.ErrToolExecutionFail
	default:
		return task.ErrInternalFault
	}
}
