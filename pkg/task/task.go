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

// Package task defines the data model the reactive loop operates on: Task,
// Execution, Step, Message, ToolCall, ToolResult, ToolSchema, RiskLevel, and
// ConcurrencyMode.
package task

import (
	"time"

	"github.com/google/uuid"
)

// Task is the immutable input to one Execution.
type Task struct {
	ID           string
	Prompt       string
	WorkingDir   string
	ExtraContext map[string]any
	MaxSteps     *int
}

// NewTask creates a Task with a generated ID.
func NewTask(prompt string) Task {
	return Task{ID: uuid.NewString(), Prompt: prompt}
}

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation the loop feeds to the LLM.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall // assistant-only
	ToolCallID  string     // tool-only: links back to the ToolCall it answers
	CacheHint   bool
}

// ToolCall is one request the assistant makes to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing one ToolCall.
type ToolResult struct {
	CallID   string
	ToolName string
	Success  bool
	Output   string
	Error    string
	Metadata map[string]any
	Duration time.Duration
	ExitCode *int
}

// RiskLevel is the ordered severity a Tool declares for its effects.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseRiskLevel parses a risk level name, defaulting to RiskMedium on an
// unrecognized value so an operator typo fails safe rather than silently
// granting RiskLow treatment.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "low":
		return RiskLow
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	default:
		return RiskMedium
	}
}

// ConcurrencyMode is the batch scheduling policy a tool prefers.
type ConcurrencyMode int

const (
	ConcurrencyParallel ConcurrencyMode = iota
	ConcurrencySequential
	ConcurrencyLimitedN
	ConcurrencyExclusiveByType
)

func (m ConcurrencyMode) String() string {
	switch m {
	case ConcurrencyParallel:
		return "parallel"
	case ConcurrencySequential:
		return "sequential"
	case ConcurrencyLimitedN:
		return "limited"
	case ConcurrencyExclusiveByType:
		return "exclusive-by-type"
	default:
		return "unknown"
	}
}

// Param describes one parameter of a ToolSchema.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Description string
	Default     any
}

// ToolSchema renders a tool to the model and validates incoming arguments.
type ToolSchema struct {
	Name        string
	Description string
	Params      []Param
}

// Step is one iteration of the reactive loop: an assistant message plus the
// tool calls it requested and the results those calls produced. Append-only
// once finalized.
type Step struct {
	Index       int
	Assistant   Message
	ToolCalls   []ToolCall
	ToolResults []ToolResult
	TokensIn    int
	TokensOut   int
	Elapsed     time.Duration
}

// Outcome is the terminal variant of an Execution.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeFailed         Outcome = "failed"
	OutcomeCancelled      Outcome = "cancelled"
	OutcomeMaxStepsReached Outcome = "max_steps_reached"
	OutcomeInterrupted    Outcome = "interrupted"
)

// Usage accumulates token accounting across an Execution.
type Usage struct {
	InputTokens  int
	OutputTokens int
	CacheHits    int
}

// Execution is the mutable container created at task start and handed back
// to the caller, terminal, on completion.
type Execution struct {
	ID        string
	Task      Task
	Steps     []Step
	Usage     Usage
	Outcome   Outcome
	ErrorKind ErrorKind
	ErrorMsg  string
	StartedAt time.Time
	EndedAt   time.Time
	Messages  []Message // system+user, then alternating assistant/tool-result-batch
	Warning   string    // set when the loop terminated successfully but with a caveat (e.g. strict mode's no-file-mutation warning)
}

// NewExecution creates an Execution for t with the initial system and user
// messages assembled.
func NewExecution(t Task, systemPrompt string) *Execution {
	e := &Execution{
		ID:        uuid.NewString(),
		Task:      t,
		StartedAt: time.Now(),
	}
	if systemPrompt != "" {
		e.Messages = append(e.Messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	e.Messages = append(e.Messages, Message{Role: RoleUser, Content: t.Prompt})
	return e
}

// AppendStep records a finalized Step and its messages. Ordinal must equal
// len(Steps) — callers build steps in order; this just asserts that
// invariant is upheld rather than silently renumbering.
func (e *Execution) AppendStep(s Step) {
	s.Index = len(e.Steps)
	e.Steps = append(e.Steps, s)
	e.Usage.InputTokens += s.TokensIn
	e.Usage.OutputTokens += s.TokensOut
}

// Finish marks the Execution terminal with the given outcome.
func (e *Execution) Finish(outcome Outcome) {
	e.Outcome = outcome
	e.EndedAt = time.Now()
}

// FinishError marks the Execution terminal as Failed, recording the kind and
// message of the last error.
func (e *Execution) FinishError(kind ErrorKind, msg string) {
	e.Outcome = OutcomeFailed
	e.ErrorKind = kind
	e.ErrorMsg = msg
	e.EndedAt = time.Now()
}
