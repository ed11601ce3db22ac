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

// Package llm defines the polymorphic LLM transport: a single Provider
// interface that every concrete backend (Anthropic, OpenAI-compatible,
// Google, Ollama, ...) implements, plus the chunk and usage types streaming
// and non-streaming calls exchange. Grounded on the teacher's
// pkg/llms.LLMProvider interface, generalized from the teacher's
// pb.Message/protocol.ToolCall wire types onto sage-core's own pkg/task
// types.
package llm

import (
	"context"
	"fmt"

	"github.com/sagerun/sage-core/pkg/task"
)

// ToolDefinition describes a callable tool in provider-agnostic form: name,
// description, and a JSON Schema for its parameters.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChunkKind identifies what a StreamChunk carries.
type ChunkKind int

const (
	ChunkText ChunkKind = iota
	ChunkToolCall
	ChunkThinking
	ChunkUsage
	ChunkDone
	ChunkError
)

// StreamChunk is one increment of a streaming completion.
type StreamChunk struct {
	Kind     ChunkKind
	Text     string
	ToolCall *task.ToolCall
	Usage    task.Usage
	Err      error
}

// Result is the outcome of a non-streaming Complete call.
type Result struct {
	Text      string
	ToolCalls []task.ToolCall
	Usage     task.Usage
	StopKind  StopKind
}

// StopKind classifies why the provider stopped generating.
type StopKind int

const (
	StopEndTurn StopKind = iota
	StopToolUse
	StopMaxTokens
	StopOther
)

// Provider is implemented by every concrete LLM backend. Complete performs
// a full non-streaming request; Stream performs the same request but
// returns incremental chunks on a channel that the caller must drain to
// completion or cancel via ctx.
type Provider interface {
	// Name identifies this provider for logging, metrics, breaker/limiter
	// registry keys, and trajectory records (e.g. "anthropic", "openai").
	Name() string

	Complete(ctx context.Context, messages []task.Message, tools []ToolDefinition) (Result, error)

	Stream(ctx context.Context, messages []task.Message, tools []ToolDefinition) (<-chan StreamChunk, error)

	Model() string
}

// Config is the provider-agnostic subset of configuration every backend
// accepts; concrete providers embed or wrap this.
type Config struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int

	// TopP, TopK, and StopSequences are optional sampling knobs; zero
	// values mean "use the provider's own default" and are omitted from
	// the outgoing request rather than sent as explicit zeros.
	TopP          float64
	TopK          int
	StopSequences []string

	// MaxRetries overrides the Thinking phase's LLM-call retry budget for
	// this provider; zero means "use the Loop's configured default."
	MaxRetries int
}

// ErrUnsupportedProvider is returned by New when Config.Type names a
// backend this build does not know how to construct.
type ErrUnsupportedProvider struct{ Type string }

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("llm: unsupported provider type %q", e.Type)
}
