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

package openai

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/llm/sse"
	"github.com/sagerun/sage-core/pkg/task"
)

// wireChunk mirrors the subset of an OpenAI chat.completion.chunk JSON
// object this decoder cares about, grounded on go-openai's
// ChatCompletionStreamResponse (the shape both OpenAI itself and the
// OpenAI-compatible backends this provider targets emit).
type wireChunk struct {
	Choices []wireChoice `json:"choices"`
}

type wireChoice struct {
	Delta        wireDelta `json:"delta"`
	FinishReason string    `json:"finish_reason"`
}

type wireDelta struct {
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireToolCall struct {
	Index    *int             `json:"index"`
	ID       string           `json:"id"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type pendingCall struct {
	id, name string
	args     strings.Builder
}

// runStream decodes body as an SSE stream of OpenAI chat completion chunks
// and emits llm.StreamChunk values on out, accumulating tool-call argument
// fragments by index until each call's block finishes. Grounded on the
// teacher's hand-rolled bufio SSE loop
// (.teacher-ref/pkg/model/openai/openai.go's generateStream), adapted onto
// pkg/llm/sse's decoder and go-openai's Chat Completions wire shape instead
// of the teacher's Responses API shape.
func runStream(ctx context.Context, body io.ReadCloser, out chan<- llm.StreamChunk) {
	defer close(out)
	defer body.Close()

	dec := sse.NewDecoder(body)
	pending := map[int]*pendingCall{}

	emit := func(c llm.StreamChunk) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- c:
			return true
		}
	}

	flush := func() {
		for idx, pc := range pending {
			var args map[string]any
			if pc.args.Len() > 0 {
				_ = json.Unmarshal([]byte(pc.args.String()), &args)
			}
			emit(llm.StreamChunk{Kind: llm.ChunkToolCall, ToolCall: &task.ToolCall{ID: pc.id, Name: pc.name, Args: args}})
			delete(pending, idx)
		}
	}

	for dec.Next() {
		select {
		case <-ctx.Done():
			emit(llm.StreamChunk{Kind: llm.ChunkError, Err: ctx.Err()})
			return
		default:
		}

		var chunk wireChunk
		if err := json.Unmarshal([]byte(dec.Event().Data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			if !emit(llm.StreamChunk{Kind: llm.ChunkText, Text: choice.Delta.Content}) {
				return
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			pc, ok := pending[idx]
			if !ok {
				pc = &pendingCall{}
				pending[idx] = pc
			}
			if tc.ID != "" {
				pc.id = tc.ID
			}
			if tc.Function.Name != "" {
				pc.name = tc.Function.Name
			}
			pc.args.WriteString(tc.Function.Arguments)
		}
		if choice.FinishReason != "" {
			flush()
		}
	}

	if err := dec.Err(); err != nil {
		emit(llm.StreamChunk{Kind: llm.ChunkError, Err: err})
		return
	}
	flush()
	emit(llm.StreamChunk{Kind: llm.ChunkDone})
}
