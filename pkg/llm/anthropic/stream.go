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

package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/llm/sse"
	"github.com/sagerun/sage-core/pkg/task"
)

// wireEvent mirrors the subset of Anthropic's streamEvent JSON shape this
// decoder cares about, grounded on
// .teacher-ref/pkg/model/anthropic/anthropic.go's streamEvent/apiContent/
// apiDelta/apiUsage structs.
type wireEvent struct {
	Type         string     `json:"type"`
	Index        int        `json:"index"`
	Delta        *wireDelta `json:"delta,omitempty"`
	ContentBlock *wireBlock `json:"content_block,omitempty"`
	Usage        *wireUsage `json:"usage,omitempty"`
}

type wireBlock struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type wireDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
}

type wireUsage struct {
	InputTokens          int `json:"input_tokens"`
	OutputTokens         int `json:"output_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
}

// runStream decodes body as an SSE stream of Anthropic message events and
// emits llm.StreamChunk values on out, closing out when the stream ends,
// ctx is cancelled, or an error occurs. Grounded on goa-ai's
// anthropicStreamer.run/anthropicChunkProcessor.Handle for the chunk shape,
// and on the teacher's generateStream/processStreamEvent for the event
// types and per-index tool buffer bookkeeping, adapted onto pkg/llm/sse's
// decoder instead of the teacher's inline bufio loop.
func runStream(ctx context.Context, body io.ReadCloser, out chan<- llm.StreamChunk) {
	defer close(out)
	defer body.Close()

	dec := sse.NewDecoder(body)
	toolBuffers := make(map[int]*toolBuffer)

	emit := func(c llm.StreamChunk) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- c:
			return true
		}
	}

	for dec.Next() {
		select {
		case <-ctx.Done():
			emit(llm.StreamChunk{Kind: llm.ChunkError, Err: ctx.Err()})
			return
		default:
		}

		var ev wireEvent
		if err := json.Unmarshal([]byte(dec.Event().Data), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "message_start":
			toolBuffers = make(map[int]*toolBuffer)

		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				toolBuffers[ev.Index] = &toolBuffer{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			}

		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				if ev.Delta.Text != "" {
					if !emit(llm.StreamChunk{Kind: llm.ChunkText, Text: ev.Delta.Text}) {
						return
					}
				}
			case "input_json_delta":
				if tb, ok := toolBuffers[ev.Index]; ok && ev.Delta.PartialJSON != "" {
					tb.fragments = append(tb.fragments, ev.Delta.PartialJSON)
				}
			case "thinking_delta":
				if ev.Delta.Thinking != "" {
					if !emit(llm.StreamChunk{Kind: llm.ChunkThinking, Text: ev.Delta.Thinking}) {
						return
					}
				}
			}

		case "content_block_stop":
			if tb, ok := toolBuffers[ev.Index]; ok {
				delete(toolBuffers, ev.Index)
				var args map[string]any
				if joined := tb.joined(); joined != "" {
					_ = json.Unmarshal([]byte(joined), &args)
				}
				if !emit(llm.StreamChunk{
					Kind:     llm.ChunkToolCall,
					ToolCall: &task.ToolCall{ID: tb.id, Name: tb.name, Args: args},
				}) {
					return
				}
			}

		case "message_delta":
			if ev.Usage != nil {
				usage := task.Usage{
					InputTokens:  ev.Usage.InputTokens,
					OutputTokens: ev.Usage.OutputTokens,
					CacheHits:    ev.Usage.CacheReadInputTokens,
				}
				if !emit(llm.StreamChunk{Kind: llm.ChunkUsage, Usage: usage}) {
					return
				}
			}

		case "message_stop":
			emit(llm.StreamChunk{Kind: llm.ChunkDone})
			return
		}
	}

	if err := dec.Err(); err != nil {
		emit(llm.StreamChunk{Kind: llm.ChunkError, Err: err})
	}
}

type toolBuffer struct {
	id        string
	name      string
	fragments []string
}

func (tb *toolBuffer) joined() string {
	if len(tb.fragments) == 0 {
		return ""
	}
	s := strings.Join(tb.fragments, "")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
