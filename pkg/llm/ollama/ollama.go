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

// Package ollama implements llm.Provider against a local or remote Ollama
// server's /api/chat endpoint. Ollama has no official Go SDK, so this
// follows the teacher's own pkg/model/ollama: a plain net/http client
// posting to /api/chat, decoding the streaming response as
// newline-delimited JSON objects (not SSE) via bufio.Reader.ReadBytes('\n'),
// accumulating parallel tool calls by index.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func init() {
	llm.RegisterFactory("ollama", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
}

const defaultBaseURL = "http://localhost:11434"

// Provider implements llm.Provider against an Ollama server.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	options    map[string]any
}

// New constructs a Provider from llm.Config. cfg.BaseURL defaults to
// http://localhost:11434.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	options := map[string]any{}
	if cfg.Temperature > 0 {
		options["temperature"] = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}

	return &Provider{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		baseURL:    baseURL,
		model:      cfg.Model,
		options:    options,
	}, nil
}

func (p *Provider) Name() string  { return "ollama" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (llm.Result, error) {
	req := p.buildRequest(messages, tools, false)
	resp, err := p.post(ctx, req)
	if err != nil {
		return llm.Result{}, err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return llm.Result{}, fmt.Errorf("ollama: decoding response: %w", err)
	}
	return translateResponse(&chatResp), nil
}

func (p *Provider) Stream(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	req := p.buildRequest(messages, tools, true)
	resp, err := p.post(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan llm.StreamChunk, 32)
	go runStream(ctx, resp.Body, out)
	return out, nil
}

func (p *Provider) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama: server returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func (p *Provider) buildRequest(messages []task.Message, tools []llm.ToolDefinition, stream bool) chatRequest {
	req := chatRequest{
		Model:    p.model,
		Messages: encodeMessages(messages),
		Stream:   stream,
	}
	if len(p.options) > 0 {
		req.Options = p.options
	}
	if len(tools) > 0 {
		req.Tools = encodeTools(tools)
	}
	return req
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Tools    []apiTool      `json:"tools,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
	Stream   bool           `json:"stream"`
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

type toolCall struct {
	Function functionCall `json:"function"`
}

type functionCall struct {
	Index     int            `json:"index,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type apiTool struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatResponse struct {
	Message         *chatMessage `json:"message,omitempty"`
	Done            bool         `json:"done"`
	DoneReason      string       `json:"done_reason,omitempty"`
	PromptEvalCount int          `json:"prompt_eval_count,omitempty"`
	EvalCount       int          `json:"eval_count,omitempty"`
}

func encodeMessages(messages []task.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		cm := chatMessage{Content: m.Content}
		switch m.Role {
		case task.RoleSystem:
			cm.Role = "system"
		case task.RoleUser:
			cm.Role = "user"
		case task.RoleAssistant:
			cm.Role = "assistant"
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, toolCall{Function: functionCall{Name: tc.Name, Arguments: tc.Args}})
			}
		case task.RoleTool:
			cm.Role = "tool"
			cm.ToolName = m.ToolCallID
		}
		out = append(out, cm)
	}
	return out
}

func encodeTools(defs []llm.ToolDefinition) []apiTool {
	out := make([]apiTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, apiTool{
			Type:     "function",
			Function: functionDef{Name: d.Name, Description: d.Description, Parameters: d.Parameters},
		})
	}
	return out
}

func translateResponse(resp *chatResponse) llm.Result {
	var result llm.Result
	if resp.Message != nil {
		result.Text = resp.Message.Content
		for _, tc := range resp.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, task.ToolCall{Name: tc.Function.Name, Args: tc.Function.Arguments})
		}
	}
	result.Usage = task.Usage{InputTokens: resp.PromptEvalCount, OutputTokens: resp.EvalCount}
	if len(result.ToolCalls) > 0 {
		result.StopKind = llm.StopToolUse
	} else {
		result.StopKind = llm.StopEndTurn
	}
	return result
}

// runStream decodes newline-delimited chatResponse JSON objects from body,
// emitting an llm.StreamChunk per increment, and accumulates parallel tool
// calls by index until the final done=true chunk.
func runStream(ctx context.Context, body io.ReadCloser, out chan<- llm.StreamChunk) {
	defer close(out)
	defer body.Close()

	emit := func(c llm.StreamChunk) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- c:
			return true
		}
	}

	pending := map[int]*task.ToolCall{}
	reader := bufio.NewReader(body)

	for {
		select {
		case <-ctx.Done():
			emit(llm.StreamChunk{Kind: llm.ChunkError, Err: ctx.Err()})
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if handleLine(line, pending, emit) {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				emit(llm.StreamChunk{Kind: llm.ChunkError, Err: err})
			} else {
				emit(llm.StreamChunk{Kind: llm.ChunkDone})
			}
			return
		}
	}
}

func handleLine(line []byte, pending map[int]*task.ToolCall, emit func(llm.StreamChunk) bool) (stop bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}
	var chunk chatResponse
	if err := json.Unmarshal(line, &chunk); err != nil {
		return false
	}

	if chunk.Message != nil {
		if chunk.Message.Content != "" {
			if !emit(llm.StreamChunk{Kind: llm.ChunkText, Text: chunk.Message.Content}) {
				return true
			}
		}
		for i, tc := range chunk.Message.ToolCalls {
			idx := tc.Function.Index
			if idx == 0 && len(chunk.Message.ToolCalls) > 1 {
				idx = i
			}
			pending[idx] = &task.ToolCall{Name: tc.Function.Name, Args: tc.Function.Arguments}
		}
	}

	if chunk.Done {
		for _, tc := range pending {
			if !emit(llm.StreamChunk{Kind: llm.ChunkToolCall, ToolCall: tc}) {
				return true
			}
		}
		usage := task.Usage{InputTokens: chunk.PromptEvalCount, OutputTokens: chunk.EvalCount}
		if !emit(llm.StreamChunk{Kind: llm.ChunkUsage, Usage: usage}) {
			return true
		}
		return emit(llm.StreamChunk{Kind: llm.ChunkDone})
	}
	return false
}
