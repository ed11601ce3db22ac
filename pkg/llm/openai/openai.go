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

// Package openai implements llm.Provider against any OpenAI Chat
// Completions-compatible endpoint (OpenAI itself, Azure OpenAI, OpenRouter,
// Doubao, GLM). Non-streaming calls use github.com/sashabaranov/go-openai
// directly; the streaming path issues its own HTTP POST and decodes the
// response with pkg/llm/sse instead of the SDK's ChatCompletionStream
// iterator, the way the teacher's own model clients hand-roll their SSE
// reads (.teacher-ref/pkg/model/openai/openai.go's bufio.NewReader loop).
// Grounded on goadesign-goa-ai's features/model/openai adapter (ChatClient
// interface, message/tool encoding, response translation) and adapted from
// that adapter's planner-agnostic model.Request/Response onto sage-core's
// own pkg/task and pkg/llm types.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

// defaultBaseURL matches go-openai's own DefaultConfig base URL, used when
// cfg.BaseURL is unset so the raw streaming request hits the same endpoint
// the SDK-backed Complete call would.
const defaultBaseURL = "https://api.openai.com/v1"

func init() {
	llm.RegisterFactory("openai", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
	// OpenRouter, Doubao, and GLM all speak the OpenAI Chat Completions
	// wire format; only the base URL differs, which cfg.BaseURL already
	// carries.
	llm.RegisterFactory("openrouter", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
	llm.RegisterFactory("doubao", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
	llm.RegisterFactory("glm", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
	llm.RegisterFactory("azure", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
}

// chatClient captures the subset of the go-openai client Complete uses, so
// tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req sdk.ChatCompletionRequest) (sdk.ChatCompletionResponse, error)
}

// httpDoer captures the subset of *http.Client Stream uses, so tests can
// substitute a fake transport without a live API key.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider implements llm.Provider against an OpenAI-compatible endpoint.
type Provider struct {
	name          string
	chat          chatClient
	http          httpDoer
	apiKey        string
	baseURL       string
	model         string
	maxTokens     int
	temperature   float64
	topP          float64
	stopSequences []string
}

// New constructs a Provider from llm.Config. cfg.BaseURL, if set, points
// the client at a compatible endpoint other than OpenAI itself.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	clientConfig := sdk.DefaultConfig(cfg.APIKey)
	baseURL := defaultBaseURL
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
		baseURL = cfg.BaseURL
	}
	client := sdk.NewClientWithConfig(clientConfig)
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Provider{
		name:          "openai",
		chat:          client,
		http:          http.DefaultClient,
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
		topP:          cfg.TopP,
		stopSequences: cfg.StopSequences,
	}, nil
}

func (p *Provider) Name() string  { return p.name }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (llm.Result, error) {
	req, err := p.buildRequest(messages, tools, false)
	if err != nil {
		return llm.Result{}, err
	}
	resp, err := p.chat.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Result{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	return translateResponse(resp), nil
}

func (p *Provider) Stream(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	req, err := p.buildRequest(messages, tools, true)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal stream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build stream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: stream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai: stream request failed (status %d): %s", resp.StatusCode, string(errBody))
	}

	out := make(chan llm.StreamChunk, 32)
	go runStream(ctx, resp.Body, out)
	return out, nil
}

func (p *Provider) buildRequest(messages []task.Message, tools []llm.ToolDefinition, stream bool) (sdk.ChatCompletionRequest, error) {
	encoded, err := encodeMessages(messages)
	if err != nil {
		return sdk.ChatCompletionRequest{}, err
	}
	req := sdk.ChatCompletionRequest{
		Model:    p.model,
		Messages: encoded,
		Stream:   stream,
	}
	if p.maxTokens > 0 {
		req.MaxTokens = p.maxTokens
	}
	if p.temperature > 0 {
		req.Temperature = float32(p.temperature)
	}
	if p.topP > 0 {
		req.TopP = float32(p.topP)
	}
	if len(p.stopSequences) > 0 {
		req.Stop = p.stopSequences
	}
	if len(tools) > 0 {
		encodedTools, err := encodeTools(tools)
		if err != nil {
			return sdk.ChatCompletionRequest{}, err
		}
		req.Tools = encodedTools
	}
	return req, nil
}

func encodeMessages(messages []task.Message) ([]sdk.ChatCompletionMessage, error) {
	out := make([]sdk.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case task.RoleSystem:
			out = append(out, sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleSystem, Content: m.Content})
		case task.RoleUser:
			out = append(out, sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleUser, Content: m.Content})
		case task.RoleAssistant:
			msg := sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Args)
				if err != nil {
					return nil, fmt.Errorf("openai: marshal tool call %q args: %w", tc.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, sdk.ToolCall{
					ID:   tc.ID,
					Type: sdk.ToolTypeFunction,
					Function: sdk.FunctionCall{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, msg)
		case task.RoleTool:
			out = append(out, sdk.ChatCompletionMessage{
				Role:       sdk.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		default:
			return nil, fmt.Errorf("openai: unsupported message role %q", m.Role)
		}
	}
	return out, nil
}

func encodeTools(defs []llm.ToolDefinition) ([]sdk.Tool, error) {
	out := make([]sdk.Tool, 0, len(defs))
	for _, d := range defs {
		params, err := json.Marshal(d.Parameters)
		if err != nil {
			return nil, fmt.Errorf("openai: marshal tool %q schema: %w", d.Name, err)
		}
		out = append(out, sdk.Tool{
			Type: sdk.ToolTypeFunction,
			Function: &sdk.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return out, nil
}

func translateResponse(resp sdk.ChatCompletionResponse) llm.Result {
	var result llm.Result
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		result.Text = choice.Message.Content
		for _, call := range choice.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, task.ToolCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: parseArguments(call.Function.Arguments),
			})
		}
		result.StopKind = translateFinishReason(string(choice.FinishReason))
	}
	result.Usage = task.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	return result
}

func translateFinishReason(reason string) llm.StopKind {
	switch reason {
	case "tool_calls":
		return llm.StopToolUse
	case "length":
		return llm.StopMaxTokens
	case "stop":
		return llm.StopEndTurn
	default:
		return llm.StopOther
	}
}

func parseArguments(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"_raw": raw}
	}
	return args
}
