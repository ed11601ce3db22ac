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

// Package anthropic implements llm.Provider on top of Anthropic's Claude
// Messages API. Non-streaming calls use github.com/anthropics/anthropic-sdk-go
// directly; the streaming path issues its own HTTP POST and decodes the
// response with pkg/llm/sse, the way the teacher's own Anthropic client does
// (.teacher-ref/pkg/model/anthropic/anthropic.go's generateStream), because
// the SDK's ssestream iterator doesn't give spec-mandated control over event
// framing. Grounded on goadesign-goa-ai's features/model/anthropic adapter
// for message/tool encoding and the streaming chunk processor's per-index
// tool/thinking buffers, adapted from that adapter's planner-agnostic
// model.Request/Response onto sage-core's own pkg/task and pkg/llm types.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func init() {
	llm.RegisterFactory("anthropic", func(cfg llm.Config) (llm.Provider, error) {
		return New(cfg)
	})
}

// defaultBaseURL matches the SDK's own default target, used when cfg.BaseURL
// is unset so the raw streaming request hits the same endpoint Complete's
// SDK-backed call would.
const defaultBaseURL = "https://api.anthropic.com"

// apiVersion is the Messages API version header every request must carry.
const apiVersion = "2023-06-01"

// messagesClient captures the subset of the SDK client Complete uses, so
// tests can substitute a fake.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// httpDoer captures the subset of *http.Client Stream uses, so tests can
// substitute a fake transport without a live API key.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider implements llm.Provider against the Anthropic Messages API.
type Provider struct {
	msg           messagesClient
	http          httpDoer
	apiKey        string
	baseURL       string
	model         string
	maxTokens     int
	temperature   float64
	topP          float64
	topK          int
	stopSequences []string
}

// New constructs a Provider from llm.Config. cfg.BaseURL, if set, overrides
// the default Anthropic endpoint (used for proxies/gateways) for both the
// SDK-backed Complete path and the hand-rolled streaming path.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := sdk.NewClient(opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 1.0
	}

	return &Provider{
		msg:           &client.Messages,
		http:          http.DefaultClient,
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		model:         cfg.Model,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          cfg.TopP,
		topK:          cfg.TopK,
		stopSequences: cfg.StopSequences,
	}, nil
}

func (p *Provider) Name() string  { return "anthropic" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (llm.Result, error) {
	params, err := p.buildRequest(messages, tools)
	if err != nil {
		return llm.Result{}, err
	}
	msg, err := p.msg.New(ctx, params)
	if err != nil {
		return llm.Result{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}
	return translateMessage(msg), nil
}

func (p *Provider) Stream(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	params, err := p.buildRequest(messages, tools)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal stream request: %w", err)
	}
	// MessageNewParams has no Stream field of its own (New vs NewStreaming
	// is a client-method choice in the SDK); the raw wire body still needs
	// "stream": true or the API replies with a single JSON document instead
	// of an event stream.
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("anthropic: inspect stream request: %w", err)
	}
	payload["stream"] = true
	body, err = json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: re-marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: stream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic: stream request failed (status %d): %s", resp.StatusCode, string(errBody))
	}

	out := make(chan llm.StreamChunk, 32)
	go runStream(ctx, resp.Body, out)
	return out, nil
}

func (p *Provider) buildRequest(messages []task.Message, tools []llm.ToolDefinition) (sdk.MessageNewParams, error) {
	msgs, system, err := encodeMessages(messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, errors.New("anthropic: at least one user/assistant message is required")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if p.temperature > 0 {
		params.Temperature = sdk.Float(p.temperature)
	}
	if p.topP > 0 {
		params.TopP = sdk.Float(p.topP)
	}
	if p.topK > 0 {
		params.TopK = sdk.Int(int64(p.topK))
	}
	if len(p.stopSequences) > 0 {
		params.StopSequences = p.stopSequences
	}
	if len(tools) > 0 {
		params.Tools = encodeTools(tools)
	}
	return params, nil
}

func encodeMessages(messages []task.Message) ([]sdk.MessageParam, string, error) {
	var system strings.Builder
	out := make([]sdk.MessageParam, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case task.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
		case task.RoleUser:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case task.RoleAssistant:
			blocks := make([]sdk.ContentBlockParamUnion, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, tc.Args, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case task.RoleTool:
			content := m.Content
			out = append(out, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolCallID, content, false)))
		default:
			return nil, "", fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	return out, system.String(), nil
}

func encodeTools(defs []llm.ToolDefinition) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := sdk.ToolInputSchemaParam{ExtraFields: d.Parameters}
		u := sdk.ToolUnionParamOfTool(schema, d.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(d.Description)
		}
		out = append(out, u)
	}
	return out
}

func translateMessage(msg *sdk.Message) llm.Result {
	var result llm.Result
	var text strings.Builder

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			var args map[string]any
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &args)
			}
			result.ToolCalls = append(result.ToolCalls, task.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}
	result.Text = text.String()
	result.Usage = task.Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		CacheHits:    int(msg.Usage.CacheReadInputTokens),
	}
	result.StopKind = translateStopReason(string(msg.StopReason))
	return result
}

func translateStopReason(reason string) llm.StopKind {
	switch reason {
	case "tool_use":
		return llm.StopToolUse
	case "max_tokens":
		return llm.StopMaxTokens
	case "end_turn", "stop_sequence":
		return llm.StopEndTurn
	default:
		return llm.StopOther
	}
}
