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

// Package google implements llm.Provider against Google's Gemini models
// using the official google.golang.org/genai SDK, grounded on the
// teacher's pkg/model/gemini (genai.Client, Content/Part/FunctionCall
// encoding, toGenaiSchema recursive JSON-Schema conversion, stable
// function-call-ID generation for calls Gemini returns without an ID) and
// adapted from the teacher's a2a.Message-based model.Request/Response onto
// sage-core's own pkg/task and pkg/llm types.
package google

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func init() {
	llm.RegisterFactory("google", func(cfg llm.Config) (llm.Provider, error) { return New(cfg) })
}

// Provider implements llm.Provider against the Gemini API.
type Provider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// New constructs a Provider from llm.Config.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google: api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("google: creating client: %w", err)
	}

	return &Provider{client: client, model: model, maxTokens: cfg.MaxTokens, temperature: cfg.Temperature}, nil
}

func (p *Provider) Name() string  { return "google" }
func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (llm.Result, error) {
	contents, system := buildContents(messages)
	config := p.buildConfig(system, tools)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return llm.Result{}, fmt.Errorf("google: generate content: %w", err)
	}
	return translateResponse(resp), nil
}

func (p *Provider) Stream(ctx context.Context, messages []task.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	contents, system := buildContents(messages)
	config := p.buildConfig(system, tools)

	out := make(chan llm.StreamChunk, 32)
	go func() {
		defer close(out)
		emittedCalls := map[string]bool{}

		emit := func(c llm.StreamChunk) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- c:
				return true
			}
		}

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, config) {
			if err != nil {
				emit(llm.StreamChunk{Kind: llm.ChunkError, Err: err})
				return
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text != "" {
					kind := llm.ChunkText
					if part.Thought {
						kind = llm.ChunkThinking
					}
					if !emit(llm.StreamChunk{Kind: kind, Text: part.Text}) {
						return
					}
				}
				if part.FunctionCall != nil {
					id := part.FunctionCall.ID
					if id == "" {
						id = stableCallID(part.FunctionCall.Name, part.FunctionCall.Args)
					}
					if emittedCalls[id] {
						continue
					}
					emittedCalls[id] = true
					if !emit(llm.StreamChunk{
						Kind:     llm.ChunkToolCall,
						ToolCall: &task.ToolCall{ID: id, Name: part.FunctionCall.Name, Args: part.FunctionCall.Args},
					}) {
						return
					}
				}
			}
			if resp.UsageMetadata != nil {
				usage := task.Usage{
					InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
					OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				}
				if !emit(llm.StreamChunk{Kind: llm.ChunkUsage, Usage: usage}) {
					return
				}
			}
		}
		emit(llm.StreamChunk{Kind: llm.ChunkDone})
	}()
	return out, nil
}

func (p *Provider) buildConfig(system *genai.Content, tools []llm.ToolDefinition) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if p.temperature > 0 {
		t := float32(p.temperature)
		config.Temperature = &t
	}
	if p.maxTokens > 0 {
		config.MaxOutputTokens = int32(p.maxTokens)
	}
	if len(tools) > 0 {
		config.Tools = buildTools(tools)
	}
	return config
}

func buildContents(messages []task.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	for _, m := range messages {
		switch m.Role {
		case task.RoleSystem:
			if m.Content == "" {
				continue
			}
			system = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}, Role: "user"}
		case task.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		case task.RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Args}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case task.RoleTool:
			var response map[string]any
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil {
				response = map[string]any{"result": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{ID: m.ToolCallID, Name: m.ToolCallID, Response: response},
				}},
			})
		}
	}
	return contents, system
}

func buildTools(defs []llm.ToolDefinition) []*genai.Tool {
	tools := make([]*genai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  toGenaiSchema(d.Parameters),
			}},
		})
	}
	return tools
}

func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(t)
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	return s
}

func translateResponse(resp *genai.GenerateContentResponse) llm.Result {
	var result llm.Result
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return result
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text += part.Text
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = stableCallID(part.FunctionCall.Name, part.FunctionCall.Args)
			}
			result.ToolCalls = append(result.ToolCalls, task.ToolCall{ID: id, Name: part.FunctionCall.Name, Args: part.FunctionCall.Args})
		}
	}
	result.Text = text
	if resp.UsageMetadata != nil {
		result.Usage = task.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(result.ToolCalls) > 0 {
		result.StopKind = llm.StopToolUse
	} else {
		result.StopKind = llm.StopEndTurn
	}
	return result
}

// stableCallID derives a deterministic tool-call ID from name+args for
// calls Gemini returns without one, so the same call is never counted
// twice across streamed chunks.
func stableCallID(name string, args map[string]any) string {
	data, _ := json.Marshal(map[string]any{"name": name, "args": args})
	hash := sha256.Sum256(data)
	return fmt.Sprintf("google-%x", hash[:8])
}
