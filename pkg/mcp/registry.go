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

package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// Registry is the process-wide map of server name to Client. Tool
// discovery aggregates across every initialized server; on a name
// collision the first-registered server's tool wins and the duplicate is
// logged and ignored, matching the spec's explicit tiebreak rule.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	tools   map[string]string // tool name -> owning server name, for collision detection
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client), tools: make(map[string]string)}
}

// Add registers client under name. The client must already be
// initialized; Add does not call Initialize itself since stdio/http/ws
// connection setup differs enough (subprocess spawn vs. dial vs. POST)
// that the caller is better placed to construct and initialize the right
// transport before handing the client to the registry.
func (r *Registry) Add(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
}

func (r *Registry) Get(name string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// DiscoverTools lists tools from every registered, initialized client and
// wraps each as a tool.CallableTool adapter, registering the first
// server's copy of a given tool name and logging+ignoring every
// subsequent collision.
func (r *Registry) DiscoverTools(ctx context.Context) ([]tool.Tool, error) {
	r.mu.RLock()
	clients := make(map[string]*Client, len(r.clients))
	for name, c := range r.clients {
		clients[name] = c
	}
	r.mu.RUnlock()

	var out []tool.Tool
	for serverName, client := range clients {
		if !client.IsInitialized() {
			continue
		}
		listed, err := client.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("mcp: list tools from %q: %w", serverName, err)
		}
		for _, t := range listed.Tools {
			r.mu.Lock()
			owner, exists := r.tools[t.Name]
			if exists {
				r.mu.Unlock()
				if owner != serverName {
					slog.Warn("mcp: duplicate tool name, keeping first-registered", "tool", t.Name, "kept_server", owner, "ignored_server", serverName)
				}
				continue
			}
			r.tools[t.Name] = serverName
			r.mu.Unlock()
			out = append(out, &adapterTool{server: serverName, client: client, def: t})
		}
	}
	return out, nil
}

// Close tears down every registered client's connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, c := range r.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mcp: close %q: %w", name, err)
		}
	}
	return firstErr
}

// adapterTool exposes one external MCP tool as a tool.CallableTool whose
// Call proxies tools/call to the owning server, translating a server-side
// RPC error (code, message) into ExecutionFailed with the server's text
// preserved, per the spec's failure-mapping rule.
type adapterTool struct {
	server string
	client *Client
	def    Tool
}

func (a *adapterTool) Name() string                         { return a.def.Name }
func (a *adapterTool) Description() string                  { return a.def.Description }
func (a *adapterTool) Schema() map[string]any                { return a.def.InputSchema }
func (a *adapterTool) RiskLevel() task.RiskLevel             { return task.RiskMedium }
func (a *adapterTool) ConcurrencyMode() task.ConcurrencyMode { return task.ConcurrencyExclusiveByType }
func (a *adapterTool) Category() tool.Category               { return tool.CategoryExternal }
func (a *adapterTool) RequiresApproval() bool                { return false }

func (a *adapterTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	result, err := a.client.CallTool(ctx, a.def.Name, call.Args)
	if err != nil {
		return task.ToolResult{
			CallID:   call.ID,
			ToolName: call.Name,
			Success:  false,
			Error:    fmt.Sprintf("mcp server %q: %v", a.server, err),
			Duration: time.Since(start),
		}, nil
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return task.ToolResult{
		CallID:   call.ID,
		ToolName: call.Name,
		Success:  !result.IsError,
		Output:   text,
		Duration: time.Since(start),
		Metadata: map[string]any{"mcp_server": a.server},
	}, nil
}
