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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Client is one connection to an MCP server: holds the transport, server
// info and capabilities from the handshake, cached tool/resource/prompt
// lists, a monotonic request-id counter, a pending-requests map, and an
// initialized flag. A single reader goroutine dispatches incoming frames
// to pending request futures by id; frames with no id are notifications.
//
// Grounded on the spec's "Client state" description (§4.7), assembled from
// the teacher's two transport-specific connect methods
// (connectStdio/connectHTTP in pkg/tool/mcptoolset) generalized behind one
// Transport interface so the handshake, request correlation, and timeout
// logic is written once instead of once per transport.
type Client struct {
	name      string
	transport Transport
	nextID    atomic.Int64

	mu           sync.Mutex
	pending      map[int64]chan Response
	serverInfo   Implementation
	capabilities map[string]any
	initialized  bool

	readerOnce sync.Once
	readerDone chan struct{}
}

// NewClient wraps transport as a named MCP server connection. name
// identifies the server in the registry and in log lines.
func NewClient(name string, transport Transport) *Client {
	return &Client{
		name:       name,
		transport:  transport,
		pending:    make(map[int64]chan Response),
		readerDone: make(chan struct{}),
	}
}

// Initialize performs the initialize/notifications-initialized handshake.
// Must be called, and succeed, before any other method.
func (c *Client) Initialize(ctx context.Context, clientInfo Implementation) (InitializeResult, error) {
	c.startReader()

	var result InitializeResult
	if err := c.call(ctx, MethodInitialize, InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo,
	}, &result); err != nil {
		return InitializeResult{}, fmt.Errorf("mcp %s: initialize: %w", c.name, err)
	}

	if err := c.transport.Send(ctx, Request{JSONRPC: "2.0", Method: MethodInitialized}); err != nil {
		return InitializeResult{}, fmt.Errorf("mcp %s: notifications/initialized: %w", c.name, err)
	}

	c.mu.Lock()
	c.serverInfo = result.ServerInfo
	c.capabilities = result.Capabilities
	c.initialized = true
	c.mu.Unlock()

	return result, nil
}

func (c *Client) ListTools(ctx context.Context) (ToolsListResult, error) {
	var result ToolsListResult
	err := c.call(ctx, MethodToolsList, struct{}{}, &result)
	return result, err
}

func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (ToolsCallResult, error) {
	var result ToolsCallResult
	err := c.call(ctx, MethodToolsCall, ToolsCallParams{Name: name, Arguments: args}, &result)
	return result, err
}

func (c *Client) ListResources(ctx context.Context) (ResourcesListResult, error) {
	var result ResourcesListResult
	err := c.call(ctx, MethodResourcesList, struct{}{}, &result)
	return result, err
}

func (c *Client) ReadResource(ctx context.Context, uri string) (ResourcesReadResult, error) {
	var result ResourcesReadResult
	err := c.call(ctx, MethodResourcesRead, ResourcesReadParams{URI: uri}, &result)
	return result, err
}

func (c *Client) ListPrompts(ctx context.Context) (PromptsListResult, error) {
	var result PromptsListResult
	err := c.call(ctx, MethodPromptsList, struct{}{}, &result)
	return result, err
}

func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]any) (PromptsGetResult, error) {
	var result PromptsGetResult
	err := c.call(ctx, MethodPromptsGet, PromptsGetParams{Name: name, Arguments: args}, &result)
	return result, err
}

func (c *Client) Ping(ctx context.Context) error {
	var result struct{}
	return c.call(ctx, MethodPing, struct{}{}, &result)
}

// IsInitialized reports whether Initialize has completed successfully.
func (c *Client) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// ServerInfo returns the server's identity as reported during handshake.
func (c *Client) ServerInfo() Implementation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

// Close tears down the transport and releases any still-pending callers
// with an error, so a connection drop does not leave a goroutine blocked
// forever on a response that will never arrive.
func (c *Client) Close() error {
	err := c.transport.Close()
	c.mu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	return err
}

// call sends method with params, awaiting the matching response by id or
// ctx's deadline, whichever comes first — an outstanding request whose
// context expires is removed from the pending map so it cannot be
// resolved by a late-arriving frame.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	id := c.nextID.Add(1)
	respCh := make(chan Response, 1)

	c.mu.Lock()
	c.pending[id] = respCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.transport.Send(ctx, Request{JSONRPC: "2.0", ID: &id, Method: method, Params: raw}); err != nil {
		return err
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return fmt.Errorf("mcp %s: connection closed while awaiting %s", c.name, method)
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out != nil && len(resp.Result) > 0 {
			return json.Unmarshal(resp.Result, out)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startReader launches the single reader goroutine that dispatches
// incoming frames to pending request futures by id, or drops
// notifications (frames with no id) since no external subscriber wiring
// exists yet for server-initiated notifications.
func (c *Client) startReader() {
	c.readerOnce.Do(func() {
		go func() {
			defer close(c.readerDone)
			for {
				resp, err := c.transport.Receive(context.Background())
				if err != nil {
					if err != io.EOF {
						slog.Debug("mcp reader stopped", "server", c.name, "error", err)
					}
					c.mu.Lock()
					for id, ch := range c.pending {
						close(ch)
						delete(c.pending, id)
					}
					c.mu.Unlock()
					return
				}
				if resp.IsNotification() {
					continue
				}
				c.mu.Lock()
				ch, ok := c.pending[*resp.ID]
				c.mu.Unlock()
				if !ok {
					continue // no one is waiting (already timed out, or stray id)
				}
				select {
				case ch <- resp:
				case <-time.After(time.Second):
				}
			}
		}()
	})
}
