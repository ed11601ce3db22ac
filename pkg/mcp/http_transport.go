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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// HTTPTransport speaks JSON-RPC over HTTP POST, one response per request,
// queuing decoded responses for Receive so it presents the same
// Send/Receive shape as the stdio and WebSocket transports. Grounded on
// the teacher's pkg/tools.MCPToolSource.makeHTTPRequest (POST with
// Content-Type/Accept headers, an optional mcp-session-id header for
// streamable-http servers), generalized from the teacher's
// request-then-immediately-decode call shape into the decoupled
// Send/Receive pair the spec's Transport interface calls for.
type HTTPTransport struct {
	url        string
	httpClient *http.Client
	mu         sync.Mutex
	sessionID  string
	responses  chan Response
	closed     bool
}

func NewHTTPTransport(url string, httpClient *http.Client) *HTTPTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPTransport{url: url, httpClient: httpClient, responses: make(chan Response, 16)}
}

func (t *HTTPTransport) Send(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	t.mu.Lock()
	sessionID := t.sessionID
	t.mu.Unlock()
	if sessionID != "" {
		httpReq.Header.Set("mcp-session-id", sessionID)
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mcp http: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if sid := httpResp.Header.Get("mcp-session-id"); sid != "" {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("mcp http: read body: %w", err)
	}
	if httpResp.StatusCode >= 300 {
		return fmt.Errorf("mcp http: server returned status %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("mcp http: decode response: %w", err)
	}

	select {
	case t.responses <- resp:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (t *HTTPTransport) Receive(ctx context.Context) (Response, error) {
	select {
	case resp, ok := <-t.responses:
		if !ok {
			return Response{}, io.EOF
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.responses)
	}
	return nil
}

func (t *HTTPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}
