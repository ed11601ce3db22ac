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
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WSTransport speaks JSON-RPC over a single persistent WebSocket
// connection, one frame per message. Grounded on
// clawinfra-evoclaw/internal/api/ws_terminal.go's use of
// websocket.Accept/Dial plus wsjson.Read/Write for framed JSON messages
// over the same connection package this module already depends on
// (github.com/coder/websocket, the successor of the nhooyr.io/websocket
// import path that file uses).
type WSTransport struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	connected bool
}

// DialWS connects to a WebSocket MCP server at url.
func DialWS(ctx context.Context, url string) (*WSTransport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &WSTransport{conn: conn, connected: true}, nil
}

func (t *WSTransport) Send(ctx context.Context, req Request) error {
	return wsjson.Write(ctx, t.conn, req)
}

func (t *WSTransport) Receive(ctx context.Context) (Response, error) {
	var resp Response
	if err := wsjson.Read(ctx, t.conn, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil
	}
	t.connected = false
	return t.conn.Close(websocket.StatusNormalClosure, "mcp client closing")
}

func (t *WSTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}
