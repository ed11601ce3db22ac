package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// fakeTransport is an in-memory Transport double: Send pushes requests to
// a channel a test-controlled "server" goroutine reads from, and Receive
// reads whatever that goroutine pushes back — letting tests drive Client
// through a handshake and calls without a real subprocess or socket.
type fakeTransport struct {
	toServer   chan Request
	fromServer chan Response
	closed     bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{toServer: make(chan Request, 8), fromServer: make(chan Response, 8)}
}

func (f *fakeTransport) Send(ctx context.Context, req Request) error {
	f.toServer <- req
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (Response, error) {
	select {
	case resp, ok := <-f.fromServer:
		if !ok {
			return Response{}, context.Canceled
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (f *fakeTransport) Close() error {
	f.closed = true
	close(f.fromServer)
	return nil
}

func (f *fakeTransport) IsConnected() bool { return !f.closed }

// runFakeServer answers exactly the requests a real MCP server would for
// the methods this test exercises: initialize, tools/list, tools/call.
func runFakeServer(t *testing.T, ft *fakeTransport) {
	t.Helper()
	go func() {
		for req := range ft.toServer {
			switch req.Method {
			case MethodInitialize:
				result, _ := json.Marshal(InitializeResult{
					ProtocolVersion: ProtocolVersion,
					ServerInfo:      Implementation{Name: "fake-server", Version: "1.0"},
					Capabilities:    map[string]any{},
				})
				ft.fromServer <- Response{JSONRPC: "2.0", ID: req.ID, Result: result}
			case MethodInitialized:
				// notification, no response
			case MethodToolsList:
				result, _ := json.Marshal(ToolsListResult{Tools: []Tool{
					{Name: "echo", Description: "echoes input", InputSchema: map[string]any{"type": "object"}},
				}})
				ft.fromServer <- Response{JSONRPC: "2.0", ID: req.ID, Result: result}
			case MethodToolsCall:
				var params ToolsCallParams
				_ = json.Unmarshal(req.Params, &params)
				result, _ := json.Marshal(ToolsCallResult{Content: []ContentBlock{{Type: "text", Text: "you said: " + params.Arguments["text"].(string)}}})
				ft.fromServer <- Response{JSONRPC: "2.0", ID: req.ID, Result: result}
			}
		}
	}()
}

func TestClient_InitializeAndListTools(t *testing.T) {
	ft := newFakeTransport()
	runFakeServer(t, ft)
	client := NewClient("fake", ft)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := client.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	require.NoError(t, err)
	assert.Equal(t, "fake-server", result.ServerInfo.Name)
	assert.True(t, client.IsInitialized())

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)
	assert.Equal(t, "echo", tools.Tools[0].Name)
}

func TestClient_CallToolProxiesArguments(t *testing.T) {
	ft := newFakeTransport()
	runFakeServer(t, ft)
	client := NewClient("fake", ft)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := client.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	require.NoError(t, err)

	result, err := client.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "you said: hi", result.Content[0].Text)
}

func TestClient_CallTimesOutWhenNoResponseArrives(t *testing.T) {
	ft := newFakeTransport() // no server goroutine: nothing ever answers
	client := NewClient("silent", ft)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	assert.Error(t, err)
}

func TestRegistry_DiscoverToolsDedupesByFirstRegistered(t *testing.T) {
	ftA := newFakeTransport()
	runFakeServer(t, ftA)
	clientA := NewClient("a", ftA)

	ftB := newFakeTransport()
	runFakeServer(t, ftB)
	clientB := NewClient("b", ftB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := clientA.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	require.NoError(t, err)
	_, err = clientB.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Add("a", clientA)
	reg.Add("b", clientB)

	tools, err := reg.DiscoverTools(ctx)
	require.NoError(t, err)

	count := 0
	for _, tl := range tools {
		if tl.Name() == "echo" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the same tool name from two servers must be deduped to one")
}

func TestAdapterTool_CallReturnsToolOutput(t *testing.T) {
	ft := newFakeTransport()
	runFakeServer(t, ft)
	client := NewClient("fake", ft)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := client.Initialize(ctx, Implementation{Name: "sage-core", Version: "test"})
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Add("fake", client)
	tools, err := reg.DiscoverTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)

	callable, ok := tools[0].(tool.CallableTool)
	require.True(t, ok)

	result, err := callable.Call(ctx, task.ToolCall{ID: "1", Name: "echo", Args: map[string]any{"text": "adapter"}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "you said: adapter", result.Output)
}
