package anthropic

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/llm"
	"github.com/sagerun/sage-core/pkg/task"
)

func testMessages() []task.Message {
	return []task.Message{{Role: task.RoleUser, Content: "hello"}}
}

type fakeDoer struct {
	resp *http.Response
	err  error
	req  *http.Request
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.req = req
	return f.resp, f.err
}

func sseResponse(body string) *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body))}
}

func drainChunks(ch <-chan llm.StreamChunk) []llm.StreamChunk {
	var out []llm.StreamChunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestStream_SetsAnthropicHeadersAndEndpoint(t *testing.T) {
	doer := &fakeDoer{resp: sseResponse("")}
	p := &Provider{http: doer, apiKey: "sk-test", baseURL: defaultBaseURL, model: "claude-x", maxTokens: 100}

	ch, err := p.Stream(context.Background(), testMessages(), nil)
	require.NoError(t, err)
	drainChunks(ch)

	require.NotNil(t, doer.req)
	assert.Equal(t, defaultBaseURL+"/v1/messages", doer.req.URL.String())
	assert.Equal(t, "sk-test", doer.req.Header.Get("x-api-key"))
	assert.Equal(t, apiVersion, doer.req.Header.Get("anthropic-version"))
	assert.Equal(t, "application/json", doer.req.Header.Get("Content-Type"))
}

func TestStream_DecodesTextAndToolCallEvents(t *testing.T) {
	body := strings.Join([]string{
		`data: {"type":"message_start"}`,
		``,
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}`,
		``,
		`data: {"type":"content_block_stop","index":0}`,
		``,
		`data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"call_1","name":"read_file"}}`,
		``,
		`data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"path\":"}}`,
		``,
		`data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"a.txt\"}"}}`,
		``,
		`data: {"type":"content_block_stop","index":1}`,
		``,
		`data: {"type":"message_delta","delta":{},"usage":{"input_tokens":12,"output_tokens":4}}`,
		``,
		`data: {"type":"message_stop"}`,
		``,
	}, "\n")

	doer := &fakeDoer{resp: sseResponse(body)}
	p := &Provider{http: doer, apiKey: "k", baseURL: defaultBaseURL, model: "claude-x", maxTokens: 100}

	ch, err := p.Stream(context.Background(), testMessages(), nil)
	require.NoError(t, err)
	chunks := drainChunks(ch)

	var gotText, gotToolCall, gotUsage, gotDone bool
	for _, c := range chunks {
		switch c.Kind {
		case llm.ChunkText:
			gotText = gotText || c.Text == "hi"
		case llm.ChunkToolCall:
			gotToolCall = gotToolCall || (c.ToolCall != nil && c.ToolCall.Name == "read_file" && c.ToolCall.Args["path"] == "a.txt")
		case llm.ChunkUsage:
			gotUsage = gotUsage || (c.Usage.InputTokens == 12 && c.Usage.OutputTokens == 4)
		case llm.ChunkDone:
			gotDone = true
		}
	}
	assert.True(t, gotText, "expected a text chunk")
	assert.True(t, gotToolCall, "expected a tool call chunk with joined args")
	assert.True(t, gotUsage, "expected a usage chunk")
	assert.True(t, gotDone, "expected a terminal done chunk")
}

func TestStream_NonOKStatusReturnsError(t *testing.T) {
	resp := sseResponse(`{"error":"bad request"}`)
	resp.StatusCode = http.StatusBadRequest
	doer := &fakeDoer{resp: resp}
	p := &Provider{http: doer, apiKey: "k", baseURL: defaultBaseURL, model: "claude-x", maxTokens: 100}

	_, err := p.Stream(context.Background(), testMessages(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
