package openai

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

func testMessages() []task.Message {
	return []task.Message{{Role: task.RoleUser, Content: "hello"}}
}

func TestStream_SetsBearerAuthAndEndpoint(t *testing.T) {
	doer := &fakeDoer{resp: sseResponse("data: [DONE]\n\n")}
	p := &Provider{http: doer, apiKey: "sk-test", baseURL: defaultBaseURL, model: "gpt-4o"}

	ch, err := p.Stream(context.Background(), testMessages(), nil)
	require.NoError(t, err)
	drainChunks(ch)

	require.NotNil(t, doer.req)
	assert.Equal(t, defaultBaseURL+"/chat/completions", doer.req.URL.String())
	assert.Equal(t, "Bearer sk-test", doer.req.Header.Get("Authorization"))
}

func TestStream_DecodesTextAndToolCallDeltas(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		``,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"read_file","arguments":"{\"path\":"}}]}}]}`,
		``,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"a.txt\"}"}}]}}]}`,
		``,
		`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	doer := &fakeDoer{resp: sseResponse(body)}
	p := &Provider{http: doer, apiKey: "k", baseURL: defaultBaseURL, model: "gpt-4o"}

	ch, err := p.Stream(context.Background(), testMessages(), nil)
	require.NoError(t, err)
	chunks := drainChunks(ch)

	var gotText, gotToolCall, gotDone bool
	for _, c := range chunks {
		switch c.Kind {
		case llm.ChunkText:
			gotText = gotText || c.Text == "hi"
		case llm.ChunkToolCall:
			gotToolCall = gotToolCall || (c.ToolCall != nil && c.ToolCall.Name == "read_file" && c.ToolCall.Args["path"] == "a.txt")
		case llm.ChunkDone:
			gotDone = true
		}
	}
	assert.True(t, gotText, "expected a text chunk")
	assert.True(t, gotToolCall, "expected a tool call chunk with joined args")
	assert.True(t, gotDone, "expected a terminal done chunk")
}

func TestStream_NonOKStatusReturnsError(t *testing.T) {
	resp := sseResponse(`{"error":"bad request"}`)
	resp.StatusCode = http.StatusBadRequest
	doer := &fakeDoer{resp: resp}
	p := &Provider{http: doer, apiKey: "k", baseURL: defaultBaseURL, model: "gpt-4o"}

	_, err := p.Stream(context.Background(), testMessages(), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
