package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/breaker"
	"github.com/sagerun/sage-core/pkg/ratelimit"
	"github.com/sagerun/sage-core/pkg/task"
)

type fakeProvider struct {
	name string
	err  error
	n    int
}

func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Model() string { return "fake-model" }
func (f *fakeProvider) Complete(ctx context.Context, messages []task.Message, tools []ToolDefinition) (Result, error) {
	f.n++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Text: "ok"}, nil
}
func (f *fakeProvider) Stream(ctx context.Context, messages []task.Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	f.n++
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Kind: ChunkDone}
	close(ch)
	return ch, f.err
}

func TestResilient_NoWrappersReturnsOriginal(t *testing.T) {
	fp := &fakeProvider{name: "fake"}
	p := Resilient(fp, nil, nil)
	assert.Same(t, Provider(fp), p)
}

func TestResilient_RateLimiterGatesCompleteAndStream(t *testing.T) {
	fp := &fakeProvider{name: "fake"}
	limiter := ratelimit.NewRegistry(map[string]ratelimit.Config{"fake": {RatePerSecond: 1000, Burst: 10}}, ratelimit.Config{})
	p := Resilient(fp, limiter, nil)

	_, err := p.Complete(context.Background(), nil, nil)
	require.NoError(t, err)
	_, err = p.Stream(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, fp.n)
}

func TestResilient_BreakerOpensAfterFailures(t *testing.T) {
	fp := &fakeProvider{name: "fake", err: errors.New("boom")}
	breakers := breaker.NewRegistry(breaker.Config{MaxFailures: 2})
	p := Resilient(fp, nil, breakers)

	_, err := p.Complete(context.Background(), nil, nil)
	assert.Error(t, err)
	_, err = p.Complete(context.Background(), nil, nil)
	assert.Error(t, err)

	calledBefore := fp.n
	_, err = p.Complete(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Equal(t, calledBefore, fp.n, "circuit should be open and reject without calling the provider")
}
