package sse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for d.Next() {
		events = append(events, d.Event())
	}
	require.NoError(t, d.Err())
	return events
}

func TestDecoder_EmitsEventOnBlankLine(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"a\":1}\n\ndata: {\"a\":2}\n\n"))
	events := drain(t, d)
	require.Len(t, events, 2)
	assert.Equal(t, `{"a":1}`, events[0].Data)
	assert.Equal(t, `{"a":2}`, events[1].Data)
}

func TestDecoder_JoinsMultiLineDataFields(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: line one\ndata: line two\n\n"))
	events := drain(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, "line one\nline two", events[0].Data)
}

func TestDecoder_CapturesEventName(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: response.delta\ndata: {\"x\":true}\n\n"))
	events := drain(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, "response.delta", events[0].Name)
	assert.Equal(t, `{"x":true}`, events[0].Data)
}

func TestDecoder_IgnoresCommentLines(t *testing.T) {
	d := NewDecoder(strings.NewReader(": keep-alive\ndata: payload\n\n"))
	events := drain(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, "payload", events[0].Data)
}

func TestDecoder_HandlesCRLF(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: one\r\n\r\ndata: two\r\n\r\n"))
	events := drain(t, d)
	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Data)
	assert.Equal(t, "two", events[1].Data)
}

func TestDecoder_StopsOnDoneSentinelWithoutError(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"a\":1}\n\ndata: [DONE]\n\ndata: {\"a\":2}\n\n"))
	events := drain(t, d)
	require.Len(t, events, 1)
	assert.Equal(t, `{"a":1}`, events[0].Data)
}

func TestDecoder_EmitsTrailingRecordWithoutFinalBlankLine(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"a\":1}\n\ndata: {\"a\":2}"))
	events := drain(t, d)
	require.Len(t, events, 2)
	assert.Equal(t, `{"a":2}`, events[1].Data)
}

func TestDecoder_EmptyStreamYieldsNoEvents(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	events := drain(t, d)
	assert.Empty(t, events)
}
