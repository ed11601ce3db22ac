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

// Package sse implements a provider-agnostic Server-Sent Events decoder:
// a single state machine that joins multi-line data: fields, ignores
// comment lines, and emits one Event per blank-line-terminated record.
// Grounded on the teacher's hand-rolled stream readers
// (.teacher-ref/pkg/model/anthropic/anthropic.go's bufio.NewReader loop
// and pkg/model/openai/openai.go's event:/data: line handling), generalized
// into a single reusable decoder both sage-core LLM providers drive instead
// of duplicating the loop per backend.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Event is one decoded SSE record: an optional event name (from one or
// more "event:" lines) and the data payload (one or more "data:" lines
// joined with "\n", per the SSE spec).
type Event struct {
	Name string
	Data string
}

// Done is the sentinel payload OpenAI-compatible and some Anthropic-proxy
// backends send to mark the end of a stream ("data: [DONE]"). The decoder
// recognizes it and stops iteration without treating it as a real event.
const Done = "[DONE]"

// Decoder reads an SSE byte stream and yields Events. Callers drive it
// with Next/Event/Err, mirroring the bufio.Scanner convention:
//
//	dec := sse.NewDecoder(resp.Body)
//	for dec.Next() {
//	    ev := dec.Event()
//	    ...
//	}
//	if err := dec.Err(); err != nil { ... }
type Decoder struct {
	r    *bufio.Reader
	ev   Event
	err  error
	done bool
}

// NewDecoder wraps r (typically an HTTP response body) in a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next advances to the next Event, returning false when the stream ends
// (EOF or a [DONE] sentinel), is exhausted, or an error occurs. Check Err
// after Next returns false to distinguish a clean end from a read error.
func (d *Decoder) Next() bool {
	if d.done || d.err != nil {
		return false
	}

	var name strings.Builder
	var data []string
	sawField := false

	for {
		line, err := d.r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if line != "" {
			switch {
			case strings.HasPrefix(line, ":"):
				// Comment line; ignored per the SSE spec.
			case strings.HasPrefix(line, "event:"):
				sawField = true
				name.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "event:")))
			case strings.HasPrefix(line, "data:"):
				sawField = true
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			default:
				// Unrecognized field (id:, retry:, bare text); ignored.
			}
		}

		atEOF := errors.Is(err, io.EOF)
		if line == "" || atEOF {
			if sawField {
				joined := strings.Join(data, "\n")
				if joined == Done {
					d.done = true
					return false
				}
				// A trailing record with no terminating blank line (EOF
				// hit right after its last field line) still counts; the
				// next Next() call will see a field-less EOF and stop.
				d.ev = Event{Name: name.String(), Data: joined}
				return true
			}
			if atEOF {
				return false
			}
			if err != nil {
				d.err = err
				return false
			}
			// Blank line with nothing collected yet: keep reading.
			continue
		}

		if err != nil && !atEOF {
			d.err = err
			return false
		}
	}
}

// Event returns the most recently decoded event. Only valid after a Next
// call that returned true.
func (d *Decoder) Event() Event { return d.ev }

// Err returns the first non-EOF error encountered, if any.
func (d *Decoder) Err() error { return d.err }
