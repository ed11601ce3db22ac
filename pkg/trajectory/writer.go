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

package trajectory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sagerun/sage-core/pkg/eventbus"
	"github.com/sagerun/sage-core/pkg/retry"
)

// RotationPolicy bounds a single trajectory file by record count, byte
// size, or both. A zero field means that dimension is unbounded.
type RotationPolicy struct {
	MaxRecords int64
	MaxBytes   int64
}

// countingWriter tracks bytes written so rotation-by-size doesn't need to
// stat the file after every record.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Writer is the single producer appending Records for one execution. The
// spec requires one writer per execution (§5, "Shared-resource policy"),
// so Writer holds no cross-execution state.
type Writer struct {
	mu  sync.Mutex
	dir string
	executionID string
	rotation    RotationPolicy
	bus         *eventbus.Bus

	file  *os.File
	cw    *countingWriter
	enc   *json.Encoder
	count int64

	seq atomic.Int64
}

// NewWriter opens the first trajectory file for executionID under dir,
// creating dir if needed. bus may be nil, in which case persistence
// failures are dropped rather than published.
func NewWriter(dir, executionID string, rotation RotationPolicy, bus *eventbus.Bus) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trajectory: create dir %s: %w", dir, err)
	}
	w := &Writer{dir: dir, executionID: executionID, rotation: rotation, bus: bus}
	if err := w.rotateLocked(time.Now()); err != nil {
		return nil, err
	}
	return w, nil
}

// fileName renders the spec's YYYYMMDD_HHMMSS_mmm_<execution-id>.jsonl
// pattern; milliseconds guard against two rotations within the same
// second colliding on disk.
func fileName(start time.Time, executionID string) string {
	ms := start.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%s_%03d_%s.jsonl", start.Format("20060102_150405"), ms, executionID)
}

func (w *Writer) rotateLocked(now time.Time) error {
	if w.file != nil {
		w.file.Close()
	}
	path := filepath.Join(w.dir, fileName(now, w.executionID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("trajectory: open %s: %w", path, err)
	}
	w.file = f
	w.cw = &countingWriter{w: f}
	w.enc = json.NewEncoder(w.cw)
	w.count = 0
	return nil
}

// Append writes one Record of kind carrying data, assigning it the next
// sequence number for this execution. Append never returns an error to the
// caller: a persistence failure is retried a bounded number of times and,
// if still failing, published as a "trajectory_write_failed" event so the
// loop can surface it without having the write itself fail the step.
func (w *Writer) Append(ctx context.Context, kind Kind, data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := Record{
		SchemaVersion: SchemaVersion,
		Seq:           w.seq.Add(1),
		ExecutionID:   w.executionID,
		Kind:          kind,
		Timestamp:     time.Now(),
		Data:          data,
	}

	_, err := retry.Do(ctx, retry.Policy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond, MaxDelay: 200 * time.Millisecond}, func(context.Context) (struct{}, error) {
		return struct{}{}, w.enc.Encode(rec)
	})
	if err != nil {
		if w.bus != nil {
			w.bus.Publish(eventbus.Event{Kind: "trajectory_write_failed", Data: map[string]any{
				"execution_id": w.executionID,
				"seq":          rec.Seq,
				"error":        err.Error(),
			}})
		}
		return nil
	}

	w.count++
	w.maybeRotate()
	return nil
}

func (w *Writer) maybeRotate() {
	rotate := (w.rotation.MaxRecords > 0 && w.count >= w.rotation.MaxRecords) ||
		(w.rotation.MaxBytes > 0 && w.cw.n >= w.rotation.MaxBytes)
	if !rotate {
		return
	}
	if err := w.rotateLocked(time.Now()); err != nil && w.bus != nil {
		w.bus.Publish(eventbus.Event{Kind: "trajectory_rotate_failed", Data: map[string]any{
			"execution_id": w.executionID,
			"error":        err.Error(),
		}})
	}
}

// Close flushes and closes the current trajectory file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
