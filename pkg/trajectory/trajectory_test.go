package trajectory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagerun/sage-core/pkg/eventbus"
)

func TestWriter_AppendAssignsMonotonicSeq(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "exec-1", RotationPolicy{}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	require.NoError(t, w.Append(ctx, KindExecutionStart, map[string]any{"prompt": "hi"}))
	require.NoError(t, w.Append(ctx, KindStepStart, map[string]any{"index": 0}))
	require.NoError(t, w.Append(ctx, KindExecutionEnd, map[string]any{"outcome": "success"}))
	require.NoError(t, w.Close())

	store := NewStore(dir)
	records, err := store.Load("exec-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(1), records[0].Seq)
	assert.Equal(t, int64(2), records[1].Seq)
	assert.Equal(t, int64(3), records[2].Seq)
	assert.Equal(t, KindExecutionStart, records[0].Kind)
	assert.Equal(t, SchemaVersion, records[0].SchemaVersion)
}

func TestWriter_RotatesOnMaxRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "exec-rot", RotationPolicy{MaxRecords: 2}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Append(ctx, KindMessage, map[string]any{"i": i}))
	}
	require.NoError(t, w.Close())

	store := NewStore(dir)
	paths, err := store.filesFor("exec-rot")
	require.NoError(t, err)
	assert.Greater(t, len(paths), 1, "5 records at MaxRecords=2 should rotate across more than one file")

	records, err := store.Load("exec-rot")
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, int64(i+1), rec.Seq)
	}
}

func TestWriter_PersistenceErrorPublishesEventAndDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	bus := eventbus.New()
	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	w, err := NewWriter(dir, "exec-fail", RotationPolicy{}, bus)
	require.NoError(t, err)

	// Force the next write to fail by closing the underlying file out from
	// under the writer, simulating a persistence error (disk full, file
	// removed, etc.) without touching exported API.
	w.file.Close()

	err = w.Append(context.Background(), KindError, map[string]any{"msg": "boom"})
	assert.NoError(t, err, "Append must never fail the caller even when persistence does")

	require.Len(t, events, 1)
	assert.Equal(t, "trajectory_write_failed", events[0].Kind)
}

func TestStore_ListExecutionIDs(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"exec-a", "exec-b"} {
		w, err := NewWriter(dir, id, RotationPolicy{}, nil)
		require.NoError(t, err)
		require.NoError(t, w.Append(context.Background(), KindExecutionStart, nil))
		require.NoError(t, w.Close())
	}

	store := NewStore(dir)
	ids, err := store.ListExecutionIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"exec-a", "exec-b"}, ids)
}

func TestStore_DeleteRemovesAllFilesForExecution(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "exec-del", RotationPolicy{MaxRecords: 1}, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.Append(ctx, KindMessage, nil))
	require.NoError(t, w.Append(ctx, KindMessage, nil))
	require.NoError(t, w.Close())

	store := NewStore(dir)
	paths, err := store.filesFor("exec-del")
	require.NoError(t, err)
	require.Greater(t, len(paths), 1)

	require.NoError(t, store.Delete("exec-del"))

	paths, err = store.filesFor("exec-del")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
