package cancel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancel_PropagatesToChildren(t *testing.T) {
	root := NewRoot()
	child := root.Child()
	grandchild := child.Child()

	assert.False(t, grandchild.IsCancelled())
	root.Cancel(nil)

	select {
	case <-grandchild.Done():
	case <-time.After(time.Second):
		t.Fatal("grandchild did not observe parent cancellation")
	}
	assert.True(t, grandchild.IsCancelled())
	assert.True(t, child.IsCancelled())
}

func TestCancel_DoesNotPropagateUpward(t *testing.T) {
	root := NewRoot()
	child := root.Child()

	child.Cancel(nil)
	assert.True(t, child.IsCancelled())
	assert.False(t, root.IsCancelled())
}

func TestCancel_IsIdempotent(t *testing.T) {
	root := NewRoot()
	root.Cancel(errors.New("first"))
	firstCause := root.Cause()

	root.Cancel(errors.New("second"))
	assert.Equal(t, firstCause, root.Cause(), "cause should not change on re-cancel")
}

func TestCancel_DefaultCause(t *testing.T) {
	root := NewRoot()
	root.Cancel(nil)
	assert.Equal(t, ErrCancelled, root.Cause())
}

func TestChildWithContext_ParentCancelPropagates(t *testing.T) {
	root := NewRoot()
	child := root.ChildWithContext(context.Background())

	root.Cancel(nil)

	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("merged child did not observe root cancellation")
	}
}
