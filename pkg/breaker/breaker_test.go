package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := New("provider-a", Config{MaxFailures: 3, RecoveryTime: time.Hour})

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, Closed, b.State())
	b.RecordFailure()

	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_HalfOpenAfterRecoveryTime(t *testing.T) {
	b := New("provider-b", Config{MaxFailures: 1, RecoveryTime: 10 * time.Millisecond, HalfOpenMax: 1})

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())
}

func TestBreaker_ClosesAfterHalfOpenSuccesses(t *testing.T) {
	b := New("provider-c", Config{MaxFailures: 1, RecoveryTime: time.Millisecond, HalfOpenMax: 2})

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New("provider-d", Config{MaxFailures: 1, RecoveryTime: time.Millisecond, HalfOpenMax: 3})

	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("provider-e", Config{MaxFailures: 1, RecoveryTime: time.Hour})
	b.RecordFailure()
	assert.Equal(t, Open, b.State())

	b.Reset()
	assert.Equal(t, Closed, b.State())
	assert.True(t, b.Allow())
}

func TestRegistry_GetIsStableAcrossCalls(t *testing.T) {
	r := NewRegistry(Config{MaxFailures: 2})
	a := r.Get("x")
	b := r.Get("x")
	assert.Same(t, a, b)
}

func TestRegistry_CallRejectsWhenOpen(t *testing.T) {
	r := NewRegistry(Config{MaxFailures: 1, RecoveryTime: time.Hour})

	err := r.Call("svc", func() error { return errors.New("boom") })
	assert.Error(t, err)

	err = r.Call("svc", func() error { return nil })
	var openErr ErrOpen
	assert.ErrorAs(t, err, &openErr)
	assert.Equal(t, "svc", openErr.Target)
}

func TestRegistry_CallSucceeds(t *testing.T) {
	r := NewRegistry(Config{MaxFailures: 2})
	err := r.Call("svc", func() error { return nil })
	assert.NoError(t, err)
}
