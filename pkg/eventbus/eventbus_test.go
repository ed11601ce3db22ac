package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	b := New()
	var gotA, gotB []Event
	b.Subscribe(func(e Event) { gotA = append(gotA, e) })
	b.Subscribe(func(e Event) { gotB = append(gotB, e) })

	b.Publish(Event{Kind: "step_start"})

	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1)
	assert.Equal(t, "step_start", gotA[0].Kind)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := New()
	var count int
	sub := b.Subscribe(func(e Event) { count++ })

	b.Publish(Event{Kind: "a"})
	sub.Unsubscribe()
	b.Publish(Event{Kind: "b"})

	assert.Equal(t, 1, count)
}

func TestUnsubscribe_IsIdempotent(t *testing.T) {
	b := New()
	sub := b.Subscribe(func(e Event) {})
	sub.Unsubscribe()
	assert.NotPanics(t, func() { sub.Unsubscribe() })
}

func TestSubscribe_DuringPublishDoesNotDeadlock(t *testing.T) {
	b := New()
	b.Subscribe(func(e Event) {
		b.Subscribe(func(Event) {})
	})
	assert.NotPanics(t, func() { b.Publish(Event{Kind: "x"}) })
}
