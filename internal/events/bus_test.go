package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second int
	bus.Subscribe(SessionExpired, func() { first++ })
	bus.Subscribe(SessionExpired, func() { second++ })

	bus.Publish(SessionExpired)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := NewBus()

	var expired, down int
	bus.Subscribe(SessionExpired, func() { expired++ })
	bus.Subscribe(APIDown, func() { down++ })

	bus.Publish(APIDown)
	assert.Zero(t, expired)
	assert.Equal(t, 1, down)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var calls int
	unsub := bus.Subscribe(SessionExpired, func() { calls++ })

	bus.Publish(SessionExpired)
	unsub()
	bus.Publish(SessionExpired)
	unsub() // double unsubscribe is a no-op

	assert.Equal(t, 1, calls)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(APIDown) // must not panic
}

func TestHandlerMaySubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	var late int
	bus.Subscribe(SessionExpired, func() {
		bus.Subscribe(SessionExpired, func() { late++ })
	})

	bus.Publish(SessionExpired)
	assert.Zero(t, late, "handler added mid-publish fires on the next publish")

	bus.Publish(SessionExpired)
	assert.Equal(t, 1, late)
}
