package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusSingleConsumer(t *testing.T) {

	b := NewBus[int]()
	c := b.Register()

	b.Publish(1)
	b.Publish(2)

	got := b.Drain(c)
	assert.Equal(t, []int{1, 2}, got)
	assert.Empty(t, b.Drain(c))
}

func TestBusNoRetroactiveSubscription(t *testing.T) {

	b := NewBus[int]()
	b.Publish(1)

	c := b.Register()
	b.Publish(2)

	assert.Equal(t, []int{2}, b.Drain(c))
}

func TestBusFanOutEachConsumerIndependent(t *testing.T) {

	b := NewBus[string]()
	c1 := b.Register()
	b.Publish("a")
	c2 := b.Register()
	b.Publish("b")

	assert.Equal(t, []string{"a", "b"}, b.Drain(c1))
	assert.Equal(t, []string{"b"}, b.Drain(c2))
}

func TestBusGCReleasesDrainedPrefix(t *testing.T) {

	b := NewBus[int]()
	c1 := b.Register()
	c2 := b.Register()

	b.Publish(1)
	b.Publish(2)

	b.Drain(c1)
	assert.Equal(t, 2, len(b.log), "prefix held back by slower consumer c2")

	b.Drain(c2)
	assert.Equal(t, 0, len(b.log), "prefix released once every consumer has passed it")
}

func TestBusUnregisterReleasesHeldBackPrefix(t *testing.T) {

	b := NewBus[int]()
	c1 := b.Register()
	c2 := b.Register()

	b.Publish(1)
	b.Drain(c1)
	assert.Equal(t, 1, len(b.log))

	b.Unregister(c2)
	assert.Equal(t, 0, len(b.log))
}

func TestBusDrainPanicsOnUnregisteredConsumer(t *testing.T) {

	b := NewBus[int]()
	assert.Panics(t, func() {
		b.Drain(ConsumerID(999))
	})
}
