package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []Change
	bus.Subscribe(func(c Change) { first = append(first, c) })
	bus.Subscribe(func(c Change) { second = append(second, c) })

	bus.Publish(Change{Kind: EventCreated, EventID: "abc"})
	bus.Publish(Change{Kind: EventDeleted})

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, EventCreated, first[0].Kind)
	assert.Equal(t, "abc", first[0].EventID)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	var got []Change
	unsubscribe := bus.Subscribe(func(c Change) { got = append(got, c) })

	bus.Publish(Change{Kind: EventUpdated, EventID: "1"})
	unsubscribe()
	bus.Publish(Change{Kind: EventUpdated, EventID: "2"})

	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].EventID)
}
