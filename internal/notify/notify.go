package notify

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Kind identifies what happened to a stored event.
type Kind string

const (
	EventCreated    Kind = "event.created"
	EventUpdated    Kind = "event.updated"
	EventDeleted    Kind = "event.deleted"
	EventDuplicated Kind = "event.duplicated"
)

// Change describes a single mutation of the event store. EventID is empty for
// bulk operations.
type Change struct {
	Kind    Kind
	EventID string
}

// Bus is a concurrency-safe synchronous dispatcher of Change notifications.
// All subscribers run sequentially during Publish, on the publisher's
// goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]func(Change)
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Change))}
}

// Subscribe registers fn for all changes and returns a function that removes
// the subscription when called.
func (b *Bus) Subscribe(fn func(Change)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers c to every subscriber. Subscribers must not block.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	log.Tracef("notify: publishing %s (event %q) to %d subscriber(s)", c.Kind, c.EventID, len(fns))
	for _, fn := range fns {
		fn(c)
	}
}
