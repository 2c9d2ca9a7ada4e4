package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu             sync.RWMutex
	items          map[uuid.UUID]Event
	order          []uuid.UUID // insertion order, for stable listings
	transactionErr error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items: make(map[uuid.UUID]Event),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	// Copy of the current state for rollback
	originalItems := make(map[uuid.UUID]Event, len(r.items))
	for k, v := range r.items {
		originalItems[k] = v
	}
	originalOrder := append([]uuid.UUID(nil), r.order...)
	transactionErr := r.transactionErr
	r.mu.Unlock()

	err := fn(r)
	if err == nil {
		err = transactionErr
	}

	if err != nil {
		r.mu.Lock()
		r.items = originalItems
		r.order = originalOrder
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, event Event) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := uuid.New()
	event.ID = uuid.NullUUID{UUID: uid, Valid: true}
	r.items[uid] = event
	r.order = append(r.order, uid)
	return uid, nil
}

func (r *RepositoryStub) FindEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.items[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (r *RepositoryStub) FindInRangeOrRecurring(ctx context.Context, from, to time.Time) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Event, 0, len(r.items))
	for _, uid := range r.order {
		event, ok := r.items[uid]
		if !ok {
			continue
		}
		inRange := !event.Date.Before(from) && !event.Date.After(to)
		if inRange || event.Recurring {
			result = append(result, event)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].TimeOfDay < result[j].TimeOfDay
	})

	return result, nil
}

func (r *RepositoryStub) UpdateEvent(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[event.ID.UUID]; !exists {
		return ErrEventNotFound
	}
	r.items[event.ID.UUID] = event
	return nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return ErrEventNotFound
	}
	delete(r.items, id)
	return nil
}

// SetTransactionError makes the next WithTransaction fail after its function
// ran, to exercise rollback paths in tests.
func (r *RepositoryStub) SetTransactionError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactionErr = err
}

// AllEvents returns every stored event, for test assertions.
func (r *RepositoryStub) AllEvents() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Event, 0, len(r.items))
	for _, uid := range r.order {
		if event, ok := r.items[uid]; ok {
			result = append(result, event)
		}
	}
	return result
}
