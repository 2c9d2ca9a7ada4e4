package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/solucal/solucal/internal/notify"
)

// Occurrence is one concrete calendar-date instance of an event, as exposed
// to the calendar views.
type Occurrence struct {
	EventID        string
	Name           string
	Time           string
	Recurring      bool
	RecurrenceType RecurrenceType
}

// Service owns event lifecycle and the read-time occurrence projection.
// Exactly one row is persisted per logical event; all recurrence expansion
// happens at query time, so editing a rule instantly changes every projected
// occurrence without backfill.
type Service struct {
	repo  Repository
	bus   *notify.Bus
	cache *ProjectionCache
}

func NewService(repo Repository, bus *notify.Bus, cache *ProjectionCache) *Service {
	return &Service{repo: repo, bus: bus, cache: cache}
}

func (s *Service) Create(ctx context.Context, event Event) (*Event, error) {
	if event.Category == "" {
		event.Category = DefaultCategory
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	uid, err := s.repo.StoreEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	event.ID = uuid.NullUUID{UUID: uid, Valid: true}

	s.bus.Publish(notify.Change{Kind: notify.EventCreated, EventID: uid.String()})
	return &event, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.FindEvent(ctx, id)
}

// List returns the events whose base date falls in [from, to] plus all
// recurring events, in store order.
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	return s.repo.FindInRangeOrRecurring(ctx, from, to)
}

// Update replaces every field of the stored event. Partial patches are not
// supported.
func (s *Service) Update(ctx context.Context, event Event) (*Event, error) {
	if !event.ID.Valid {
		return nil, validationErrorf("event id is required")
	}
	if event.Category == "" {
		event.Category = DefaultCategory
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.bus.Publish(notify.Change{Kind: notify.EventUpdated, EventID: event.ID.UUID.String()})
	return &event, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(notify.Change{Kind: notify.EventDeleted, EventID: id.String()})
	return nil
}

// DeleteMany removes the given events in one transaction and returns the
// number of rows actually deleted. Ids absent from the store are skipped;
// any other failure rolls back the whole batch.
func (s *Service) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	deleted := 0
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		for _, id := range ids {
			if err := repo.DeleteEvent(ctx, id); err != nil {
				if errors.Is(err, ErrEventNotFound) {
					log.Debugf("bulk delete: event %s not found, skipping", id)
					continue
				}
				return fmt.Errorf("failed to delete event %s: %w", id, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to perform transaction: %w", err)
	}

	s.bus.Publish(notify.Change{Kind: notify.EventDeleted})
	return deleted, nil
}

// DuplicateEvent clones the event with a fresh identity and a copy-marked
// name, and persists the clone.
func (s *Service) DuplicateEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	original, err := s.repo.FindEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := original.Duplicate()
	uid, err := s.repo.StoreEvent(ctx, clone)
	if err != nil {
		return nil, fmt.Errorf("failed to store duplicated event: %w", err)
	}
	clone.ID = uuid.NullUUID{UUID: uid, Valid: true}

	s.bus.Publish(notify.Change{Kind: notify.EventDuplicated, EventID: uid.String()})
	return &clone, nil
}

// Occurrences projects all events onto the window [from, to] and groups the
// resulting occurrences by "YYYY-MM-DD" date key. Non-recurring events
// contribute their base date; recurring events are expanded virtually.
// Per-date order follows store order (date, then time of day).
func (s *Service) Occurrences(ctx context.Context, from, to time.Time) (map[string][]Occurrence, error) {
	if cached, ok := s.cache.Get(from, to); ok {
		log.Tracef("occurrence projection cache hit for [%s, %s]", from.Format(dateLayout), to.Format(dateLayout))
		return cached, nil
	}

	candidates, err := s.repo.FindInRangeOrRecurring(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate events: %w", err)
	}

	result := make(map[string][]Occurrence)
	for _, candidate := range candidates {
		view := Occurrence{
			EventID:        candidate.ID.UUID.String(),
			Name:           candidate.Name,
			Time:           candidate.TimeOfDay,
			Recurring:      candidate.Recurring,
			RecurrenceType: candidate.RecurrenceType,
		}
		if !candidate.Recurring {
			key := candidate.Date.Format(dateLayout)
			result[key] = append(result[key], view)
			continue
		}
		for occurrenceDate := range candidate.Occurrences(from, to) {
			key := occurrenceDate.Format(dateLayout)
			result[key] = append(result[key], view)
		}
	}

	s.cache.Put(from, to, result)
	return result, nil
}
