package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solucal/solucal/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, context.Context) {
	t.Helper()
	db := test_utils.SetupTestDB(t)
	return NewRepository(db), context.Background()
}

func TestRepositoryImpl_StoreAndFindEvent(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	endDate := date(2026, time.June, 30)
	testEvent := Event{
		Name:              "Gym",
		Date:              date(2026, time.March, 2),
		TimeOfDay:         "07:30",
		Category:          "health",
		Recurring:         true,
		RecurrenceType:    RecurrenceWeekly,
		RecurrenceEndDate: &endDate,
	}

	uid, err := repository.StoreEvent(ctx, testEvent)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, uid)

	found, err := repository.FindEvent(ctx, uid)
	require.NoError(t, err)

	assert.Equal(t, uid, found.ID.UUID)
	assert.Equal(t, testEvent.Name, found.Name)
	assert.Equal(t, testEvent.Date, found.Date)
	assert.Equal(t, testEvent.TimeOfDay, found.TimeOfDay)
	assert.Equal(t, testEvent.Category, found.Category)
	assert.True(t, found.Recurring)
	assert.Equal(t, RecurrenceWeekly, found.RecurrenceType)
	require.NotNil(t, found.RecurrenceEndDate)
	assert.Equal(t, endDate, *found.RecurrenceEndDate)
	assert.Nil(t, found.CustomDates)
}

func TestRepositoryImpl_StoreEventWithCustomDates(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	testEvent := Event{
		Name:           "Rehearsal",
		Date:           date(2026, time.March, 2),
		TimeOfDay:      "18:00",
		Category:       DefaultCategory,
		Recurring:      true,
		RecurrenceType: RecurrenceCustom,
		CustomDates: []time.Time{
			date(2026, time.March, 2),
			date(2026, time.April, 6),
			date(2026, time.May, 4),
		},
	}

	uid, err := repository.StoreEvent(ctx, testEvent)
	require.NoError(t, err)

	found, err := repository.FindEvent(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, testEvent.CustomDates, found.CustomDates)
}

func TestRepositoryImpl_FindEventNotFound(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	_, err := repository.FindEvent(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRepositoryImpl_FindInRangeOrRecurring(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	store := func(e Event) uuid.UUID {
		uid, err := repository.StoreEvent(ctx, e)
		require.NoError(t, err)
		return uid
	}

	inRange := store(Event{Name: "In range", Date: date(2026, time.March, 10), TimeOfDay: "10:00", Category: DefaultCategory})
	store(Event{Name: "Out of range", Date: date(2026, time.May, 10), TimeOfDay: "10:00", Category: DefaultCategory})
	recurringOutOfRange := store(Event{
		Name: "Recurring, base in January", Date: date(2026, time.January, 5), TimeOfDay: "09:00",
		Category: DefaultCategory, Recurring: true, RecurrenceType: RecurrenceWeekly,
	})

	events, err := repository.FindInRangeOrRecurring(ctx, date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)

	require.Len(t, events, 2)
	// Ordered by date then time: the January recurring event comes first.
	assert.Equal(t, recurringOutOfRange, events[0].ID.UUID)
	assert.Equal(t, inRange, events[1].ID.UUID)
}

func TestRepositoryImpl_FindInRangeOrderedByDateAndTime(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	late, err := repository.StoreEvent(ctx, Event{Name: "Late", Date: date(2026, time.March, 10), TimeOfDay: "18:00", Category: DefaultCategory})
	require.NoError(t, err)
	early, err := repository.StoreEvent(ctx, Event{Name: "Early", Date: date(2026, time.March, 10), TimeOfDay: "08:00", Category: DefaultCategory})
	require.NoError(t, err)

	events, err := repository.FindInRangeOrRecurring(ctx, date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, early, events[0].ID.UUID)
	assert.Equal(t, late, events[1].ID.UUID)
}

func TestRepositoryImpl_UpdateEvent(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	uid, err := repository.StoreEvent(ctx, Event{Name: "Before", Date: date(2026, time.March, 10), TimeOfDay: "10:00", Category: DefaultCategory})
	require.NoError(t, err)

	endDate := date(2026, time.September, 1)
	updated := Event{
		ID:                uuid.NullUUID{UUID: uid, Valid: true},
		Name:              "After",
		Date:              date(2026, time.April, 1),
		TimeOfDay:         "11:30",
		Category:          "work",
		Recurring:         true,
		RecurrenceType:    RecurrenceMonthly,
		RecurrenceEndDate: &endDate,
	}
	require.NoError(t, repository.UpdateEvent(ctx, updated))

	found, err := repository.FindEvent(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, date(2026, time.April, 1), found.Date)
	assert.Equal(t, "11:30", found.TimeOfDay)
	assert.Equal(t, "work", found.Category)
	assert.Equal(t, RecurrenceMonthly, found.RecurrenceType)
}

func TestRepositoryImpl_UpdateEventNotFound(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	err := repository.UpdateEvent(ctx, Event{
		ID:        uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Name:      "Ghost",
		Date:      date(2026, time.March, 10),
		TimeOfDay: "10:00",
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRepositoryImpl_DeleteEvent(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	uid, err := repository.StoreEvent(ctx, Event{Name: "Doomed", Date: date(2026, time.March, 10), TimeOfDay: "10:00", Category: DefaultCategory})
	require.NoError(t, err)

	require.NoError(t, repository.DeleteEvent(ctx, uid))

	_, err = repository.FindEvent(ctx, uid)
	assert.ErrorIs(t, err, ErrEventNotFound)

	assert.ErrorIs(t, repository.DeleteEvent(ctx, uid), ErrEventNotFound)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	repository, ctx := setupRepositoryTest(t)

	first, err := repository.StoreEvent(ctx, Event{Name: "First", Date: date(2026, time.March, 10), TimeOfDay: "10:00", Category: DefaultCategory})
	require.NoError(t, err)
	second, err := repository.StoreEvent(ctx, Event{Name: "Second", Date: date(2026, time.March, 11), TimeOfDay: "10:00", Category: DefaultCategory})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repository.WithTransaction(ctx, func(repo Repository) error {
		require.NoError(t, repo.DeleteEvent(ctx, first))
		require.NoError(t, repo.DeleteEvent(ctx, second))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The failed transaction must not have removed anything.
	_, err = repository.FindEvent(ctx, first)
	assert.NoError(t, err)
	_, err = repository.FindEvent(ctx, second)
	assert.NoError(t, err)
}
