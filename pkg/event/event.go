package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecurrenceType selects how occurrences of a recurring event are generated.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
	RecurrenceCustom  RecurrenceType = "custom"
)

const (
	// DefaultCategory is assigned when an event is created without a category.
	DefaultCategory = "default"

	// MaxCustomDates caps the explicit date list of a custom recurrence.
	// Exceeding it is a validation error, never a silent truncation.
	MaxCustomDates = 50

	// DefaultHorizonDays bounds rule-based recurrence when no end date is set.
	DefaultHorizonDays = 365

	// CopyPrefix marks the display name of a duplicated event.
	CopyPrefix = "Copy of "
)

// ErrEventNotFound is returned when an operation targets an id absent from
// the store.
var ErrEventNotFound = errors.New("event not found")

// ValidationError rejects malformed input before it reaches the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Event is the sole persisted entity: a single point in time (one date, one
// time of day), optionally repeating. Dates are naive calendar dates held at
// UTC midnight; no timezone semantics apply anywhere in the system.
//
// The recurrence fields carry meaning only when Recurring is true. For a
// custom recurrence CustomDates is the sole source of occurrences and
// RecurrenceEndDate is ignored.
type Event struct {
	ID             uuid.NullUUID
	Name           string
	Date           time.Time
	TimeOfDay      string // "HH:MM"
	Category       string
	Recurring      bool
	RecurrenceType RecurrenceType
	// RecurrenceEndDate bounds rule-based recurrence; nil means a horizon of
	// DefaultHorizonDays from Date.
	RecurrenceEndDate *time.Time
	CustomDates       []time.Time
}

// Validate checks the invariants enforced at every write boundary. It returns
// a *ValidationError describing the first violation found, or nil.
func (e Event) Validate() error {
	if e.Name == "" {
		return validationErrorf("event name is required")
	}
	if e.Date.IsZero() {
		return validationErrorf("event date is required")
	}
	if _, err := time.Parse("15:04", e.TimeOfDay); err != nil {
		return validationErrorf("event time %q is not a valid HH:MM time", e.TimeOfDay)
	}
	if !e.Recurring {
		return nil
	}
	switch e.RecurrenceType {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
	case RecurrenceCustom:
		if len(e.CustomDates) > MaxCustomDates {
			return validationErrorf("custom recurrence is limited to %d dates, got %d", MaxCustomDates, len(e.CustomDates))
		}
	default:
		return validationErrorf("unknown recurrence type %q", e.RecurrenceType)
	}
	return nil
}

// Duplicate returns a deep copy of e with fresh (unassigned) identity and the
// display name marked as a copy.
func (e Event) Duplicate() Event {
	clone := e
	clone.ID = uuid.NullUUID{}
	clone.Name = CopyPrefix + e.Name
	clone.CustomDates = append([]time.Time(nil), e.CustomDates...)
	if e.RecurrenceEndDate != nil {
		endDate := *e.RecurrenceEndDate
		clone.RecurrenceEndDate = &endDate
	}
	return clone
}
