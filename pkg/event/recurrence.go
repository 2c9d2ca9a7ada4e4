package event

import (
	"iter"
	"time"
)

// Occurrences returns the dates on which e occurs within [from, to], both
// bounds inclusive, in ascending order. The sequence is finite, stateless and
// recomputed on every iteration.
//
// For rule-based recurrence the expansion runs from max(e.Date, from) to
// min(e.RecurrenceEndDate or e.Date+DefaultHorizonDays, to). Stepping starts
// at the window start directly, without snapping back to the phase of the
// original series; a window that opens mid-series therefore shifts the
// day-of-week of weekly occurrences. The month view always queries from the
// first of a month, so this is the behavior users have always seen, and
// changing it would change their dates.
//
// A custom recurrence is the explicit date list filtered to the window; its
// end date is never consulted.
//
// Expansion never fails: a non-recurring event, a zero base date, or a zero
// window bound all produce an empty sequence.
func (e Event) Occurrences(from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !e.Recurring || e.Date.IsZero() || from.IsZero() || to.IsZero() {
			return
		}

		if e.RecurrenceType == RecurrenceCustom {
			for _, d := range e.CustomDates {
				if d.Before(from) || d.After(to) {
					continue
				}
				if !yield(d) {
					return
				}
			}
			return
		}

		start := e.Date
		if from.After(start) {
			start = from
		}
		end := e.Date.AddDate(0, 0, DefaultHorizonDays)
		if e.RecurrenceEndDate != nil {
			end = *e.RecurrenceEndDate
		}
		if to.Before(end) {
			end = to
		}

		switch e.RecurrenceType {
		case RecurrenceDaily:
			stepDays(start, end, 1, yield)
		case RecurrenceWeekly:
			stepDays(start, end, 7, yield)
		case RecurrenceMonthly:
			stepMonths(start, end, yield)
		case RecurrenceYearly:
			stepYears(start, end, yield)
		}
	}
}

func stepDays(start, end time.Time, step int, yield func(time.Time) bool) {
	for d := start; !d.After(end); d = d.AddDate(0, 0, step) {
		if !yield(d) {
			return
		}
	}
}

func stepMonths(start, end time.Time, yield func(time.Time) bool) {
	year, month, day := start.Date()
	for i := 0; ; i++ {
		d := clampedDate(year, month+time.Month(i), day)
		if d.After(end) {
			return
		}
		if !yield(d) {
			return
		}
	}
}

func stepYears(start, end time.Time, yield func(time.Time) bool) {
	year, month, day := start.Date()
	for i := 0; ; i++ {
		d := clampedDate(year+i, month, day)
		if d.After(end) {
			return
		}
		if !yield(d) {
			return
		}
	}
}

// clampedDate builds the date (year, month, day) with day clamped to the last
// day of that month. The clamp is applied per call, so a day-of-month of 31
// yields Feb 28 and then Mar 31 again, and Feb 29 degrades to Feb 28 outside
// leap years. Month may be outside 1..12 and is normalized first.
func clampedDate(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
