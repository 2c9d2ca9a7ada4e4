package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, event Event) (uuid.UUID, error)
	FindEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	// FindInRangeOrRecurring returns every event whose base date falls within
	// [from, to] plus every recurring event regardless of its base date,
	// ordered by date then time of day.
	FindInRangeOrRecurring(ctx context.Context, from, to time.Time) ([]Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// RepositoryImpl runs against Postgres in production and SQLite in tests;
// $N placeholders bind positionally on both.
type RepositoryImpl struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db, tx: nil}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *RepositoryImpl) getQueryer() interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &RepositoryImpl{db: r.db, tx: tx}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (uuid.UUID, error) {
	query := `INSERT INTO calendar_event (
                            uid,
                            name,
                            event_date,
                            event_time,
                            category,
                            is_recurring,
                            recurrence_type,
                            recurrence_end_date,
                            custom_dates
						) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	stmt, err := r.getQueryer().PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %v", err)
		log.Error(err)
		return uuid.Nil, err
	}
	defer stmt.Close()

	uid := uuid.New()
	recurrenceType, endDate, customDates := encodeRecurrence(event)
	_, err = stmt.ExecContext(ctx, uid.String(), event.Name, event.Date.Format(dateLayout), event.TimeOfDay,
		event.Category, event.Recurring, recurrenceType, endDate, customDates)
	if err != nil {
		err := fmt.Errorf("could not execute query: %v", err)
		log.Error(err)
		return uuid.Nil, err
	}

	return uid, nil
}

func (r *RepositoryImpl) FindEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `SELECT uid, name, event_date, event_time, category, is_recurring, recurrence_type, recurrence_end_date, custom_dates
              FROM calendar_event
              WHERE uid = $1`

	row := r.getQueryer().QueryRowContext(ctx, query, id.String())
	event, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not scan row: %w", err)
		log.Error(err)
		return nil, err
	}
	return &event, nil
}

func (r *RepositoryImpl) FindInRangeOrRecurring(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `SELECT uid, name, event_date, event_time, category, is_recurring, recurrence_type, recurrence_end_date, custom_dates
              FROM calendar_event
              WHERE (event_date >= $1 AND event_date <= $2)
                 OR is_recurring = TRUE
			  ORDER BY event_date, event_time`

	rows, err := r.getQueryer().QueryContext(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) error {
	query := `UPDATE calendar_event
              SET name = $1, event_date = $2, event_time = $3, category = $4, is_recurring = $5,
                  recurrence_type = $6, recurrence_end_date = $7, custom_dates = $8
              WHERE uid = $9`
	stmt, err := r.getQueryer().PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %v", err)
		log.Error(err)
		return err
	}
	defer stmt.Close()

	recurrenceType, endDate, customDates := encodeRecurrence(event)
	result, err := stmt.ExecContext(ctx, event.Name, event.Date.Format(dateLayout), event.TimeOfDay,
		event.Category, event.Recurring, recurrenceType, endDate, customDates, event.ID.UUID.String())
	if err != nil {
		err := fmt.Errorf("could not execute query: %v", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM calendar_event WHERE uid = $1`
	stmt, err := r.getQueryer().PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %v", err)
		log.Error(err)
		return err
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id.String())
	if err != nil {
		err := fmt.Errorf("could not execute query: %v", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// encodeRecurrence flattens the recurrence fields to their nullable column
// representation. Dates are TEXT ISO strings so they sort and compare
// correctly in both Postgres and SQLite.
func encodeRecurrence(event Event) (recurrenceType, endDate, customDates sql.NullString) {
	if !event.Recurring {
		return
	}
	recurrenceType = sql.NullString{String: string(event.RecurrenceType), Valid: true}
	if event.RecurrenceEndDate != nil {
		endDate = sql.NullString{String: event.RecurrenceEndDate.Format(dateLayout), Valid: true}
	}
	if len(event.CustomDates) > 0 {
		encoded := make([]string, 0, len(event.CustomDates))
		for _, d := range event.CustomDates {
			encoded = append(encoded, d.Format(dateLayout))
		}
		customDates = sql.NullString{String: strings.Join(encoded, ","), Valid: true}
	}
	return
}

func scanEvent(scan func(dest ...any) error) (Event, error) {
	var uidString, name, dateString, timeOfDay, category string
	var recurring bool
	var recurrenceType, endDate, customDates sql.NullString

	if err := scan(&uidString, &name, &dateString, &timeOfDay, &category, &recurring, &recurrenceType, &endDate, &customDates); err != nil {
		return Event{}, err
	}

	uid, err := uuid.Parse(uidString)
	if err != nil {
		return Event{}, fmt.Errorf("invalid event uid %q: %w", uidString, err)
	}
	eventDate, err := time.Parse(dateLayout, dateString)
	if err != nil {
		return Event{}, fmt.Errorf("invalid event date %q: %w", dateString, err)
	}

	event := Event{
		ID:        uuid.NullUUID{UUID: uid, Valid: true},
		Name:      name,
		Date:      eventDate,
		TimeOfDay: timeOfDay,
		Category:  category,
		Recurring: recurring,
	}
	if recurring && recurrenceType.Valid {
		event.RecurrenceType = RecurrenceType(recurrenceType.String)
	}
	if recurring && endDate.Valid {
		parsed, err := time.Parse(dateLayout, endDate.String)
		if err != nil {
			return Event{}, fmt.Errorf("invalid recurrence end date %q: %w", endDate.String, err)
		}
		event.RecurrenceEndDate = &parsed
	}
	if recurring && customDates.Valid && customDates.String != "" {
		for _, part := range strings.Split(customDates.String, ",") {
			parsed, err := time.Parse(dateLayout, part)
			if err != nil {
				return Event{}, fmt.Errorf("invalid custom recurrence date %q: %w", part, err)
			}
			event.CustomDates = append(event.CustomDates, parsed)
		}
	}
	return event, nil
}
