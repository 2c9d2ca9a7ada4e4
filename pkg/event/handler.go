package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/solucal/solucal/internal/rest"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type EventDTO struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	Category          string   `json:"category,omitempty"`
	IsRecurring       bool     `json:"isRecurring"`
	RecurrenceType    string   `json:"recurrenceType,omitempty"`
	RecurrenceEndDate string   `json:"recurrenceEndDate,omitempty"`
	CustomDates       []string `json:"customRecurrenceDates,omitempty"`
}

type OccurrenceDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Time           string `json:"time"`
	IsRecurring    bool   `json:"isRecurring"`
	RecurrenceType string `json:"recurrenceType,omitempty"`
}

// GetOccurrences serves the projection the calendar views render from:
// a mapping of "YYYY-MM-DD" date keys to the occurrences on that date.
// Missing or malformed window parameters are a client error, not an empty
// result.
func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	from, ok := h.parseDateParam(w, r, "start_date")
	if !ok {
		return
	}
	to, ok := h.parseDateParam(w, r, "end_date")
	if !ok {
		return
	}

	occurrences, err := h.service.Occurrences(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make(map[string][]OccurrenceDTO, len(occurrences))
	for day, views := range occurrences {
		dtos := make([]OccurrenceDTO, 0, len(views))
		for _, view := range views {
			dtos = append(dtos, OccurrenceDTO{
				ID:             view.EventID,
				Name:           view.Name,
				Time:           view.Time,
				IsRecurring:    view.Recurring,
				RecurrenceType: string(view.RecurrenceType),
			})
		}
		response[day] = dtos
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	from, ok := h.parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.parseDateParam(w, r, "to")
	if !ok {
		return
	}

	events, err := h.service.List(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEventId(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(eventToDTO(*found)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// CreateEvent builds an event from submitted form fields. Only the base
// definition is written; recurring occurrences are never materialized as rows.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new calendar event")

	submitted, err := parseEventForm(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), submitted)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(*created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdateEvent replaces every field of the event from submitted form fields.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEventId(w, r)
	if !ok {
		return
	}

	submitted, err := parseEventForm(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	submitted.ID = uuid.NullUUID{UUID: id, Valid: true}

	updated, err := h.service.Update(r.Context(), submitted)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(eventToDTO(*updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEventId(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEvents removes a batch of events atomically and reports how many
// rows were deleted.
func (h *Handler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var request struct {
		Ids []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeBadRequest(w, "Invalid request body format", "")
		return
	}

	ids := make([]uuid.UUID, 0, len(request.Ids))
	for _, idString := range request.Ids {
		id, err := uuid.Parse(idString)
		if err != nil {
			h.writeBadRequest(w, "Invalid event id", idString+" is not a valid id")
			return
		}
		ids = append(ids, id)
	}

	deleted, err := h.service.DeleteMany(r.Context(), ids)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]int{"deleted": deleted}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) DuplicateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEventId(w, r)
	if !ok {
		return
	}

	clone, err := h.service.DuplicateEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(*clone)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		h.writeBadRequest(w, "Missing "+name+" parameter", "'"+name+"' must be provided as YYYY-MM-DD")
		return time.Time{}, false
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		h.writeBadRequest(w, "Invalid "+name+" format", "'"+name+"' must be in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (h *Handler) parseEventId(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["eventId"])
	if err != nil {
		h.writeBadRequest(w, "Invalid event id", "")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error:   message,
		Details: details,
	}); encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeBadRequest(w, validationErr.Message, "")
	case errors.Is(err, ErrEventNotFound):
		http.Error(w, "Event not found", http.StatusNotFound)
	default:
		log.Errorf("event handler error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// parseEventForm assembles a typed event from loosely-typed form fields.
// Invalid input is rejected here and never reaches the service or the store.
func parseEventForm(r *http.Request) (Event, error) {
	if err := r.ParseForm(); err != nil {
		return Event{}, validationErrorf("could not parse form data")
	}

	var event Event
	event.Name = strings.TrimSpace(r.PostFormValue("name"))
	event.Category = strings.TrimSpace(r.PostFormValue("category"))

	dateValue := r.PostFormValue("date")
	if dateValue == "" {
		return Event{}, validationErrorf("event date is required")
	}
	eventDate, err := time.Parse(dateLayout, dateValue)
	if err != nil {
		return Event{}, validationErrorf("event date %q is not a valid YYYY-MM-DD date", dateValue)
	}
	event.Date = eventDate

	timeValue := r.PostFormValue("time")
	parsedTime, err := time.Parse("15:04", timeValue)
	if err != nil {
		return Event{}, validationErrorf("event time %q is not a valid HH:MM time", timeValue)
	}
	event.TimeOfDay = parsedTime.Format("15:04")

	event.Recurring = isTruthy(r.PostFormValue("is_recurring"))
	if !event.Recurring {
		return event, nil
	}

	event.RecurrenceType = RecurrenceType(r.PostFormValue("recurrence_type"))

	if endDateValue := r.PostFormValue("recurrence_end_date"); endDateValue != "" {
		endDate, err := time.Parse(dateLayout, endDateValue)
		if err != nil {
			return Event{}, validationErrorf("recurrence end date %q is not a valid YYYY-MM-DD date", endDateValue)
		}
		event.RecurrenceEndDate = &endDate
	}

	if customValue := r.PostFormValue("custom_recurrence_dates"); customValue != "" {
		for _, part := range strings.Split(customValue, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parsed, err := time.Parse(dateLayout, part)
			if err != nil {
				return Event{}, validationErrorf("custom recurrence date %q is not a valid YYYY-MM-DD date", part)
			}
			event.CustomDates = append(event.CustomDates, parsed)
		}
	}

	return event, nil
}

// isTruthy accepts the value variants browsers submit for checked boxes.
func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func eventToDTO(e Event) EventDTO {
	dto := EventDTO{
		Name:        e.Name,
		Date:        e.Date.Format(dateLayout),
		Time:        e.TimeOfDay,
		Category:    e.Category,
		IsRecurring: e.Recurring,
	}
	if e.ID.Valid {
		dto.ID = e.ID.UUID.String()
	}
	if e.Recurring {
		dto.RecurrenceType = string(e.RecurrenceType)
		if e.RecurrenceEndDate != nil {
			dto.RecurrenceEndDate = e.RecurrenceEndDate.Format(dateLayout)
		}
		for _, d := range e.CustomDates {
			dto.CustomDates = append(dto.CustomDates, d.Format(dateLayout))
		}
	}
	return dto
}
