// internal/handlers/admin/admin_events.go
package adminhandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"samudaya.club/internal/db"
	"samudaya.club/internal/models"
	"samudaya.club/internal/validation"
)

// AdminEventHandlers exposes the event management API consumed by the
// admin panel's front end.
type AdminEventHandlers struct {
	Events *db.EventsDB
}

func NewAdminEventHandlers(events *db.EventsDB) *AdminEventHandlers {
	return &AdminEventHandlers{Events: events}
}

type eventRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Venue        string        `json:"venue"`
	VenueMapLink string        `json:"venue_map_link"`
	EventDate    string        `json:"event_date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	MaxCapacity  int           `json:"max_capacity"`
	LunchPrice   int64         `json:"lunch_price"`
	DinnerPrice  int64         `json:"dinner_price"`
	IsFree       bool          `json:"is_free"`
	ImageURL     string        `json:"image_url"`
	Status       string        `json:"status"`
	AllowedTiers []models.Tier `json:"allowed_tiers"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode admin response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (ae *AdminEventHandlers) decodeEvent(r *http.Request) (*models.Event, string, error) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "invalid request body", err
	}

	form := models.EventForm{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		EventDate:   req.EventDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxCapacity: req.MaxCapacity,
		LunchPrice:  req.LunchPrice,
		DinnerPrice: req.DinnerPrice,
		IsFree:      req.IsFree,
		Status:      req.Status,
	}
	if errs := validation.ValidateStruct(form); len(errs) > 0 {
		return nil, "validation failed: " + errs.Encode(), nil
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, "invalid event_date", err
	}

	event := &models.Event{
		Title:        req.Title,
		Venue:        req.Venue,
		EventDate:    eventDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		MaxCapacity:  req.MaxCapacity,
		LunchPrice:   req.LunchPrice,
		DinnerPrice:  req.DinnerPrice,
		IsFree:       req.IsFree,
		Status:       models.EventStatus(req.Status),
		AllowedTiers: req.AllowedTiers,
	}
	if req.Description != "" {
		event.Description = &req.Description
	}
	if req.VenueMapLink != "" {
		event.VenueMapLink = &req.VenueMapLink
	}
	if req.ImageURL != "" {
		event.ImageURL = &req.ImageURL
	}
	return event, "", nil
}

// ListEventsHandler returns every event, drafts included.
func (ae *AdminEventHandlers) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := ae.Events.ListAll(r.Context())
	if err != nil {
		slog.Error("Failed to list events for admin", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (ae *AdminEventHandlers) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	event, msg, err := ae.decodeEvent(r)
	if event == nil {
		if err != nil {
			slog.Warn("Rejected event create", "reason", msg, "error", err)
		}
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	if err := ae.Events.Create(r.Context(), event); err != nil {
		slog.Error("Failed to create event", "title", event.Title, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	slog.Info("Event created", "eventID", event.ID, "title", event.Title, "status", event.Status)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"event": event})
}

func (ae *AdminEventHandlers) UpdateEventHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	eventID := r.URL.Query().Get("id")
	if eventID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing event id")
		return
	}

	existing, err := ae.Events.GetByID(r.Context(), eventID)
	if err != nil {
		slog.Error("Failed to load event for update", "eventID", eventID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing == nil {
		writeJSONError(w, http.StatusNotFound, "event not found")
		return
	}

	event, msg, err := ae.decodeEvent(r)
	if event == nil {
		if err != nil {
			slog.Warn("Rejected event update", "eventID", eventID, "reason", msg, "error", err)
		}
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	event.ID = eventID

	if err := ae.Events.Update(r.Context(), event); err != nil {
		slog.Error("Failed to update event", "eventID", eventID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	slog.Info("Event updated", "eventID", eventID, "status", event.Status)
	writeJSON(w, http.StatusOK, map[string]interface{}{"event": event})
}
