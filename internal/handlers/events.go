// internal/handlers/events.go
package handlers

import (
	"log/slog"
	"net/http"

	"samudaya.club/internal/db"
)

// EventHandlers renders the public event listing and detail pages.
type EventHandlers struct {
	AppHandlers *AppHandlers
	Events      *db.EventsDB
	Bookings    *db.BookingsDB
}

func NewEventHandlers(ah *AppHandlers, events *db.EventsDB, bookings *db.BookingsDB) *EventHandlers {
	return &EventHandlers{AppHandlers: ah, Events: events, Bookings: bookings}
}

func (eh *EventHandlers) EventsPageHandler(w http.ResponseWriter, r *http.Request) {
	events, err := eh.Events.ListPublished(r.Context())
	if err != nil {
		slog.Error("Failed to list published events", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	data := eh.AppHandlers.NewPageData(r)
	data.PageTitle = "Upcoming Events"
	data.PageDescription = "Browse and book upcoming club events."
	data.Events = events
	eh.AppHandlers.RenderPage(w, r, "events.html", data)
}

func (eh *EventHandlers) EventDetailPageHandler(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("id")
	if eventID == "" {
		http.NotFound(w, r)
		return
	}

	event, err := eh.Events.GetByID(r.Context(), eventID)
	if err != nil {
		slog.Error("Failed to load event", "eventID", eventID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if event == nil {
		http.NotFound(w, r)
		return
	}

	data := eh.AppHandlers.NewPageData(r)
	data.PageTitle = event.Title
	if event.Description != nil {
		data.PageDescription = *event.Description
	}
	data.Event = event

	if event.MaxCapacity > 0 {
		bookedHeads, err := eh.Bookings.CountHeadsForEvent(r.Context(), event.ID)
		if err != nil {
			slog.Error("Failed to count attendees for event", "eventID", event.ID, "error", err)
		} else {
			data.SpotsLeft = event.MaxCapacity - bookedHeads
			if data.SpotsLeft < 0 {
				data.SpotsLeft = 0
			}
		}
	}
	eh.AppHandlers.RenderPage(w, r, "event_detail.html", data)
}
