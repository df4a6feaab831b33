// internal/models/event.go
package models

import "time"

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Event is a club event members can book. Prices are per head, in paise.
// A free event never produces a payment: bookings for it are confirmed at
// creation time.
type Event struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  *string     `json:"description,omitempty"`
	Venue        string      `json:"venue"`
	VenueMapLink *string     `json:"venue_map_link,omitempty"`
	EventDate    time.Time   `json:"event_date"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	MaxCapacity  int         `json:"max_capacity"`
	LunchPrice   int64       `json:"lunch_price"`
	DinnerPrice  int64       `json:"dinner_price"`
	IsFree       bool        `json:"is_free"`
	ImageURL     *string     `json:"image_url,omitempty"`
	Status       EventStatus `json:"status"`
	AllowedTiers []Tier      `json:"allowed_tiers,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type EventForm struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description"`
	Venue       string `form:"venue" validate:"required"`
	EventDate   string `form:"event_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `form:"start_time" validate:"required"`
	EndTime     string `form:"end_time" validate:"required"`
	MaxCapacity int    `form:"max_capacity" validate:"required,min=1"`
	LunchPrice  int64  `form:"lunch_price" validate:"min=0"`
	DinnerPrice int64  `form:"dinner_price" validate:"min=0"`
	IsFree      bool   `form:"is_free"`
	Status      string `form:"status" validate:"required,oneof=draft published cancelled completed"`
}
