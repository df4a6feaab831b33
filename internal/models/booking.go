// internal/models/booking.go
package models

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// EventBooking holds a member's registration for an event. TotalAmount is
// in paise and is always computed server-side from the event's prices.
type EventBooking struct {
	ID            string        `json:"id"`
	EventID       string        `json:"event_id"`
	UserID        int64         `json:"user_id"`
	NumAdults     int           `json:"num_adults"`
	NumChildren   int           `json:"num_children"`
	IncludeLunch  bool          `json:"include_lunch"`
	IncludeDinner bool          `json:"include_dinner"`
	TotalAmount   int64         `json:"total_amount"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type BookingForm struct {
	EventID       string `form:"event_id" validate:"required"`
	NumAdults     int    `form:"num_adults" validate:"required,min=1,max=20"`
	NumChildren   int    `form:"num_children" validate:"min=0,max=20"`
	IncludeLunch  bool   `form:"include_lunch"`
	IncludeDinner bool   `form:"include_dinner"`
}

// BookingTotal computes the amount due for a booking of the given event.
// Lunch and dinner are charged per head across adults and children.
func BookingTotal(event *Event, numAdults, numChildren int, lunch, dinner bool) int64 {
	if event.IsFree {
		return 0
	}
	heads := int64(numAdults + numChildren)
	var total int64
	if lunch {
		total += event.LunchPrice * heads
	}
	if dinner {
		total += event.DinnerPrice * heads
	}
	return total
}
