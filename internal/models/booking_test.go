package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTotal(t *testing.T) {
	event := &Event{LunchPrice: 20000, DinnerPrice: 30000}

	tests := []struct {
		name          string
		adults        int
		children      int
		lunch, dinner bool
		want          int64
	}{
		{"lunch only", 2, 1, true, false, 60000},
		{"dinner only", 2, 0, false, true, 60000},
		{"lunch and dinner", 1, 1, true, true, 100000},
		{"no meals", 3, 2, false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BookingTotal(event, tt.adults, tt.children, tt.lunch, tt.dinner)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingTotalFreeEvent(t *testing.T) {
	event := &Event{IsFree: true, LunchPrice: 20000, DinnerPrice: 30000}
	assert.Zero(t, BookingTotal(event, 4, 2, true, true), "a free event charges nothing regardless of meals")
}
