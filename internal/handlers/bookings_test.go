package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	events map[string]*models.Event
}

func (f *fakeEventStore) GetByID(_ context.Context, id string) (*models.Event, error) {
	return f.events[id], nil
}

type fakeMemberBookingStore struct {
	bookings map[string]*models.EventBooking
	heads    map[string]int
}

func (f *fakeMemberBookingStore) Create(_ context.Context, b *models.EventBooking) error {
	if b.ID == "" {
		b.ID = fmt.Sprintf("bkg_%06d", len(f.bookings)+1)
	}
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeMemberBookingStore) GetByID(_ context.Context, id string) (*models.EventBooking, error) {
	return f.bookings[id], nil
}

func (f *fakeMemberBookingStore) CountHeadsForEvent(_ context.Context, eventID string) (int, error) {
	return f.heads[eventID], nil
}

func (f *fakeMemberBookingStore) ListByUser(_ context.Context, userID int64, _ int) ([]*models.EventBooking, error) {
	var out []*models.EventBooking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTierChecker struct {
	um   *models.UserMembership
	tier *models.Membership
}

func (f *fakeTierChecker) GetActiveUserMembership(_ context.Context, _ int64) (*models.UserMembership, *models.Membership, error) {
	return f.um, f.tier, nil
}

type bookingFixture struct {
	handlers *BookingHandlers
	bookings *fakeMemberBookingStore
}

func newBookingFixture(event *models.Event, bookedHeads int) *bookingFixture {
	f := &bookingFixture{
		bookings: &fakeMemberBookingStore{
			bookings: map[string]*models.EventBooking{},
			heads:    map[string]int{event.ID: bookedHeads},
		},
	}
	events := &fakeEventStore{events: map[string]*models.Event{event.ID: event}}
	f.handlers = NewBookingHandlers(scs.New(), nil, events, f.bookings, &fakeTierChecker{})
	return f
}

func postBookingForm(t *testing.T, f *bookingFixture, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	handler := f.handlers.SessionManager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserContextKey, testUser())
		ctx = context.WithValue(ctx, middleware.IsAuthenticatedContextKey, true)
		f.handlers.CreateBookingHandler(w, r.WithContext(ctx))
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/bookings/create", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func paidEvent(maxCapacity int) *models.Event {
	return &models.Event{
		ID: "evt_1", Title: "Annual Dinner", Status: models.EventStatusPublished,
		MaxCapacity: maxCapacity, LunchPrice: 20000, DinnerPrice: 30000,
	}
}

func TestCreateBookingFillsRemainingCapacity(t *testing.T) {
	// 96 heads already booked; a party of 4 lands exactly on 100.
	f := newBookingFixture(paidEvent(100), 96)

	form := url.Values{
		"event_id":      {"evt_1"},
		"num_adults":    {"2"},
		"num_children":  {"2"},
		"include_lunch": {"on"},
	}
	w := postBookingForm(t, f, form)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/bookings/checkout?booking_id=")
	require.Len(t, f.bookings.bookings, 1)
	for _, b := range f.bookings.bookings {
		assert.Equal(t, models.BookingStatusPending, b.Status)
		assert.Equal(t, int64(80000), b.TotalAmount)
	}
}

func TestCreateBookingRejectsOverCapacityByHeads(t *testing.T) {
	// 97 heads booked: a party of 4 would make 101 people, over the cap,
	// even though the number of booking rows is irrelevant.
	f := newBookingFixture(paidEvent(100), 97)

	form := url.Values{
		"event_id":      {"evt_1"},
		"num_adults":    {"2"},
		"num_children":  {"2"},
		"include_lunch": {"on"},
	}
	w := postBookingForm(t, f, form)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/events/detail?id=evt_1", w.Header().Get("Location"))
	assert.Empty(t, f.bookings.bookings, "no booking row may be created over capacity")
}
