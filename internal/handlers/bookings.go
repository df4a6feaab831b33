// internal/handlers/bookings.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"samudaya.club/internal/db"
	"samudaya.club/internal/email"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/validation"

	"github.com/alexedwards/scs/v2"
)

// EventStore is the slice of the events table the booking flow needs.
type EventStore interface {
	GetByID(ctx context.Context, eventID string) (*models.Event, error)
}

type MemberBookingStore interface {
	Create(ctx context.Context, booking *models.EventBooking) error
	GetByID(ctx context.Context, bookingID string) (*models.EventBooking, error)
	CountHeadsForEvent(ctx context.Context, eventID string) (int, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.EventBooking, error)
}

type TierChecker interface {
	GetActiveUserMembership(ctx context.Context, userID int64) (*models.UserMembership, *models.Membership, error)
}

// BookingHandlers covers booking creation and the member's booking list.
// Free events confirm at creation; paid ones go to checkout.
type BookingHandlers struct {
	SessionManager *scs.SessionManager
	AppHandlers    *AppHandlers
	Events         EventStore
	Bookings       MemberBookingStore
	Memberships    TierChecker
}

func NewBookingHandlers(sm *scs.SessionManager, ah *AppHandlers, events EventStore, bookings MemberBookingStore, memberships TierChecker) *BookingHandlers {
	return &BookingHandlers{
		SessionManager: sm,
		AppHandlers:    ah,
		Events:         events,
		Bookings:       bookings,
		Memberships:    memberships,
	}
}

func (bh *BookingHandlers) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse booking form", "userID", currentUser.ID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	numAdults, _ := strconv.Atoi(r.PostForm.Get("num_adults"))
	numChildren, _ := strconv.Atoi(r.PostForm.Get("num_children"))
	form := models.BookingForm{
		EventID:       r.PostForm.Get("event_id"),
		NumAdults:     numAdults,
		NumChildren:   numChildren,
		IncludeLunch:  r.PostForm.Get("include_lunch") == "on",
		IncludeDinner: r.PostForm.Get("include_dinner") == "on",
	}

	validationErrors := validation.ValidateStruct(form)
	if validationErrors == nil {
		validationErrors = url.Values{}
	}

	event, err := bh.Events.GetByID(r.Context(), form.EventID)
	if err != nil {
		slog.Error("Failed to load event for booking", "eventID", form.EventID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if event == nil || event.Status != models.EventStatusPublished {
		http.NotFound(w, r)
		return
	}

	if len(validationErrors) > 0 {
		slog.Warn("Booking validation failed", "userID", currentUser.ID, "eventID", event.ID, "errors", validationErrors)
		bh.SessionManager.Put(r.Context(), "flash_error", "Please check the booking details and try again.")
		http.Redirect(w, r, "/events/detail?id="+url.QueryEscape(event.ID), http.StatusSeeOther)
		return
	}

	if len(event.AllowedTiers) > 0 {
		_, tier, err := bh.Memberships.GetActiveUserMembership(r.Context(), currentUser.ID)
		if err != nil {
			slog.Error("Failed to check membership for booking", "userID", currentUser.ID, "error", err)
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		if tier == nil || !slices.Contains(event.AllowedTiers, tier.Tier) {
			bh.SessionManager.Put(r.Context(), "flash_error", "This event is restricted to specific membership tiers.")
			http.Redirect(w, r, "/memberships", http.StatusSeeOther)
			return
		}
	}

	if event.MaxCapacity > 0 {
		bookedHeads, err := bh.Bookings.CountHeadsForEvent(r.Context(), event.ID)
		if err != nil {
			slog.Error("Failed to count attendees for capacity check", "eventID", event.ID, "error", err)
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		if bookedHeads+form.NumAdults+form.NumChildren > event.MaxCapacity {
			bh.SessionManager.Put(r.Context(), "flash_error", "This event is fully booked.")
			http.Redirect(w, r, "/events/detail?id="+url.QueryEscape(event.ID), http.StatusSeeOther)
			return
		}
	}

	total := models.BookingTotal(event, form.NumAdults, form.NumChildren, form.IncludeLunch, form.IncludeDinner)

	booking := &models.EventBooking{
		EventID:       event.ID,
		UserID:        currentUser.ID,
		NumAdults:     form.NumAdults,
		NumChildren:   form.NumChildren,
		IncludeLunch:  form.IncludeLunch,
		IncludeDinner: form.IncludeDinner,
		TotalAmount:   total,
		Status:        models.BookingStatusPending,
	}
	if total == 0 {
		booking.Status = models.BookingStatusConfirmed
	}

	if err := bh.Bookings.Create(r.Context(), booking); err != nil {
		slog.Error("Failed to create booking", "userID", currentUser.ID, "eventID", event.ID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	slog.Info("Booking created", "bookingID", booking.ID, "eventID", event.ID, "userID", currentUser.ID, "total", total, "status", booking.Status)

	if booking.Status == models.BookingStatusConfirmed {
		go bh.sendBookingConfirmationEmail(currentUser, event, booking)
		bh.SessionManager.Put(r.Context(), "flash_success", "Your spot is confirmed. See you there!")
		http.Redirect(w, r, "/bookings", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/bookings/checkout?booking_id="+url.QueryEscape(booking.ID), http.StatusSeeOther)
}

// CheckoutPageHandler renders the pay page for a pending booking. The page
// posts to the payment initiation endpoint.
func (bh *BookingHandlers) CheckoutPageHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	bookingID := r.URL.Query().Get("booking_id")
	booking, err := bh.Bookings.GetByID(r.Context(), bookingID)
	if err != nil {
		slog.Error("Failed to load booking for checkout", "bookingID", bookingID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if booking == nil || booking.UserID != currentUser.ID {
		http.NotFound(w, r)
		return
	}
	if booking.Status != models.BookingStatusPending {
		http.Redirect(w, r, "/bookings", http.StatusSeeOther)
		return
	}

	event, err := bh.Events.GetByID(r.Context(), booking.EventID)
	if err != nil {
		slog.Error("Failed to load event for checkout", "eventID", booking.EventID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	data := bh.AppHandlers.NewPageData(r)
	data.PageTitle = "Complete Your Booking"
	data.RobotsContent = "noindex, nofollow"
	data.Booking = booking
	data.Event = event
	bh.AppHandlers.RenderPage(w, r, "checkout.html", data)
}

// NotifyBookingConfirmed sends the confirmation mail for a booking that
// was just confirmed by a successful payment. Best effort: lookup or send
// failures are logged, never surfaced.
func (bh *BookingHandlers) NotifyBookingConfirmed(booking *models.EventBooking) {
	user, err := db.GetUserByID(booking.UserID)
	if err != nil || user == nil {
		slog.Error("Failed to load user for booking confirmation email", "bookingID", booking.ID, "userID", booking.UserID, "error", err)
		return
	}
	event, err := bh.Events.GetByID(context.Background(), booking.EventID)
	if err != nil || event == nil {
		slog.Error("Failed to load event for booking confirmation email", "bookingID", booking.ID, "eventID", booking.EventID, "error", err)
		return
	}
	go bh.sendBookingConfirmationEmail(user, event, booking)
}

func (bh *BookingHandlers) sendBookingConfirmationEmail(user *models.User, event *models.Event, booking *models.EventBooking) {
	cfg := bh.AppHandlers.Config
	templateData := struct {
		UserName   string
		EventTitle string
		BookingID  string
		SiteName   string
	}{
		UserName:   user.FullName,
		EventTitle: event.Title,
		BookingID:  booking.ID,
		SiteName:   cfg.SiteName,
	}
	subject := "Booking confirmed: " + event.Title
	if err := email.SendEmail(cfg, user.Email, subject, "", true, "booking_confirmation.html", templateData); err != nil {
		slog.Error("Failed to send booking confirmation email", "bookingID", booking.ID, "email", user.Email, "error", err)
	}
}

// MyBookingsPageHandler lists the member's bookings, newest first.
func (bh *BookingHandlers) MyBookingsPageHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	bookings, err := bh.Bookings.ListByUser(r.Context(), currentUser.ID, 50)
	if err != nil {
		slog.Error("Failed to list bookings", "userID", currentUser.ID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	data := bh.AppHandlers.NewPageData(r)
	data.PageTitle = "My Bookings"
	data.RobotsContent = "noindex, nofollow"
	data.Bookings = bookings
	bh.AppHandlers.RenderPage(w, r, "bookings.html", data)
}
