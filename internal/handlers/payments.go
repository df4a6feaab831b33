// internal/handlers/payments.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samudaya.club/internal/config"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/payment_gateway/phonepe"

	"github.com/alexedwards/scs/v2"
)

// PaymentStore is the slice of the payments table the handlers need.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	SetTransactionID(ctx context.Context, paymentID, transactionID string) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	UpdateStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentStatus, metadata []byte) error
}

type BookingStore interface {
	GetByID(ctx context.Context, bookingID string) (*models.EventBooking, error)
	UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
}

type MembershipStore interface {
	GetByID(ctx context.Context, membershipID string) (*models.Membership, error)
	DeactivateUserMemberships(ctx context.Context, userID int64) error
	CreateUserMembership(ctx context.Context, um *models.UserMembership) error
}

// GatewayClient abstracts the PhonePe client so callback tests run without
// the sandbox.
type GatewayClient interface {
	MerchantID() string
	CreatePayment(ctx context.Context, req phonepe.PayRequest) (*phonepe.PayResult, error)
}

type PaymentHandlers struct {
	SessionManager *scs.SessionManager
	Config         *config.Config
	AppHandlers    *AppHandlers
	Payments       PaymentStore
	Bookings       BookingStore
	Memberships    MembershipStore
	Gateway        GatewayClient

	// NotifyBookingConfirmed runs best effort after a paid booking is
	// confirmed. Nil disables the notification.
	NotifyBookingConfirmed func(booking *models.EventBooking)
}

func NewPaymentHandlers(sm *scs.SessionManager, cfg *config.Config, ah *AppHandlers, payments PaymentStore, bookings BookingStore, memberships MembershipStore, gateway GatewayClient, notifyBooking func(*models.EventBooking)) *PaymentHandlers {
	return &PaymentHandlers{
		SessionManager:         sm,
		Config:                 cfg,
		AppHandlers:            ah,
		Payments:               payments,
		Bookings:               bookings,
		Memberships:            memberships,
		Gateway:                gateway,
		NotifyBookingConfirmed: notifyBooking,
	}
}

type initiatePaymentRequest struct {
	BookingID    string `json:"booking_id"`
	MembershipID string `json:"membership_id"`
}

type initiatePaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error,omitempty"`
}

func writePaymentJSON(w http.ResponseWriter, status int, resp initiatePaymentResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode payment response", "error", err)
	}
}

// newTransactionID synthesizes a merchant transaction id from the payment
// id and the current time. Mock-mode ids carry a MOCK_ prefix so sandbox
// traffic is recognizable in the ledger.
func newTransactionID(paymentID string, mock bool, now time.Time) string {
	short := strings.TrimPrefix(paymentID, "pay_")
	if len(short) > 8 {
		short = short[:8]
	}
	prefix := "TXN"
	if mock {
		prefix = "MOCK_TXN"
	}
	return fmt.Sprintf("%s_%s_%d", prefix, short, now.UnixMilli())
}

// InitiatePaymentHandler creates a pending payment for a booking or a
// membership purchase and returns the gateway pay-page URL. The amount is
// always derived server side from the subject.
func (ph *PaymentHandlers) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writePaymentJSON(w, http.StatusMethodNotAllowed, initiatePaymentResponse{Error: "method not allowed"})
		return
	}

	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		writePaymentJSON(w, http.StatusUnauthorized, initiatePaymentResponse{Error: "authentication required"})
		return
	}

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePaymentJSON(w, http.StatusBadRequest, initiatePaymentResponse{Error: "invalid request body"})
		return
	}

	subject, err := models.NewPaymentSubject(req.BookingID, req.MembershipID)
	if err != nil {
		writePaymentJSON(w, http.StatusBadRequest, initiatePaymentResponse{Error: err.Error()})
		return
	}

	payment := &models.Payment{
		UserID:  currentUser.ID,
		Gateway: "phonepe",
		Status:  models.PaymentStatusPending,
	}

	if bookingID, isBooking := subject.BookingID(); isBooking {
		booking, err := ph.Bookings.GetByID(r.Context(), bookingID)
		if err != nil {
			slog.Error("Failed to load booking for payment", "bookingID", bookingID, "error", err)
			writePaymentJSON(w, http.StatusInternalServerError, initiatePaymentResponse{Error: "server error"})
			return
		}
		if booking == nil || booking.UserID != currentUser.ID {
			writePaymentJSON(w, http.StatusNotFound, initiatePaymentResponse{Error: "booking not found"})
			return
		}
		if booking.Status != models.BookingStatusPending {
			writePaymentJSON(w, http.StatusConflict, initiatePaymentResponse{Error: "booking is not awaiting payment"})
			return
		}
		if booking.TotalAmount <= 0 {
			writePaymentJSON(w, http.StatusBadRequest, initiatePaymentResponse{Error: "booking does not require payment"})
			return
		}
		payment.BookingID = &booking.ID
		payment.Amount = booking.TotalAmount
	} else {
		membershipID, _ := subject.MembershipID()
		membership, err := ph.Memberships.GetByID(r.Context(), membershipID)
		if err != nil {
			slog.Error("Failed to load membership for payment", "membershipID", membershipID, "error", err)
			writePaymentJSON(w, http.StatusInternalServerError, initiatePaymentResponse{Error: "server error"})
			return
		}
		if membership == nil {
			writePaymentJSON(w, http.StatusNotFound, initiatePaymentResponse{Error: "membership not found"})
			return
		}
		payment.MembershipID = &membership.ID
		payment.Amount = membership.Price
	}

	if err := ph.Payments.Create(r.Context(), payment); err != nil {
		slog.Error("Failed to create payment", "userID", currentUser.ID, "error", err)
		writePaymentJSON(w, http.StatusInternalServerError, initiatePaymentResponse{Error: "server error"})
		return
	}

	mock := ph.Config.PhonePe.MockMode
	transactionID := newTransactionID(payment.ID, mock, time.Now())
	if err := ph.Payments.SetTransactionID(r.Context(), payment.ID, transactionID); err != nil {
		slog.Error("Failed to store transaction id", "paymentID", payment.ID, "error", err)
		writePaymentJSON(w, http.StatusInternalServerError, initiatePaymentResponse{Error: "server error"})
		return
	}
	payment.TransactionID = transactionID

	baseURL := strings.TrimSuffix(ph.Config.BaseURL, "/")

	if mock {
		// No gateway round-trip in mock mode: the "pay page" is our own
		// mock callback, which settles the payment as soon as it is hit.
		payURL := fmt.Sprintf("%s/api/payments/callback/mock?txn=%s&status=success", baseURL, url.QueryEscape(transactionID))
		slog.Info("Mock payment initiated", "paymentID", payment.ID, "transactionID", transactionID, "amount", payment.Amount)
		writePaymentJSON(w, http.StatusOK, initiatePaymentResponse{Success: true, PaymentURL: payURL, TransactionID: transactionID})
		return
	}

	payReq := phonepe.PayRequest{
		MerchantID:            ph.Gateway.MerchantID(),
		MerchantTransactionID: transactionID,
		MerchantUserID:        fmt.Sprintf("user_%d", currentUser.ID),
		Amount:                payment.Amount,
		RedirectURL:           baseURL + "/api/payments/callback",
		RedirectMode:          "POST",
		CallbackURL:           baseURL + "/api/payments/callback",
		PaymentInstrument:     phonepe.PaymentInstrument{Type: "PAY_PAGE"},
	}
	if currentUser.Phone != nil {
		payReq.MobileNumber = strings.TrimPrefix(*currentUser.Phone, "+91")
	}

	result, err := ph.Gateway.CreatePayment(r.Context(), payReq)
	if err != nil {
		slog.Error("Gateway rejected payment initiation", "paymentID", payment.ID, "transactionID", transactionID, "error", err)
		if errMark := ph.Payments.UpdateStatusByTransactionID(r.Context(), transactionID, models.PaymentStatusFailed, nil); errMark != nil {
			slog.Error("Failed to mark payment failed after gateway error", "transactionID", transactionID, "error", errMark)
		}
		writePaymentJSON(w, http.StatusBadGateway, initiatePaymentResponse{Error: "payment gateway unavailable"})
		return
	}

	slog.Info("Payment initiated", "paymentID", payment.ID, "transactionID", transactionID, "amount", payment.Amount)
	writePaymentJSON(w, http.StatusOK, initiatePaymentResponse{Success: true, PaymentURL: result.RedirectURL, TransactionID: transactionID})
}

type callbackBody struct {
	Response string `json:"response"`
}

// PaymentCallbackHandler settles a payment from a signed gateway callback.
// An invalid or missing signature rejects the request before any state is
// touched.
func (ph *PaymentHandlers) PaymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var base64Envelope string
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var body callbackBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid callback body", http.StatusBadRequest)
			return
		}
		base64Envelope = body.Response
	} else {
		// redirectMode=POST delivers the envelope as a form field.
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid callback body", http.StatusBadRequest)
			return
		}
		base64Envelope = r.PostForm.Get("response")
	}
	if base64Envelope == "" {
		http.Error(w, "Missing callback payload", http.StatusBadRequest)
		return
	}

	xVerify := r.Header.Get("X-VERIFY")
	if err := phonepe.VerifyCallback(base64Envelope, xVerify, ph.Config.PhonePe.SaltKey); err != nil {
		slog.Warn("Rejected payment callback with bad signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	envelope, err := phonepe.DecodeCallback(base64Envelope)
	if err != nil {
		slog.Warn("Rejected undecodable payment callback", "error", err)
		http.Error(w, "Invalid callback payload", http.StatusBadRequest)
		return
	}

	transactionID := envelope.Data.MerchantTransactionID
	if transactionID == "" {
		http.Error(w, "Missing transaction id", http.StatusBadRequest)
		return
	}

	succeeded := envelope.Success && envelope.Code == phonepe.CodePaymentSuccess

	metadata, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal callback envelope", "transactionID", transactionID, "error", err)
		metadata = nil
	}

	ph.settlePayment(w, r, transactionID, succeeded, metadata)
}

// MockPaymentCallbackHandler settles a payment from a plain GET in mock
// mode. It carries no signature and is only registered when mock mode is
// on, but the mode is re-checked here against misconfiguration.
func (ph *PaymentHandlers) MockPaymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !ph.Config.PhonePe.MockMode {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	transactionID := r.URL.Query().Get("txn")
	if transactionID == "" {
		http.Error(w, "Missing transaction id", http.StatusBadRequest)
		return
	}
	succeeded := r.URL.Query().Get("status") == "success"

	metadata, _ := json.Marshal(map[string]interface{}{
		"mock":                  true,
		"merchantTransactionId": transactionID,
		"settledAt":             time.Now().Format(time.RFC3339),
	})

	slog.Info("Mock payment callback received", "transactionID", transactionID, "success", succeeded)
	ph.settlePayment(w, r, transactionID, succeeded, metadata)
}

// settlePayment moves the payment to its terminal status, cascades to the
// booking or membership it pays for and redirects the member's browser.
// Settling is idempotent: a payment already terminal is left untouched and
// the redirect reflects its recorded outcome.
func (ph *PaymentHandlers) settlePayment(w http.ResponseWriter, r *http.Request, transactionID string, succeeded bool, metadata []byte) {
	ctx := r.Context()

	payment, err := ph.Payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		slog.Error("Failed to load payment for callback", "transactionID", transactionID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if payment == nil {
		slog.Warn("Callback for unknown transaction", "transactionID", transactionID)
		http.Error(w, "Unknown transaction", http.StatusNotFound)
		return
	}

	if payment.Status != models.PaymentStatusPending {
		slog.Info("Duplicate callback for settled payment", "transactionID", transactionID, "status", payment.Status)
		ph.redirectAfterSettlement(w, r, transactionID, payment.Status == models.PaymentStatusSuccess)
		return
	}

	status := models.PaymentStatusFailed
	if succeeded {
		status = models.PaymentStatusSuccess
	}
	if err := ph.Payments.UpdateStatusByTransactionID(ctx, transactionID, status, metadata); err != nil {
		slog.Error("Failed to settle payment", "transactionID", transactionID, "status", status, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	slog.Info("Payment settled", "transactionID", transactionID, "paymentID", payment.ID, "status", status)

	if succeeded {
		ph.fulfillPayment(ctx, payment)
	}

	ph.redirectAfterSettlement(w, r, transactionID, succeeded)
}

// fulfillPayment confirms the booking or activates the membership a
// successful payment paid for. Fulfillment is best effort: the payment is
// already recorded as successful, so failures here are logged for manual
// follow-up rather than surfaced to the gateway.
func (ph *PaymentHandlers) fulfillPayment(ctx context.Context, payment *models.Payment) {
	if payment.BookingID != nil {
		if err := ph.Bookings.UpdateStatus(ctx, *payment.BookingID, models.BookingStatusConfirmed); err != nil {
			slog.Error("Failed to confirm booking after payment", "bookingID", *payment.BookingID, "paymentID", payment.ID, "error", err)
			return
		}
		slog.Info("Booking confirmed", "bookingID", *payment.BookingID, "paymentID", payment.ID)

		if ph.NotifyBookingConfirmed != nil {
			booking, err := ph.Bookings.GetByID(ctx, *payment.BookingID)
			if err != nil || booking == nil {
				slog.Error("Failed to load booking for confirmation notice", "bookingID", *payment.BookingID, "error", err)
				return
			}
			ph.NotifyBookingConfirmed(booking)
		}
		return
	}

	if payment.MembershipID != nil {
		if err := ph.Memberships.DeactivateUserMemberships(ctx, payment.UserID); err != nil {
			slog.Error("Failed to deactivate previous memberships", "userID", payment.UserID, "error", err)
		}
		start := time.Now()
		um := &models.UserMembership{
			UserID:       payment.UserID,
			MembershipID: *payment.MembershipID,
			StartDate:    start,
			EndDate:      start.AddDate(1, 0, 0),
			IsActive:     true,
		}
		if err := ph.Memberships.CreateUserMembership(ctx, um); err != nil {
			slog.Error("Failed to activate membership after payment", "userID", payment.UserID, "membershipID", *payment.MembershipID, "paymentID", payment.ID, "error", err)
		} else {
			slog.Info("Membership activated", "userID", payment.UserID, "membershipID", *payment.MembershipID, "until", um.EndDate)
		}
	}
}

func (ph *PaymentHandlers) redirectAfterSettlement(w http.ResponseWriter, r *http.Request, transactionID string, succeeded bool) {
	path := "/payment-failed"
	if succeeded {
		path = "/payment-success"
	}
	http.Redirect(w, r, path+"?txn="+url.QueryEscape(transactionID), http.StatusFound)
}

// PaymentSuccessPageHandler renders the post-payment confirmation page.
func (ph *PaymentHandlers) PaymentSuccessPageHandler(w http.ResponseWriter, r *http.Request) {
	ph.renderOutcomePage(w, r, true)
}

func (ph *PaymentHandlers) PaymentFailurePageHandler(w http.ResponseWriter, r *http.Request) {
	ph.renderOutcomePage(w, r, false)
}

func (ph *PaymentHandlers) renderOutcomePage(w http.ResponseWriter, r *http.Request, succeeded bool) {
	data := ph.AppHandlers.NewPageData(r)
	data.RobotsContent = "noindex, nofollow"

	// Only the paying member gets to see their payment details here.
	transactionID := r.URL.Query().Get("txn")
	if transactionID != "" {
		payment, err := ph.Payments.GetByTransactionID(r.Context(), transactionID)
		if err != nil {
			slog.Error("Failed to load payment for outcome page", "transactionID", transactionID, "error", err)
		}
		currentUser, _ := r.Context().Value(middleware.UserContextKey).(*models.User)
		if payment != nil && currentUser != nil && payment.UserID == currentUser.ID {
			data.Payment = payment
		}
	}

	if succeeded {
		data.PageTitle = "Payment Successful"
		ph.AppHandlers.RenderPage(w, r, "payment_success.html", data)
		return
	}
	data.PageTitle = "Payment Failed"
	ph.AppHandlers.RenderPage(w, r, "payment_failed.html", data)
}
