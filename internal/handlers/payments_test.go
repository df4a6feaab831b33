package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"samudaya.club/internal/config"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/payment_gateway/phonepe"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentStore struct {
	payments      map[string]*models.Payment // keyed by payment id
	byTransaction map[string]*models.Payment
	statusUpdates int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{
		payments:      map[string]*models.Payment{},
		byTransaction: map[string]*models.Payment{},
	}
}

func (f *fakePaymentStore) Create(_ context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = fmt.Sprintf("pay_%012d", len(f.payments)+1)
	}
	p.CreatedAt = time.Now()
	f.payments[p.ID] = p
	return nil
}

func (f *fakePaymentStore) SetTransactionID(_ context.Context, paymentID, transactionID string) error {
	p := f.payments[paymentID]
	p.TransactionID = transactionID
	f.byTransaction[transactionID] = p
	return nil
}

func (f *fakePaymentStore) GetByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	return f.byTransaction[transactionID], nil
}

func (f *fakePaymentStore) UpdateStatusByTransactionID(_ context.Context, transactionID string, status models.PaymentStatus, metadata []byte) error {
	p := f.byTransaction[transactionID]
	p.Status = status
	if metadata != nil {
		p.Metadata = metadata
	}
	f.statusUpdates++
	return nil
}

// add seeds a settled-or-pending payment directly, as if initiated earlier.
func (f *fakePaymentStore) add(p *models.Payment) {
	f.payments[p.ID] = p
	if p.TransactionID != "" {
		f.byTransaction[p.TransactionID] = p
	}
}

type fakeBookingStore struct {
	bookings map[string]*models.EventBooking
}

func (f *fakeBookingStore) GetByID(_ context.Context, id string) (*models.EventBooking, error) {
	return f.bookings[id], nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id string, status models.BookingStatus) error {
	f.bookings[id].Status = status
	return nil
}

type fakeMembershipStore struct {
	memberships map[string]*models.Membership
	created     []*models.UserMembership
	deactivated []int64
}

func (f *fakeMembershipStore) GetByID(_ context.Context, id string) (*models.Membership, error) {
	return f.memberships[id], nil
}

func (f *fakeMembershipStore) DeactivateUserMemberships(_ context.Context, userID int64) error {
	f.deactivated = append(f.deactivated, userID)
	return nil
}

func (f *fakeMembershipStore) CreateUserMembership(_ context.Context, um *models.UserMembership) error {
	f.created = append(f.created, um)
	return nil
}

type fakeGateway struct {
	lastRequest phonepe.PayRequest
	result      *phonepe.PayResult
	err         error
}

func (f *fakeGateway) MerchantID() string { return "MERCHANT1" }

func (f *fakeGateway) CreatePayment(_ context.Context, req phonepe.PayRequest) (*phonepe.PayResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type paymentFixture struct {
	handlers    *PaymentHandlers
	payments    *fakePaymentStore
	bookings    *fakeBookingStore
	memberships *fakeMembershipStore
	gateway     *fakeGateway
}

func newPaymentFixture(mockMode bool) *paymentFixture {
	cfg := &config.Config{
		BaseURL: "https://club.example",
		PhonePe: config.PhonePeConfig{
			MerchantID: "MERCHANT1",
			SaltKey:    "salt-key",
			SaltIndex:  "1",
			MockMode:   mockMode,
		},
	}

	f := &paymentFixture{
		payments: newFakePaymentStore(),
		bookings: &fakeBookingStore{bookings: map[string]*models.EventBooking{}},
		memberships: &fakeMembershipStore{
			memberships: map[string]*models.Membership{},
		},
		gateway: &fakeGateway{result: &phonepe.PayResult{RedirectURL: "https://pay.example/redirect"}},
	}
	f.handlers = NewPaymentHandlers(nil, cfg, nil, f.payments, f.bookings, f.memberships, f.gateway, nil)
	return f
}

func authenticatedRequest(method, target string, body []byte, user *models.User) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
	ctx = context.WithValue(ctx, middleware.IsAuthenticatedContextKey, true)
	return r.WithContext(ctx)
}

func testUser() *models.User {
	phone := "+919876543210"
	return &models.User{ID: 7, Email: "member@club.example", FullName: "Asha Rao", Phone: &phone}
}

func signedCallbackRequest(t *testing.T, envelope phonepe.CallbackEnvelope, saltKey string) *http.Request {
	t.Helper()
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	b64 := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"response": b64})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/payments/callback", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-VERIFY", phonepe.XVerify(phonepe.Checksum(b64, saltKey), "1"))
	return r
}

func TestInitiatePaymentForBooking(t *testing.T) {
	f := newPaymentFixture(false)
	f.bookings.bookings["bkg_1"] = &models.EventBooking{
		ID: "bkg_1", EventID: "evt_1", UserID: 7,
		TotalAmount: 120000, Status: models.BookingStatusPending,
	}

	body, _ := json.Marshal(map[string]string{"booking_id": "bkg_1"})
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp initiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://pay.example/redirect", resp.PaymentURL)
	assert.True(t, strings.HasPrefix(resp.TransactionID, "TXN_"), "got %s", resp.TransactionID)

	payment := f.payments.byTransaction[resp.TransactionID]
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(120000), payment.Amount, "amount comes from the booking, not the client")
	require.NotNil(t, payment.BookingID)
	assert.Equal(t, "bkg_1", *payment.BookingID)
	assert.Nil(t, payment.MembershipID)

	assert.Equal(t, int64(120000), f.gateway.lastRequest.Amount)
	assert.Equal(t, resp.TransactionID, f.gateway.lastRequest.MerchantTransactionID)
	assert.Equal(t, "https://club.example/api/payments/callback", f.gateway.lastRequest.CallbackURL)
	assert.Equal(t, "PAY_PAGE", f.gateway.lastRequest.PaymentInstrument.Type)
}

func TestInitiatePaymentForMembership(t *testing.T) {
	f := newPaymentFixture(false)
	f.memberships.memberships["mem_gold"] = &models.Membership{
		ID: "mem_gold", Name: "Gold", Tier: models.TierGold, Price: 500000,
	}

	body, _ := json.Marshal(map[string]string{"membership_id": "mem_gold"})
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp initiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	payment := f.payments.byTransaction[resp.TransactionID]
	require.NotNil(t, payment)
	assert.Equal(t, int64(500000), payment.Amount)
	require.NotNil(t, payment.MembershipID)
	assert.Equal(t, "mem_gold", *payment.MembershipID)
	assert.Nil(t, payment.BookingID)
}

func TestInitiatePaymentSubjectRules(t *testing.T) {
	f := newPaymentFixture(false)

	// Neither subject.
	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]string{})
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Both subjects.
	w = httptest.NewRecorder()
	body, _ = json.Marshal(map[string]string{"booking_id": "bkg_1", "membership_id": "mem_gold"})
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.payments.payments, "no payment row may be created for an invalid subject")
}

func TestInitiatePaymentRejectsForeignBooking(t *testing.T) {
	f := newPaymentFixture(false)
	f.bookings.bookings["bkg_1"] = &models.EventBooking{
		ID: "bkg_1", UserID: 99, TotalAmount: 5000, Status: models.BookingStatusPending,
	}

	body, _ := json.Marshal(map[string]string{"booking_id": "bkg_1"})
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))

	assert.Equal(t, http.StatusNotFound, w.Code, "another member's booking must look nonexistent")
	assert.Empty(t, f.payments.payments)
}

func TestInitiatePaymentRequiresAuth(t *testing.T) {
	f := newPaymentFixture(false)

	body, _ := json.Marshal(map[string]string{"booking_id": "bkg_1"})
	r := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitiatePaymentMockMode(t *testing.T) {
	f := newPaymentFixture(true)
	f.bookings.bookings["bkg_1"] = &models.EventBooking{
		ID: "bkg_1", UserID: 7, TotalAmount: 30000, Status: models.BookingStatusPending,
	}

	body, _ := json.Marshal(map[string]string{"booking_id": "bkg_1"})
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp initiatePaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.TransactionID, "MOCK_TXN_"), "got %s", resp.TransactionID)
	assert.Contains(t, resp.PaymentURL, "/api/payments/callback/mock?txn=")
	assert.Contains(t, resp.PaymentURL, "status=success")
	assert.Zero(t, f.gateway.lastRequest.Amount, "mock mode must not call the gateway")
}

func TestInitiatePaymentGatewayFailureMarksPaymentFailed(t *testing.T) {
	f := newPaymentFixture(false)
	f.gateway.err = fmt.Errorf("gateway down")
	f.bookings.bookings["bkg_1"] = &models.EventBooking{
		ID: "bkg_1", UserID: 7, TotalAmount: 30000, Status: models.BookingStatusPending,
	}

	body, _ := json.Marshal(map[string]string{"booking_id": "bkg_1"})
	w := httptest.NewRecorder()
	f.handlers.InitiatePaymentHandler(w, authenticatedRequest(http.MethodPost, "/api/payments/initiate", body, testUser()))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.Len(t, f.payments.payments, 1)
	for _, p := range f.payments.payments {
		assert.Equal(t, models.PaymentStatusFailed, p.Status)
	}
}

func TestCallbackSuccessConfirmsBooking(t *testing.T) {
	f := newPaymentFixture(false)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, UserID: 7, TotalAmount: 120000, Status: models.BookingStatusPending,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 120000,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	envelope := phonepe.CallbackEnvelope{
		Success: true,
		Code:    phonepe.CodePaymentSuccess,
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1", Amount: 120000, State: "COMPLETED"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payment-success?txn=TXN_abc_1", w.Header().Get("Location"))

	payment := f.payments.byTransaction["TXN_abc_1"]
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.NotEmpty(t, payment.Metadata, "the gateway envelope is stored for audit")
	assert.Equal(t, models.BookingStatusConfirmed, f.bookings.bookings[bookingID].Status)
}

func TestCallbackSuccessNotifiesBookingConfirmation(t *testing.T) {
	f := newPaymentFixture(false)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, EventID: "evt_1", UserID: 7,
		TotalAmount: 120000, Status: models.BookingStatusPending,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 120000,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	var notified []*models.EventBooking
	f.handlers.NotifyBookingConfirmed = func(b *models.EventBooking) { notified = append(notified, b) }

	envelope := phonepe.CallbackEnvelope{
		Success: true,
		Code:    phonepe.CodePaymentSuccess,
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1", Amount: 120000, State: "COMPLETED"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	require.Equal(t, http.StatusFound, w.Code)
	require.Len(t, notified, 1, "the confirmation notice fires once per settled booking")
	assert.Equal(t, bookingID, notified[0].ID)
	assert.Equal(t, models.BookingStatusConfirmed, notified[0].Status)
}

func TestCallbackFailureDoesNotNotify(t *testing.T) {
	f := newPaymentFixture(false)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, UserID: 7, TotalAmount: 120000, Status: models.BookingStatusPending,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 120000,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	var notified []*models.EventBooking
	f.handlers.NotifyBookingConfirmed = func(b *models.EventBooking) { notified = append(notified, b) }

	envelope := phonepe.CallbackEnvelope{
		Success: false,
		Code:    "PAYMENT_ERROR",
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1", State: "FAILED"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, notified, "a failed payment must not trigger a confirmation notice")
}

func TestCallbackFailureLeavesBookingPending(t *testing.T) {
	f := newPaymentFixture(false)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, UserID: 7, TotalAmount: 120000, Status: models.BookingStatusPending,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 120000,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	envelope := phonepe.CallbackEnvelope{
		Success: false,
		Code:    "PAYMENT_ERROR",
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1", State: "FAILED"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payment-failed?txn=TXN_abc_1", w.Header().Get("Location"))
	assert.Equal(t, models.PaymentStatusFailed, f.payments.byTransaction["TXN_abc_1"].Status)
	assert.Equal(t, models.BookingStatusPending, f.bookings.bookings[bookingID].Status)
}

func TestCallbackSuccessActivatesMembership(t *testing.T) {
	f := newPaymentFixture(false)
	membershipID := "mem_gold"
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, MembershipID: &membershipID, Amount: 500000,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	envelope := phonepe.CallbackEnvelope{
		Success: true,
		Code:    phonepe.CodePaymentSuccess,
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1", Amount: 500000, State: "COMPLETED"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, []int64{7}, f.memberships.deactivated, "previous memberships deactivate before the new one")
	require.Len(t, f.memberships.created, 1)

	um := f.memberships.created[0]
	assert.Equal(t, int64(7), um.UserID)
	assert.Equal(t, membershipID, um.MembershipID)
	assert.True(t, um.IsActive)
	assert.WithinDuration(t, um.StartDate.AddDate(1, 0, 0), um.EndDate, time.Second, "membership runs one year")
}

func TestCallbackBadSignatureRejectedWithoutMutation(t *testing.T) {
	f := newPaymentFixture(false)
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, Amount: 500, Gateway: "phonepe",
		Status: models.PaymentStatusPending, TransactionID: "TXN_abc_1",
	})

	envelope := phonepe.CallbackEnvelope{
		Success: true,
		Code:    phonepe.CodePaymentSuccess,
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1"},
	}
	r := signedCallbackRequest(t, envelope, "wrong-salt-key")
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.PaymentStatusPending, f.payments.byTransaction["TXN_abc_1"].Status)
	assert.Zero(t, f.payments.statusUpdates)
}

func TestCallbackMissingSignatureRejected(t *testing.T) {
	f := newPaymentFixture(false)

	envelope := phonepe.CallbackEnvelope{Success: true, Code: phonepe.CodePaymentSuccess}
	r := signedCallbackRequest(t, envelope, "salt-key")
	r.Header.Del("X-VERIFY")
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallbackUnknownTransaction(t *testing.T) {
	f := newPaymentFixture(false)

	envelope := phonepe.CallbackEnvelope{
		Success: true,
		Code:    phonepe.CodePaymentSuccess,
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_ghost_1"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, f.payments.statusUpdates)
}

func TestCallbackIsIdempotent(t *testing.T) {
	f := newPaymentFixture(false)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, UserID: 7, Status: models.BookingStatusConfirmed,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 100,
		Gateway: "phonepe", Status: models.PaymentStatusSuccess, TransactionID: "TXN_abc_1",
	})

	envelope := phonepe.CallbackEnvelope{
		Success: false,
		Code:    "PAYMENT_ERROR",
		Data:    phonepe.CallbackData{MerchantTransactionID: "TXN_abc_1"},
	}
	w := httptest.NewRecorder()
	f.handlers.PaymentCallbackHandler(w, signedCallbackRequest(t, envelope, "salt-key"))

	// A late failure callback cannot flip a settled payment; the redirect
	// reflects the recorded outcome.
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payment-success?txn=TXN_abc_1", w.Header().Get("Location"))
	assert.Equal(t, models.PaymentStatusSuccess, f.payments.byTransaction["TXN_abc_1"].Status)
	assert.Zero(t, f.payments.statusUpdates)
}

func TestMockCallbackSettlesPayment(t *testing.T) {
	f := newPaymentFixture(true)
	bookingID := "bkg_1"
	f.bookings.bookings[bookingID] = &models.EventBooking{
		ID: bookingID, UserID: 7, Status: models.BookingStatusPending,
	}
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, BookingID: &bookingID, Amount: 100,
		Gateway: "phonepe", Status: models.PaymentStatusPending, TransactionID: "MOCK_TXN_abc_1",
	})

	r := httptest.NewRequest(http.MethodGet, "/api/payments/callback/mock?txn=MOCK_TXN_abc_1&status=success", nil)
	w := httptest.NewRecorder()
	f.handlers.MockPaymentCallbackHandler(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payment-success?txn=MOCK_TXN_abc_1", w.Header().Get("Location"))
	assert.Equal(t, models.PaymentStatusSuccess, f.payments.byTransaction["MOCK_TXN_abc_1"].Status)
	assert.Equal(t, models.BookingStatusConfirmed, f.bookings.bookings[bookingID].Status)
}

func TestMockCallbackFailureStatus(t *testing.T) {
	f := newPaymentFixture(true)
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, Amount: 100, Gateway: "phonepe",
		Status: models.PaymentStatusPending, TransactionID: "MOCK_TXN_abc_1",
	})

	r := httptest.NewRequest(http.MethodGet, "/api/payments/callback/mock?txn=MOCK_TXN_abc_1&status=failed", nil)
	w := httptest.NewRecorder()
	f.handlers.MockPaymentCallbackHandler(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payment-failed?txn=MOCK_TXN_abc_1", w.Header().Get("Location"))
	assert.Equal(t, models.PaymentStatusFailed, f.payments.byTransaction["MOCK_TXN_abc_1"].Status)
}

func TestMockCallbackDisabledOutsideMockMode(t *testing.T) {
	f := newPaymentFixture(false)

	r := httptest.NewRequest(http.MethodGet, "/api/payments/callback/mock?txn=MOCK_TXN_abc_1&status=success", nil)
	w := httptest.NewRecorder()
	f.handlers.MockPaymentCallbackHandler(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentOutcomePageOnlyShownToOwner(t *testing.T) {
	f := newPaymentFixture(false)
	f.payments.add(&models.Payment{
		ID: "pay_1", UserID: 7, Amount: 120000, Gateway: "phonepe",
		Status: models.PaymentStatusSuccess, TransactionID: "TXN_abc_1",
	})

	sm := scs.New()
	var rendered *PageData
	f.handlers.AppHandlers = &AppHandlers{
		Config:         f.handlers.Config,
		SessionManager: sm,
		RenderPageFunc: func(_ http.ResponseWriter, _ *http.Request, _ string, data *PageData) {
			rendered = data
		},
	}

	show := func(user *models.User) *PageData {
		rendered = nil
		handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if user != nil {
				ctx = context.WithValue(ctx, middleware.UserContextKey, user)
				ctx = context.WithValue(ctx, middleware.IsAuthenticatedContextKey, true)
			}
			f.handlers.PaymentSuccessPageHandler(w, r.WithContext(ctx))
		}))
		r := httptest.NewRequest(http.MethodGet, "/payment-success?txn=TXN_abc_1", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		require.NotNil(t, rendered)
		return rendered
	}

	require.NotNil(t, show(testUser()).Payment, "the paying member sees their payment")
	assert.Nil(t, show(&models.User{ID: 8, Email: "other@club.example"}).Payment, "another member must not see it")
	assert.Nil(t, show(nil).Payment, "an anonymous visitor must not see it")
}

func TestNewTransactionIDFormat(t *testing.T) {
	now := time.UnixMilli(1725000000000)

	got := newTransactionID("pay_abcdef123456", false, now)
	assert.Equal(t, "TXN_abcdef12_1725000000000", got)

	got = newTransactionID("pay_abcdef123456", true, now)
	assert.Equal(t, "MOCK_TXN_abcdef12_1725000000000", got)
}
