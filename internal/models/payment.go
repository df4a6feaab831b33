// internal/models/payment.go
package models

import (
	"errors"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment is the authoritative record of money movement. Amount is in
// paise. Status moves from pending to exactly one of success or failed and
// never changes again; refunded exists in the taxonomy but no code path
// sets it. Metadata carries the raw gateway envelope after the callback,
// and the membership reference when the payment is not tied to a booking.
type Payment struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"user_id"`
	BookingID     *string       `json:"booking_id,omitempty"`
	Amount        int64         `json:"amount"`
	Gateway       string        `json:"payment_gateway"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	MembershipID  *string       `json:"membership_id,omitempty"`
	Metadata      []byte        `json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

var ErrNoPaymentSubject = errors.New("payment needs a booking or a membership subject")
var ErrAmbiguousPaymentSubject = errors.New("payment cannot reference both a booking and a membership")

// PaymentSubject is the one thing a payment exists to pay for: either an
// event booking or a membership purchase, never both, never neither.
type PaymentSubject struct {
	bookingID    string
	membershipID string
}

func BookingSubject(bookingID string) PaymentSubject {
	return PaymentSubject{bookingID: bookingID}
}

func MembershipSubject(membershipID string) PaymentSubject {
	return PaymentSubject{membershipID: membershipID}
}

// NewPaymentSubject validates the exactly-one rule for raw request input.
func NewPaymentSubject(bookingID, membershipID string) (PaymentSubject, error) {
	switch {
	case bookingID == "" && membershipID == "":
		return PaymentSubject{}, ErrNoPaymentSubject
	case bookingID != "" && membershipID != "":
		return PaymentSubject{}, ErrAmbiguousPaymentSubject
	}
	return PaymentSubject{bookingID: bookingID, membershipID: membershipID}, nil
}

func (s PaymentSubject) BookingID() (string, bool) {
	return s.bookingID, s.bookingID != ""
}

func (s PaymentSubject) MembershipID() (string, bool) {
	return s.membershipID, s.membershipID != ""
}
