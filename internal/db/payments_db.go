// internal/db/payments_db.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"samudaya.club/internal/models"

	"github.com/google/uuid"
)

// PaymentsDB wraps payment queries around an injected connection so the
// payment handlers can be tested against fakes.
type PaymentsDB struct {
	db *sql.DB
}

func NewPaymentsDB(db *sql.DB) *PaymentsDB {
	return &PaymentsDB{db: db}
}

const paymentColumns = `id, user_id, booking_id, amount, payment_gateway, status, transaction_id, membership_id, metadata, created_at, updated_at`

// Create inserts a new payment row. The id is assigned here when empty.
func (pdb *PaymentsDB) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = "pay_" + uuid.NewString()[:12]
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	_, err := pdb.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.BookingID,
		payment.Amount,
		payment.Gateway,
		payment.Status,
		sql.NullString{String: payment.TransactionID, Valid: payment.TransactionID != ""},
		payment.MembershipID,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to insert payment", "paymentID", payment.ID, "userID", payment.UserID, "error", err)
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// SetTransactionID stores the synthesized transaction id on the payment.
func (pdb *PaymentsDB) SetTransactionID(ctx context.Context, paymentID, transactionID string) error {
	query := `UPDATE payments SET transaction_id = ?, updated_at = ? WHERE id = ?`
	if _, err := pdb.db.ExecContext(ctx, query, transactionID, time.Now(), paymentID); err != nil {
		return fmt.Errorf("failed to set transaction id: %w", err)
	}
	return nil
}

// GetByTransactionID returns the payment with the given transaction id, or
// (nil, nil) when no row matches.
func (pdb *PaymentsDB) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = ?`
	return scanPayment(pdb.db.QueryRowContext(ctx, query, transactionID))
}

// GetByID returns the payment with the given id, or (nil, nil).
func (pdb *PaymentsDB) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	return scanPayment(pdb.db.QueryRowContext(ctx, query, paymentID))
}

// UpdateStatusByTransactionID moves the payment to a terminal status and
// stores the decoded gateway envelope as an audit trail.
func (pdb *PaymentsDB) UpdateStatusByTransactionID(ctx context.Context, transactionID string, status models.PaymentStatus, metadata []byte) error {
	query := `UPDATE payments SET status = ?, metadata = COALESCE(?, metadata), updated_at = ? WHERE transaction_id = ?`
	if _, err := pdb.db.ExecContext(ctx, query, status, metadata, time.Now(), transactionID); err != nil {
		slog.Error("Failed to update payment status", "transactionID", transactionID, "status", status, "error", err)
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

// ListByUser returns a member's payments, newest first.
func (pdb *PaymentsDB) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := pdb.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListAll returns payments across all members, newest first.
func (pdb *PaymentsDB) ListAll(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := pdb.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			slog.Error("Failed to scan payment row", "error", err)
			continue
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment row iteration failed: %w", err)
	}
	return payments, nil
}

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var bookingID, transactionID, membershipID sql.NullString
	var metadata []byte

	err := row.Scan(
		&p.ID, &p.UserID, &bookingID, &p.Amount, &p.Gateway, &p.Status,
		&transactionID, &membershipID, &metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan payment row: %w", err)
	}
	if bookingID.Valid {
		p.BookingID = &bookingID.String
	}
	if membershipID.Valid {
		p.MembershipID = &membershipID.String
	}
	p.TransactionID = transactionID.String
	p.Metadata = metadata
	return &p, nil
}
