// internal/db/bookings_db.go
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

type BookingsDB struct {
	db *sql.DB
}

func NewBookingsDB(db *sql.DB) *BookingsDB {
	return &BookingsDB{db: db}
}

const bookingColumns = `id, event_id, user_id, num_adults, num_children, include_lunch, include_dinner,
	total_amount, status, created_at, updated_at`

func (bdb *BookingsDB) Create(ctx context.Context, booking *models.EventBooking) error {
	if booking.ID == "" {
		booking.ID = "bkg_" + uuid.NewString()[:12]
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	query := `INSERT INTO event_bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := bdb.db.ExecContext(ctx, query,
		booking.ID, booking.EventID, booking.UserID,
		booking.NumAdults, booking.NumChildren, booking.IncludeLunch, booking.IncludeDinner,
		booking.TotalAmount, booking.Status, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to insert booking", "bookingID", booking.ID, "eventID", booking.EventID, "error", err)
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// GetByID returns the booking, or (nil, nil) when no row matches.
func (bdb *BookingsDB) GetByID(ctx context.Context, bookingID string) (*models.EventBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM event_bookings WHERE id = ?`
	return scanBooking(bdb.db.QueryRowContext(ctx, query, bookingID))
}

func (bdb *BookingsDB) UpdateStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	query := `UPDATE event_bookings SET status = ?, updated_at = ? WHERE id = ?`
	if _, err := bdb.db.ExecContext(ctx, query, status, time.Now(), bookingID); err != nil {
		slog.Error("Failed to update booking status", "bookingID", bookingID, "status", status, "error", err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

// ListByUser returns a member's bookings, newest first.
func (bdb *BookingsDB) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.EventBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM event_bookings WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := bdb.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.EventBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			slog.Error("Failed to scan booking row", "error", err)
			continue
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking row iteration failed: %w", err)
	}
	return bookings, nil
}

// CountHeadsForEvent sums the attendees of non-cancelled bookings, for
// capacity checks. MaxCapacity is in people, so the count must be too.
func (bdb *BookingsDB) CountHeadsForEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	query := `SELECT COALESCE(SUM(num_adults + num_children), 0) FROM event_bookings WHERE event_id = ? AND status != ?`
	if err := bdb.db.QueryRowContext(ctx, query, eventID, models.BookingStatusCancelled).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count event attendees: %w", err)
	}
	return n, nil
}

func scanBooking(row scanner) (*models.EventBooking, error) {
	var b models.EventBooking
	err := row.Scan(
		&b.ID, &b.EventID, &b.UserID,
		&b.NumAdults, &b.NumChildren, &b.IncludeLunch, &b.IncludeDinner,
		&b.TotalAmount, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan booking row: %w", err)
	}
	return &b, nil
}
