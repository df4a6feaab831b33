// internal/db/reports_db.go
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// ReportStats holds the aggregate numbers for the admin dashboard endpoint.
type ReportStats struct {
	TotalUsers          int   `json:"total_users"`
	NewUsersLast30Days  int   `json:"new_users_last_30_days"`
	ActiveMemberships   int   `json:"active_memberships"`
	PublishedEvents     int   `json:"published_events"`
	TotalBookings       int   `json:"total_bookings"`
	ConfirmedBookings   int   `json:"confirmed_bookings"`
	SuccessfulPayments  int   `json:"successful_payments"`
	CollectedAmount     int64 `json:"collected_amount"`
}

// GetDashboardStats collects the admin dashboard statistics. Individual
// query failures are logged and leave a zero in the corresponding field.
func GetDashboardStats() (*ReportStats, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stats := &ReportStats{}

	if err := DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		slog.Error("Failed to count users for stats", "error", err)
	}

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30).Truncate(24 * time.Hour)
	if err := DB.QueryRow("SELECT COUNT(*) FROM users WHERE created_at >= ?", thirtyDaysAgo).Scan(&stats.NewUsersLast30Days); err != nil {
		slog.Error("Failed to count new users for stats", "error", err)
	}

	if err := DB.QueryRow("SELECT COUNT(*) FROM user_memberships WHERE is_active = TRUE AND end_date > NOW()").Scan(&stats.ActiveMemberships); err != nil {
		slog.Error("Failed to count active memberships for stats", "error", err)
	}

	if err := DB.QueryRow("SELECT COUNT(*) FROM events WHERE status = 'published'").Scan(&stats.PublishedEvents); err != nil {
		slog.Error("Failed to count published events for stats", "error", err)
	}

	if err := DB.QueryRow("SELECT COUNT(*) FROM event_bookings").Scan(&stats.TotalBookings); err != nil {
		slog.Error("Failed to count bookings for stats", "error", err)
	}

	if err := DB.QueryRow("SELECT COUNT(*) FROM event_bookings WHERE status = 'confirmed'").Scan(&stats.ConfirmedBookings); err != nil {
		slog.Error("Failed to count confirmed bookings for stats", "error", err)
	}

	if err := DB.QueryRow("SELECT COUNT(*) FROM payments WHERE status = 'success'").Scan(&stats.SuccessfulPayments); err != nil {
		slog.Error("Failed to count successful payments for stats", "error", err)
	}

	var collected sql.NullInt64
	if err := DB.QueryRow("SELECT SUM(amount) FROM payments WHERE status = 'success'").Scan(&collected); err != nil {
		slog.Error("Failed to sum collected payments for stats", "error", err)
	}
	if collected.Valid {
		stats.CollectedAmount = collected.Int64
	}

	return stats, nil
}
