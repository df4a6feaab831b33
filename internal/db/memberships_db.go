// internal/db/memberships_db.go
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

type MembershipsDB struct {
	db *sql.DB
}

func NewMembershipsDB(db *sql.DB) *MembershipsDB {
	return &MembershipsDB{db: db}
}

// GetByID returns the membership tier definition, or (nil, nil).
func (mdb *MembershipsDB) GetByID(ctx context.Context, membershipID string) (*models.Membership, error) {
	query := `SELECT id, name, tier, description, price, duration_months, created_at, updated_at
	          FROM memberships WHERE id = ?`
	return scanMembership(mdb.db.QueryRowContext(ctx, query, membershipID))
}

// List returns all purchasable tiers, cheapest first.
func (mdb *MembershipsDB) List(ctx context.Context) ([]*models.Membership, error) {
	query := `SELECT id, name, tier, description, price, duration_months, created_at, updated_at
	          FROM memberships ORDER BY price ASC`
	rows, err := mdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			slog.Error("Failed to scan membership row", "error", err)
			continue
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("membership row iteration failed: %w", err)
	}
	return memberships, nil
}

// DeactivateUserMemberships clears any active membership the user holds.
// Called before inserting a new one so at most one row stays active.
func (mdb *MembershipsDB) DeactivateUserMemberships(ctx context.Context, userID int64) error {
	query := `UPDATE user_memberships SET is_active = FALSE, updated_at = ? WHERE user_id = ? AND is_active = TRUE`
	if _, err := mdb.db.ExecContext(ctx, query, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to deactivate user memberships: %w", err)
	}
	return nil
}

// CreateUserMembership inserts a purchased membership row.
func (mdb *MembershipsDB) CreateUserMembership(ctx context.Context, um *models.UserMembership) error {
	if um.ID == "" {
		um.ID = "um_" + uuid.NewString()[:12]
	}
	now := time.Now()
	um.CreatedAt = now
	um.UpdatedAt = now

	query := `INSERT INTO user_memberships (id, user_id, membership_id, start_date, end_date, is_active, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := mdb.db.ExecContext(ctx, query,
		um.ID, um.UserID, um.MembershipID, um.StartDate, um.EndDate, um.IsActive, um.CreatedAt, um.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to insert user membership", "userID", um.UserID, "membershipID", um.MembershipID, "error", err)
		return fmt.Errorf("failed to save user membership: %w", err)
	}
	return nil
}

// GetActiveUserMembership returns the user's active membership joined with
// its tier, or (nil, nil, nil) when the user holds none.
func (mdb *MembershipsDB) GetActiveUserMembership(ctx context.Context, userID int64) (*models.UserMembership, *models.Membership, error) {
	query := `SELECT um.id, um.user_id, um.membership_id, um.start_date, um.end_date, um.is_active,
	                 um.created_at, um.updated_at,
	                 m.id, m.name, m.tier, m.description, m.price, m.duration_months, m.created_at, m.updated_at
	          FROM user_memberships um
	          JOIN memberships m ON um.membership_id = m.id
	          WHERE um.user_id = ? AND um.is_active = TRUE AND um.end_date > ?
	          ORDER BY um.end_date DESC LIMIT 1`
	row := mdb.db.QueryRowContext(ctx, query, userID, time.Now())

	var um models.UserMembership
	var m models.Membership
	var description sql.NullString
	err := row.Scan(
		&um.ID, &um.UserID, &um.MembershipID, &um.StartDate, &um.EndDate, &um.IsActive,
		&um.CreatedAt, &um.UpdatedAt,
		&m.ID, &m.Name, &m.Tier, &description, &m.Price, &m.DurationMonths, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to fetch active user membership: %w", err)
	}
	if description.Valid {
		m.Description = &description.String
	}
	return &um, &m, nil
}

// SeedDefaultTiers inserts the three club tiers when the table is empty.
func (mdb *MembershipsDB) SeedDefaultTiers() error {
	var count int
	if err := mdb.db.QueryRow(`SELECT COUNT(*) FROM memberships`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count memberships: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []models.Membership{
		{Name: "Gold", Tier: models.TierGold, Price: 500000, DurationMonths: 12},
		{Name: "Diamond", Tier: models.TierDiamond, Price: 1000000, DurationMonths: 12},
		{Name: "Platinum", Tier: models.TierPlatinum, Price: 2000000, DurationMonths: 12},
	}
	now := time.Now()
	for _, m := range defaults {
		id := "mem_" + uuid.NewString()[:12]
		_, err := mdb.db.Exec(
			`INSERT INTO memberships (id, name, tier, description, price, duration_months, created_at, updated_at)
			 VALUES (?, ?, ?, NULL, ?, ?, ?, ?)`,
			id, m.Name, m.Tier, m.Price, m.DurationMonths, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed membership tier '%s': %w", m.Name, err)
		}
		slog.Info("Membership tier seeded", "id", id, "tier", m.Tier)
	}
	return nil
}

func scanMembership(row scanner) (*models.Membership, error) {
	var m models.Membership
	var description sql.NullString
	err := row.Scan(&m.ID, &m.Name, &m.Tier, &description, &m.Price, &m.DurationMonths, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan membership row: %w", err)
	}
	if description.Valid {
		m.Description = &description.String
	}
	return &m, nil
}
