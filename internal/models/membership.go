// internal/models/membership.go
package models

import "time"

type Tier string

const (
	TierGold     Tier = "gold"
	TierDiamond  Tier = "diamond"
	TierPlatinum Tier = "platinum"
)

// Membership is a purchasable tier definition. Price is in paise.
type Membership struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Tier           Tier      `json:"tier"`
	Description    *string   `json:"description,omitempty"`
	Price          int64     `json:"price"`
	DurationMonths int       `json:"duration_months"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserMembership is a member's purchased membership. Validity runs one year
// from the start date; at most one row per user is active at a time, which
// is enforced by the code that creates these rows, not by the database.
type UserMembership struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	MembershipID string    `json:"membership_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
