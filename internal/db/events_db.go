// internal/db/events_db.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"samudaya.club/internal/models"

	"github.com/google/uuid"
)

type EventsDB struct {
	db *sql.DB
}

func NewEventsDB(db *sql.DB) *EventsDB {
	return &EventsDB{db: db}
}

const eventColumns = `id, title, description, venue, venue_map_link, event_date, start_time, end_time,
	max_capacity, lunch_price, dinner_price, is_free, image_url, status, allowed_tiers, created_at, updated_at`

func (edb *EventsDB) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = "evt_" + uuid.NewString()[:12]
	}
	if event.Status == "" {
		event.Status = models.EventStatusDraft
	}
	tiers, err := marshalTiers(event.AllowedTiers)
	if err != nil {
		return err
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = edb.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Venue, event.VenueMapLink,
		event.EventDate, event.StartTime, event.EndTime,
		event.MaxCapacity, event.LunchPrice, event.DinnerPrice, event.IsFree,
		event.ImageURL, event.Status, tiers, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to insert event", "eventID", event.ID, "error", err)
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (edb *EventsDB) Update(ctx context.Context, event *models.Event) error {
	tiers, err := marshalTiers(event.AllowedTiers)
	if err != nil {
		return err
	}
	query := `UPDATE events SET title = ?, description = ?, venue = ?, venue_map_link = ?, event_date = ?,
		start_time = ?, end_time = ?, max_capacity = ?, lunch_price = ?, dinner_price = ?, is_free = ?,
		image_url = ?, status = ?, allowed_tiers = ?, updated_at = ? WHERE id = ?`
	res, err := edb.db.ExecContext(ctx, query,
		event.Title, event.Description, event.Venue, event.VenueMapLink, event.EventDate,
		event.StartTime, event.EndTime, event.MaxCapacity, event.LunchPrice, event.DinnerPrice, event.IsFree,
		event.ImageURL, event.Status, tiers, time.Now(), event.ID,
	)
	if err != nil {
		slog.Error("Failed to update event", "eventID", event.ID, "error", err)
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s not found", event.ID)
	}
	return nil
}

// GetByID returns the event, or (nil, nil) when no row matches.
func (edb *EventsDB) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(edb.db.QueryRowContext(ctx, query, eventID))
}

// ListPublished returns upcoming published events, soonest first.
func (edb *EventsDB) ListPublished(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = ? ORDER BY event_date ASC`
	rows, err := edb.db.QueryContext(ctx, query, models.EventStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list published events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListAll returns every event regardless of status, for administrators.
func (edb *EventsDB) ListAll(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY event_date DESC`
	rows, err := edb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			slog.Error("Failed to scan event row", "error", err)
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event row iteration failed: %w", err)
	}
	return events, nil
}

func scanEvent(row scanner) (*models.Event, error) {
	var e models.Event
	var description, venueMapLink, imageURL sql.NullString
	var tiersJSON []byte

	err := row.Scan(
		&e.ID, &e.Title, &description, &e.Venue, &venueMapLink,
		&e.EventDate, &e.StartTime, &e.EndTime,
		&e.MaxCapacity, &e.LunchPrice, &e.DinnerPrice, &e.IsFree,
		&imageURL, &e.Status, &tiersJSON, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}
	if description.Valid {
		e.Description = &description.String
	}
	if venueMapLink.Valid {
		e.VenueMapLink = &venueMapLink.String
	}
	if imageURL.Valid {
		e.ImageURL = &imageURL.String
	}
	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &e.AllowedTiers); err != nil {
			slog.Warn("Failed to decode allowed_tiers", "eventID", e.ID, "error", err)
		}
	}
	return &e, nil
}

func marshalTiers(tiers []models.Tier) ([]byte, error) {
	if len(tiers) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tiers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allowed_tiers: %w", err)
	}
	return data, nil
}
