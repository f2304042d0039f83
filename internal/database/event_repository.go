package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// EventRepository handles database operations for the review log
type EventRepository struct{}

// NewEventRepository creates a new event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// Append adds one row to the append-only review log
func (r *EventRepository) Append(ctx context.Context, event *models.ReviewEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO review_events (card_id, owner_id, is_success, quality, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	args := []interface{}{event.CardID, event.OwnerID, event.IsSuccess, event.Quality, event.CreatedAt}

	if DB.DriverName() == "postgres" {
		query = DB.Rebind(query + " RETURNING id")
		if err := DB.QueryRowContext(ctx, query, args...).Scan(&event.ID); err != nil {
			return fmt.Errorf("failed to append review event: %v", err)
		}
		return nil
	}

	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to append review event: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get review event id: %v", err)
	}
	event.ID = id
	return nil
}

// ForCard returns a card's events with created_at in [from, to),
// oldest first
func (r *EventRepository) ForCard(ctx context.Context, cardID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	var events []models.ReviewEvent
	query := DB.Rebind(`
		SELECT * FROM review_events
		WHERE card_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at, id
	`)
	if err := DB.SelectContext(ctx, &events, query, cardID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get card events: %v", err)
	}
	return events, nil
}

// ForOwner returns an owner's events with created_at in [from, to),
// oldest first
func (r *EventRepository) ForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	var events []models.ReviewEvent
	query := DB.Rebind(`
		SELECT * FROM review_events
		WHERE owner_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at, id
	`)
	if err := DB.SelectContext(ctx, &events, query, ownerID, from, to); err != nil {
		return nil, fmt.Errorf("failed to get owner events: %v", err)
	}
	return events, nil
}
