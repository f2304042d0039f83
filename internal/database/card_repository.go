package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// CardRepository handles database operations for cards
type CardRepository struct{}

// NewCardRepository creates a new card repository
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

// Create inserts a new card and fills in the generated ID
func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = now
	}
	if card.Version == 0 {
		card.Version = 1
	}

	query := `
		INSERT INTO cards (
			owner_id, front, back, deck, hint, status,
			interval, ease_factor, consecutive_correct, review_step,
			view_count, success_count, failure_count,
			last_reviewed, next_review, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		card.OwnerID, card.Front, card.Back, card.Deck, card.Hint, card.Status,
		card.Interval, card.EaseFactor, card.ConsecutiveCorrect, card.ReviewStep,
		card.ViewCount, card.SuccessCount, card.FailureCount,
		card.LastReviewed, card.NextReview, card.Version, card.CreatedAt, card.UpdatedAt,
	}

	if DB.DriverName() == "postgres" {
		query = DB.Rebind(query + " RETURNING id")
		if err := DB.QueryRowContext(ctx, query, args...).Scan(&card.ID); err != nil {
			return fmt.Errorf("failed to create card: %v", err)
		}
		return nil
	}

	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create card: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get card id: %v", err)
	}
	card.ID = id
	return nil
}

// GetByID returns a card by its ID, or nil if it does not exist
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	var card models.Card
	err := DB.GetContext(ctx, &card, DB.Rebind("SELECT * FROM cards WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %v", err)
	}
	return &card, nil
}

// GetByOwner returns the owner's cards ordered by ID, optionally filtered
// by status
func (r *CardRepository) GetByOwner(ctx context.Context, ownerID int64, statuses ...models.CardStatus) ([]models.Card, error) {
	var cards []models.Card
	if len(statuses) == 0 {
		err := DB.SelectContext(ctx, &cards, DB.Rebind("SELECT * FROM cards WHERE owner_id = ? ORDER BY id"), ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get cards: %v", err)
		}
		return cards, nil
	}

	query, args, err := sqlx.In("SELECT * FROM cards WHERE owner_id = ? AND status IN (?) ORDER BY id", ownerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build cards query: %v", err)
	}
	if err := DB.SelectContext(ctx, &cards, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get cards: %v", err)
	}
	return cards, nil
}

// Save updates a card guarded by its version. The update only applies when
// the stored version still matches the one the caller read; otherwise the
// card was changed concurrently and ErrVersionConflict is returned.
func (r *CardRepository) Save(ctx context.Context, card *models.Card) error {
	card.UpdatedAt = time.Now()

	query := DB.Rebind(`
		UPDATE cards SET
			front = ?, back = ?, deck = ?, hint = ?, status = ?,
			interval = ?, ease_factor = ?, consecutive_correct = ?, review_step = ?,
			view_count = ?, success_count = ?, failure_count = ?,
			last_reviewed = ?, next_review = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		card.Front, card.Back, card.Deck, card.Hint, card.Status,
		card.Interval, card.EaseFactor, card.ConsecutiveCorrect, card.ReviewStep,
		card.ViewCount, card.SuccessCount, card.FailureCount,
		card.LastReviewed, card.NextReview, card.UpdatedAt,
		card.ID, card.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save card: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check card update: %v", err)
	}
	if affected == 0 {
		// Either the card is gone or someone else won the write
		var exists int
		err := DB.GetContext(ctx, &exists, DB.Rebind("SELECT 1 FROM cards WHERE id = ?"), card.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return review.ErrCardNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check card existence: %v", err)
		}
		return review.ErrVersionConflict
	}

	card.Version++
	return nil
}
