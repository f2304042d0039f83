package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/recallbot/pkg/models"
)

// StreakRepository handles database operations for streak state
type StreakRepository struct{}

// NewStreakRepository creates a new streak repository
func NewStreakRepository() *StreakRepository {
	return &StreakRepository{}
}

// GetByOwner returns the owner's streak, or nil if none was recorded yet
func (r *StreakRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.StreakState, error) {
	var streak models.StreakState
	err := DB.GetContext(ctx, &streak, DB.Rebind("SELECT * FROM streaks WHERE owner_id = ?"), ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %v", err)
	}
	return &streak, nil
}

// Save upserts the owner's streak. ON CONFLICT works the same way on
// SQLite and Postgres, so the query is shared.
func (r *StreakRepository) Save(ctx context.Context, streak *models.StreakState) error {
	query := DB.Rebind(`
		INSERT INTO streaks (owner_id, current_streak, longest_streak, last_review_date, streak_updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_review_date = excluded.last_review_date,
			streak_updated_at = excluded.streak_updated_at
	`)
	_, err := DB.ExecContext(ctx, query,
		streak.OwnerID, streak.CurrentStreak, streak.LongestStreak,
		streak.LastReviewDate, streak.StreakUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save streak: %v", err)
	}

	if streak.ID == 0 {
		if err := DB.GetContext(ctx, &streak.ID, DB.Rebind("SELECT id FROM streaks WHERE owner_id = ?"), streak.OwnerID); err != nil {
			return fmt.Errorf("failed to get streak id: %v", err)
		}
	}
	return nil
}
