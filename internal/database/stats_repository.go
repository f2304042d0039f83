package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// StatsRepository aggregates collection-level statistics
type StatsRepository struct{}

// NewStatsRepository creates a new stats repository
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// GetByOwner returns card counters, all-time success rate and average ease
// for one owner, plus how many distinct cards were answered today
func (r *StatsRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.UserStats, error) {
	var stats models.UserStats

	query := DB.Rebind(`
		SELECT
			COUNT(*) AS total_cards,
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_cards,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_cards,
			COALESCE(SUM(CASE WHEN status = 'paused' THEN 1 ELSE 0 END), 0) AS paused_cards,
			COALESCE(CAST(SUM(success_count) AS REAL) / NULLIF(SUM(success_count + failure_count), 0), 0) AS success_rate,
			COALESCE(AVG(CASE WHEN status = 'active' THEN ease_factor END), 0) AS average_ease
		FROM cards
		WHERE owner_id = ?
	`)
	if err := DB.GetContext(ctx, &stats, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get card stats: %v", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	reviewedQuery := DB.Rebind(`
		SELECT COUNT(DISTINCT card_id) FROM review_events
		WHERE owner_id = ? AND created_at >= ? AND created_at < ?
	`)
	if err := DB.GetContext(ctx, &stats.ReviewedToday, reviewedQuery, ownerID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("failed to count reviewed cards: %v", err)
	}

	return &stats, nil
}
