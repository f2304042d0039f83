package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// DueCard is a due card annotated for presentation.
type DueCard struct {
	models.Card
	IsOverdue        bool    `json:"is_overdue"`
	FailureRate      float64 `json:"failure_rate"`
	DaysSinceCreated int     `json:"days_since_created"`
}

// DueToday returns the learner's active cards due by the end of the
// current calendar day, skipping cards already answered today. Results
// are ordered by next review date, then failure count (highest first),
// then card age (oldest first). A non-positive limit returns everything.
func (s *Service) DueToday(ctx context.Context, ownerID int64, limit int) ([]DueCard, error) {
	return s.dueCards(ctx, ownerID, s.clock(), limit)
}

func (s *Service) dueCards(ctx context.Context, ownerID int64, now time.Time, limit int) ([]DueCard, error) {
	cards, err := s.store.CardsByOwner(ctx, ownerID, models.CardStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := s.store.EventsForOwner(ctx, ownerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's reviews: %w", err)
	}
	reviewedToday := make(map[int64]bool, len(events))
	for _, ev := range events {
		reviewedToday[ev.CardID] = true
	}

	var due []DueCard
	for _, card := range cards {
		// Due means the next review lands today or earlier.
		if !card.NextReview.Before(dayEnd) {
			continue
		}
		if reviewedToday[card.ID] {
			continue
		}
		due = append(due, DueCard{
			Card:             card,
			IsOverdue:        card.NextReview.Before(now),
			FailureRate:      card.FailureRate(),
			DaysSinceCreated: calendarDays(card.CreatedAt, now),
		})
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReview.Equal(due[j].NextReview) {
			return due[i].NextReview.Before(due[j].NextReview)
		}
		if due[i].FailureCount != due[j].FailureCount {
			return due[i].FailureCount > due[j].FailureCount
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
