package review

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// RecordActivity registers "the learner reviewed something now" and
// returns the updated streak. A second call on the same calendar day
// leaves the streak unchanged, the next day extends it and any gap
// starts it over at one.
func (s *Service) RecordActivity(ctx context.Context, ownerID int64) (*models.StreakState, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()
	return s.recordActivity(ctx, ownerID, s.clock())
}

// recordActivity applies the streak transition. The caller must hold the
// owner lock.
func (s *Service) recordActivity(ctx context.Context, ownerID int64, now time.Time) (*models.StreakState, error) {
	streak, err := s.store.StreakByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}
	if streak == nil {
		streak = &models.StreakState{OwnerID: ownerID}
	}

	if streak.LastReviewDate == nil {
		streak.CurrentStreak = 1
	} else {
		switch calendarDays(*streak.LastReviewDate, now) {
		case 0:
			// Сегодня уже отмечено
		case 1:
			streak.CurrentStreak++
		default:
			// Пропущен день или часы ушли назад - серия начинается заново
			streak.CurrentStreak = 1
		}
	}
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastReviewDate = &now
	streak.StreakUpdatedAt = now

	if err := s.store.SaveStreak(ctx, streak); err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}
	return streak, nil
}

// Streak returns the learner's streak without modifying it. A learner
// with no recorded activity gets a zero state.
func (s *Service) Streak(ctx context.Context, ownerID int64) (*models.StreakState, error) {
	streak, err := s.store.StreakByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}
	if streak == nil {
		streak = &models.StreakState{OwnerID: ownerID}
	}
	return streak, nil
}
