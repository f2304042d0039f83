package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

// Service orchestrates scheduling state, the review log, streaks and
// practice sessions for all learners.
type Service struct {
	store Store
	sm2   *spaced_repetition.SM2
	clock func() time.Time

	// Мутирующие операции одного ученика выполняются последовательно
	mu     sync.Mutex
	owners map[int64]*sync.Mutex
}

// NewService returns a service backed by the given store.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		sm2:    spaced_repetition.NewSM2(),
		clock:  time.Now,
		owners: make(map[int64]*sync.Mutex),
	}
}

// WithClock replaces the time source and returns the service. Tests use
// it to pin "today".
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// lockOwner serializes read-modify-write cycles per learner. Without it
// two concurrent submissions could read the same card version and the
// later write would be lost.
func (s *Service) lockOwner(ownerID int64) func() {
	s.mu.Lock()
	m, ok := s.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		s.owners[ownerID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// CardsByStatus lists the learner's cards, optionally filtered by status.
func (s *Service) CardsByStatus(ctx context.Context, ownerID int64, statuses ...models.CardStatus) ([]models.Card, error) {
	cards, err := s.store.CardsByOwner(ctx, ownerID, statuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return cards, nil
}

// Stats aggregates a learner's collection, today's workload and streak.
func (s *Service) Stats(ctx context.Context, ownerID int64) (*models.UserStats, error) {
	stats, err := s.store.StatsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	if stats == nil {
		stats = &models.UserStats{}
	}

	due, err := s.DueToday(ctx, ownerID, 0)
	if err != nil {
		return nil, err
	}
	stats.DueToday = len(due)

	streak, err := s.Streak(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreak = streak.CurrentStreak
	stats.LongestStreak = streak.LongestStreak
	return stats, nil
}
