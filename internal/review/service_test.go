package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

// testClock is a movable time source for pinning "today" in tests.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *testClock) AdvanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

func newTestService() (*Service, *MemStore, *testClock) {
	store := NewMemStore()
	clock := newTestClock()
	svc := NewService(store).WithClock(clock.Now)
	return svc, store, clock
}

func seedCard(t *testing.T, store *MemStore, card *models.Card) *models.Card {
	t.Helper()
	require.NoError(t, store.CreateCard(context.Background(), card))
	return card
}

func TestStatsAggregatesCollectionAndStreak(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "due", Back: "a", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now.AddDate(0, 0, -1),
		CreatedAt: now.AddDate(0, 0, -5), UpdatedAt: now,
	})
	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "later", Back: "b", Status: models.CardStatusActive,
		Interval: 7, EaseFactor: 2.5, NextReview: now.AddDate(0, 0, 3),
		CreatedAt: now.AddDate(0, 0, -5), UpdatedAt: now,
	})
	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "done", Back: "c", Status: models.CardStatusCompleted,
		Interval: 120, EaseFactor: 2.8, NextReview: now.AddDate(0, 0, 90),
		CreatedAt: now.AddDate(0, 0, -200), UpdatedAt: now,
	})

	_, err := svc.RecordActivity(ctx, 1)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalCards)
	require.Equal(t, 2, stats.ActiveCards)
	require.Equal(t, 1, stats.CompletedCards)
	require.Equal(t, 1, stats.DueToday)
	require.Equal(t, 1, stats.CurrentStreak)
	require.Equal(t, 1, stats.LongestStreak)
}

func TestStatsForUnknownOwnerIsZero(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.Stats(context.Background(), 404)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalCards)
	require.Equal(t, 0, stats.DueToday)
	require.Equal(t, 0, stats.CurrentStreak)
}

func TestCardsByStatusFilters(t *testing.T) {
	svc, store, clock := newTestService()
	now := clock.Now()

	seedCard(t, store, &models.Card{OwnerID: 1, Front: "a", Back: "1", Status: models.CardStatusActive, Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now})
	seedCard(t, store, &models.Card{OwnerID: 1, Front: "b", Back: "2", Status: models.CardStatusPaused, Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now})
	seedCard(t, store, &models.Card{OwnerID: 2, Front: "c", Back: "3", Status: models.CardStatusActive, Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now})

	all, err := svc.CardsByStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, all, 2)

	paused, err := svc.CardsByStatus(context.Background(), 1, models.CardStatusPaused)
	require.NoError(t, err)
	require.Len(t, paused, 1)
	require.Equal(t, "b", paused[0].Front)
}
