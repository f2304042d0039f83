package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

func TestSubmitReviewClimbsTheLadder(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()

	card, err := svc.AddCard(ctx, 1, "dog", "собака", "animals")
	require.NoError(t, err)

	// First success: the interval stays at the first rung.
	clock.AdvanceDays(1)
	card, err = svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, card.Interval)
	assert.Equal(t, 1, card.ConsecutiveCorrect)
	assert.Equal(t, 1, card.SuccessCount)
	assert.Equal(t, 1, card.ReviewStep)
	assert.Equal(t, clock.Now().AddDate(0, 0, 1), card.NextReview)
	require.NotNil(t, card.LastReviewed)
	assert.Equal(t, clock.Now(), *card.LastReviewed)

	// Second success jumps to six days.
	clock.AdvanceDays(1)
	card, err = svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, card.Interval)
	assert.Equal(t, 2, card.ConsecutiveCorrect)

	// Third success multiplies by the ease factor: round(6 * 2.5).
	clock.AdvanceDays(6)
	card, err = svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, card.Interval)
	assert.Equal(t, clock.Now().AddDate(0, 0, 15), card.NextReview)

	// Three events landed in the log, all successful "good" answers.
	events, err := store.EventsForOwner(ctx, 1, clock.Now().AddDate(0, 0, -30), clock.Now().AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.True(t, ev.IsSuccess)
		assert.Equal(t, int(spaced_repetition.QualityCorrectHesitation), ev.Quality)
	}
}

func TestSubmitReviewFailureResetsCard(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "cat", Back: "кошка", Status: models.CardStatusActive,
		Interval: 15, EaseFactor: 2.5, ConsecutiveCorrect: 3, ReviewStep: 3,
		SuccessCount: 3, NextReview: now, CreatedAt: now.AddDate(0, 0, -30), UpdatedAt: now,
	})

	updated, err := svc.SubmitReview(ctx, 1, card.ID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Interval)
	assert.Equal(t, 0, updated.ConsecutiveCorrect)
	assert.Equal(t, 0, updated.ReviewStep)
	assert.Equal(t, 1, updated.FailureCount)
	assert.Equal(t, 3, updated.SuccessCount)
	assert.InDelta(t, 2.3, updated.EaseFactor, 1e-9)
	assert.Equal(t, now.AddDate(0, 0, 1), updated.NextReview)
	assert.Equal(t, models.CardStatusActive, updated.Status)

	events, err := store.EventsForCard(ctx, card.ID, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].IsSuccess)
	assert.Equal(t, int(spaced_repetition.QualityBlackout), events[0].Quality)
}

func TestSubmitReviewDifficultyShapesEase(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	tests := []struct {
		name       string
		difficulty spaced_repetition.Difficulty
		wantEase   float64
	}{
		{name: "hard drops ease", difficulty: spaced_repetition.DifficultyHard, wantEase: 2.36},
		{name: "good keeps ease", difficulty: spaced_repetition.DifficultyGood, wantEase: 2.5},
		{name: "easy raises ease", difficulty: spaced_repetition.DifficultyEasy, wantEase: 2.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := seedCard(t, store, &models.Card{
				OwnerID: 1, Front: "x " + tt.name, Back: "y", Status: models.CardStatusActive,
				Interval: 6, EaseFactor: 2.5, ConsecutiveCorrect: 2, ReviewStep: 2,
				NextReview: now, CreatedAt: now.AddDate(0, 0, -10), UpdatedAt: now,
			})

			d := tt.difficulty
			updated, err := svc.SubmitReview(ctx, 1, card.ID, true, &d)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantEase, updated.EaseFactor, 1e-9)
			assert.Equal(t, 3, updated.ConsecutiveCorrect)
		})
	}
}

func TestSubmitReviewMarksMastery(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	// Fifth straight success with a long interval crosses the mastery bar.
	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "whale", Back: "кит", Status: models.CardStatusActive,
		Interval: 60, EaseFactor: 2.0, ConsecutiveCorrect: 4, ReviewStep: 4,
		SuccessCount: 4, NextReview: now, CreatedAt: now.AddDate(0, 0, -120), UpdatedAt: now,
	})

	updated, err := svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 120, updated.Interval)
	assert.Equal(t, 5, updated.ConsecutiveCorrect)
	assert.Equal(t, models.CardStatusCompleted, updated.Status)

	// A completed card cannot be reviewed again.
	_, err = svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.ErrorIs(t, err, ErrCardNotActive)
}

func TestSubmitReviewRefreshesStreak(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "sun", Back: "солнце", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})

	_, err := svc.SubmitReview(ctx, 1, card.ID, true, nil)
	require.NoError(t, err)

	streak, err := svc.Streak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	require.NotNil(t, streak.LastReviewDate)
	assert.True(t, streak.ReviewedOn(clock.Now()))
}

func TestSubmitReviewRejectsForeignAndMissingCards(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "a", Back: "b", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})

	_, err := svc.SubmitReview(ctx, 2, card.ID, true, nil)
	require.ErrorIs(t, err, ErrCardNotFound)

	_, err = svc.SubmitReview(ctx, 1, 9999, true, nil)
	require.ErrorIs(t, err, ErrCardNotFound)
}
