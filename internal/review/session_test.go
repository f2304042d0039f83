package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

func TestCreateDailySessionWhenNothingIsDue(t *testing.T) {
	svc, _, _ := newTestService()

	session, err := svc.CreateDailySession(context.Background(), 1, DailySessionConfig{})
	require.NoError(t, err)
	assert.Nil(t, session, "no due cards means no session")
}

func TestCreateDailySessionSnapshotsDueCards(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	yesterday := now.AddDate(0, 0, -1)
	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "bridge", Back: "мост", Deck: "city", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, SuccessCount: 1, FailureCount: 1,
		LastReviewed: &yesterday,
		NextReview:   now.AddDate(0, 0, -1), CreatedAt: now.AddDate(0, 0, -4), UpdatedAt: now,
	})

	session, err := svc.CreateDailySession(ctx, 1, DailySessionConfig{Mode: models.SessionModeMultipleChoice})
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.NotEmpty(t, session.UID)
	assert.Equal(t, models.SessionTypeDaily, session.SessionType)
	assert.Equal(t, models.SessionModeMultipleChoice, session.Mode)
	assert.False(t, session.IsRepeat)
	require.Len(t, session.Cards, 1)

	snap := session.Cards[0]
	assert.Equal(t, card.ID, snap.CardID)
	assert.Equal(t, "bridge", snap.Front)
	assert.Equal(t, "мост", snap.Back)
	assert.Equal(t, "city", snap.Deck)
	assert.Equal(t, 0, snap.Position)
	assert.True(t, snap.IsOverdue)
	assert.InDelta(t, 0.5, snap.Difficulty, 1e-9)

	// The session is persisted and readable back.
	stored, err := svc.SessionByID(ctx, 1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.UID, stored.UID)
}

func TestCreateDailySessionOverdueQuota(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()
	earlier := now.AddDate(0, 0, -5)

	// Three overdue and two on-time cards, room for three in total:
	// 70% of the slots go to overdue cards, the rest to on-time ones.
	for i := 0; i < 3; i++ {
		seedCard(t, store, &models.Card{
			OwnerID: 1, Front: "over", Back: "x", Status: models.CardStatusActive,
			Interval: 1, EaseFactor: 2.5, LastReviewed: &earlier,
			NextReview: now.AddDate(0, 0, -2), CreatedAt: earlier, UpdatedAt: now,
		})
	}
	for i := 0; i < 2; i++ {
		seedCard(t, store, &models.Card{
			OwnerID: 1, Front: "ontime", Back: "y", Status: models.CardStatusActive,
			Interval: 1, EaseFactor: 2.5, LastReviewed: &earlier,
			NextReview: now.Add(6 * time.Hour), CreatedAt: earlier, UpdatedAt: now,
		})
	}

	session, err := svc.CreateDailySession(ctx, 1, DailySessionConfig{
		MaxReviews: 3, PrioritizeOverdue: true,
	})
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Cards, 3)

	overdue := 0
	for _, c := range session.Cards {
		if c.IsOverdue {
			overdue++
		}
	}
	assert.Equal(t, 2, overdue, "floor(3 * 0.7) slots for overdue cards")
}

func TestCreateDailySessionNewCardLimit(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()
	earlier := now.AddDate(0, 0, -3)

	// Three never-reviewed cards and one seen before.
	for i := 0; i < 3; i++ {
		seedCard(t, store, &models.Card{
			OwnerID: 1, Front: "new", Back: "x", Status: models.CardStatusActive,
			Interval: 1, EaseFactor: 2.5,
			NextReview: now.AddDate(0, 0, -1), CreatedAt: earlier, UpdatedAt: now,
		})
	}
	seen := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "seen", Back: "y", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, SuccessCount: 2, LastReviewed: &earlier,
		NextReview: now.AddDate(0, 0, -1), CreatedAt: earlier, UpdatedAt: now,
	})

	session, err := svc.CreateDailySession(ctx, 1, DailySessionConfig{
		MaxReviews: 10, MaxNewCards: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Cards, 2, "one new card plus the seen one")

	ids := []int64{session.Cards[0].CardID, session.Cards[1].CardID}
	assert.Contains(t, ids, seen.ID)
}

func TestCreateFailedCardsSessionPicksLosingCards(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()
	recent := now.AddDate(0, 0, -2)
	longAgo := now.AddDate(0, 0, -10)

	worst := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "worst", Back: "a", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.0, FailureCount: 5, SuccessCount: 2, LastReviewed: &recent,
		NextReview: now, CreatedAt: longAgo, UpdatedAt: now,
	})
	bad := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "bad", Back: "b", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.2, FailureCount: 2, SuccessCount: 2, LastReviewed: &recent,
		NextReview: now, CreatedAt: longAgo, UpdatedAt: now,
	})
	// Winning record: more successes than failures.
	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "fine", Back: "c", Status: models.CardStatusActive,
		Interval: 6, EaseFactor: 2.5, FailureCount: 1, SuccessCount: 4, LastReviewed: &recent,
		NextReview: now, CreatedAt: longAgo, UpdatedAt: now,
	})
	// Failing, but outside the window.
	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "stale", Back: "d", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.0, FailureCount: 3, SuccessCount: 0, LastReviewed: &longAgo,
		NextReview: now, CreatedAt: longAgo, UpdatedAt: now,
	})
	// Never failed at all.
	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "clean", Back: "e", Status: models.CardStatusActive,
		Interval: 6, EaseFactor: 2.6, SuccessCount: 3, LastReviewed: &recent,
		NextReview: now, CreatedAt: longAgo, UpdatedAt: now,
	})

	session, err := svc.CreateFailedCardsSession(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, models.SessionTypeFailed, session.SessionType)
	assert.True(t, session.IsRepeat)
	require.Len(t, session.Cards, 2)
	assert.Equal(t, worst.ID, session.Cards[0].CardID, "most failures first")
	assert.Equal(t, bad.ID, session.Cards[1].CardID)
}

func TestCreateFailedCardsSessionEmpty(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()
	recent := now.AddDate(0, 0, -1)

	seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "fine", Back: "a", Status: models.CardStatusActive,
		Interval: 6, EaseFactor: 2.5, SuccessCount: 5, LastReviewed: &recent,
		NextReview: now, CreatedAt: now.AddDate(0, 0, -20), UpdatedAt: now,
	})

	session, err := svc.CreateFailedCardsSession(ctx, 1, 7)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCreateCustomSessionFiltersAndDedupes(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	mine := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "mine", Back: "a", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})
	paused := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "paused", Back: "b", Status: models.CardStatusPaused,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})
	foreign := seedCard(t, store, &models.Card{
		OwnerID: 2, Front: "foreign", Back: "c", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})

	session, err := svc.CreateCustomSession(ctx, 1,
		[]int64{mine.ID, mine.ID, paused.ID, foreign.ID, 777}, 0, "")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, models.SessionTypeCustom, session.SessionType)
	assert.Equal(t, models.SessionModeFlashcard, session.Mode, "empty mode falls back to flashcard")
	assert.False(t, session.IsRepeat, "never-reviewed cards do not make a repeat session")
	require.Len(t, session.Cards, 1)
	assert.Equal(t, mine.ID, session.Cards[0].CardID)
}

func TestCreateCustomSessionMarksRepeat(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()
	yesterday := now.AddDate(0, 0, -1)

	first := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "first", Back: "a", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, SuccessCount: 1, LastReviewed: &yesterday,
		NextReview: now, CreatedAt: now.AddDate(0, 0, -3), UpdatedAt: now,
	})
	second := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "second", Back: "b", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, FailureCount: 1, LastReviewed: &yesterday,
		NextReview: now, CreatedAt: now.AddDate(0, 0, -3), UpdatedAt: now,
	})

	session, err := svc.CreateCustomSession(ctx, 1, []int64{first.ID, second.ID}, 0, "")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.IsRepeat, "every card was answered before")
}

func TestCreateCustomSessionErrors(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	_, err := svc.CreateCustomSession(ctx, 1, nil, 0, "")
	require.ErrorIs(t, err, ErrEmptyCardList)

	// All requested cards drop out of the set.
	foreign := seedCard(t, store, &models.Card{
		OwnerID: 2, Front: "foreign", Back: "a", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})
	_, err = svc.CreateCustomSession(ctx, 1, []int64{foreign.ID}, 0, "")
	require.ErrorIs(t, err, ErrEmptyCardList)
}

func TestCreateCustomSessionMaxCards(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	var ids []int64
	for i := 0; i < 4; i++ {
		card := seedCard(t, store, &models.Card{
			OwnerID: 1, Front: "card", Back: "x", Status: models.CardStatusActive,
			Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
		})
		ids = append(ids, card.ID)
	}

	session, err := svc.CreateCustomSession(ctx, 1, ids, 2, "")
	require.NoError(t, err)
	require.Len(t, session.Cards, 2)
}

func TestCompleteSessionLifecycle(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "a", Back: "b", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})
	session, err := svc.CreateCustomSession(ctx, 1, []int64{card.ID}, 0, "")
	require.NoError(t, err)
	require.Nil(t, session.CompletedAt)

	clock.Advance(10 * time.Minute)
	done, err := svc.CompleteSession(ctx, 1, session.ID, &models.SessionResults{
		CardsReviewed: 1, CorrectAnswers: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, clock.Now(), *done.CompletedAt)
	assert.Equal(t, 1, done.CardsReviewed)
	assert.Equal(t, 1, done.CorrectAnswers)
	assert.True(t, done.Completed())

	_, err = svc.CompleteSession(ctx, 1, session.ID, nil)
	require.ErrorIs(t, err, ErrSessionCompleted)
}

func TestCompleteSessionValidation(t *testing.T) {
	svc, store, clock := newTestService()
	ctx := context.Background()
	now := clock.Now()

	card := seedCard(t, store, &models.Card{
		OwnerID: 1, Front: "a", Back: "b", Status: models.CardStatusActive,
		Interval: 1, EaseFactor: 2.5, NextReview: now, CreatedAt: now, UpdatedAt: now,
	})
	session, err := svc.CreateCustomSession(ctx, 1, []int64{card.ID}, 0, "")
	require.NoError(t, err)

	// More correct answers than cards reviewed cannot be right.
	_, err = svc.CompleteSession(ctx, 1, session.ID, &models.SessionResults{
		CardsReviewed: 1, CorrectAnswers: 2,
	})
	require.ErrorIs(t, err, ErrInvalidResults)

	// A foreign session behaves like a missing one.
	_, err = svc.CompleteSession(ctx, 2, session.ID, nil)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SessionByID(ctx, 1, 9999)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
