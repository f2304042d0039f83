package review

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/recallbot/pkg/models"
)

// Limits applied while assembling sessions.
const (
	overdueShare     = 0.7
	failedCardsCap   = 25
	failedWindowDays = 7
)

// DailySessionConfig bounds the size and mix of a daily session.
// Non-positive limits fall back to the defaults.
type DailySessionConfig struct {
	MaxReviews        int
	MaxNewCards       int
	PrioritizeOverdue bool
	Mode              string
}

// DefaultDailySessionConfig returns the limits used when a learner has
// not configured their own.
func DefaultDailySessionConfig() DailySessionConfig {
	return DailySessionConfig{
		MaxReviews:        50,
		MaxNewCards:       20,
		PrioritizeOverdue: true,
		Mode:              models.SessionModeFlashcard,
	}
}

// CreateDailySession assembles a session from the cards due today.
// With PrioritizeOverdue up to 70% of the slots are given to overdue
// cards before the rest fills up with on-time ones. Returns (nil, nil)
// when nothing is due.
func (s *Service) CreateDailySession(ctx context.Context, ownerID int64, cfg DailySessionConfig) (*models.ReviewSession, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()

	defaults := DefaultDailySessionConfig()
	if cfg.MaxReviews <= 0 {
		cfg.MaxReviews = defaults.MaxReviews
	}
	if cfg.MaxNewCards <= 0 {
		cfg.MaxNewCards = defaults.MaxNewCards
	}
	if cfg.Mode == "" {
		cfg.Mode = defaults.Mode
	}

	now := s.clock()
	due, err := s.dueCards(ctx, ownerID, now, cfg.MaxReviews)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}

	selected := due
	if cfg.PrioritizeOverdue {
		var overdue, regular []DueCard
		for _, c := range due {
			if c.IsOverdue {
				overdue = append(overdue, c)
			} else {
				regular = append(regular, c)
			}
		}
		quota := int(math.Floor(float64(cfg.MaxReviews) * overdueShare))
		if quota > len(overdue) {
			quota = len(overdue)
		}
		selected = make([]DueCard, 0, cfg.MaxReviews)
		selected = append(selected, overdue[:quota]...)
		for _, c := range regular {
			if len(selected) >= cfg.MaxReviews {
				break
			}
			selected = append(selected, c)
		}
	}

	// Совсем новые карточки ограничены отдельным лимитом
	newTaken := 0
	final := make([]DueCard, 0, len(selected))
	for _, c := range selected {
		if c.LastReviewed == nil {
			if newTaken >= cfg.MaxNewCards {
				continue
			}
			newTaken++
		}
		final = append(final, c)
	}
	if len(final) == 0 {
		return nil, nil
	}

	session := &models.ReviewSession{
		UID:         uuid.NewString(),
		OwnerID:     ownerID,
		SessionType: models.SessionTypeDaily,
		Mode:        cfg.Mode,
		Cards:       snapshotDue(final),
		StartedAt:   now,
		CreatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// CreateFailedCardsSession assembles a remedial session from cards the
// learner keeps failing: at least one failure, last reviewed inside the
// window and failures outweighing successes. Returns (nil, nil) when
// there is nothing to re-practice.
func (s *Service) CreateFailedCardsSession(ctx context.Context, ownerID int64, days int) (*models.ReviewSession, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()

	if days <= 0 {
		days = failedWindowDays
	}
	now := s.clock()
	cutoff := now.AddDate(0, 0, -days)

	cards, err := s.store.CardsByOwner(ctx, ownerID, models.CardStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	var losing []models.Card
	for _, card := range cards {
		if card.FailureCount == 0 || card.LastReviewed == nil {
			continue
		}
		if card.LastReviewed.Before(cutoff) {
			continue
		}
		if card.FailureCount < card.SuccessCount {
			continue
		}
		losing = append(losing, card)
	}
	if len(losing) == 0 {
		return nil, nil
	}

	sort.SliceStable(losing, func(i, j int) bool {
		return losing[i].FailureCount > losing[j].FailureCount
	})
	if len(losing) > failedCardsCap {
		losing = losing[:failedCardsCap]
	}

	session := &models.ReviewSession{
		UID:         uuid.NewString(),
		OwnerID:     ownerID,
		SessionType: models.SessionTypeFailed,
		Mode:        models.SessionModeFlashcard,
		IsRepeat:    true,
		Cards:       snapshotCards(losing, now),
		StartedAt:   now,
		CreatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// CreateCustomSession assembles a session over a caller-chosen card set.
// Repeated IDs are collapsed, cards that are missing, foreign or not
// active are dropped. A positive maxCards truncates the set.
func (s *Service) CreateCustomSession(ctx context.Context, ownerID int64, cardIDs []int64, maxCards int, mode string) (*models.ReviewSession, error) {
	if len(cardIDs) == 0 {
		return nil, ErrEmptyCardList
	}
	unlock := s.lockOwner(ownerID)
	defer unlock()

	if mode == "" {
		mode = models.SessionModeFlashcard
	}
	now := s.clock()

	snap := make(models.SessionCards, 0, len(cardIDs))
	seen := make(map[int64]bool, len(cardIDs))
	allReviewedBefore := true
	for _, id := range cardIDs {
		if maxCards > 0 && len(snap) >= maxCards {
			break
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		card, err := s.store.CardByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load card %d: %w", id, err)
		}
		if card == nil || card.OwnerID != ownerID || card.Status != models.CardStatusActive {
			continue
		}
		if card.LastReviewed == nil {
			allReviewedBefore = false
		}
		snap = append(snap, models.SessionCard{
			CardID:     card.ID,
			Front:      card.Front,
			Back:       card.Back,
			Deck:       card.Deck,
			Position:   len(snap),
			IsOverdue:  card.NextReview.Before(now),
			Difficulty: card.FailureRate(),
		})
	}
	if len(snap) == 0 {
		return nil, ErrEmptyCardList
	}

	session := &models.ReviewSession{
		UID:         uuid.NewString(),
		OwnerID:     ownerID,
		SessionType: models.SessionTypeCustom,
		Mode:        mode,
		IsRepeat:    allReviewedBefore,
		Cards:       snap,
		StartedAt:   now,
		CreatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// CompleteSession closes a session and records the reported results.
// Completing twice fails, as do results claiming more correct answers
// than reviewed cards.
func (s *Service) CompleteSession(ctx context.Context, ownerID, sessionID int64, results *models.SessionResults) (*models.ReviewSession, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()

	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	if session.Completed() {
		return nil, ErrSessionCompleted
	}

	if results != nil {
		if results.CardsReviewed < 0 || results.CorrectAnswers < 0 || results.CorrectAnswers > results.CardsReviewed {
			return nil, ErrInvalidResults
		}
		session.CardsReviewed = results.CardsReviewed
		session.CorrectAnswers = results.CorrectAnswers
	}

	now := s.clock()
	session.CompletedAt = &now
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// SessionByID returns the learner's session.
func (s *Service) SessionByID(ctx context.Context, ownerID, sessionID int64) (*models.ReviewSession, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func snapshotDue(cards []DueCard) models.SessionCards {
	snap := make(models.SessionCards, 0, len(cards))
	for i, c := range cards {
		snap = append(snap, models.SessionCard{
			CardID:     c.ID,
			Front:      c.Front,
			Back:       c.Back,
			Deck:       c.Deck,
			Position:   i,
			IsOverdue:  c.IsOverdue,
			Difficulty: c.FailureRate,
		})
	}
	return snap
}

func snapshotCards(cards []models.Card, now time.Time) models.SessionCards {
	snap := make(models.SessionCards, 0, len(cards))
	for i, c := range cards {
		snap = append(snap, models.SessionCard{
			CardID:     c.ID,
			Front:      c.Front,
			Back:       c.Back,
			Deck:       c.Deck,
			Position:   i,
			IsOverdue:  c.NextReview.Before(now),
			Difficulty: c.FailureRate(),
		})
	}
	return snap
}
