package review

import (
	"context"
	"fmt"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

// SubmitReview grades one card. The answer is mapped onto an SM-2
// quality, the card's scheduling state advances, an event is appended to
// the log and the learner's streak is refreshed. The whole cycle runs
// under the owner's lock; a lost optimistic-locking race surfaces as
// ErrVersionConflict and the caller may retry.
func (s *Service) SubmitReview(ctx context.Context, ownerID, cardID int64, success bool, difficulty *spaced_repetition.Difficulty) (*models.Card, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()

	card, err := s.store.CardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if card == nil || card.OwnerID != ownerID {
		return nil, ErrCardNotFound
	}
	if card.Status != models.CardStatusActive {
		return nil, ErrCardNotActive
	}

	quality := spaced_repetition.ToQuality(success, difficulty)
	res := s.sm2.Compute(card.Interval, card.EaseFactor, card.ConsecutiveCorrect, quality)

	now := s.clock()
	card.Interval = res.Interval
	card.EaseFactor = res.EaseFactor
	card.ConsecutiveCorrect = res.ConsecutiveCorrect
	card.ViewCount++
	if success {
		card.SuccessCount++
		card.ReviewStep++
	} else {
		card.FailureCount++
		card.ReviewStep = 0
	}
	card.LastReviewed = &now
	card.NextReview = now.AddDate(0, 0, card.Interval)
	card.UpdatedAt = now
	if success && s.sm2.IsMastered(card.ConsecutiveCorrect, card.Interval) {
		card.Status = models.CardStatusCompleted
	}

	if err := s.saveCard(ctx, card); err != nil {
		return nil, err
	}

	event := &models.ReviewEvent{
		CardID:    card.ID,
		OwnerID:   ownerID,
		IsSuccess: success,
		Quality:   int(quality),
		CreatedAt: now,
	}
	if err := s.store.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append review event: %w", err)
	}

	if _, err := s.recordActivity(ctx, ownerID, now); err != nil {
		return nil, err
	}
	return card, nil
}
