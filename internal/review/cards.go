package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/recallbot/pkg/models"
)

// initialEaseFactor is the EF a card starts with before any review.
const initialEaseFactor = 2.5

// AddCard creates an active card owned by the learner. The first review
// lands after the first step of the learner's schedule.
func (s *Service) AddCard(ctx context.Context, ownerID int64, front, back, deck string) (*models.Card, error) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" || back == "" {
		return nil, ErrEmptyCardText
	}

	schedule, err := s.store.GetOrCreateSchedule(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	firstStep := 1
	if len(schedule.Intervals) > 0 {
		firstStep = schedule.Intervals[0]
	}

	now := s.clock()
	card := &models.Card{
		OwnerID:    ownerID,
		Front:      front,
		Back:       back,
		Deck:       strings.TrimSpace(deck),
		Status:     models.CardStatusActive,
		Interval:   1,
		EaseFactor: initialEaseFactor,
		NextReview: now.AddDate(0, 0, firstStep),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return card, nil
}

// PauseCard takes an active card out of rotation. Its scheduling state
// is kept as is so a later reactivation can pick it back up.
func (s *Service) PauseCard(ctx context.Context, ownerID, cardID int64) (*models.Card, error) {
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

	card.Status = models.CardStatusPaused
	card.UpdatedAt = s.clock()
	if err := s.saveCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// ReactivateCards puts the given cards back into rotation: counters
// reset, the next review is due immediately and the last review mark is
// cleared. Missing or foreign cards are skipped. Returns the number of
// cards updated.
func (s *Service) ReactivateCards(ctx context.Context, ownerID int64, cardIDs []int64) (int, error) {
	unlock := s.lockOwner(ownerID)
	defer unlock()

	now := s.clock()
	updated := 0
	for _, id := range cardIDs {
		card, err := s.store.CardByID(ctx, id)
		if err != nil {
			return updated, fmt.Errorf("failed to load card %d: %w", id, err)
		}
		if card == nil || card.OwnerID != ownerID {
			continue
		}

		card.Status = models.CardStatusActive
		card.SuccessCount = 0
		card.FailureCount = 0
		card.NextReview = now
		card.LastReviewed = nil
		card.UpdatedAt = now
		if err := s.saveCard(ctx, card); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// Card returns one of the learner's cards.
func (s *Service) Card(ctx context.Context, ownerID, cardID int64) (*models.Card, error) {
	card, err := s.store.CardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if card == nil || card.OwnerID != ownerID {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// CardHistory returns the card's review log for the last given number of
// days, oldest first.
func (s *Service) CardHistory(ctx context.Context, ownerID, cardID int64, days int) ([]models.ReviewEvent, error) {
	card, err := s.store.CardByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if card == nil || card.OwnerID != ownerID {
		return nil, ErrCardNotFound
	}

	now := s.clock()
	events, err := s.store.EventsForCard(ctx, cardID, now.AddDate(0, 0, -days), now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load card events: %w", err)
	}
	return events, nil
}

// saveCard persists the card keeping sentinel errors intact.
func (s *Service) saveCard(ctx context.Context, card *models.Card) error {
	if err := s.store.SaveCard(ctx, card); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}
