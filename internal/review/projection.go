package review

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Default projection window: two weeks back, one week ahead.
const (
	DefaultUpcomingStartOffset = -14
	DefaultUpcomingWindowDays  = 21
)

// ForecastItem is one projected review inside a day bucket.
type ForecastItem struct {
	CardID         int64  `json:"card_id"`
	Front          string `json:"front"`
	Deck           string `json:"deck,omitempty"`
	Reviewed       bool   `json:"reviewed"`
	IsFromFailure  bool   `json:"is_from_failure"`
	IsFutureReview bool   `json:"is_future_review"`
}

// DayForecast aggregates the projected reviews of one calendar day.
type DayForecast struct {
	Date        string         `json:"date"`
	Total       int            `json:"total"`
	Reviewed    int            `json:"reviewed"`
	NotReviewed int            `json:"not_reviewed"`
	FromFailure int            `json:"from_failure"`
	Items       []ForecastItem `json:"items"`
}

// Upcoming projects active cards onto the calendar days of the window
// [today+startOffsetDays, today+startOffsetDays+windowDays) using the
// learner's interval ladder. Map keys are YYYY-MM-DD dates; days without
// projected reviews carry no key. A non-positive windowDays selects the
// default three week window straddling today.
//
// Each card contributes its next ladder review relative to its last
// review (or creation) plus one future entry per remaining ladder step,
// never twice on the same date. The projection is read-only.
func (s *Service) Upcoming(ctx context.Context, ownerID int64, startOffsetDays, windowDays int) (map[string]*DayForecast, error) {
	now := s.clock()
	if windowDays <= 0 {
		startOffsetDays = DefaultUpcomingStartOffset
		windowDays = DefaultUpcomingWindowDays
	}
	windowStart := startOfDay(now).AddDate(0, 0, startOffsetDays)
	windowEnd := windowStart.AddDate(0, 0, windowDays)

	schedule, err := s.store.GetOrCreateSchedule(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	intervals := schedule.Intervals
	if len(intervals) == 0 {
		intervals = models.DefaultScheduleIntervals
	}

	cards, err := s.store.CardsByOwner(ctx, ownerID, models.CardStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	events, err := s.store.EventsForOwner(ctx, ownerID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load review history: %w", err)
	}
	reviewedOn := make(map[int64]map[string]bool)
	for _, ev := range events {
		key := dateKey(ev.CreatedAt)
		if reviewedOn[ev.CardID] == nil {
			reviewedOn[ev.CardID] = make(map[string]bool)
		}
		reviewedOn[ev.CardID][key] = true
	}

	forecast := make(map[string]*DayForecast)
	add := func(day time.Time, item ForecastItem) {
		key := dateKey(day)
		bucket := forecast[key]
		if bucket == nil {
			bucket = &DayForecast{Date: key}
			forecast[key] = bucket
		}
		bucket.Items = append(bucket.Items, item)
		bucket.Total++
		if item.Reviewed {
			bucket.Reviewed++
		} else {
			bucket.NotReviewed++
		}
		if item.IsFromFailure {
			bucket.FromFailure++
		}
	}

	inWindow := func(day time.Time) bool {
		return !day.Before(windowStart) && day.Before(windowEnd)
	}

	for _, card := range cards {
		base := card.CreatedAt
		if card.LastReviewed != nil {
			base = *card.LastReviewed
		}
		if base.IsZero() {
			continue
		}
		baseDay := startOfDay(base)

		step := card.ReviewStep
		if step < 0 || step >= len(intervals) {
			step = 0
		}

		// Один и тот же день для карточки не дублируем
		seen := make(map[string]bool)

		immediate := baseDay.AddDate(0, 0, intervals[step])
		if inWindow(immediate) {
			key := dateKey(immediate)
			seen[key] = true
			add(immediate, ForecastItem{
				CardID:        card.ID,
				Front:         card.Front,
				Deck:          card.Deck,
				Reviewed:      reviewedOn[card.ID][key],
				IsFromFailure: card.FailureCount > 0,
			})
		}

		for next := card.ReviewStep + 1; next < len(intervals); next++ {
			day := baseDay.AddDate(0, 0, intervals[next])
			key := dateKey(day)
			if !inWindow(day) || seen[key] {
				continue
			}
			seen[key] = true
			add(day, ForecastItem{
				CardID:         card.ID,
				Front:          card.Front,
				Deck:           card.Deck,
				IsFutureReview: true,
			})
		}
	}

	return forecast, nil
}
