package models

import "time"

// StreakState tracks consecutive calendar days with at least one review
type StreakState struct {
	ID              int64      `json:"id" db:"id"`
	OwnerID         int64      `json:"owner_id" db:"owner_id"`
	CurrentStreak   int        `json:"current_streak" db:"current_streak"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	LastReviewDate  *time.Time `json:"last_review_date,omitempty" db:"last_review_date"`
	StreakUpdatedAt time.Time  `json:"streak_updated_at" db:"streak_updated_at"`
}

// ReviewedOn reports whether the last recorded activity falls on the same
// calendar day as t, in t's location.
func (s *StreakState) ReviewedOn(t time.Time) bool {
	if s == nil || s.LastReviewDate == nil {
		return false
	}
	y1, m1, d1 := s.LastReviewDate.In(t.Location()).Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
