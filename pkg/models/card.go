package models

import "time"

// CardStatus describes where a card sits in its lifecycle.
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusCompleted CardStatus = "completed"
	CardStatusPaused    CardStatus = "paused"
)

// Card is a single flashcard together with its scheduling state
type Card struct {
	ID                 int64      `json:"id" db:"id"`
	OwnerID            int64      `json:"owner_id" db:"owner_id"` // Telegram user ID of the card owner
	Front              string     `json:"front" db:"front"`
	Back               string     `json:"back" db:"back"`
	Deck               string     `json:"deck" db:"deck"`
	Hint               string     `json:"hint,omitempty" db:"hint"`
	Status             CardStatus `json:"status" db:"status"`
	Interval           int        `json:"interval" db:"interval"`       // current interval in days, 1-730
	EaseFactor         float64    `json:"ease_factor" db:"ease_factor"` // SM-2 EF parameter, 1.3-3.0
	ConsecutiveCorrect int        `json:"consecutive_correct" db:"consecutive_correct"`
	ReviewStep         int        `json:"review_step" db:"review_step"` // index into the owner's fixed interval ladder
	ViewCount          int        `json:"view_count" db:"view_count"`
	SuccessCount       int        `json:"success_count" db:"success_count"`
	FailureCount       int        `json:"failure_count" db:"failure_count"`
	LastReviewed       *time.Time `json:"last_reviewed,omitempty" db:"last_reviewed"`
	NextReview         time.Time  `json:"next_review" db:"next_review"`
	Version            int64      `json:"-" db:"version"` // bumped on every write, used for optimistic locking
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// FailureRate returns the share of failed answers over all recorded answers.
func (c *Card) FailureRate() float64 {
	total := c.SuccessCount + c.FailureCount
	if total < 1 {
		total = 1
	}
	return float64(c.FailureCount) / float64(total)
}
