package models

import "time"

// ReviewEvent is one answered review. The log is append-only: scheduling
// state lives on the card, events only record what happened.
type ReviewEvent struct {
	ID        int64     `json:"id" db:"id"`
	CardID    int64     `json:"card_id" db:"card_id"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	IsSuccess bool      `json:"is_success" db:"is_success"`
	Quality   int       `json:"quality" db:"quality"` // 0-5 recall quality fed into SM-2
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
