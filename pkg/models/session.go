package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Session kinds.
const (
	SessionTypeDaily  = "daily"
	SessionTypeCustom = "custom"
	SessionTypeFailed = "failed_cards"
)

// Session presentation modes.
const (
	SessionModeFlashcard      = "flashcard"
	SessionModeMultipleChoice = "multiple_choice"
)

// SessionCard is a snapshot of a card taken when the session was
// assembled. Later edits to the live card do not leak into an open session.
type SessionCard struct {
	CardID     int64   `json:"card_id"`
	Front      string  `json:"front"`
	Back       string  `json:"back"`
	Deck       string  `json:"deck,omitempty"`
	Position   int     `json:"position"`
	IsOverdue  bool    `json:"is_overdue"`
	Difficulty float64 `json:"difficulty"` // failure rate at assembly time
}

// SessionCards is the snapshot list stored as a JSON document.
type SessionCards []SessionCard

// Value implements driver.Valuer.
func (s SessionCards) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session cards: %v", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (s *SessionCards) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported session cards column type %T", src)
	}
}

// SessionResults is the caller-reported outcome of a finished session.
type SessionResults struct {
	CardsReviewed  int `json:"cards_reviewed"`
	CorrectAnswers int `json:"correct_answers"`
}

// ReviewSession is one assembled practice run over a snapshot of cards
type ReviewSession struct {
	ID             int64        `json:"id" db:"id"`
	UID            string       `json:"uid" db:"uid"` // stable public identifier
	OwnerID        int64        `json:"owner_id" db:"owner_id"`
	SessionType    string       `json:"session_type" db:"session_type"`
	Mode           string       `json:"mode" db:"mode"`
	IsRepeat       bool         `json:"is_repeat" db:"is_repeat"` // session re-practices cards answered before
	Cards          SessionCards `json:"cards" db:"cards"`
	CardsReviewed  int          `json:"cards_reviewed" db:"cards_reviewed"`
	CorrectAnswers int          `json:"correct_answers" db:"correct_answers"`
	StartedAt      time.Time    `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// Completed reports whether the session has been closed.
func (s *ReviewSession) Completed() bool {
	return s.CompletedAt != nil
}
