package review

import "errors"

// Sentinel errors returned by the service. Callers match them with
// errors.Is.
var (
	// ErrCardNotFound is returned when a card does not exist or belongs
	// to another learner.
	ErrCardNotFound = errors.New("review: card not found")

	// ErrCardNotActive is returned when an operation needs an active card
	// but the card is completed or paused.
	ErrCardNotActive = errors.New("review: card is not active")

	// ErrEmptyCardText is returned when a card is created without a front
	// or a back.
	ErrEmptyCardText = errors.New("review: card front and back must not be empty")

	// ErrEmptyCardList is returned when a custom session is requested
	// with no usable cards.
	ErrEmptyCardList = errors.New("review: card list is empty")

	// ErrSessionNotFound is returned when a session does not exist or
	// belongs to another learner.
	ErrSessionNotFound = errors.New("review: session not found")

	// ErrSessionCompleted is returned when completing a session twice.
	ErrSessionCompleted = errors.New("review: session already completed")

	// ErrInvalidResults is returned when reported session results are
	// inconsistent, e.g. more correct answers than reviewed cards.
	ErrInvalidResults = errors.New("review: invalid session results")

	// ErrVersionConflict is returned when a concurrent writer updated the
	// card first. The caller may re-read the card and retry.
	ErrVersionConflict = errors.New("review: card version conflict")
)
