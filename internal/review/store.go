package review

import (
	"context"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Store is the persistence surface the service relies on. The database
// package provides the SQL implementation, MemStore backs tests.
//
// Lookup methods return (nil, nil) when the row does not exist; the
// service maps that to its own sentinel errors. Time ranges are half
// open: from is included, to is not.
type Store interface {
	// CreateCard inserts the card and fills in its generated ID.
	CreateCard(ctx context.Context, card *models.Card) error
	CardByID(ctx context.Context, id int64) (*models.Card, error)
	// CardsByOwner lists a learner's cards ordered by ID. Without
	// statuses every card is returned.
	CardsByOwner(ctx context.Context, ownerID int64, statuses ...models.CardStatus) ([]models.Card, error)
	// SaveCard persists card state guarded by its version: the write
	// succeeds only when the stored version still matches, otherwise
	// ErrVersionConflict comes back. On success the version on the
	// passed card is bumped.
	SaveCard(ctx context.Context, card *models.Card) error

	// AppendEvent adds one row to the append-only review log.
	AppendEvent(ctx context.Context, event *models.ReviewEvent) error
	EventsForCard(ctx context.Context, cardID int64, from, to time.Time) ([]models.ReviewEvent, error)
	EventsForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]models.ReviewEvent, error)

	// GetOrCreateSchedule returns the learner's interval ladder, creating
	// the default one on first use.
	GetOrCreateSchedule(ctx context.Context, ownerID int64) (*models.ReviewSchedule, error)
	SaveSchedule(ctx context.Context, schedule *models.ReviewSchedule) error

	StreakByOwner(ctx context.Context, ownerID int64) (*models.StreakState, error)
	SaveStreak(ctx context.Context, streak *models.StreakState) error

	// CreateSession inserts the session and fills in its generated ID.
	CreateSession(ctx context.Context, session *models.ReviewSession) error
	SessionByID(ctx context.Context, id int64) (*models.ReviewSession, error)
	SaveSession(ctx context.Context, session *models.ReviewSession) error

	// StatsByOwner aggregates collection-level counters. DueToday and the
	// streak fields are filled in by the service.
	StatsByOwner(ctx context.Context, ownerID int64) (*models.UserStats, error)
}
