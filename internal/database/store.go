package database

import (
	"context"
	"time"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
)

// Store bundles the repositories behind the persistence interface the
// review service works against.
type Store struct {
	cards     *CardRepository
	events    *EventRepository
	schedules *ScheduleRepository
	sessions  *SessionRepository
	streaks   *StreakRepository
	stats     *StatsRepository
}

var _ review.Store = (*Store)(nil)

// NewStore creates the SQL-backed store. Connect must have been called
// first.
func NewStore() *Store {
	return &Store{
		cards:     NewCardRepository(),
		events:    NewEventRepository(),
		schedules: NewScheduleRepository(),
		sessions:  NewSessionRepository(),
		streaks:   NewStreakRepository(),
		stats:     NewStatsRepository(),
	}
}

func (s *Store) CreateCard(ctx context.Context, card *models.Card) error {
	return s.cards.Create(ctx, card)
}

func (s *Store) CardByID(ctx context.Context, id int64) (*models.Card, error) {
	return s.cards.GetByID(ctx, id)
}

func (s *Store) CardsByOwner(ctx context.Context, ownerID int64, statuses ...models.CardStatus) ([]models.Card, error) {
	return s.cards.GetByOwner(ctx, ownerID, statuses...)
}

func (s *Store) SaveCard(ctx context.Context, card *models.Card) error {
	return s.cards.Save(ctx, card)
}

func (s *Store) AppendEvent(ctx context.Context, event *models.ReviewEvent) error {
	return s.events.Append(ctx, event)
}

func (s *Store) EventsForCard(ctx context.Context, cardID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	return s.events.ForCard(ctx, cardID, from, to)
}

func (s *Store) EventsForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	return s.events.ForOwner(ctx, ownerID, from, to)
}

func (s *Store) GetOrCreateSchedule(ctx context.Context, ownerID int64) (*models.ReviewSchedule, error) {
	return s.schedules.GetOrCreate(ctx, ownerID)
}

func (s *Store) SaveSchedule(ctx context.Context, schedule *models.ReviewSchedule) error {
	return s.schedules.Save(ctx, schedule)
}

func (s *Store) StreakByOwner(ctx context.Context, ownerID int64) (*models.StreakState, error) {
	return s.streaks.GetByOwner(ctx, ownerID)
}

func (s *Store) SaveStreak(ctx context.Context, streak *models.StreakState) error {
	return s.streaks.Save(ctx, streak)
}

func (s *Store) CreateSession(ctx context.Context, session *models.ReviewSession) error {
	return s.sessions.Create(ctx, session)
}

func (s *Store) SessionByID(ctx context.Context, id int64) (*models.ReviewSession, error) {
	return s.sessions.GetByID(ctx, id)
}

func (s *Store) SaveSession(ctx context.Context, session *models.ReviewSession) error {
	return s.sessions.Save(ctx, session)
}

func (s *Store) StatsByOwner(ctx context.Context, ownerID int64) (*models.UserStats, error) {
	return s.stats.GetByOwner(ctx, ownerID)
}
