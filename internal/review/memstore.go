package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// MemStore is an in-memory Store used by tests and local experiments.
// It follows the same contracts as the SQL implementation, including
// the version check on card writes.
type MemStore struct {
	mu        sync.RWMutex
	cards     map[int64]*models.Card
	events    []models.ReviewEvent
	schedules map[int64]*models.ReviewSchedule
	streaks   map[int64]*models.StreakState
	sessions  map[int64]*models.ReviewSession
	lastID    int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		cards:     make(map[int64]*models.Card),
		schedules: make(map[int64]*models.ReviewSchedule),
		streaks:   make(map[int64]*models.StreakState),
		sessions:  make(map[int64]*models.ReviewSession),
	}
}

func (m *MemStore) nextID() int64 {
	m.lastID++
	return m.lastID
}

func cloneCard(c *models.Card) *models.Card {
	out := *c
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		out.LastReviewed = &t
	}
	return &out
}

func cloneSchedule(s *models.ReviewSchedule) *models.ReviewSchedule {
	out := *s
	out.Intervals = s.Intervals.Clone()
	return &out
}

func cloneStreak(s *models.StreakState) *models.StreakState {
	out := *s
	if s.LastReviewDate != nil {
		t := *s.LastReviewDate
		out.LastReviewDate = &t
	}
	return &out
}

func cloneSession(s *models.ReviewSession) *models.ReviewSession {
	out := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	out.Cards = append(models.SessionCards(nil), s.Cards...)
	return &out
}

func (m *MemStore) CreateCard(ctx context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card.ID = m.nextID()
	card.Version = 1
	m.cards[card.ID] = cloneCard(card)
	return nil
}

func (m *MemStore) CardByID(ctx context.Context, id int64) (*models.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, nil
	}
	return cloneCard(card), nil
}

func (m *MemStore) CardsByOwner(ctx context.Context, ownerID int64, statuses ...models.CardStatus) ([]models.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := func(st models.CardStatus) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if s == st {
				return true
			}
		}
		return false
	}

	var out []models.Card
	for _, card := range m.cards {
		if card.OwnerID != ownerID || !wanted(card.Status) {
			continue
		}
		out = append(out, *cloneCard(card))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveCard rejects writes whose version no longer matches the stored
// one, mirroring the optimistic locking of the SQL store.
func (m *MemStore) SaveCard(ctx context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.cards[card.ID]
	if !ok {
		return ErrCardNotFound
	}
	if existing.Version != card.Version {
		return ErrVersionConflict
	}
	card.Version++
	m.cards[card.ID] = cloneCard(card)
	return nil
}

func (m *MemStore) AppendEvent(ctx context.Context, event *models.ReviewEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = m.nextID()
	m.events = append(m.events, *event)
	return nil
}

func (m *MemStore) EventsForCard(ctx context.Context, cardID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ReviewEvent
	for _, ev := range m.events {
		if ev.CardID != cardID {
			continue
		}
		if ev.CreatedAt.Before(from) || !ev.CreatedAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *MemStore) EventsForOwner(ctx context.Context, ownerID int64, from, to time.Time) ([]models.ReviewEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ReviewEvent
	for _, ev := range m.events {
		if ev.OwnerID != ownerID {
			continue
		}
		if ev.CreatedAt.Before(from) || !ev.CreatedAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *MemStore) GetOrCreateSchedule(ctx context.Context, ownerID int64) (*models.ReviewSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule, ok := m.schedules[ownerID]; ok {
		return cloneSchedule(schedule), nil
	}
	now := time.Now()
	schedule := &models.ReviewSchedule{
		ID:        m.nextID(),
		OwnerID:   ownerID,
		Intervals: models.DefaultScheduleIntervals.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.schedules[ownerID] = schedule
	return cloneSchedule(schedule), nil
}

func (m *MemStore) SaveSchedule(ctx context.Context, schedule *models.ReviewSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.ID == 0 {
		schedule.ID = m.nextID()
	}
	schedule.UpdatedAt = time.Now()
	m.schedules[schedule.OwnerID] = cloneSchedule(schedule)
	return nil
}

func (m *MemStore) StreakByOwner(ctx context.Context, ownerID int64) (*models.StreakState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	streak, ok := m.streaks[ownerID]
	if !ok {
		return nil, nil
	}
	return cloneStreak(streak), nil
}

func (m *MemStore) SaveStreak(ctx context.Context, streak *models.StreakState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if streak.ID == 0 {
		streak.ID = m.nextID()
	}
	m.streaks[streak.OwnerID] = cloneStreak(streak)
	return nil
}

func (m *MemStore) CreateSession(ctx context.Context, session *models.ReviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = m.nextID()
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemStore) SessionByID(ctx context.Context, id int64) (*models.ReviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(session), nil
}

func (m *MemStore) SaveSession(ctx context.Context, session *models.ReviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemStore) StatsByOwner(ctx context.Context, ownerID int64) (*models.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.UserStats{}
	var successes, answers int
	var easeSum float64
	for _, card := range m.cards {
		if card.OwnerID != ownerID {
			continue
		}
		stats.TotalCards++
		switch card.Status {
		case models.CardStatusActive:
			stats.ActiveCards++
			easeSum += card.EaseFactor
		case models.CardStatusCompleted:
			stats.CompletedCards++
		case models.CardStatusPaused:
			stats.PausedCards++
		}
		successes += card.SuccessCount
		answers += card.SuccessCount + card.FailureCount
	}
	if answers > 0 {
		stats.SuccessRate = float64(successes) / float64(answers)
	}
	if stats.ActiveCards > 0 {
		stats.AverageEase = easeSum / float64(stats.ActiveCards)
	}

	now := time.Now()
	seen := make(map[int64]bool)
	for _, ev := range m.events {
		if ev.OwnerID != ownerID || seen[ev.CardID] {
			continue
		}
		if calendarDays(ev.CreatedAt, now) == 0 {
			seen[ev.CardID] = true
			stats.ReviewedToday++
		}
	}
	return stats, nil
}
