package models

// UserStats is an aggregated snapshot of a learner's collection
type UserStats struct {
	TotalCards     int     `json:"total_cards" db:"total_cards"`
	ActiveCards    int     `json:"active_cards" db:"active_cards"`
	CompletedCards int     `json:"completed_cards" db:"completed_cards"`
	PausedCards    int     `json:"paused_cards" db:"paused_cards"`
	DueToday       int     `json:"due_today" db:"-"`
	ReviewedToday  int     `json:"reviewed_today" db:"reviewed_today"`
	SuccessRate    float64 `json:"success_rate" db:"success_rate"` // share of successful answers over all time
	AverageEase    float64 `json:"average_ease" db:"average_ease"`
	CurrentStreak  int     `json:"current_streak" db:"-"`
	LongestStreak  int     `json:"longest_streak" db:"-"`
}
