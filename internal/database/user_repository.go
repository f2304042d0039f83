package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByTelegramID returns a user by Telegram ID, or nil if not registered
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, DB.Rebind("SELECT * FROM users WHERE telegram_id = ?"), telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// Upsert registers the user on first contact and refreshes the Telegram
// identity fields on every later one. Settings are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := DB.Rebind(`
		INSERT INTO users (
			telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour,
			max_reviews_per_day, max_new_cards_per_day, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			updated_at = excluded.updated_at
	`)
	_, err := DB.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.IsAdmin,
		user.NotificationEnabled, user.NotificationHour,
		user.MaxReviewsPerDay, user.MaxNewCardsPerDay, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %v", err)
	}
	return nil
}

// Update saves the user's settings
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	query := DB.Rebind(`
		UPDATE users SET
			username = ?, first_name = ?, last_name = ?, is_admin = ?,
			notification_enabled = ?, notification_hour = ?,
			max_reviews_per_day = ?, max_new_cards_per_day = ?, updated_at = ?
		WHERE telegram_id = ?
	`)
	_, err := DB.ExecContext(ctx, query,
		user.Username, user.FirstName, user.LastName, user.IsAdmin,
		user.NotificationEnabled, user.NotificationHour,
		user.MaxReviewsPerDay, user.MaxNewCardsPerDay, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
	}
	return nil
}

// GetAll returns every registered user
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := DB.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY telegram_id"); err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	return users, nil
}

// GetUsersForNotification returns users who opted into reminders at the
// given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := DB.Rebind("SELECT * FROM users WHERE notification_enabled = true AND notification_hour = ?")
	if err := DB.SelectContext(ctx, &users, query, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}
