package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// ScheduleRepository handles database operations for interval ladders
type ScheduleRepository struct{}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{}
}

// GetOrCreate returns the owner's schedule, inserting the default ladder
// on first use
func (r *ScheduleRepository) GetOrCreate(ctx context.Context, ownerID int64) (*models.ReviewSchedule, error) {
	schedule, err := r.getByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		return schedule, nil
	}

	now := time.Now()
	schedule = &models.ReviewSchedule{
		OwnerID:   ownerID,
		Intervals: models.DefaultScheduleIntervals.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.insert(ctx, schedule); err != nil {
		// Кто-то успел создать расписание первым - перечитываем
		if existing, selErr := r.getByOwner(ctx, ownerID); selErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return schedule, nil
}

// Save updates the owner's interval ladder
func (r *ScheduleRepository) Save(ctx context.Context, schedule *models.ReviewSchedule) error {
	schedule.UpdatedAt = time.Now()
	query := DB.Rebind("UPDATE review_schedules SET intervals = ?, updated_at = ? WHERE owner_id = ?")
	if _, err := DB.ExecContext(ctx, query, schedule.Intervals, schedule.UpdatedAt, schedule.OwnerID); err != nil {
		return fmt.Errorf("failed to save schedule: %v", err)
	}
	return nil
}

func (r *ScheduleRepository) getByOwner(ctx context.Context, ownerID int64) (*models.ReviewSchedule, error) {
	var schedule models.ReviewSchedule
	err := DB.GetContext(ctx, &schedule, DB.Rebind("SELECT * FROM review_schedules WHERE owner_id = ?"), ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %v", err)
	}
	return &schedule, nil
}

func (r *ScheduleRepository) insert(ctx context.Context, schedule *models.ReviewSchedule) error {
	query := `
		INSERT INTO review_schedules (owner_id, intervals, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	args := []interface{}{schedule.OwnerID, schedule.Intervals, schedule.CreatedAt, schedule.UpdatedAt}

	if DB.DriverName() == "postgres" {
		query = DB.Rebind(query + " RETURNING id")
		if err := DB.QueryRowContext(ctx, query, args...).Scan(&schedule.ID); err != nil {
			return fmt.Errorf("failed to create schedule: %v", err)
		}
		return nil
	}

	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get schedule id: %v", err)
	}
	schedule.ID = id
	return nil
}
