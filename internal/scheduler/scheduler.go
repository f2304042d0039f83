package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8  // Время начала уведомлений (8:00)
	DefaultNotificationEndHour   = 22 // Время окончания уведомлений (22:00)
)

// notifyConcurrency caps how many users are processed at once.
const notifyConcurrency = 4

// Notifier delivers one reminder to a user. The bot implements this.
type Notifier interface {
	SendDueReminder(userID int64, dueCount int, streakAtRisk bool, currentStreak int) error
}

// ReviewSource is the slice of the review service the scheduler needs.
type ReviewSource interface {
	DueToday(ctx context.Context, ownerID int64, limit int) ([]review.DueCard, error)
	Streak(ctx context.Context, ownerID int64) (*models.StreakState, error)
}

// UserSource lists users who opted into reminders at a given hour.
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// Scheduler runs the hourly reminder job
type Scheduler struct {
	scheduler *gocron.Scheduler
	reviews   ReviewSource
	users     UserSource
	notifier  Notifier
	now       func() time.Time
}

// New creates a new scheduler instance
func New(reviews ReviewSource, users UserSource, notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		reviews:   reviews,
		users:     users,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for users who need notifications
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders finds users whose notification hour matches the
// current one and pings everyone with cards waiting or a streak about to
// break
func (s *Scheduler) checkAndSendReminders() {
	currentHour := s.now().Hour()

	startHour, endHour := notificationWindow()
	if !withinWindow(currentHour, startHour, endHour) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	ctx := context.Background()
	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			if err := s.notifyUser(ctx, user); err != nil {
				log.Printf("Error sending reminder to user %d: %v", user.ID, err)
			}
			return nil
		})
	}
	g.Wait()
}

// notifyUser sends one reminder if the user has anything worth hearing
// about. Quiet when nothing is due and the streak is safe.
func (s *Scheduler) notifyUser(ctx context.Context, user models.User) error {
	due, err := s.reviews.DueToday(ctx, user.ID, user.MaxReviewsPerDay)
	if err != nil {
		return err
	}

	streak, err := s.reviews.Streak(ctx, user.ID)
	if err != nil {
		return err
	}
	atRisk := streak.CurrentStreak > 0 && !streak.ReviewedOn(s.now())

	if len(due) == 0 && !atRisk {
		return nil
	}
	return s.notifier.SendDueReminder(user.ID, len(due), atRisk, streak.CurrentStreak)
}

// RunManualCheck forces a reminder check for a specific user
func (s *Scheduler) RunManualCheck(userID int64) error {
	ctx := context.Background()
	due, err := s.reviews.DueToday(ctx, userID, 0)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.SendDueReminder(userID, len(due), false, 0)
}

// withinWindow reports whether hour falls inside [start, end]. Windows
// wrapping past midnight, e.g. 22-6, are supported.
func withinWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

// notificationWindow reads the reminder window from the environment,
// falling back to the defaults
func notificationWindow() (int, int) {
	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}
	return startHour, endHour
}
