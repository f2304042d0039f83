package bot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Telegram throttles bots to roughly one message per second per chat.
const (
	messagesPerSecond = 1
	messageBurst      = 3
)

// chatLimiter keeps one token bucket per chat so a chatty user cannot
// starve everyone else.
type chatLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

func newChatLimiter() *chatLimiter {
	return &chatLimiter{
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (l *chatLimiter) getLimiter(chatID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[chatID]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Second/messagesPerSecond), messageBurst)
		l.limiters[chatID] = limiter
	}
	return limiter
}

// Wait blocks until the chat may receive another message.
func (l *chatLimiter) Wait(ctx context.Context, chatID int64) error {
	return l.getLimiter(chatID).Wait(ctx)
}
