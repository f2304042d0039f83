package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/recallbot/internal/ai"
	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/quiz"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/scheduler"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Text input states
const (
	stateWaitingCardList   = "waiting_for_card_list"
	stateWaitingImportFile = "waiting_for_import_file"
)

// userState marks that the next plain message from the user carries data
// for a started action
type userState struct {
	state     string
	timestamp time.Time
}

// activeSession is one review run in progress for a user
type activeSession struct {
	session   *models.ReviewSession
	questions []quiz.Question // set for multiple choice sessions
	position  int
	reviewed  int
	correct   int
	skipped   int
}

// currentCard returns the snapshot card at the session cursor.
func (a *activeSession) currentCard() *models.SessionCard {
	if a.position < 0 || a.position >= len(a.session.Cards) {
		return nil
	}
	return &a.session.Cards[a.position]
}

// currentQuestion returns the quiz question at the session cursor.
func (a *activeSession) currentQuestion() *quiz.Question {
	if a.position < 0 || a.position >= len(a.questions) {
		return nil
	}
	return &a.questions[a.position]
}

// Bot represents the Telegram bot application
type Bot struct {
	api       *tgbotapi.BotAPI
	token     string
	svc       *review.Service
	users     *database.UserRepository
	quiz      *quiz.Module
	assistant *ai.Assistant // nil when OPENAI_API_KEY is not set
	scheduler *scheduler.Scheduler
	config    *BotConfig
	limiter   *chatLimiter
	adminIDs  map[int64]bool

	mu       sync.Mutex
	states   map[int64]*userState
	sessions map[int64]*activeSession
}

// New creates a new bot instance
func New(svc *review.Service) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	var assistant *ai.Assistant
	if os.Getenv("OPENAI_API_KEY") != "" {
		a, err := ai.New()
		if err != nil {
			log.Printf("Warning: unable to initialize OpenAI client: %v", err)
		} else {
			assistant = a
		}
	}

	bot := &Bot{
		token:     token,
		svc:       svc,
		users:     database.NewUserRepository(),
		quiz:      quiz.New(),
		assistant: assistant,
		config:    DefaultConfig(),
		limiter:   newChatLimiter(),
		adminIDs:  make(map[int64]bool),
		states:    make(map[int64]*userState),
		sessions:  make(map[int64]*activeSession),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminIDs[id] = true
		}
	}

	return bot, nil
}

// Start initializes the API client, launches the reminder scheduler and
// processes updates until the channel closes
func (b *Bot) Start() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	if os.Getenv("ENABLE_SCHEDULER") != "false" {
		b.scheduler = scheduler.New(b.svc, b.users, b)
		b.scheduler.Start()
		log.Println("Reminder scheduler started")
	}

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// SendDueReminder implements the scheduler.Notifier interface
func (b *Bot) SendDueReminder(userID int64, dueCount int, streakAtRisk bool, currentStreak int) error {
	var text strings.Builder
	if dueCount > 0 {
		text.WriteString(fmt.Sprintf("⏰ Пора повторять! Сегодня вас ждут %d %s.\n", dueCount, cardsWord(dueCount)))
	}
	if streakAtRisk {
		text.WriteString(fmt.Sprintf("🔥 Серия под угрозой: %d %s без пропусков. Сегодня ещё не было повторений!\n", currentStreak, daysWord(currentStreak)))
	}

	msg := tgbotapi.NewMessage(userID, text.String())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "📖 Начать повторение", CallbackData: "start_review"}},
	})
	if err := b.send(userID, msg); err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
		return err
	}
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminIDs[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := context.Background()

	switch {
	case update.Message != nil:
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("Error handling message from %d: %v", update.Message.From.ID, err)
		}
	case update.CallbackQuery != nil:
		if err := b.HandleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("Error handling callback from %d: %v", update.CallbackQuery.From.ID, err)
		}
	}
}

// ensureUser loads the user's profile, registering them with default
// settings on first contact
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user, err := b.users.GetByTelegramID(ctx, from.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.isAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    b.config.DefaultNotificationHour,
		MaxReviewsPerDay:    b.config.DefaultMaxReviews,
		MaxNewCardsPerDay:   b.config.DefaultMaxNewCards,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// send delivers any chattable to the chat, honoring the per-chat rate
// limit
func (b *Bot) send(chatID int64, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(context.Background(), chatID); err != nil {
		return fmt.Errorf("failed to wait for rate limit: %v", err)
	}
	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}
	return nil
}

// sendText is a shorthand for a plain text message
func (b *Bot) sendText(chatID int64, text string) error {
	return b.send(chatID, tgbotapi.NewMessage(chatID, text))
}

// sendWithMenu sends text together with an inline keyboard
func (b *Bot) sendWithMenu(chatID int64, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(buttons)
	return b.send(chatID, msg)
}

// editWithMenu rewrites an existing message in place
func (b *Bot) editWithMenu(chatID int64, messageID int, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, createKeyboard(buttons))
	return b.send(chatID, msg)
}

// State helpers. The maps are shared between update goroutines.

func (b *Bot) setState(userID int64, state string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[userID] = &userState{state: state, timestamp: time.Now()}
}

func (b *Bot) getState(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.states[userID]; ok {
		return s.state
	}
	return ""
}

func (b *Bot) clearState(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, userID)
}

func (b *Bot) setSession(userID int64, s *activeSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[userID] = s
}

func (b *Bot) getSession(userID int64) *activeSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) clearSession(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, userID)
}

// cardsWord picks the Russian plural form for "карточка"
func cardsWord(n int) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return "карточек"
	}
	switch n % 10 {
	case 1:
		return "карточка"
	case 2, 3, 4:
		return "карточки"
	}
	return "карточек"
}

// daysWord picks the Russian plural form for "день"
func daysWord(n int) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return "дней"
	}
	switch n % 10 {
	case 1:
		return "день"
	case 2, 3, 4:
		return "дня"
	}
	return "дней"
}
