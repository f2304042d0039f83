package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sessionLimits returns the learner's configured daily limits, falling
// back to the bot defaults for users that never opened /start.
func (b *Bot) sessionLimits(ctx context.Context, userID int64) (int, int) {
	user, err := b.users.GetByTelegramID(ctx, userID)
	if err != nil {
		log.Printf("Error loading user %d: %v", userID, err)
	}
	if user == nil {
		return b.config.DefaultMaxReviews, b.config.DefaultMaxNewCards
	}
	return user.MaxReviewsPerDay, user.MaxNewCardsPerDay
}

func (b *Bot) startDailySession(ctx context.Context, chatID, userID int64) error {
	maxReviews, maxNew := b.sessionLimits(ctx, userID)
	session, err := b.svc.CreateDailySession(ctx, userID, review.DailySessionConfig{
		MaxReviews:        maxReviews,
		MaxNewCards:       maxNew,
		PrioritizeOverdue: true,
		Mode:              models.SessionModeFlashcard,
	})
	if err != nil {
		return fmt.Errorf("failed to create daily session: %w", err)
	}
	if session == nil {
		return b.sendWithMenu(chatID, "🎉 На сегодня всё повторено!", [][]MenuButton{
			{{Text: "🎯 Викторина", CallbackData: "start_quiz"}},
			{{Text: "📅 Календарь", CallbackData: "upcoming"}},
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	b.setSession(userID, &activeSession{session: session})

	intro := fmt.Sprintf("📖 Поехали! Сегодня: %d %s.", len(session.Cards), cardsWord(len(session.Cards)))
	if overdue := countOverdue(session.Cards); overdue > 0 {
		intro += fmt.Sprintf("\n⏰ Из них просрочено: %d.", overdue)
	}
	if err := b.sendText(chatID, intro); err != nil {
		return err
	}
	return b.sendCurrentCard(ctx, chatID, userID)
}

func (b *Bot) startQuizSession(ctx context.Context, chatID, userID int64) error {
	maxReviews, maxNew := b.sessionLimits(ctx, userID)
	session, err := b.svc.CreateDailySession(ctx, userID, review.DailySessionConfig{
		MaxReviews:        maxReviews,
		MaxNewCards:       maxNew,
		PrioritizeOverdue: true,
		Mode:              models.SessionModeMultipleChoice,
	})
	if err != nil {
		return fmt.Errorf("failed to create quiz session: %w", err)
	}
	if session == nil {
		return b.sendWithMenu(chatID, "🎉 На сегодня всё повторено - викторине нечего спрашивать!", [][]MenuButton{
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	// Неправильные варианты берутся из остальных карточек владельца
	pool, err := b.svc.CardsByStatus(ctx, userID, models.CardStatusActive)
	if err != nil {
		return fmt.Errorf("failed to load cards for quiz: %w", err)
	}
	questions := b.quiz.BuildQuestions(session.Cards, pool)

	b.setSession(userID, &activeSession{session: session, questions: questions})

	intro := fmt.Sprintf("🎯 Викторина: %d %s. Выбирайте правильный ответ!", len(questions), cardsWord(len(questions)))
	if err := b.sendText(chatID, intro); err != nil {
		return err
	}
	return b.sendCurrentCard(ctx, chatID, userID)
}

func (b *Bot) startFailedSession(ctx context.Context, chatID, userID int64) error {
	session, err := b.svc.CreateFailedCardsSession(ctx, userID, b.config.FailedWindowDays)
	if err != nil {
		return fmt.Errorf("failed to create remedial session: %w", err)
	}
	if session == nil {
		return b.sendWithMenu(chatID, "👍 Проблемных карточек за последнюю неделю нет.", [][]MenuButton{
			{{Text: "📖 Повторить сегодня", CallbackData: "start_review"}},
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	b.setSession(userID, &activeSession{session: session})

	intro := fmt.Sprintf("🔁 Работа над ошибками: %d %s. Разберёмся с ними!", len(session.Cards), cardsWord(len(session.Cards)))
	if err := b.sendText(chatID, intro); err != nil {
		return err
	}
	return b.sendCurrentCard(ctx, chatID, userID)
}

// startRepeatSession re-runs the cards of the learner's last session.
// Cards that got completed or paused in the meantime drop out.
func (b *Bot) startRepeatSession(ctx context.Context, chatID, userID int64) error {
	last := b.getSession(userID)
	if last == nil {
		return b.noActiveSession(chatID)
	}

	ids := make([]int64, 0, len(last.session.Cards))
	for _, card := range last.session.Cards {
		ids = append(ids, card.CardID)
	}

	session, err := b.svc.CreateCustomSession(ctx, userID, ids, 0, last.session.Mode)
	if errors.Is(err, review.ErrEmptyCardList) {
		b.clearSession(userID)
		return b.sendWithMenu(chatID, "Все карточки той сессии уже выучены или отложены 🎉", [][]MenuButton{
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}
	if err != nil {
		return fmt.Errorf("failed to create repeat session: %w", err)
	}

	active := &activeSession{session: session}
	if session.Mode == models.SessionModeMultipleChoice {
		pool, err := b.svc.CardsByStatus(ctx, userID, models.CardStatusActive)
		if err != nil {
			return fmt.Errorf("failed to load cards for quiz: %w", err)
		}
		active.questions = b.quiz.BuildQuestions(session.Cards, pool)
	}
	b.setSession(userID, active)

	if err := b.sendText(chatID, fmt.Sprintf("🔁 Ещё раз: %d %s.", len(session.Cards), cardsWord(len(session.Cards)))); err != nil {
		return err
	}
	return b.sendCurrentCard(ctx, chatID, userID)
}

// sendCurrentCard shows the card at the session cursor, or wraps the
// session up when the cursor ran past the end.
func (b *Bot) sendCurrentCard(ctx context.Context, chatID, userID int64) error {
	active := b.getSession(userID)
	if active == nil {
		return b.noActiveSession(chatID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, chatID, userID)
	}

	progress := fmt.Sprintf("Карточка %d/%d", active.position+1, len(active.session.Cards))

	if active.session.Mode == models.SessionModeMultipleChoice {
		question := active.currentQuestion()
		if question == nil {
			return b.finishSession(ctx, chatID, userID)
		}

		var text strings.Builder
		text.WriteString(progress)
		if question.Deck != "" {
			text.WriteString(" • " + question.Deck)
		}
		text.WriteString("\n\n❓ " + question.Front)

		var buttons [][]MenuButton
		for i, option := range question.Options {
			buttons = append(buttons, []MenuButton{{
				Text:         fmt.Sprintf("%d. %s", i+1, truncate(option, 48)),
				CallbackData: fmt.Sprintf("answer_%d", i),
			}})
		}
		buttons = append(buttons, []MenuButton{
			{Text: "⏸ Отложить", CallbackData: "skip"},
			{Text: "🛑 Завершить", CallbackData: "stop_session"},
		})
		return b.sendWithMenu(chatID, text.String(), buttons)
	}

	var text strings.Builder
	text.WriteString(progress)
	if card.Deck != "" {
		text.WriteString(" • " + card.Deck)
	}
	if card.IsOverdue {
		text.WriteString(" • ⏰ просрочена")
	}
	text.WriteString("\n\n❓ " + card.Front)

	return b.sendWithMenu(chatID, text.String(), [][]MenuButton{
		{{Text: "👀 Показать ответ", CallbackData: "reveal"}},
		{
			{Text: "💡 Подсказка", CallbackData: "hint"},
			{Text: "⏸ Отложить", CallbackData: "skip"},
		},
		{{Text: "🛑 Завершить", CallbackData: "stop_session"}},
	})
}

// handleReveal flips the flashcard: the message is edited to show the
// back side, recent answers and the grading buttons.
func (b *Bot) handleReveal(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	active := b.getSession(callback.From.ID)
	if active == nil || active.session.Mode != models.SessionModeFlashcard {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Карточка %d/%d\n\n", active.position+1, len(active.session.Cards)))
	text.WriteString("❓ " + card.Front + "\n")
	text.WriteString("💬 " + card.Back)

	if marks := b.recentMarks(ctx, callback.From.ID, card.CardID); marks != "" {
		text.WriteString("\n\nПоследние ответы: " + marks)
	}
	text.WriteString("\n\nНасколько легко вспомнилось?")

	return b.editWithMenu(callback.Message.Chat.ID, callback.Message.MessageID, text.String(), [][]MenuButton{
		{{Text: "🔴 Не вспомнил", CallbackData: "grade_0"}},
		{
			{Text: "🟠 С трудом", CallbackData: "grade_1"},
			{Text: "🟡 Нормально", CallbackData: "grade_2"},
			{Text: "🟢 Легко", CallbackData: "grade_3"},
		},
		{
			{Text: "✍️ Пример", CallbackData: "example"},
			{Text: "🛑 Завершить", CallbackData: "stop_session"},
		},
	})
}

// recentMarks renders the card's last answers as ✓/✗ marks, newest last.
func (b *Bot) recentMarks(ctx context.Context, userID, cardID int64) string {
	events, err := b.svc.CardHistory(ctx, userID, cardID, b.config.HistoryDays)
	if err != nil {
		log.Printf("Error loading card history for %d: %v", cardID, err)
		return ""
	}
	if len(events) > 5 {
		events = events[len(events)-5:]
	}
	var marks strings.Builder
	for _, e := range events {
		if e.IsSuccess {
			marks.WriteString("✓")
		} else {
			marks.WriteString("✗")
		}
	}
	return marks.String()
}

// handleGrade applies the learner's self-assessment to the current card
// and moves the session forward.
func (b *Bot) handleGrade(ctx context.Context, callback *tgbotapi.CallbackQuery, gradeStr string) error {
	active := b.getSession(callback.From.ID)
	if active == nil || active.session.Mode != models.SessionModeFlashcard {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	grade, err := strconv.Atoi(gradeStr)
	if err != nil || grade < 0 || grade > 3 {
		return fmt.Errorf("invalid grade in callback data: %s", gradeStr)
	}

	success := grade > 0
	var difficulty *spaced_repetition.Difficulty
	switch grade {
	case 1:
		d := spaced_repetition.DifficultyHard
		difficulty = &d
	case 2:
		d := spaced_repetition.DifficultyGood
		difficulty = &d
	case 3:
		d := spaced_repetition.DifficultyEasy
		difficulty = &d
	}

	updated, err := b.submitWithRetry(ctx, callback.From.ID, card.CardID, success, difficulty)
	if errors.Is(err, review.ErrCardNotFound) || errors.Is(err, review.ErrCardNotActive) {
		// Карточку успели изменить вне сессии - просто идём дальше
		log.Printf("Card %d no longer reviewable: %v", card.CardID, err)
		active.position++
		return b.sendCurrentCard(ctx, callback.Message.Chat.ID, callback.From.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}

	active.reviewed++
	if success {
		active.correct++
	}

	var outcome strings.Builder
	outcome.WriteString("❓ " + card.Front + "\n")
	outcome.WriteString("💬 " + card.Back + "\n\n")
	switch {
	case updated.Status == models.CardStatusCompleted:
		outcome.WriteString("🏆 Выучено! Карточка уходит в архив.")
	case success:
		outcome.WriteString(fmt.Sprintf("✅ Следующее повторение через %d %s.", updated.Interval, daysWord(updated.Interval)))
	default:
		outcome.WriteString("💪 Вернётся завтра - с начала лестницы.")
	}

	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, outcome.String())
	if err := b.send(callback.Message.Chat.ID, edit); err != nil {
		log.Printf("Warning: Failed to edit card message: %v", err)
	}

	active.position++
	return b.sendCurrentCard(ctx, callback.Message.Chat.ID, callback.From.ID)
}

// handleQuizAnswer grades a picked option in a multiple choice session.
func (b *Bot) handleQuizAnswer(ctx context.Context, callback *tgbotapi.CallbackQuery, indexStr string) error {
	active := b.getSession(callback.From.ID)
	if active == nil || active.session.Mode != models.SessionModeMultipleChoice {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	question := active.currentQuestion()
	if question == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	index, err := strconv.Atoi(indexStr)
	if err != nil || index < 0 || index >= len(question.Options) {
		return fmt.Errorf("invalid answer index in callback data: %s", indexStr)
	}
	correct := question.Answered(index)

	_, err = b.submitWithRetry(ctx, callback.From.ID, question.CardID, correct, nil)
	if errors.Is(err, review.ErrCardNotFound) || errors.Is(err, review.ErrCardNotActive) {
		log.Printf("Card %d no longer reviewable: %v", question.CardID, err)
		active.position++
		return b.sendCurrentCard(ctx, callback.Message.Chat.ID, callback.From.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}

	active.reviewed++
	if correct {
		active.correct++
	}

	var outcome strings.Builder
	outcome.WriteString("❓ " + question.Front + "\n\n")
	if correct {
		outcome.WriteString("✅ Верно: " + question.Options[question.CorrectIndex])
	} else {
		outcome.WriteString("❌ Вы выбрали: " + question.Options[index] + "\n")
		outcome.WriteString("Правильный ответ: " + question.Options[question.CorrectIndex])
	}

	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, outcome.String())
	if err := b.send(callback.Message.Chat.ID, edit); err != nil {
		log.Printf("Warning: Failed to edit quiz message: %v", err)
	}

	active.position++
	return b.sendCurrentCard(ctx, callback.Message.Chat.ID, callback.From.ID)
}

// handleHint sends a hint for the current card without flipping it.
// Stored hints win, otherwise the assistant makes one up.
func (b *Bot) handleHint(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	active := b.getSession(callback.From.ID)
	if active == nil {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	stored := ""
	if full, err := b.svc.Card(ctx, callback.From.ID, card.CardID); err == nil {
		stored = full.Hint
	}

	hint := stored
	if b.assistant != nil {
		hint = b.assistant.HintWithFallback(ctx, card.Front, card.Back, stored)
	}
	if hint == "" {
		return b.sendText(callback.Message.Chat.ID, "Для этой карточки подсказки нет. Попробуйте вспомнить!")
	}
	return b.sendText(callback.Message.Chat.ID, "💡 "+hint)
}

// handleExample sends an example sentence for the current card. The
// grading screen stays on the previous message.
func (b *Bot) handleExample(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	active := b.getSession(callback.From.ID)
	if active == nil {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	if b.assistant == nil {
		return b.sendText(callback.Message.Chat.ID, "Генерация примеров не настроена - нужен ключ OpenAI.")
	}

	example, err := b.assistant.GenerateExample(ctx, card.Front, card.Back)
	if err != nil {
		log.Printf("Error generating example for card %d: %v", card.CardID, err)
		return b.sendText(callback.Message.Chat.ID, "Не получилось придумать пример. Попробуйте ещё раз.")
	}
	return b.sendText(callback.Message.Chat.ID, "✍️ "+example)
}

// handleSkip pauses the current card and moves on. The card leaves the
// rotation until the learner brings it back from the archive.
func (b *Bot) handleSkip(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	active := b.getSession(callback.From.ID)
	if active == nil {
		return b.noActiveSession(callback.Message.Chat.ID)
	}
	card := active.currentCard()
	if card == nil {
		return b.finishSession(ctx, callback.Message.Chat.ID, callback.From.ID)
	}

	if _, err := b.svc.PauseCard(ctx, callback.From.ID, card.CardID); err != nil &&
		!errors.Is(err, review.ErrCardNotActive) && !errors.Is(err, review.ErrCardNotFound) {
		return fmt.Errorf("failed to pause card: %w", err)
	}
	active.skipped++

	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID,
		fmt.Sprintf("⏸ «%s» отложена. Вернуть её можно из архива.", truncate(card.Front, 48)))
	if err := b.send(callback.Message.Chat.ID, edit); err != nil {
		log.Printf("Warning: Failed to edit card message: %v", err)
	}

	active.position++
	return b.sendCurrentCard(ctx, callback.Message.Chat.ID, callback.From.ID)
}

// finishSession closes the session and shows the summary. The finished
// session stays in memory so "repeat" can rebuild it from the same cards.
func (b *Bot) finishSession(ctx context.Context, chatID, userID int64) error {
	active := b.getSession(userID)
	if active == nil {
		return b.noActiveSession(chatID)
	}

	if !active.session.Completed() {
		results := &models.SessionResults{
			CardsReviewed:  active.reviewed,
			CorrectAnswers: active.correct,
		}
		session, err := b.svc.CompleteSession(ctx, userID, active.session.ID, results)
		if err != nil && !errors.Is(err, review.ErrSessionCompleted) {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		if session != nil {
			active.session = session
		}
	}

	var text strings.Builder
	text.WriteString("🏁 Сессия завершена!\n\n")
	text.WriteString(fmt.Sprintf("Повторено: %d из %d\n", active.reviewed, len(active.session.Cards)))
	if active.reviewed > 0 {
		text.WriteString(fmt.Sprintf("Правильно: %d (%d%%)\n", active.correct, active.correct*100/active.reviewed))
	}
	if active.skipped > 0 {
		text.WriteString(fmt.Sprintf("Отложено: %d\n", active.skipped))
	}

	if streak, err := b.svc.Streak(ctx, userID); err == nil && streak.CurrentStreak > 0 {
		text.WriteString(fmt.Sprintf("\n🔥 Серия: %d %s", streak.CurrentStreak, daysWord(streak.CurrentStreak)))
		if streak.CurrentStreak == streak.LongestStreak {
			text.WriteString(" - новый рекорд!")
		}
	}

	buttons := [][]MenuButton{
		{{Text: "📊 Статистика", CallbackData: "stats"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	}
	if active.reviewed > 0 {
		buttons = append([][]MenuButton{
			{{Text: "🔁 Повторить эту сессию", CallbackData: "repeat_session"}},
		}, buttons...)
	}
	return b.sendWithMenu(chatID, text.String(), buttons)
}

// submitWithRetry retries a review once after losing an optimistic
// locking race.
func (b *Bot) submitWithRetry(ctx context.Context, userID, cardID int64, success bool, difficulty *spaced_repetition.Difficulty) (*models.Card, error) {
	card, err := b.svc.SubmitReview(ctx, userID, cardID, success, difficulty)
	if errors.Is(err, review.ErrVersionConflict) {
		card, err = b.svc.SubmitReview(ctx, userID, cardID, success, difficulty)
	}
	return card, err
}

func (b *Bot) noActiveSession(chatID int64) error {
	return b.sendWithMenu(chatID, "Сейчас нет активной сессии.", [][]MenuButton{
		{{Text: "📖 Повторить сегодня", CallbackData: "start_review"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

func countOverdue(cards models.SessionCards) int {
	n := 0
	for _, c := range cards {
		if c.IsOverdue {
			n++
		}
	}
	return n
}
