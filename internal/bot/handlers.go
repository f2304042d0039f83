package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/recallbot/internal/excel"
	"github.com/example/recallbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleMessage routes a plain Telegram message: commands first, then
// text or documents expected by a started action
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	if message.IsCommand() {
		return b.HandleCommand(ctx, message)
	}

	switch b.getState(message.From.ID) {
	case stateWaitingCardList:
		return b.processCardList(ctx, message)
	case stateWaitingImportFile:
		if message.Document != nil {
			return b.processImportFile(ctx, message)
		}
		return b.sendText(message.Chat.ID, "Пришлите файл .xlsx или .csv с карточками, либо /menu для отмены.")
	}

	return b.sendWithMenu(message.Chat.ID, "Не понимаю. Откройте /menu или используйте /help.", b.MainMenuButtons())
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	// Любая команда отменяет начатый ввод
	b.clearState(message.From.ID)

	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "menu":
		return b.showMainMenu(message.Chat.ID)
	case "help":
		return b.handleHelp(message.Chat.ID)
	case "review":
		return b.startDailySession(ctx, message.Chat.ID, message.From.ID)
	case "quiz":
		return b.startQuizSession(ctx, message.Chat.ID, message.From.ID)
	case "failed":
		return b.startFailedSession(ctx, message.Chat.ID, message.From.ID)
	case "add":
		return b.promptAddCards(message.Chat.ID, message.From.ID)
	case "upcoming":
		return b.handleUpcoming(ctx, message.Chat.ID, message.From.ID)
	case "stats":
		return b.handleStats(ctx, message.Chat.ID, message.From.ID)
	case "streak":
		return b.handleStreak(ctx, message.Chat.ID, message.From.ID)
	case "settings":
		return b.sendSettings(ctx, message.Chat.ID, message.From.ID)
	case "archive":
		return b.handleArchive(ctx, message.Chat.ID, message.From.ID)
	case "import":
		return b.handleImportCommand(message)
	case "admin_stats":
		return b.handleAdminStats(ctx, message)
	default:
		return b.sendWithMenu(message.Chat.ID, "Неизвестная команда. Откройте /menu.", b.MainMenuButtons())
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	text := fmt.Sprintf("Привет, %s! 👋\n\n", name) +
		"Я помогаю запоминать надолго: карточки возвращаются ко мне ровно тогда, " +
		"когда вы вот-вот начнёте их забывать.\n\n" +
		"➕ Добавьте первые карточки\n" +
		"📖 Повторяйте каждый день\n" +
		"🔥 Держите серию\n\n" +
		"Начнём?"
	return b.sendWithMenu(message.Chat.ID, text, b.MainMenuButtons())
}

func (b *Bot) showMainMenu(chatID int64) error {
	return b.sendWithMenu(chatID, "🤖 Главное меню\n\nВыберите действие:", b.MainMenuButtons())
}

// MainMenuButtons returns the root inline keyboard
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📖 Повторить сегодня", CallbackData: "start_review"},
			{Text: "🎯 Викторина", CallbackData: "start_quiz"},
		},
		{
			{Text: "🔁 Работа над ошибками", CallbackData: "start_failed"},
			{Text: "📅 Календарь", CallbackData: "upcoming"},
		},
		{
			{Text: "📊 Статистика", CallbackData: "stats"},
			{Text: "🔥 Серия", CallbackData: "streak"},
		},
		{
			{Text: "➕ Добавить карточки", CallbackData: "add_cards"},
			{Text: "⚙️ Настройки", CallbackData: "settings_menu"},
		},
	}
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "❓ Как это работает\n\n" +
		"Каждая карточка повторяется по расписанию SM-2: удачные ответы " +
		"раздвигают интервалы, неудачные возвращают карточку в начало.\n\n" +
		"Команды:\n" +
		"/review - повторить карточки на сегодня\n" +
		"/quiz - повторение в режиме викторины\n" +
		"/failed - отдельно пройтись по проблемным карточкам\n" +
		"/add - добавить карточки текстом\n" +
		"/upcoming - календарь ближайших повторений\n" +
		"/stats - статистика коллекции\n" +
		"/streak - текущая серия\n" +
		"/archive - выученные и отложенные карточки\n" +
		"/settings - напоминания и лимиты"
	return b.sendWithMenu(chatID, text, [][]MenuButton{
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

// handleUpcoming renders the review forecast calendar
func (b *Bot) handleUpcoming(ctx context.Context, chatID, userID int64) error {
	forecast, err := b.svc.Upcoming(ctx, userID, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to build forecast: %w", err)
	}
	if len(forecast) == 0 {
		return b.sendWithMenu(chatID, "📅 Пока нечего планировать - добавьте карточки!", [][]MenuButton{
			{{Text: "➕ Добавить карточки", CallbackData: "add_cards"}},
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	dates := make([]string, 0, len(forecast))
	for date := range forecast {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	today := time.Now().Format("2006-01-02")

	var text strings.Builder
	text.WriteString("📅 Календарь повторений\n\n")
	for _, date := range dates {
		day := forecast[date]

		label := date
		if t, err := time.Parse("2006-01-02", date); err == nil {
			label = t.Format("02.01")
		}
		if date == today {
			label += " (сегодня)"
		}

		line := fmt.Sprintf("%s — %d %s", label, day.Total, cardsWord(day.Total))
		if day.Reviewed > 0 {
			line += fmt.Sprintf(", повторено %d", day.Reviewed)
		}
		if day.FromFailure > 0 {
			line += fmt.Sprintf(", после ошибок %d", day.FromFailure)
		}
		text.WriteString(line + "\n")
	}

	return b.sendWithMenu(chatID, text.String(), [][]MenuButton{
		{{Text: "📖 Повторить сегодня", CallbackData: "start_review"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := b.svc.Stats(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if stats.TotalCards == 0 {
		return b.sendWithMenu(chatID, "📊 Пока нет ни одной карточки. Добавьте первые!", [][]MenuButton{
			{{Text: "➕ Добавить карточки", CallbackData: "add_cards"}},
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	var text strings.Builder
	text.WriteString("📊 Ваша статистика\n\n")
	text.WriteString(fmt.Sprintf("Всего карточек: %d\n", stats.TotalCards))
	text.WriteString(fmt.Sprintf("  • в работе: %d\n", stats.ActiveCards))
	text.WriteString(fmt.Sprintf("  • выучено: %d\n", stats.CompletedCards))
	text.WriteString(fmt.Sprintf("  • отложено: %d\n\n", stats.PausedCards))
	text.WriteString(fmt.Sprintf("Сегодня: повторено %d, ждут %d\n", stats.ReviewedToday, stats.DueToday))
	text.WriteString(fmt.Sprintf("Успешность ответов: %.0f%%\n", stats.SuccessRate*100))
	text.WriteString(fmt.Sprintf("Средняя лёгкость: %.2f\n\n", stats.AverageEase))
	text.WriteString(fmt.Sprintf("🔥 Серия: %d %s (рекорд %d)", stats.CurrentStreak, daysWord(stats.CurrentStreak), stats.LongestStreak))

	return b.sendWithMenu(chatID, text.String(), [][]MenuButton{
		{{Text: "📖 Повторить сегодня", CallbackData: "start_review"}},
		{{Text: "📚 Архив", CallbackData: "archive"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

func (b *Bot) handleStreak(ctx context.Context, chatID, userID int64) error {
	streak, err := b.svc.Streak(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get streak: %w", err)
	}

	var text strings.Builder
	if streak.CurrentStreak == 0 {
		text.WriteString("🔥 Серия пока не начата.\n\nОдно повторение в день - и счётчик пойдёт!")
	} else {
		text.WriteString(fmt.Sprintf("🔥 Серия: %d %s подряд\n", streak.CurrentStreak, daysWord(streak.CurrentStreak)))
		text.WriteString(fmt.Sprintf("🏆 Рекорд: %d %s\n\n", streak.LongestStreak, daysWord(streak.LongestStreak)))
		if streak.ReviewedOn(time.Now()) {
			text.WriteString("Сегодня уже засчитано ✅")
		} else {
			text.WriteString("Сегодня ещё не было повторений - серия сгорит в полночь!")
		}
	}

	return b.sendWithMenu(chatID, text.String(), [][]MenuButton{
		{{Text: "📖 Повторить сегодня", CallbackData: "start_review"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

// Settings

func (b *Bot) sendSettings(ctx context.Context, chatID, userID int64) error {
	return b.renderSettings(ctx, chatID, 0, userID)
}

// renderSettings shows the settings screen. With messageID > 0 the
// existing message is edited in place.
func (b *Bot) renderSettings(ctx context.Context, chatID int64, messageID int, userID int64) error {
	user, err := b.users.GetByTelegramID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return b.sendText(chatID, "Сначала отправьте /start.")
	}

	notifyStatus := "выключены"
	notifyToggle := MenuButton{Text: "🔔 Включить напоминания", CallbackData: "notify_on"}
	if user.NotificationEnabled {
		notifyStatus = fmt.Sprintf("включены, в %d:00", user.NotificationHour)
		notifyToggle = MenuButton{Text: "🔕 Выключить напоминания", CallbackData: "notify_off"}
	}

	text := "⚙️ Настройки\n\n" +
		fmt.Sprintf("Напоминания: %s\n", notifyStatus) +
		fmt.Sprintf("Карточек в день: до %d\n", user.MaxReviewsPerDay) +
		fmt.Sprintf("Новых карточек в день: до %d", user.MaxNewCardsPerDay)

	buttons := [][]MenuButton{
		{notifyToggle},
		{{Text: "🕒 Время напоминаний", CallbackData: "time_menu"}},
		{{Text: "📏 Дневные лимиты", CallbackData: "limit_menu"}},
		{{Text: "📣 Проверить напоминание", CallbackData: "remind_check"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	}

	if messageID > 0 {
		return b.editWithMenu(chatID, messageID, text, buttons)
	}
	return b.sendWithMenu(chatID, text, buttons)
}

func (b *Bot) handleNotifyToggle(ctx context.Context, callback *tgbotapi.CallbackQuery, enabled bool) error {
	user, err := b.users.GetByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil {
		return fmt.Errorf("failed to get user: %v", err)
	}

	user.NotificationEnabled = enabled
	if err := b.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return b.renderSettings(ctx, callback.Message.Chat.ID, callback.Message.MessageID, callback.From.ID)
}

func (b *Bot) handleTimeMenu(callback *tgbotapi.CallbackQuery) error {
	text := "🕒 В котором часу напоминать?"
	buttons := [][]MenuButton{
		{
			{Text: "8:00", CallbackData: "set_hour_8"},
			{Text: "9:00", CallbackData: "set_hour_9"},
			{Text: "12:00", CallbackData: "set_hour_12"},
		},
		{
			{Text: "15:00", CallbackData: "set_hour_15"},
			{Text: "18:00", CallbackData: "set_hour_18"},
			{Text: "21:00", CallbackData: "set_hour_21"},
		},
		{{Text: "⬅️ Назад", CallbackData: "settings_menu"}},
	}
	return b.editWithMenu(callback.Message.Chat.ID, callback.Message.MessageID, text, buttons)
}

func (b *Bot) handleSetHour(ctx context.Context, callback *tgbotapi.CallbackQuery, hourStr string) error {
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid notification hour: %s", hourStr)
	}

	user, err := b.users.GetByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil {
		return fmt.Errorf("failed to get user: %v", err)
	}

	user.NotificationHour = hour
	user.NotificationEnabled = true
	if err := b.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return b.renderSettings(ctx, callback.Message.Chat.ID, callback.Message.MessageID, callback.From.ID)
}

func (b *Bot) handleLimitMenu(callback *tgbotapi.CallbackQuery) error {
	text := "📏 Дневные лимиты\n\n" +
		"Сколько карточек показывать за день и сколько из них могут быть совсем новыми:"
	buttons := [][]MenuButton{
		{
			{Text: "20 в день", CallbackData: "set_limit_20"},
			{Text: "50 в день", CallbackData: "set_limit_50"},
			{Text: "100 в день", CallbackData: "set_limit_100"},
		},
		{
			{Text: "10 новых", CallbackData: "set_newlimit_10"},
			{Text: "20 новых", CallbackData: "set_newlimit_20"},
			{Text: "40 новых", CallbackData: "set_newlimit_40"},
		},
		{{Text: "⬅️ Назад", CallbackData: "settings_menu"}},
	}
	return b.editWithMenu(callback.Message.Chat.ID, callback.Message.MessageID, text, buttons)
}

func (b *Bot) handleSetLimit(ctx context.Context, callback *tgbotapi.CallbackQuery, limitStr string, newCards bool) error {
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 500 {
		return fmt.Errorf("invalid daily limit: %s", limitStr)
	}

	user, err := b.users.GetByTelegramID(ctx, callback.From.ID)
	if err != nil || user == nil {
		return fmt.Errorf("failed to get user: %v", err)
	}

	if newCards {
		user.MaxNewCardsPerDay = limit
	} else {
		user.MaxReviewsPerDay = limit
	}
	if err := b.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return b.renderSettings(ctx, callback.Message.Chat.ID, callback.Message.MessageID, callback.From.ID)
}

func (b *Bot) handleRemindCheck(callback *tgbotapi.CallbackQuery) error {
	if b.scheduler == nil {
		return b.sendText(callback.Message.Chat.ID, "Планировщик напоминаний выключен.")
	}
	if err := b.scheduler.RunManualCheck(callback.From.ID); err != nil {
		return fmt.Errorf("failed to run manual check: %w", err)
	}
	return b.sendText(callback.Message.Chat.ID, "Готово. Если есть карточки на сегодня - напоминание уже пришло.")
}

// Adding cards in text form

func (b *Bot) promptAddCards(chatID, userID int64) error {
	b.setState(userID, stateWaitingCardList)
	text := "➕ Пришлите карточки, каждую с новой строки:\n\n" +
		"вопрос - ответ\n" +
		"apple - яблоко\n\n" +
		"Строка вида «#Колода» переключает колоду для строк ниже. " +
		"Отмена - любая команда."
	return b.sendText(chatID, text)
}

func (b *Bot) processCardList(ctx context.Context, message *tgbotapi.Message) error {
	b.clearState(message.From.ID)

	if _, err := b.ensureUser(ctx, message.From); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	added := 0
	failed := 0
	deck := ""
	for _, line := range strings.Split(message.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			deck = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			continue
		}

		front, back, ok := splitCardLine(line)
		if !ok {
			failed++
			continue
		}
		if _, err := b.svc.AddCard(ctx, message.From.ID, front, back, deck); err != nil {
			log.Printf("Error adding card for user %d: %v", message.From.ID, err)
			failed++
			continue
		}
		added++
	}

	if added == 0 && failed == 0 {
		return b.sendText(message.Chat.ID, "Не нашёл ни одной строки вида «вопрос - ответ».")
	}

	text := fmt.Sprintf("✅ Добавлено: %d %s", added, cardsWord(added))
	if failed > 0 {
		text += fmt.Sprintf("\n⚠️ Пропущено строк: %d", failed)
	}
	return b.sendWithMenu(message.Chat.ID, text, [][]MenuButton{
		{{Text: "📅 Календарь", CallbackData: "upcoming"}},
		{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	})
}

// splitCardLine splits "front - back" into its halves. The dash variants
// and a tab are accepted as separators.
func splitCardLine(line string) (string, string, bool) {
	for _, sep := range []string{" - ", " — ", " – ", "\t"} {
		if idx := strings.Index(line, sep); idx > 0 {
			front := strings.TrimSpace(line[:idx])
			back := strings.TrimSpace(line[idx+len(sep):])
			if front != "" && back != "" {
				return front, back, true
			}
		}
	}
	return "", "", false
}

// Excel / CSV import

func (b *Bot) handleImportCommand(message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendWithMenu(message.Chat.ID, "Команда доступна только администраторам.", b.MainMenuButtons())
	}

	b.setState(message.From.ID, stateWaitingImportFile)
	text := "📥 Пришлите файл .xlsx или .csv.\n\n" +
		"Колонки листа: A - вопрос, B - ответ, C - колода, D - подсказка.\n" +
		"В CSV: вопрос,ответ,подсказка; строка «Колода,,» переключает колоду."
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) processImportFile(ctx context.Context, message *tgbotapi.Message) error {
	b.clearState(message.From.ID)

	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.sendText(message.Chat.ID, "Поддерживаются только файлы .xlsx и .csv.")
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %v", err)
	}

	path, err := downloadToTemp(url, ext)
	if err != nil {
		return fmt.Errorf("failed to download file: %v", err)
	}
	defer os.Remove(path)

	config := excel.DefaultImportConfig(message.From.ID, path)
	result, err := excel.ImportCards(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to import cards: %w", err)
	}

	var text strings.Builder
	text.WriteString("📥 Импорт завершён\n\n")
	text.WriteString(fmt.Sprintf("Обработано строк: %d\n", result.TotalProcessed))
	text.WriteString(fmt.Sprintf("Создано: %d\n", result.Created))
	text.WriteString(fmt.Sprintf("Обновлено: %d\n", result.Updated))
	text.WriteString(fmt.Sprintf("Без изменений: %d\n", result.Skipped))
	if len(result.Errors) > 0 {
		text.WriteString(fmt.Sprintf("\n⚠️ Ошибок: %d\n", len(result.Errors)))
		for i, e := range result.Errors {
			if i >= 5 {
				text.WriteString("…\n")
				break
			}
			text.WriteString(e + "\n")
		}
	}
	return b.sendWithMenu(message.Chat.ID, text.String(), b.MainMenuButtons())
}

// downloadToTemp saves the remote file into a temporary one and returns
// its path. The caller removes it.
func downloadToTemp(url, ext string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "import-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Archive of completed and paused cards

func (b *Bot) handleArchive(ctx context.Context, chatID, userID int64) error {
	cards, err := b.svc.CardsByStatus(ctx, userID, models.CardStatusCompleted, models.CardStatusPaused)
	if err != nil {
		return fmt.Errorf("failed to get archive: %w", err)
	}
	if len(cards) == 0 {
		return b.sendWithMenu(chatID, "📚 Архив пуст: нет ни выученных, ни отложенных карточек.", [][]MenuButton{
			{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
		})
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📚 Архив: %d %s\n\n", len(cards), cardsWord(len(cards))))

	var buttons [][]MenuButton
	for i, card := range cards {
		if i >= b.config.ArchivePageSize {
			text.WriteString(fmt.Sprintf("… и ещё %d\n", len(cards)-i))
			break
		}
		mark := "✅"
		if card.Status == models.CardStatusPaused {
			mark = "⏸"
		}
		text.WriteString(fmt.Sprintf("%s %s — %s\n", mark, card.Front, card.Back))
		buttons = append(buttons, []MenuButton{{
			Text:         "🔁 " + truncate(card.Front, 24),
			CallbackData: fmt.Sprintf("reactivate_%d", card.ID),
		}})
	}
	buttons = append(buttons,
		[]MenuButton{{Text: "🔁 Вернуть все", CallbackData: "reactivate_all"}},
		[]MenuButton{{Text: "⬅️ В меню", CallbackData: "main_menu"}},
	)

	return b.sendWithMenu(chatID, text.String(), buttons)
}

func (b *Bot) handleReactivate(ctx context.Context, callback *tgbotapi.CallbackQuery, idStr string) error {
	cardID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid card ID in callback data: %v", err)
	}

	updated, err := b.svc.ReactivateCards(ctx, callback.From.ID, []int64{cardID})
	if err != nil {
		return fmt.Errorf("failed to reactivate card: %w", err)
	}
	if updated == 0 {
		return b.sendText(callback.Message.Chat.ID, "Карточка не найдена.")
	}
	return b.sendText(callback.Message.Chat.ID, "🔁 Карточка снова в работе, повторение - уже сегодня.")
}

func (b *Bot) handleReactivateAll(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	cards, err := b.svc.CardsByStatus(ctx, callback.From.ID, models.CardStatusCompleted, models.CardStatusPaused)
	if err != nil {
		return fmt.Errorf("failed to get archive: %w", err)
	}
	ids := make([]int64, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}

	updated, err := b.svc.ReactivateCards(ctx, callback.From.ID, ids)
	if err != nil {
		return fmt.Errorf("failed to reactivate cards: %w", err)
	}
	return b.sendText(callback.Message.Chat.ID, fmt.Sprintf("🔁 Возвращено в работу: %d %s.", updated, cardsWord(updated)))
}

func (b *Bot) handleAdminStats(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendWithMenu(message.Chat.ID, "Команда доступна только администраторам.", b.MainMenuButtons())
	}

	users, err := b.users.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}

	totalCards := 0
	reviewedToday := 0
	for _, user := range users {
		stats, err := b.svc.Stats(ctx, user.ID)
		if err != nil {
			log.Printf("Error getting stats for user %d: %v", user.ID, err)
			continue
		}
		totalCards += stats.TotalCards
		reviewedToday += stats.ReviewedToday
	}

	text := fmt.Sprintf("👥 Пользователей: %d\n🗂 Карточек: %d\n📖 Повторено сегодня: %d",
		len(users), totalCards, reviewedToday)
	return b.sendText(message.Chat.ID, text)
}

// HandleCallback routes inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := b.api.Request(answer); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	var err error

	switch callback.Data {
	case "main_menu":
		err = b.editWithMenu(chatID, callback.Message.MessageID, "🤖 Главное меню\n\nВыберите действие:", b.MainMenuButtons())
	case "start_review":
		err = b.startDailySession(ctx, chatID, userID)
	case "start_quiz":
		err = b.startQuizSession(ctx, chatID, userID)
	case "start_failed":
		err = b.startFailedSession(ctx, chatID, userID)
	case "repeat_session":
		err = b.startRepeatSession(ctx, chatID, userID)
	case "reveal":
		err = b.handleReveal(ctx, callback)
	case "hint":
		err = b.handleHint(ctx, callback)
	case "example":
		err = b.handleExample(ctx, callback)
	case "skip":
		err = b.handleSkip(ctx, callback)
	case "stop_session":
		err = b.finishSession(ctx, chatID, userID)
	case "upcoming":
		err = b.handleUpcoming(ctx, chatID, userID)
	case "stats":
		err = b.handleStats(ctx, chatID, userID)
	case "streak":
		err = b.handleStreak(ctx, chatID, userID)
	case "archive":
		err = b.handleArchive(ctx, chatID, userID)
	case "add_cards":
		err = b.promptAddCards(chatID, userID)
	case "help":
		err = b.handleHelp(chatID)
	case "settings_menu":
		err = b.renderSettings(ctx, chatID, callback.Message.MessageID, userID)
	case "notify_on":
		err = b.handleNotifyToggle(ctx, callback, true)
	case "notify_off":
		err = b.handleNotifyToggle(ctx, callback, false)
	case "time_menu":
		err = b.handleTimeMenu(callback)
	case "limit_menu":
		err = b.handleLimitMenu(callback)
	case "remind_check":
		err = b.handleRemindCheck(callback)
	case "reactivate_all":
		err = b.handleReactivateAll(ctx, callback)
	default:
		switch {
		case strings.HasPrefix(callback.Data, "grade_"):
			err = b.handleGrade(ctx, callback, strings.TrimPrefix(callback.Data, "grade_"))
		case strings.HasPrefix(callback.Data, "answer_"):
			err = b.handleQuizAnswer(ctx, callback, strings.TrimPrefix(callback.Data, "answer_"))
		case strings.HasPrefix(callback.Data, "set_hour_"):
			err = b.handleSetHour(ctx, callback, strings.TrimPrefix(callback.Data, "set_hour_"))
		case strings.HasPrefix(callback.Data, "set_limit_"):
			err = b.handleSetLimit(ctx, callback, strings.TrimPrefix(callback.Data, "set_limit_"), false)
		case strings.HasPrefix(callback.Data, "set_newlimit_"):
			err = b.handleSetLimit(ctx, callback, strings.TrimPrefix(callback.Data, "set_newlimit_"), true)
		case strings.HasPrefix(callback.Data, "reactivate_"):
			err = b.handleReactivate(ctx, callback, strings.TrimPrefix(callback.Data, "reactivate_"))
		default:
			return b.sendText(chatID, "⚠️ Неизвестное действие")
		}
	}

	if err != nil {
		log.Printf("Error handling callback %q from %d: %v", callback.Data, userID, err)
		return b.sendText(chatID, "❌ Произошла ошибка. Пожалуйста, попробуйте позже.")
	}
	return nil
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
