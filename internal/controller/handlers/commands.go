package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/court_booking/internal/controller/state"
	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// commandFunc обработчик команды с уже разобранными аргументами
type commandFunc func(ctx context.Context, b *bot.Bot, update *models.Update, args []string)

func (h *Handlers) commands() map[string]commandFunc {
	return map[string]commandFunc{
		"start":         h.HandleStart,
		"help":          h.HandleHelp,
		"cancel":        h.HandleCancel,
		"becomeowner":   h.HandleBecomeOwner,
		"courts":        h.HandleCourts,
		"usecourt":      h.HandleUseCourt,
		"createcourt":   h.HandleCreateCourt,
		"calendar":      h.HandleCalendar,
		"day":           h.HandleDay,
		"week":          h.HandleWeek,
		"book":          h.HandleBook,
		"cancelbooking": h.HandleCancelBooking,
		"mybookings":    h.HandleMyBookings,
		"setday":        h.HandleSetDay,
		"closeday":      h.HandleCloseDay,
		"reopenday":     h.HandleReopenDay,
		"slot":          h.HandleSlot,
		"bookings":      h.HandleDayBookings,
	}
}

// HandleCommand разбирает команду и передаёт её обработчику
func (h *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	name, args := parseCommand(update.Message.Text)
	handler, ok := h.commands()[name]
	if !ok {
		h.sendError(ctx, b, update.Message.Chat.ID, "❓ Неизвестная команда. Справка: /help")
		return
	}

	h.logger.Debug("Command received",
		zap.Int64("telegram_id", update.Message.From.ID),
		zap.String("command", name),
		zap.Int("args", len(args)),
	)

	handler(ctx, b, update, args)
}

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Здесь можно забронировать корт на 1 или 1,5 часа.\n\n"+
			"/courts - Список кортов\n"+
			"/usecourt <id> - Выбрать корт\n"+
			"/calendar - Календарь на месяц\n"+
			"/book <дата> <время> <1h|1.5h> - Забронировать\n"+
			"/mybookings - Мои брони\n"+
			"/help - Справка",
		registeredUser.FirstName,
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	helpText := "📚 Справка по командам:\n\n" +
		"ID корта можно не указывать, если он выбран через /usecourt.\n" +
		"Даты в формате 2025-03-10, время 10:00.\n\n" +
		"Для игроков:\n" +
		"/courts - Список кортов\n" +
		"/usecourt <id> - Выбрать корт\n" +
		"/calendar [id] [2025-03] - Календарь на месяц\n" +
		"/day [id] <дата> - Слоты дня\n" +
		"/week [id] [дата] - Картинка недели\n" +
		"/book [id] <дата> <время> <1h|1.5h> - Забронировать\n" +
		"/cancelbooking <номер брони> - Отменить бронь\n" +
		"/mybookings - Мои брони\n\n" +
		"Для владельцев:\n" +
		"/becomeowner - Стать владельцем площадки\n" +
		"/createcourt [название] - Создать корт\n" +
		"/setday [id] <0-6> <08:00-22:00|off> - Изменить день недели (0 - воскресенье)\n" +
		"/closeday [id] <дата> - Закрыть день\n" +
		"/reopenday [id] <дата> - Открыть день\n" +
		"/slot [id] <дата> <время> <on|off> - Включить или выключить слот\n" +
		"/bookings [id] <дата> - Брони на день"

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	telegramID := update.Message.From.ID

	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleBecomeOwner регистрирует пользователя владельцем площадки
func (h *Handlers) HandleBecomeOwner(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if user.IsOwner {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Вы уже владелец площадки. Создать корт: /createcourt")
		return
	}

	if _, err := h.userService.MakeOwner(ctx, user.TelegramID); err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "🎉 Теперь вы владелец площадки!\n\nСоздать корт: /createcourt <название>")
}

// HandleCourts список кортов
func (h *Handlers) HandleCourts(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	courts, err := h.courtService.ListCourts(ctx)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, err)
		return
	}

	if len(courts) == 0 {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Пока нет ни одного корта")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏟 Корты:\n\n")
	for _, court := range courts {
		sb.WriteString(FormatCourt(court))
		sb.WriteString("\n")
	}
	sb.WriteString("Выбрать корт: /usecourt <id>")

	h.sendMessage(ctx, b, update.Message.Chat.ID, sb.String())
}

// HandleUseCourt запоминает корт для следующих команд
func (h *Handlers) HandleUseCourt(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	if len(args) != 1 {
		h.replyError(ctx, b, update.Message.Chat.ID, errUsage)
		return
	}

	courtID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, errUsage)
		return
	}

	court, err := h.courtService.GetCourt(ctx, courtID)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, err)
		return
	}

	h.stateManager.SelectCourt(update.Message.From.ID, court.ID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf("✅ Выбран корт «%s»", court.Name))
}

// HandleCreateCourt создаёт корт с шаблоном по умолчанию.
// Без названия бот спрашивает его отдельным сообщением.
func (h *Handlers) HandleCreateCourt(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if !user.IsOwner {
		h.replyError(ctx, b, update.Message.Chat.ID, model.ErrNotCourtOwner)
		return
	}

	if len(args) == 0 {
		h.stateManager.SetState(user.TelegramID, state.StateCreateCourtName)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✏️ Введите название корта.\n\nДля отмены: /cancel")
		return
	}

	h.createCourt(ctx, b, update, user, strings.Join(args, " "), nil)
}

func (h *Handlers) createCourt(ctx context.Context, b *bot.Bot, update *models.Update, user *model.User, name string, rules json.RawMessage) {
	court, err := h.courtService.CreateCourt(ctx, model.CallerOf(user), name, defaultSchedule(), rules)
	if err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, err)
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.stateManager.SelectCourt(user.TelegramID, court.ID)

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"✅ Корт создан и выбран\n\n"+FormatCourt(court)+"\nИзменить часы: /setday <0-6> <08:00-22:00|off>")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатывает HandleCommand
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	switch h.stateManager.GetState(telegramID) {
	case state.StateCreateCourtName:
		name := strings.TrimSpace(update.Message.Text)
		if name == "" {
			h.sendMessage(ctx, b, chatID, "❌ Название не может быть пустым")
			return
		}
		h.stateManager.SetData(telegramID, state.DraftCourtName, name)
		h.stateManager.SetState(telegramID, state.StateCreateCourtRate)
		h.sendMessage(ctx, b, chatID,
			"💰 Введите цену часа, например 1500.\n\nОтправьте «-», чтобы оставить цену по умолчанию. Для отмены: /cancel")
	case state.StateCreateCourtRate:
		user, ok := h.requireUser(ctx, b, update)
		if !ok {
			return
		}

		rules, err := parseRate(update.Message.Text)
		if err != nil {
			h.sendMessage(ctx, b, chatID, "❌ Цена должна быть неотрицательным числом, например 1500 или 1250.50")
			return
		}

		name, _ := h.stateManager.GetData(telegramID, state.DraftCourtName)
		courtName, ok := name.(string)
		if !ok {
			h.stateManager.ClearState(telegramID)
			h.replyError(ctx, b, chatID, errUsage)
			return
		}

		h.createCourt(ctx, b, update, user, courtName, rules)
	default:
		// Вне диалога текст игнорируем
	}
}
