package controller

import (
	"context"
	"strings"

	"github.com/Freeeeeet/court_booking/internal/controller/handlers"
	"github.com/Freeeeeet/court_booking/internal/controller/state"
	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

// NewBot создаёт клиента Telegram с middleware контроллера
func NewBot(token string, logger *zap.Logger) (*bot.Bot, error) {
	return bot.New(token,
		bot.WithMiddlewares(recoverMiddleware(logger)),
		bot.WithErrorsHandler(func(err error) {
			logger.Warn("Telegram polling error", zap.Error(err))
		}),
	)
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	courtService *service.CourtService,
	calendarService *service.CalendarService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager()

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(
		userService,
		courtService,
		calendarService,
		bookingService,
		stateManager,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует обработчик сообщений и меню команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// Один обработчик на весь текст: команды и ответы в диалогах
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handleText)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

func (c *BotController) handleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if strings.HasPrefix(update.Message.Text, "/") {
		c.handlers.HandleCommand(ctx, b, update)
		return
	}

	c.handlers.HandleTextMessage(ctx, b, update)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "courts", Description: "🏟 Список кортов"},
		{Command: "calendar", Description: "🗓 Календарь на месяц"},
		{Command: "week", Description: "🖼 Картинка недели"},
		{Command: "book", Description: "🎾 Забронировать корт"},
		{Command: "mybookings", Description: "📅 Мои брони"},
		{Command: "becomeowner", Description: "🔑 Стать владельцем"},
		{Command: "createcourt", Description: "➕ Создать корт (владелец)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

// recoverMiddleware не даёт панике в обработчике уронить бота
func recoverMiddleware(logger *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Handler panicked",
						zap.Int64("update_id", update.ID),
						zap.Any("panic", r),
					)
				}
			}()
			next(ctx, b, update)
		}
	}
}
