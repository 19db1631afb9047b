package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/court_booking/internal/controller/formatting"
	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/render"
	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleCalendar показывает месяц корта: /calendar [id] [2025-03]
func (h *Handlers) HandleCalendar(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	courtID, args, err := h.selectedCourt(update, args)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	month := h.calendarService.Today()
	if len(args) > 0 {
		if month, err = model.ParseMonth(args[0]); err != nil {
			h.replyError(ctx, b, chatID, err)
			return
		}
	}

	court, err := h.courtService.GetCourt(ctx, courtID)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	days, err := h.calendarService.GetCalendar(ctx, courtID, month)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, FormatCalendar(court, days))
}

// HandleDay показывает слоты дня: /day [id] <дата>
func (h *Handlers) HandleDay(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	courtID, args, err := h.selectedCourt(update, args)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}
	if len(args) != 1 {
		h.replyError(ctx, b, chatID, errUsage)
		return
	}

	date, err := model.ParseDate(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	court, err := h.courtService.GetCourt(ctx, courtID)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	day, err := h.calendarService.GetDay(ctx, courtID, date)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, FormatDay(court, day))
}

// HandleWeek отправляет картинку недели: /week [id] [дата]
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	courtID, args, err := h.selectedCourt(update, args)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	weekOf := h.calendarService.Today()
	if len(args) > 0 {
		if weekOf, err = model.ParseDate(args[0]); err != nil {
			h.replyError(ctx, b, chatID, err)
			return
		}
	}

	court, err := h.courtService.GetCourt(ctx, courtID)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	start := render.WeekStart(weekOf)
	days, err := h.calendarService.GetRange(ctx, courtID, start, start.AddDate(0, 0, 7))
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	image, err := render.WeekImage(court.Name, start, days, h.calendarService.Now())
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Int64("court_id", courtID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось построить картинку недели")
		return
	}

	caption := fmt.Sprintf("🏟 %s, неделя с %s", court.Name, formatting.FormatDate(start))
	h.sendPhoto(ctx, b, chatID, "week.png", image, caption)
}

// HandleBook бронирует корт: /book [id] <дата> <время> <1h|1.5h>
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	courtID, args, err := h.selectedCourt(update, args)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}
	if len(args) != 3 {
		h.replyError(ctx, b, chatID, errUsage)
		return
	}

	date, err := model.ParseDate(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}
	start, err := model.ParseClock(args[1])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(ctx, model.CallerOf(user), service.BookingRequest{
		CourtID:   courtID,
		Date:      date,
		StartTime: start,
		Duration:  model.Duration(args[2]),
	})
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "🎾 Корт забронирован!\n\n"+FormatBooking(booking)+
		"\n\nОтменить: /cancelbooking "+booking.ID.String())
}

// HandleCancelBooking отменяет бронь: /cancelbooking <номер>
func (h *Handlers) HandleCancelBooking(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	if len(args) != 1 {
		h.replyError(ctx, b, chatID, errUsage)
		return
	}

	bookingID, err := uuid.Parse(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, errUsage)
		return
	}

	booking, err := h.bookingService.CancelBooking(ctx, model.CallerOf(user), bookingID)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Бронь отменена, слоты снова свободны\n\n"+FormatBooking(booking))
}

// HandleMyBookings список броней игрока
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update, _ []string) {
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	bookings, err := h.bookingService.GetPlayerBookings(ctx, model.CallerOf(user))
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	if len(bookings) == 0 {
		h.sendMessage(ctx, b, chatID, "📅 У вас пока нет броней.\n\nЗабронировать: /book <дата> <время> <1h|1.5h>")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 У вас %d %s:\n\n", len(bookings), formatting.PluralizeBookings(len(bookings)))
	for _, booking := range bookings {
		sb.WriteString(FormatBookingLine(booking))
		sb.WriteString("\n")
	}

	h.sendMessage(ctx, b, chatID, sb.String())
}
