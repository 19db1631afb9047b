package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/court_booking/internal/controller/formatting"
	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandleSetDay меняет день недельного шаблона: /setday [id] <0-6> <08:00-22:00|off>
func (h *Handlers) HandleSetDay(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	courtID, args, err := h.selectedCourtFixed(update, args, 2)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}
	if len(args) != 2 {
		h.replyError(ctx, b, chatID, errUsage)
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, model.ErrInvalidWeekday)
		return
	}
	weekday, err := model.ParseWeekday(n)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	day, err := parseHours(args[1])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	court, err := h.courtService.UpdateWeeklySchedule(ctx, model.CallerOf(user), courtID, weekday, day)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Расписание обновлено, брони сохранены\n\n"+FormatCourt(court))
}

// HandleCloseDay закрывает день: /closeday [id] <дата>
func (h *Handlers) HandleCloseDay(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, courtID, date, ok := h.ownerDayArgs(ctx, b, update, args)
	if !ok {
		return
	}

	_, cancelled, err := h.calendarService.CloseDay(ctx, model.CallerOf(user), courtID, date)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	text := fmt.Sprintf("⛔️ День %s закрыт", formatting.FormatDateWithWeekday(date))
	if len(cancelled) > 0 {
		text += fmt.Sprintf("\n\nОтменено: %d %s", len(cancelled), formatting.PluralizeBookings(len(cancelled)))
		for _, booking := range cancelled {
			text += "\n" + FormatBookingLine(booking)
		}
	}

	h.sendMessage(ctx, b, chatID, text)
}

// HandleReopenDay открывает закрытый день: /reopenday [id] <дата>
func (h *Handlers) HandleReopenDay(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, courtID, date, ok := h.ownerDayArgs(ctx, b, update, args)
	if !ok {
		return
	}

	day, err := h.calendarService.ReopenDay(ctx, model.CallerOf(user), courtID, date)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ День %s открыт, %d %s",
		formatting.FormatDateWithWeekday(date), len(day.Slots), formatting.PluralizeSlots(len(day.Slots))))
}

// HandleSlot включает или выключает слот: /slot [id] <дата> <время> <on|off>
func (h *Handlers) HandleSlot(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
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
	at, err := model.ParseClock(args[1])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}
	enabled, err := parseSwitch(args[2])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	_, cancelled, err := h.calendarService.UpdateSlot(ctx, model.CallerOf(user), courtID, date, at, enabled)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	text := fmt.Sprintf("✅ Слот %s %s выключен", formatting.FormatDate(date), at)
	if enabled {
		text = fmt.Sprintf("✅ Слот %s %s включен", formatting.FormatDate(date), at)
	}
	for _, booking := range cancelled {
		text += "\n\nОтменена бронь:\n" + FormatBookingLine(booking)
	}

	h.sendMessage(ctx, b, chatID, text)
}

// HandleDayBookings брони корта на день: /bookings [id] <дата>
func (h *Handlers) HandleDayBookings(ctx context.Context, b *bot.Bot, update *models.Update, args []string) {
	chatID := update.Message.Chat.ID

	user, courtID, date, ok := h.ownerDayArgs(ctx, b, update, args)
	if !ok {
		return
	}

	bookings, err := h.bookingService.GetDayBookings(ctx, model.CallerOf(user), courtID, date)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	if len(bookings) == 0 {
		h.sendMessage(ctx, b, chatID, "На этот день броней нет")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %s, %d %s:\n\n", formatting.FormatDateWithWeekday(date), len(bookings), formatting.PluralizeBookings(len(bookings)))
	for _, booking := range bookings {
		fmt.Fprintf(&sb, "%s игрок #%d, %s\n", FormatBookingLine(booking), booking.PlayerID, formatting.FormatPriceShort(booking.Price))
	}

	h.sendMessage(ctx, b, chatID, sb.String())
}

// ownerDayArgs общий разбор "[id] <дата>" для команд владельца
func (h *Handlers) ownerDayArgs(ctx context.Context, b *bot.Bot, update *models.Update, args []string) (*model.User, int64, time.Time, bool) {
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, 0, time.Time{}, false
	}

	courtID, args, err := h.selectedCourt(update, args)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return nil, 0, time.Time{}, false
	}
	if len(args) != 1 {
		h.replyError(ctx, b, chatID, errUsage)
		return nil, 0, time.Time{}, false
	}

	date, err := model.ParseDate(args[0])
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return nil, 0, time.Time{}, false
	}

	return user, courtID, date, true
}
