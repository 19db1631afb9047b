package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/court_booking/internal/controller/formatting"
	"github.com/Freeeeeet/court_booking/internal/model"
)

// FormatBooking форматирует бронирование для отображения
func FormatBooking(booking *model.Booking) string {
	display := formatting.GetBookingStatusDisplay(booking.Status)

	return fmt.Sprintf(
		"%s Бронь %s\n\n"+
			"🏟 Корт: #%d\n"+
			"📅 %s, %s\n"+
			"💰 %s\n"+
			"📊 Статус: %s",
		display.Emoji,
		booking.ID,
		booking.CourtID,
		formatting.FormatDateWithWeekday(booking.Date),
		formatting.FormatTimeRange(booking.StartTime, booking.EndTime),
		formatting.FormatPriceShort(booking.Price),
		display.Text,
	)
}

// FormatBookingLine одна строка списка бронирований
func FormatBookingLine(booking *model.Booking) string {
	display := formatting.GetBookingStatusDisplay(booking.Status)
	return fmt.Sprintf("%s %s %s, корт #%d\n   %s",
		display.Emoji,
		formatting.FormatDate(booking.Date),
		formatting.FormatTimeRange(booking.StartTime, booking.EndTime),
		booking.CourtID,
		booking.ID,
	)
}

// FormatDay слоты одного дня
func FormatDay(court *model.Court, day *model.CalendarDay) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏟 %s\n📅 %s\n\n", court.Name, formatting.FormatDateWithWeekday(day.Date))

	if day.IsClosed {
		sb.WriteString("⛔️ День закрыт")
		return sb.String()
	}
	if len(day.Slots) == 0 {
		sb.WriteString("Нет слотов")
		return sb.String()
	}

	for _, slot := range day.Slots {
		display := formatting.GetSlotDisplay(slot)
		fmt.Fprintf(&sb, "%s %s %s\n", display.Emoji, slot.Time, display.Text)
	}

	free := day.FreeCount()
	fmt.Fprintf(&sb, "\nСвободно: %d %s", free, formatting.PluralizeSlots(free))
	return sb.String()
}

// FormatCalendar сводка месяца: свободные слоты по дням
func FormatCalendar(court *model.Court, days []*model.CalendarDay) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏟 %s\n", court.Name)

	if len(days) == 0 {
		sb.WriteString("\nКалендарь на этот месяц ещё не открыт")
		return sb.String()
	}

	fmt.Fprintf(&sb, "🗓 %s %d\n\n", formatting.MonthName(days[0].Date.Month()), days[0].Date.Year())
	for _, day := range days {
		switch {
		case day.IsClosed:
			fmt.Fprintf(&sb, "%s ⛔️ закрыт\n", formatting.FormatDateWithWeekday(day.Date))
		case len(day.Slots) == 0:
			fmt.Fprintf(&sb, "%s — выходной\n", formatting.FormatDateWithWeekday(day.Date))
		default:
			free := day.FreeCount()
			fmt.Fprintf(&sb, "%s 🟢 %d %s\n", formatting.FormatDateWithWeekday(day.Date), free, formatting.PluralizeSlots(free))
		}
	}

	return sb.String()
}

// FormatCourt корт с недельным шаблоном
func FormatCourt(court *model.Court) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏟 #%d %s\n", court.ID, court.Name)

	// Неделя с понедельника
	for i := 1; i <= 7; i++ {
		weekday := i % 7
		day := court.WeeklySchedule[weekday]
		name := formatting.WeekdayShort(time.Weekday(weekday))
		if !day.Enabled {
			fmt.Fprintf(&sb, "   %s: выходной\n", name)
			continue
		}
		fmt.Fprintf(&sb, "   %s: %s\n", name, formatting.FormatTimeRange(day.Open, day.Close))
	}

	return sb.String()
}
