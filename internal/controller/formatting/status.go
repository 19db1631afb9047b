package formatting

import "github.com/Freeeeeet/court_booking/internal/model"

// StatusDisplay emoji и текст для отображения состояния
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetSlotDisplay возвращает emoji и текст для слота
func GetSlotDisplay(slot model.Slot) StatusDisplay {
	switch {
	case slot.Enabled:
		return StatusDisplay{"🟢", "Свободен"}
	case slot.BookingID != nil:
		return StatusDisplay{"🔴", "Занят"}
	default:
		return StatusDisplay{"⚫️", "Закрыт"}
	}
}

// GetBookingStatusDisplay возвращает emoji и текст для статуса бронирования
func GetBookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusConfirmed: {"✅", "Подтверждена"},
		model.BookingStatusCancelled: {"❌", "Отменена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
