package handlers

import (
	"errors"

	"github.com/Freeeeeet/court_booking/internal/model"
)

// Ошибки разбора команд
var (
	errNoCourt = errors.New("court is not selected")
	errUsage   = errors.New("wrong command usage")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// Сначала конкретные ошибки, потом категории.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, errNoCourt):
		return "❌ Корт не выбран. Укажите ID корта или выберите его: /usecourt <id>"
	case errors.Is(err, errUsage):
		return "❌ Неверный формат команды. Справка: /help"
	case errors.Is(err, model.ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, model.ErrCourtNotFound):
		return "❌ Корт не найден"
	case errors.Is(err, model.ErrBookingNotFound):
		return "❌ Бронирование не найдено"
	case errors.Is(err, model.ErrScheduleNotConfigured):
		return "❌ На эту дату расписание ещё не открыто"
	case errors.Is(err, model.ErrDayNotFound):
		return "❌ День не найден в календаре"
	case errors.Is(err, model.ErrSecondSlotNotFound):
		return "❌ Корт закрывается раньше конца брони. Выберите 1 час или другое время"
	case errors.Is(err, model.ErrSlotNotFound):
		return "❌ Такого слота нет в расписании"
	case errors.Is(err, model.ErrSecondSlotUnavailable):
		return "❌ Следующий слот уже занят. Выберите 1 час или другое время"
	case errors.Is(err, model.ErrSlotUnavailable):
		return "❌ Слот уже занят"
	case errors.Is(err, model.ErrSlotBooked):
		return "❌ Слот занят бронированием"
	case errors.Is(err, model.ErrAlreadyCancelled):
		return "❌ Бронирование уже отменено"
	case errors.Is(err, model.ErrSlotInPast):
		return "❌ Это время уже прошло"
	case errors.Is(err, model.ErrInvalidDuration):
		return "❌ Длительность может быть только 1h или 1.5h"
	case errors.Is(err, model.ErrNotCourtOwner):
		return "❌ Эта команда доступна только владельцу корта.\n\nСтать владельцем: /becomeowner"
	case errors.Is(err, model.ErrNotBookingParty):
		return "❌ Это не ваше бронирование"
	case errors.Is(err, model.ErrValidation):
		return "❌ Неверные данные: " + err.Error()
	case errors.Is(err, model.ErrConflict):
		return "❌ Операция невозможна в текущем состоянии"
	case errors.Is(err, model.ErrNotFound):
		return "❌ Не найдено"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
