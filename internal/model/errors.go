package model

import (
	"errors"
	"fmt"
)

// Категории ошибок. Конкретные ошибки оборачивают одну из них,
// транспорт решает по категории, какой ответ вернуть.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage error")
)

var (
	ErrInvalidDuration = fmt.Errorf("%w: duration must be 1h or 1.5h", ErrValidation)
	ErrInvalidSchedule = fmt.Errorf("%w: invalid day schedule", ErrValidation)
	ErrInvalidWeekday  = fmt.Errorf("%w: weekday must be 0..6", ErrValidation)
	ErrSlotInPast      = fmt.Errorf("%w: slot is in the past", ErrValidation)

	ErrCourtNotFound         = fmt.Errorf("court %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrBookingNotFound       = fmt.Errorf("booking %w", ErrNotFound)
	ErrDayNotFound           = fmt.Errorf("calendar day %w", ErrNotFound)
	ErrScheduleNotConfigured = fmt.Errorf("schedule not configured: %w", ErrDayNotFound)
	ErrSlotNotFound          = fmt.Errorf("slot %w", ErrNotFound)
	ErrSecondSlotNotFound    = fmt.Errorf("second %w", ErrSlotNotFound)

	ErrSlotUnavailable       = fmt.Errorf("%w: slot unavailable", ErrConflict)
	ErrSecondSlotUnavailable = fmt.Errorf("second %w", ErrSlotUnavailable)
	ErrSlotBooked            = fmt.Errorf("%w: slot is held by a confirmed booking", ErrConflict)
	ErrAlreadyCancelled      = fmt.Errorf("%w: booking already cancelled", ErrConflict)

	ErrNotCourtOwner   = fmt.Errorf("%w: caller is not the court owner", ErrUnauthorized)
	ErrNotBookingParty = fmt.Errorf("%w: caller is neither the player nor the court owner", ErrUnauthorized)
)

// StorageError помечает ошибку хранилища категорией ErrStorage, сохраняя исходную
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}
