package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Хранилища, которые нужны сервисам. Реализации: repository (Postgres)
// и repository/memory. Отсутствие записи возвращается как ошибка
// категории model.ErrNotFound, а не как nil.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type CourtStore interface {
	Create(ctx context.Context, court *model.Court) error
	GetByID(ctx context.Context, id int64) (*model.Court, error)
	List(ctx context.Context) ([]*model.Court, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*model.Court, error)
	UpdateDaySchedule(ctx context.Context, courtID int64, weekday time.Weekday, day model.DaySchedule) (*model.Court, error)
}

type CalendarStore interface {
	// LatestDate последняя материализованная дата корта, false если дней нет
	LatestDate(ctx context.Context, courtID int64) (time.Time, bool, error)
	// MaterializeDays создаёт отсутствующие дни по недельному шаблону корта,
	// прочитанному атомарно со вставкой. Существующие дни не трогает.
	MaterializeDays(ctx context.Context, courtID int64, dates []time.Time) (int, error)
	// DeleteDaysBefore удаляет дни всех кортов раньше before. Бронирования остаются.
	DeleteDaysBefore(ctx context.Context, before time.Time) (int, error)
	GetDay(ctx context.Context, courtID int64, date time.Time) (*model.CalendarDay, error)
	// ListDays дни в полуинтервале [from, to) по возрастанию даты
	ListDays(ctx context.Context, courtID int64, from, to time.Time) ([]*model.CalendarDay, error)
	// MutateDay атомарно применяет fn к дню и отменяет возвращённые бронирования
	MutateDay(ctx context.Context, courtID int64, date time.Time, fn model.DayMutator) (*model.CalendarDay, []*model.Booking, error)
}

type BookingStore interface {
	// Allocate атомарно создаёт подтверждённое бронирование и занимает его слоты.
	// Если хоть один слот уже занят, ничего не меняется и возвращается ErrSlotUnavailable.
	Allocate(ctx context.Context, booking *model.Booking) error
	// Cancel атомарно отменяет подтверждённое бронирование и освобождает его слоты
	Cancel(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindConfirmed(ctx context.Context, courtID int64, date time.Time, start model.Clock) (*model.Booking, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]*model.Booking, error)
	ListByCourtDate(ctx context.Context, courtID int64, date time.Time) ([]*model.Booking, error)
}

// PriceCalculator внешний расчёт цены, результат для ядра непрозрачен
type PriceCalculator interface {
	Calculate(rules json.RawMessage, date time.Time, start model.Clock, duration model.Duration) (decimal.Decimal, error)
}

// CalendarCache кэш месячных календарей для чтения.
// GetMonth отдаёт версию месяца, SetMonth пишет под ней. Инвалидация меняет
// версию, поэтому запись, начатая до неё, читателям уже не видна.
type CalendarCache interface {
	GetMonth(ctx context.Context, courtID int64, month time.Time) (days []*model.CalendarDay, version int64, ok bool, err error)
	SetMonth(ctx context.Context, courtID int64, month time.Time, version int64, days []*model.CalendarDay) error
	InvalidateMonth(ctx context.Context, courtID int64, month time.Time) error
}

// NopCache кэш по умолчанию, ничего не хранит
type NopCache struct{}

func (NopCache) GetMonth(context.Context, int64, time.Time) ([]*model.CalendarDay, int64, bool, error) {
	return nil, 0, false, nil
}

func (NopCache) SetMonth(context.Context, int64, time.Time, int64, []*model.CalendarDay) error {
	return nil
}

func (NopCache) InvalidateMonth(context.Context, int64, time.Time) error {
	return nil
}

// monthOf первый день месяца даты
func monthOf(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}
