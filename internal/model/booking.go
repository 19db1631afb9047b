package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed" // Держит слоты
	BookingStatusCancelled BookingStatus = "cancelled" // Финальное состояние
)

type Booking struct {
	ID          uuid.UUID       `json:"id"`
	CourtID     int64           `json:"court_id"`
	PlayerID    int64           `json:"player_id"`
	Date        time.Time       `json:"date"`
	StartTime   Clock           `json:"start_time"`
	EndTime     Clock           `json:"end_time"`
	Duration    Duration        `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	Status      BookingStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
}

// IsConfirmed проверяет, держит ли бронирование слоты
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// CoveredSlots возвращает все получасовые слоты в [StartTime, EndTime)
func (b *Booking) CoveredSlots() []Clock {
	n := int(b.EndTime-b.StartTime) / SlotMinutes
	times := make([]Clock, 0, n)
	for i := 0; i < n; i++ {
		times = append(times, b.StartTime.Add(i*SlotMinutes))
	}
	return times
}
