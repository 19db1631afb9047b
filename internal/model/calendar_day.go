package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Slot получасовой бронируемый интервал.
// Enabled=false без BookingID означает блокировку владельцем,
// с BookingID - слот держит подтверждённое бронирование.
type Slot struct {
	Time      Clock      `json:"time"`
	Enabled   bool       `json:"enabled"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
}

// IsBlocked слот закрыт владельцем, а не бронированием
func (s Slot) IsBlocked() bool {
	return !s.Enabled && s.BookingID == nil
}

// CalendarDay материализованный день календаря корта
type CalendarDay struct {
	CourtID   int64     `json:"court_id"`
	Date      time.Time `json:"date"`
	IsClosed  bool      `json:"is_closed"`
	Slots     []Slot    `json:"slots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotAt возвращает индекс слота с временем t или -1
func (d *CalendarDay) SlotAt(t Clock) int {
	for i := range d.Slots {
		if d.Slots[i].Time == t {
			return i
		}
	}
	return -1
}

// Lock помечает слоты как занятые бронированием
func (d *CalendarDay) Lock(bookingID uuid.UUID, times []Clock) {
	for _, t := range times {
		if i := d.SlotAt(t); i >= 0 {
			id := bookingID
			d.Slots[i].Enabled = false
			d.Slots[i].BookingID = &id
		}
	}
}

// Release освобождает слоты, которые держит указанное бронирование
func (d *CalendarDay) Release(bookingID uuid.UUID, times []Clock) int {
	released := 0
	for _, t := range times {
		i := d.SlotAt(t)
		if i < 0 {
			continue
		}
		if d.Slots[i].BookingID != nil && *d.Slots[i].BookingID == bookingID {
			d.Slots[i].Enabled = true
			d.Slots[i].BookingID = nil
			released++
		}
	}
	return released
}

// FreeCount количество доступных слотов
func (d *CalendarDay) FreeCount() int {
	n := 0
	for _, s := range d.Slots {
		if s.Enabled {
			n++
		}
	}
	return n
}

// Clone глубокая копия дня
func (d *CalendarDay) Clone() *CalendarDay {
	c := *d
	c.Slots = make([]Slot, len(d.Slots))
	for i, s := range d.Slots {
		c.Slots[i] = s
		if s.BookingID != nil {
			id := *s.BookingID
			c.Slots[i].BookingID = &id
		}
	}
	return &c
}

// GenerateSlots строит сетку с шагом 30 минут на полуинтервале [open, close)
func GenerateSlots(open, close Clock) []Slot {
	slots := make([]Slot, 0)
	for t := open; t < close; t = t.Add(SlotMinutes) {
		slots = append(slots, Slot{Time: t, Enabled: true})
	}
	return slots
}

// TemplateSlots сетка для дня по шаблону, пустая если день выключен
func TemplateSlots(day DaySchedule) []Slot {
	if !day.Enabled {
		return []Slot{}
	}
	return GenerateSlots(day.Open, day.Close)
}

// NewCalendarDay строит новый день из недельного шаблона
func NewCalendarDay(courtID int64, date time.Time, schedule WeeklySchedule) *CalendarDay {
	return &CalendarDay{
		CourtID: courtID,
		Date:    DateOf(date),
		Slots:   TemplateSlots(schedule.Day(date)),
	}
}

// MergeSlots пересчитывает слоты дня из шаблона, не теряя занятость.
// Результат = сетка шаблона ∪ слоты подтверждённых бронирований.
// Слот выключен, если его держит подтверждённое бронирование
// или он был заблокирован владельцем и остался в новой сетке.
func MergeSlots(template []Slot, existing []Slot, confirmed []*Booking) []Slot {
	blocked := make(map[Clock]bool, len(existing))
	for _, s := range existing {
		if s.IsBlocked() {
			blocked[s.Time] = true
		}
	}

	held := make(map[Clock]uuid.UUID)
	for _, b := range confirmed {
		if !b.IsConfirmed() {
			continue
		}
		for _, t := range b.CoveredSlots() {
			held[t] = b.ID
		}
	}

	byTime := make(map[Clock]Slot, len(template)+len(held))
	for _, s := range template {
		byTime[s.Time] = Slot{Time: s.Time, Enabled: !blocked[s.Time]}
	}
	for t, id := range held {
		bookingID := id
		byTime[t] = Slot{Time: t, Enabled: false, BookingID: &bookingID}
	}

	merged := make([]Slot, 0, len(byTime))
	for _, s := range byTime {
		merged = append(merged, s)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time < merged[j].Time })

	return merged
}

// DayMutator изменяет день под блокировкой хранилища.
// template - шаблон этого дня из текущего расписания корта, confirmed -
// подтверждённые бронирования дня; оба прочитаны после блокировки.
// Возвращает бронирования, которые нужно отменить в той же транзакции.
type DayMutator func(day *CalendarDay, template DaySchedule, confirmed []*Booking) ([]uuid.UUID, error)
