// Package memory хранилище в памяти процесса. Все операции выполняются
// под одним мьютексом, поэтому атомарны так же, как транзакции Postgres.
// Используется в тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/google/uuid"
)

type dayKey struct {
	courtID int64
	date    time.Time
}

type state struct {
	mu sync.Mutex

	users      map[int64]*model.User
	nextUserID int64

	courts      map[int64]*model.Court
	nextCourtID int64

	days     map[dayKey]*model.CalendarDay
	bookings map[uuid.UUID]*model.Booking

	now func() time.Time
}

// Store набор репозиториев над общим состоянием
type Store struct {
	Users    *UserRepository
	Courts   *CourtRepository
	Calendar *CalendarRepository
	Bookings *BookingRepository
}

func New() *Store {
	st := &state{
		users:    make(map[int64]*model.User),
		courts:   make(map[int64]*model.Court),
		days:     make(map[dayKey]*model.CalendarDay),
		bookings: make(map[uuid.UUID]*model.Booking),
		now:      time.Now,
	}

	return &Store{
		Users:    &UserRepository{st: st},
		Courts:   &CourtRepository{st: st},
		Calendar: &CalendarRepository{st: st},
		Bookings: &BookingRepository{st: st},
	}
}

func keyOf(courtID int64, date time.Time) dayKey {
	return dayKey{courtID: courtID, date: model.DateOf(date)}
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

func cloneCourt(c *model.Court) *model.Court {
	cp := *c
	cp.PricingRules = append([]byte(nil), c.PricingRules...)
	return &cp
}

// confirmedFor подтверждённые бронирования дня, вызывать под мьютексом
func (st *state) confirmedFor(key dayKey) []*model.Booking {
	var out []*model.Booking
	for _, b := range st.bookings {
		if b.CourtID == key.courtID && b.Date.Equal(key.date) && b.IsConfirmed() {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// cancel переводит бронирование в cancelled, вызывать под мьютексом
func (st *state) cancel(id uuid.UUID) (*model.Booking, bool) {
	b, ok := st.bookings[id]
	if !ok || !b.IsConfirmed() {
		return nil, false
	}
	now := st.now()
	b.Status = model.BookingStatusCancelled
	b.UpdatedAt = now
	b.CancelledAt = &now
	return cloneBooking(b), true
}

type UserRepository struct {
	st *state
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextUserID++
	user.ID = r.st.nextUserID
	user.CreatedAt = r.st.now()
	cp := *user
	r.st.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	u, ok := r.st.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, u := range r.st.users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.users[user.ID]; !ok {
		return model.ErrUserNotFound
	}
	cp := *user
	r.st.users[user.ID] = &cp
	return nil
}

type CourtRepository struct {
	st *state
}

func (r *CourtRepository) Create(_ context.Context, court *model.Court) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextCourtID++
	court.ID = r.st.nextCourtID
	court.CreatedAt = r.st.now()
	court.UpdatedAt = court.CreatedAt
	r.st.courts[court.ID] = cloneCourt(court)
	return nil
}

func (r *CourtRepository) GetByID(_ context.Context, id int64) (*model.Court, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	c, ok := r.st.courts[id]
	if !ok {
		return nil, model.ErrCourtNotFound
	}
	return cloneCourt(c), nil
}

func (r *CourtRepository) List(_ context.Context) ([]*model.Court, error) {
	return r.filter(func(*model.Court) bool { return true }), nil
}

func (r *CourtRepository) ListByOwner(_ context.Context, ownerID int64) ([]*model.Court, error) {
	return r.filter(func(c *model.Court) bool { return c.OwnerID == ownerID }), nil
}

func (r *CourtRepository) filter(keep func(*model.Court) bool) []*model.Court {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var out []*model.Court
	for _, c := range r.st.courts {
		if keep(c) {
			out = append(out, cloneCourt(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *CourtRepository) UpdateDaySchedule(_ context.Context, courtID int64, weekday time.Weekday, day model.DaySchedule) (*model.Court, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	c, ok := r.st.courts[courtID]
	if !ok {
		return nil, model.ErrCourtNotFound
	}
	c.WeeklySchedule[weekday] = day
	c.UpdatedAt = r.st.now()
	return cloneCourt(c), nil
}

type CalendarRepository struct {
	st *state
}

func (r *CalendarRepository) LatestDate(_ context.Context, courtID int64) (time.Time, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var latest time.Time
	found := false
	for k := range r.st.days {
		if k.courtID == courtID && (!found || k.date.After(latest)) {
			latest = k.date
			found = true
		}
	}
	return latest, found, nil
}

// MaterializeDays строит дни по шаблону корта под тем же мьютексом,
// что и UpdateDaySchedule
func (r *CalendarRepository) MaterializeDays(_ context.Context, courtID int64, dates []time.Time) (int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	court, ok := r.st.courts[courtID]
	if !ok {
		return 0, model.ErrCourtNotFound
	}

	inserted := 0
	for _, date := range dates {
		k := keyOf(courtID, date)
		if _, exists := r.st.days[k]; exists {
			continue
		}
		day := model.NewCalendarDay(courtID, k.date, court.WeeklySchedule)
		day.UpdatedAt = r.st.now()
		r.st.days[k] = day
		inserted++
	}
	return inserted, nil
}

func (r *CalendarRepository) DeleteDaysBefore(_ context.Context, before time.Time) (int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	before = model.DateOf(before)
	deleted := 0
	for k := range r.st.days {
		if k.date.Before(before) {
			delete(r.st.days, k)
			deleted++
		}
	}
	return deleted, nil
}

func (r *CalendarRepository) GetDay(_ context.Context, courtID int64, date time.Time) (*model.CalendarDay, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	d, ok := r.st.days[keyOf(courtID, date)]
	if !ok {
		return nil, model.ErrDayNotFound
	}
	return d.Clone(), nil
}

func (r *CalendarRepository) ListDays(_ context.Context, courtID int64, from, to time.Time) ([]*model.CalendarDay, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	from, to = model.DateOf(from), model.DateOf(to)
	var out []*model.CalendarDay
	for k, d := range r.st.days {
		if k.courtID == courtID && !k.date.Before(from) && k.date.Before(to) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *CalendarRepository) MutateDay(_ context.Context, courtID int64, date time.Time, fn model.DayMutator) (*model.CalendarDay, []*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	k := keyOf(courtID, date)
	stored, ok := r.st.days[k]
	if !ok {
		return nil, nil, model.ErrDayNotFound
	}
	court, ok := r.st.courts[courtID]
	if !ok {
		return nil, nil, model.ErrCourtNotFound
	}

	// fn работает с копией: при ошибке состояние не меняется
	day := stored.Clone()
	cancelIDs, err := fn(day, court.WeeklySchedule.Day(k.date), r.st.confirmedFor(k))
	if err != nil {
		return nil, nil, err
	}

	var cancelled []*model.Booking
	for _, id := range cancelIDs {
		if b, ok := r.st.cancel(id); ok {
			cancelled = append(cancelled, b)
		}
	}

	day.CourtID, day.Date = k.courtID, k.date
	day.UpdatedAt = r.st.now()
	r.st.days[k] = day

	return day.Clone(), cancelled, nil
}

type BookingRepository struct {
	st *state
}

func (r *BookingRepository) Allocate(_ context.Context, booking *model.Booking) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	k := keyOf(booking.CourtID, booking.Date)
	stored, ok := r.st.days[k]
	if !ok {
		return model.ErrScheduleNotConfigured
	}

	for _, b := range r.st.confirmedFor(k) {
		if b.StartTime == booking.StartTime {
			return model.ErrSlotUnavailable
		}
	}

	times := booking.CoveredSlots()
	for _, t := range times {
		i := stored.SlotAt(t)
		if i < 0 || !stored.Slots[i].Enabled {
			return model.ErrSlotUnavailable
		}
	}

	now := r.st.now()
	booking.Date = k.date
	booking.Status = model.BookingStatusConfirmed
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.st.bookings[booking.ID] = cloneBooking(booking)

	stored.Lock(booking.ID, times)
	stored.UpdatedAt = now

	return nil
}

func (r *BookingRepository) Cancel(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.bookings[id]; !ok {
		return nil, model.ErrBookingNotFound
	}

	cancelled, ok := r.st.cancel(id)
	if !ok {
		return nil, model.ErrAlreadyCancelled
	}

	// Дня может не быть: отмена бронирования всё равно проходит
	if day, ok := r.st.days[keyOf(cancelled.CourtID, cancelled.Date)]; ok {
		day.Release(cancelled.ID, cancelled.CoveredSlots())
		day.UpdatedAt = r.st.now()
	}

	return cancelled, nil
}

func (r *BookingRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	b, ok := r.st.bookings[id]
	if !ok {
		return nil, model.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) FindConfirmed(_ context.Context, courtID int64, date time.Time, start model.Clock) (*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, b := range r.st.confirmedFor(keyOf(courtID, date)) {
		if b.StartTime == start {
			return b, nil
		}
	}
	return nil, model.ErrBookingNotFound
}

func (r *BookingRepository) ListByPlayer(_ context.Context, playerID int64) ([]*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.PlayerID == playerID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (r *BookingRepository) ListByCourtDate(_ context.Context, courtID int64, date time.Time) ([]*model.Booking, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	k := keyOf(courtID, date)
	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.CourtID == k.courtID && b.Date.Equal(k.date) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}
