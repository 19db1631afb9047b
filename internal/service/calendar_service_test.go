package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalendar_EnsureAheadIdempotent(t *testing.T) {
	store := memory.New()
	now := testNow
	calendar := NewCalendarService(store.Courts, store.Calendar, nil, CalendarOptions{
		MonthsAhead: 1,
		Now:         func() time.Time { return now },
	}, zap.NewNop())

	court := &model.Court{OwnerID: 1, Name: "A"}
	court.WeeklySchedule[time.Monday] = model.DaySchedule{Enabled: true, Open: model.MustClock("09:00"), Close: model.MustClock("11:00")}
	require.NoError(t, store.Courts.Create(context.Background(), court))

	ctx := context.Background()

	// 3 марта .. 3 апреля включительно
	inserted, err := calendar.EnsureAhead(ctx, court.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 32, inserted)

	inserted, err = calendar.EnsureAhead(ctx, court.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	// Через неделю достраиваются только новые дни
	now = now.AddDate(0, 0, 7)
	inserted, err = calendar.EnsureAhead(ctx, court.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, inserted)

	latest, ok, err := store.Calendar.LatestDate(ctx, court.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), latest)

	days, err := store.Calendar.ListDays(ctx, court.ID, testNow, latest.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, days, 39)
	for _, d := range days {
		if d.Date.Weekday() == time.Monday {
			assert.Len(t, d.Slots, 4, d.Date)
		} else {
			assert.Empty(t, d.Slots, d.Date)
		}
	}
}

func TestCalendar_MaterializeAll(t *testing.T) {
	env := newTestEnv(t)
	first := env.mondayCourt(t)
	second := env.mondayCourt(t)
	ctx := context.Background()

	// Корты уже материализованы при создании
	require.NoError(t, env.calendar.MaterializeAll(ctx))

	for _, id := range []int64{first.ID, second.ID} {
		latest, ok, err := env.store.Calendar.LatestDate(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), latest)
	}

	inserted, err := env.calendar.Materialize(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	_, err = env.calendar.Materialize(ctx, 999)
	assert.ErrorIs(t, err, model.ErrCourtNotFound)
}

func TestCalendar_RegeneratePreservesBookings(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	booking := env.book(t, env.player, court.ID, "10:00", model.DurationHour)

	blockedMonday := nextMonday.AddDate(0, 0, 7)
	_, _, err := env.calendar.UpdateSlot(ctx, env.owner, court.ID, blockedMonday, model.MustClock("09:00"), false)
	require.NoError(t, err)

	closedMonday := nextMonday.AddDate(0, 0, 14)
	_, _, err = env.calendar.CloseDay(ctx, env.owner, court.ID, closedMonday)
	require.NoError(t, err)

	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Monday, model.DaySchedule{
		Enabled: true,
		Open:    model.MustClock("09:00"),
		Close:   model.MustClock("10:00"),
	})
	require.NoError(t, err)

	day, err := env.calendar.GetDay(ctx, court.ID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotTimes(day))
	assert.True(t, slotAt(t, day, "09:00").Enabled)
	for _, at := range []string{"10:00", "10:30"} {
		s := slotAt(t, day, at)
		assert.False(t, s.Enabled)
		require.NotNil(t, s.BookingID)
		assert.Equal(t, booking.ID, *s.BookingID)
	}

	blocked, err := env.calendar.GetDay(ctx, court.ID, blockedMonday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slotTimes(blocked))
	assert.True(t, slotAt(t, blocked, "09:00").IsBlocked())

	closed, err := env.calendar.GetDay(ctx, court.ID, closedMonday)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	assert.Empty(t, closed.Slots)

	// Бронирование по-прежнему действует и отменяется как обычно
	_, err = env.bookings.CancelBooking(ctx, env.player, booking.ID)
	require.NoError(t, err)
	day, err = env.calendar.GetDay(ctx, court.ID, nextMonday)
	require.NoError(t, err)
	assert.True(t, slotAt(t, day, "10:00").Enabled)
}

func TestCalendar_DisableWeekday(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	updated, err := env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Monday, model.DaySchedule{
		Enabled: false,
		Open:    model.MustClock("09:00"),
		Close:   model.MustClock("11:00"),
	})
	require.NoError(t, err)
	assert.False(t, updated.WeeklySchedule[time.Monday].Enabled)
	assert.Equal(t, model.Clock(0), updated.WeeklySchedule[time.Monday].Open)

	day, err := env.calendar.GetDay(ctx, court.ID, nextMonday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestCalendar_UpdateWeeklyScheduleErrors(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	valid := model.DaySchedule{Enabled: true, Open: model.MustClock("08:00"), Close: model.MustClock("12:00")}

	_, err := env.courts.UpdateWeeklySchedule(ctx, env.player, court.ID, time.Monday, valid)
	assert.ErrorIs(t, err, model.ErrNotCourtOwner)

	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Weekday(7), valid)
	assert.ErrorIs(t, err, model.ErrInvalidWeekday)

	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Monday, model.DaySchedule{
		Enabled: true,
		Open:    model.MustClock("12:00"),
		Close:   model.MustClock("08:00"),
	})
	assert.ErrorIs(t, err, model.ErrInvalidSchedule)

	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, 999, time.Monday, valid)
	assert.ErrorIs(t, err, model.ErrCourtNotFound)
}

func TestCalendar_UpdateSlotCancelsBooking(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	booking := env.book(t, env.player, court.ID, "10:00", model.DurationHour)

	day, cancelled, err := env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday, model.MustClock("10:30"), false)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, booking.ID, cancelled[0].ID)
	assert.Equal(t, model.BookingStatusCancelled, cancelled[0].Status)

	assert.True(t, slotAt(t, day, "10:00").Enabled)
	assert.True(t, slotAt(t, day, "10:30").IsBlocked())

	stored, err := env.bookings.GetBooking(ctx, env.player, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status)

	// Слот снова включается владельцем
	day, cancelled, err = env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday, model.MustClock("10:30"), true)
	require.NoError(t, err)
	assert.Empty(t, cancelled)
	assert.True(t, slotAt(t, day, "10:30").Enabled)
}

func TestCalendar_UpdateSlotErrors(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	env.book(t, env.player, court.ID, "09:00", model.DurationHour)

	_, _, err := env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday, model.MustClock("09:00"), true)
	assert.ErrorIs(t, err, model.ErrSlotBooked)

	_, _, err = env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday, model.MustClock("12:00"), false)
	assert.ErrorIs(t, err, model.ErrSlotNotFound)

	_, _, err = env.calendar.UpdateSlot(ctx, env.player, court.ID, nextMonday, model.MustClock("10:00"), false)
	assert.ErrorIs(t, err, model.ErrNotCourtOwner)

	_, _, err = env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday.AddDate(1, 0, 0), model.MustClock("10:00"), false)
	assert.ErrorIs(t, err, model.ErrDayNotFound)

	// Ошибка внутри мутации не меняет день
	day, err := env.calendar.GetDay(ctx, court.ID, nextMonday)
	require.NoError(t, err)
	assert.NotNil(t, slotAt(t, day, "09:00").BookingID)
}

func TestCalendar_CloseAndReopenDay(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	first := env.book(t, env.player, court.ID, "09:00", model.DurationHour)
	second := env.book(t, env.other, court.ID, "10:00", model.DurationHour)

	_, _, err := env.calendar.CloseDay(ctx, env.player, court.ID, nextMonday)
	assert.ErrorIs(t, err, model.ErrNotCourtOwner)

	day, cancelled, err := env.calendar.CloseDay(ctx, env.owner, court.ID, nextMonday)
	require.NoError(t, err)
	assert.True(t, day.IsClosed)
	assert.Empty(t, day.Slots)
	require.Len(t, cancelled, 2)
	for _, b := range cancelled {
		assert.Equal(t, model.BookingStatusCancelled, b.Status)
	}

	_, err = env.bookings.CreateBooking(ctx, env.player, BookingRequest{
		CourtID:   court.ID,
		Date:      nextMonday,
		StartTime: model.MustClock("09:00"),
		Duration:  model.DurationHour,
	})
	assert.ErrorIs(t, err, model.ErrSlotNotFound)

	day, err = env.calendar.ReopenDay(ctx, env.owner, court.ID, nextMonday)
	require.NoError(t, err)
	assert.False(t, day.IsClosed)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotTimes(day))
	assert.Equal(t, 4, day.FreeCount())

	for _, id := range []model.Caller{env.player, env.other} {
		list, err := env.bookings.GetPlayerBookings(ctx, id)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, model.BookingStatusCancelled, list[0].Status)
		assert.Contains(t, []string{first.ID.String(), second.ID.String()}, list[0].ID.String())
	}

	// День снова бронируется
	env.book(t, env.player, court.ID, "09:00", model.DurationHourAndAHalf)
}

func TestCalendar_CloseUnknownDay(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)

	_, _, err := env.calendar.CloseDay(context.Background(), env.owner, court.ID, nextMonday.AddDate(1, 0, 0))
	assert.ErrorIs(t, err, model.ErrDayNotFound)

	_, err = env.calendar.ReopenDay(context.Background(), env.owner, 999, nextMonday)
	assert.ErrorIs(t, err, model.ErrCourtNotFound)
}

func TestCalendar_StorageErrors(t *testing.T) {
	fc := &failingCalendar{failOn: make(map[string]error)}
	env := newTestEnvWith(t, func(cs CalendarStore) CalendarStore {
		fc.CalendarStore = cs
		return fc
	})
	court := env.mondayCourt(t)
	ctx := context.Background()

	dbErr := model.StorageError("latest calendar date", errors.New("connection refused"))
	fc.fail("LatestDate", dbErr)

	_, err := env.calendar.EnsureAhead(ctx, court.ID, 0)
	assert.ErrorIs(t, err, model.ErrStorage)

	assert.ErrorIs(t, env.calendar.MaterializeAll(ctx), model.ErrStorage)

	// Достройка при чтении не мешает отдать уже материализованный месяц
	days, err := env.calendar.GetCalendar(ctx, court.ID, nextMonday)
	require.NoError(t, err)
	assert.NotEmpty(t, days)

	fc.fail("ListDays", model.StorageError("list calendar days", errors.New("timeout")))
	env.cache.clear()
	_, err = env.calendar.GetCalendar(ctx, court.ID, nextMonday)
	assert.ErrorIs(t, err, model.ErrStorage)
}

type brokenCache struct{}

func (brokenCache) GetMonth(context.Context, int64, time.Time) ([]*model.CalendarDay, int64, bool, error) {
	return nil, 0, false, errors.New("redis down")
}

func (brokenCache) SetMonth(context.Context, int64, time.Time, int64, []*model.CalendarDay) error {
	return errors.New("redis down")
}

func (brokenCache) InvalidateMonth(context.Context, int64, time.Time) error {
	return errors.New("redis down")
}

func TestCalendar_CacheErrorsAreNotFatal(t *testing.T) {
	store := memory.New()
	calendar := NewCalendarService(store.Courts, store.Calendar, brokenCache{}, CalendarOptions{
		MonthsAhead:       1,
		MaterializeOnRead: true,
		Now:               func() time.Time { return testNow },
	}, zap.NewNop())

	court := &model.Court{OwnerID: 1, Name: "A"}
	court.WeeklySchedule[time.Monday] = model.DaySchedule{Enabled: true, Open: model.MustClock("09:00"), Close: model.MustClock("11:00")}
	require.NoError(t, store.Courts.Create(context.Background(), court))

	days, err := calendar.GetCalendar(context.Background(), court.ID, nextMonday)
	require.NoError(t, err)
	assert.Len(t, days, 29) // 3..31 марта
}

func TestCalendar_EnsureAheadUsesCurrentSchedule(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	// Снимок корта, прочитанный до смены расписания
	stale, err := env.store.Courts.GetByID(ctx, court.ID)
	require.NoError(t, err)

	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Monday, model.DaySchedule{
		Enabled: true,
		Open:    model.MustClock("12:00"),
		Close:   model.MustClock("13:00"),
	})
	require.NoError(t, err)

	inserted, err := env.calendar.EnsureAhead(ctx, stale.ID, 3)
	require.NoError(t, err)
	assert.Positive(t, inserted)

	for _, date := range []time.Time{nextMonday, time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)} {
		day, err := env.calendar.GetDay(ctx, court.ID, date)
		require.NoError(t, err)
		assert.Equal(t, []string{"12:00", "12:30"}, slotTimes(day), date)
	}
}

func TestCalendar_ReopenUsesCurrentSchedule(t *testing.T) {
	env := newTestEnv(t)
	court := env.mondayCourt(t)
	ctx := context.Background()

	_, _, err := env.calendar.CloseDay(ctx, env.owner, court.ID, nextMonday)
	require.NoError(t, err)

	// Закрытые дни регенерация пропускает, сетку даёт открытие
	_, err = env.courts.UpdateWeeklySchedule(ctx, env.owner, court.ID, time.Monday, model.DaySchedule{
		Enabled: true,
		Open:    model.MustClock("18:00"),
		Close:   model.MustClock("19:00"),
	})
	require.NoError(t, err)

	day, err := env.calendar.ReopenDay(ctx, env.owner, court.ID, nextMonday)
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00", "18:30"}, slotTimes(day))
}

func TestCalendar_CachedMonthSurvivesRacingUpdate(t *testing.T) {
	fc := &failingCalendar{failOn: make(map[string]error)}
	env := newTestEnvWith(t, func(cs CalendarStore) CalendarStore {
		fc.CalendarStore = cs
		return fc
	})
	court := env.mondayCourt(t)
	ctx := context.Background()

	// Владелец блокирует слот, пока прочитанный месяц ещё не попал в кэш
	fc.mu.Lock()
	fc.afterList = func() {
		_, _, err := env.calendar.UpdateSlot(ctx, env.owner, court.ID, nextMonday, model.MustClock("09:00"), false)
		require.NoError(t, err)
	}
	fc.mu.Unlock()

	_, err := env.calendar.GetCalendar(ctx, court.ID, nextMonday)
	require.NoError(t, err)

	days, err := env.calendar.GetCalendar(ctx, court.ID, nextMonday)
	require.NoError(t, err)

	var monday *model.CalendarDay
	for _, d := range days {
		if d.Date.Equal(nextMonday) {
			monday = d
		}
	}
	require.NotNil(t, monday)
	assert.True(t, slotAt(t, monday, "09:00").IsBlocked())
}

func TestCalendar_Prune(t *testing.T) {
	store := memory.New()
	now := testNow
	calendar := NewCalendarService(store.Courts, store.Calendar, nil, CalendarOptions{
		MonthsAhead: 1,
		RetainDays:  7,
		Now:         func() time.Time { return now },
	}, zap.NewNop())
	ctx := context.Background()

	court := &model.Court{OwnerID: 1, Name: "A"}
	require.NoError(t, store.Courts.Create(ctx, court))
	_, err := calendar.EnsureAhead(ctx, court.ID, 0)
	require.NoError(t, err)

	deleted, err := calendar.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// 20 марта: хранятся дни с 13 марта
	now = time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC)
	deleted, err = calendar.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted)

	days, err := store.Calendar.ListDays(ctx, court.ID, testNow, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), days[0].Date)

	keepAll := NewCalendarService(store.Courts, store.Calendar, nil, CalendarOptions{Now: func() time.Time { return now }}, zap.NewNop())
	deleted, err = keepAll.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
