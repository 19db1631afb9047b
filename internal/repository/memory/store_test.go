package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// seedDay создаёт корт 1, открытый по понедельникам 09:00-11:00, и материализует day
func seedDay(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	court := &model.Court{OwnerID: 1, Name: "A"}
	court.WeeklySchedule[time.Monday] = model.DaySchedule{Enabled: true, Open: model.MustClock("09:00"), Close: model.MustClock("11:00")}
	require.NoError(t, s.Courts.Create(ctx, court))
	require.Equal(t, int64(1), court.ID)

	n, err := s.Calendar.MaterializeDays(ctx, court.ID, []time.Time{day})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func newBooking(start string, d model.Duration) *model.Booking {
	c := model.MustClock(start)
	return &model.Booking{
		ID:        uuid.New(),
		CourtID:   1,
		PlayerID:  7,
		Date:      day,
		StartTime: c,
		EndTime:   c.Add(d.Minutes()),
		Duration:  d,
		Price:     decimal.NewFromInt(100),
		Status:    model.BookingStatusConfirmed,
	}
}

func TestCalendar_MaterializeDaysSkipsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	b := newBooking("09:00", model.DurationHour)
	require.NoError(t, s.Bookings.Allocate(ctx, b))

	n, err := s.Calendar.MaterializeDays(ctx, 1, []time.Time{day, day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Существующий день с занятыми слотами не перезаписан
	stored, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	assert.Len(t, stored.Slots, 4)
	assert.Equal(t, 2, stored.FreeCount())

	tuesday, err := s.Calendar.GetDay(ctx, 1, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, tuesday.Slots)

	_, err = s.Calendar.GetDay(ctx, 2, day)
	assert.ErrorIs(t, err, model.ErrDayNotFound)

	_, err = s.Calendar.MaterializeDays(ctx, 2, []time.Time{day})
	assert.ErrorIs(t, err, model.ErrCourtNotFound)
}

func TestCalendar_MaterializeDaysReadsCurrentSchedule(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	// Корт прочитан до смены расписания
	stale, err := s.Courts.GetByID(ctx, 1)
	require.NoError(t, err)

	_, err = s.Courts.UpdateDaySchedule(ctx, stale.ID, time.Monday, model.DaySchedule{
		Enabled: true,
		Open:    model.MustClock("12:00"),
		Close:   model.MustClock("13:00"),
	})
	require.NoError(t, err)

	nextMonday := day.AddDate(0, 0, 7)
	_, err = s.Calendar.MaterializeDays(ctx, stale.ID, []time.Time{nextMonday})
	require.NoError(t, err)

	got, err := s.Calendar.GetDay(ctx, stale.ID, nextMonday)
	require.NoError(t, err)
	require.Len(t, got.Slots, 2)
	assert.Equal(t, model.MustClock("12:00"), got.Slots[0].Time)
	assert.Equal(t, model.MustClock("12:30"), got.Slots[1].Time)
}

func TestCalendar_DeleteDaysBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	_, err := s.Calendar.MaterializeDays(ctx, 1, []time.Time{day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)})
	require.NoError(t, err)

	n, err := s.Calendar.DeleteDaysBefore(ctx, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	days, err := s.Calendar.ListDays(ctx, 1, day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, day.AddDate(0, 0, 2), days[0].Date)
}

func TestBookings_AllocateIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	require.NoError(t, s.Bookings.Allocate(ctx, newBooking("10:00", model.DurationHour)))

	// 09:30-11:00 упирается в занятый 10:00, ничего не должно заблокироваться
	err := s.Bookings.Allocate(ctx, newBooking("09:30", model.DurationHourAndAHalf))
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	stored, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	assert.True(t, stored.Slots[1].Enabled)
	assert.Equal(t, 2, stored.FreeCount())

	err = s.Bookings.Allocate(ctx, &model.Booking{ID: uuid.New(), CourtID: 1, Date: day.AddDate(0, 0, 5), StartTime: model.MustClock("09:00"), EndTime: model.MustClock("10:00")})
	assert.ErrorIs(t, err, model.ErrScheduleNotConfigured)
}

func TestBookings_CancelReleasesSlots(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	b := newBooking("09:00", model.DurationHourAndAHalf)
	require.NoError(t, s.Bookings.Allocate(ctx, b))

	found, err := s.Bookings.FindConfirmed(ctx, 1, day, model.MustClock("09:00"))
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	cancelled, err := s.Bookings.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	stored, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.FreeCount())

	_, err = s.Bookings.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyCancelled)
	_, err = s.Bookings.Cancel(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrBookingNotFound)

	_, err = s.Bookings.FindConfirmed(ctx, 1, day, model.MustClock("09:00"))
	assert.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestBookings_CancelWithoutCalendarDay(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	b := newBooking("09:00", model.DurationHour)
	require.NoError(t, s.Bookings.Allocate(ctx, b))

	_, err := s.Calendar.DeleteDaysBefore(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = s.Calendar.GetDay(ctx, 1, day)
	require.ErrorIs(t, err, model.ErrDayNotFound)

	cancelled, err := s.Bookings.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	stored, err := s.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status)
	assert.NotNil(t, stored.CancelledAt)

	// День не появился заново
	_, err = s.Calendar.GetDay(ctx, 1, day)
	assert.ErrorIs(t, err, model.ErrDayNotFound)
}

func TestCalendar_MutateDayRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	b := newBooking("09:00", model.DurationHour)
	require.NoError(t, s.Bookings.Allocate(ctx, b))

	boom := errors.New("boom")
	_, _, err := s.Calendar.MutateDay(ctx, 1, day, func(d *model.CalendarDay, template model.DaySchedule, confirmed []*model.Booking) ([]uuid.UUID, error) {
		assert.True(t, template.Enabled)
		assert.Equal(t, model.MustClock("11:00"), template.Close)
		require.Len(t, confirmed, 1)
		d.IsClosed = true
		d.Slots = nil
		return []uuid.UUID{b.ID}, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	assert.False(t, stored.IsClosed)
	assert.Len(t, stored.Slots, 4)

	got, err := s.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsConfirmed())

	updated, cancelled, err := s.Calendar.MutateDay(ctx, 1, day, func(d *model.CalendarDay, _ model.DaySchedule, _ []*model.Booking) ([]uuid.UUID, error) {
		d.IsClosed = true
		d.Slots = []model.Slot{}
		return []uuid.UUID{b.ID}, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsClosed)
	require.Len(t, cancelled, 1)
	assert.Equal(t, b.ID, cancelled[0].ID)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedDay(t, s)

	d, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	d.Slots[0].Enabled = false

	again, err := s.Calendar.GetDay(ctx, 1, day)
	require.NoError(t, err)
	assert.True(t, again.Slots[0].Enabled)
}
