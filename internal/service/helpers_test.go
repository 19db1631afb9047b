package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/pricing"
	"github.com/Freeeeeet/court_booking/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testNow понедельник 3 марта 2025, 08:00 UTC
var testNow = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

// nextMonday понедельник через неделю после testNow
var nextMonday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *memory.Store
	cache    *recordingCache
	calendar *CalendarService
	courts   *CourtService
	bookings *BookingService
	users    *UserService

	owner  model.Caller
	player model.Caller
	other  model.Caller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith позволяет подменить хранилище календаря
func newTestEnvWith(t *testing.T, wrap func(CalendarStore) CalendarStore) *testEnv {
	t.Helper()

	store := memory.New()
	logger := zap.NewNop()

	var calendarStore CalendarStore = store.Calendar
	if wrap != nil {
		calendarStore = wrap(calendarStore)
	}

	cache := newRecordingCache()
	calendar := NewCalendarService(store.Courts, calendarStore, cache, CalendarOptions{
		Location:          time.UTC,
		MonthsAhead:       1,
		MaterializeOnRead: true,
		Now:               func() time.Time { return testNow },
	}, logger)

	env := &testEnv{
		store:    store,
		cache:    cache,
		calendar: calendar,
		courts:   NewCourtService(store.Users, store.Courts, calendar, logger),
		bookings: NewBookingService(store.Courts, calendarStore, store.Bookings, calendar, pricing.NewRuleCalculator(decimal.NewFromInt(1000)), logger),
		users:    NewUserService(store.Users, logger),
	}

	ctx := context.Background()
	owner, err := env.users.RegisterUser(ctx, 100, "owner", "Olga", "", "ru")
	require.NoError(t, err)
	owner, err = env.users.MakeOwner(ctx, 100)
	require.NoError(t, err)
	player, err := env.users.RegisterUser(ctx, 200, "player", "Pavel", "", "ru")
	require.NoError(t, err)
	other, err := env.users.RegisterUser(ctx, 300, "other", "Oleg", "", "ru")
	require.NoError(t, err)

	env.owner = model.CallerOf(owner)
	env.player = model.CallerOf(player)
	env.other = model.CallerOf(other)

	return env
}

// mondayCourt корт, открытый только по понедельникам 09:00-11:00
func (e *testEnv) mondayCourt(t *testing.T) *model.Court {
	t.Helper()

	var schedule model.WeeklySchedule
	schedule[time.Monday] = model.DaySchedule{Enabled: true, Open: model.MustClock("09:00"), Close: model.MustClock("11:00")}

	court, err := e.courts.CreateCourt(context.Background(), e.owner, "Центральный", schedule, nil)
	require.NoError(t, err)
	return court
}

func (e *testEnv) book(t *testing.T, caller model.Caller, courtID int64, start string, d model.Duration) *model.Booking {
	t.Helper()

	booking, err := e.bookings.CreateBooking(context.Background(), caller, BookingRequest{
		CourtID:   courtID,
		Date:      nextMonday,
		StartTime: model.MustClock(start),
		Duration:  d,
	})
	require.NoError(t, err)
	return booking
}

func slotTimes(day *model.CalendarDay) []string {
	out := make([]string, len(day.Slots))
	for i, s := range day.Slots {
		out[i] = s.Time.String()
	}
	return out
}

func slotAt(t *testing.T, day *model.CalendarDay, at string) model.Slot {
	t.Helper()
	i := day.SlotAt(model.MustClock(at))
	require.GreaterOrEqual(t, i, 0, "slot %s", at)
	return day.Slots[i]
}

// recordingCache кэш в памяти с версиями месяцев, как в Redis.
// Запоминает сброшенные месяцы.
type recordingCache struct {
	mu          sync.Mutex
	months      map[string]cachedMonth
	versions    map[string]int64
	invalidated []string
}

type cachedMonth struct {
	version int64
	days    []*model.CalendarDay
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		months:   make(map[string]cachedMonth),
		versions: make(map[string]int64),
	}
}

func cacheKey(courtID int64, month time.Time) string {
	return fmt.Sprintf("%d/%s", courtID, month.Format("2006-01"))
}

func (c *recordingCache) GetMonth(_ context.Context, courtID int64, month time.Time) ([]*model.CalendarDay, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(courtID, month)
	version := c.versions[key]
	cached, ok := c.months[key]
	if !ok || cached.version != version {
		return nil, version, false, nil
	}
	return cached.days, version, true, nil
}

func (c *recordingCache) SetMonth(_ context.Context, courtID int64, month time.Time, version int64, days []*model.CalendarDay) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months[cacheKey(courtID, month)] = cachedMonth{version: version, days: days}
	return nil
}

func (c *recordingCache) InvalidateMonth(_ context.Context, courtID int64, month time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(courtID, month)
	c.versions[key]++
	c.invalidated = append(c.invalidated, key)
	return nil
}

func (c *recordingCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.months = make(map[string]cachedMonth)
}

func (c *recordingCache) wasInvalidated(courtID int64, month time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(courtID, month)
	for _, k := range c.invalidated {
		if k == key {
			return true
		}
	}
	return false
}

// failingCalendar хранилище календаря, которое отказывает по флагу
type failingCalendar struct {
	CalendarStore
	mu     sync.Mutex
	failOn map[string]error

	// afterList выполняется один раз сразу после очередного ListDays
	afterList func()
}

func (f *failingCalendar) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = err
}

func (f *failingCalendar) errFor(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn[op]
}

func (f *failingCalendar) LatestDate(ctx context.Context, courtID int64) (time.Time, bool, error) {
	if err := f.errFor("LatestDate"); err != nil {
		return time.Time{}, false, err
	}
	return f.CalendarStore.LatestDate(ctx, courtID)
}

func (f *failingCalendar) ListDays(ctx context.Context, courtID int64, from, to time.Time) ([]*model.CalendarDay, error) {
	if err := f.errFor("ListDays"); err != nil {
		return nil, err
	}
	days, err := f.CalendarStore.ListDays(ctx, courtID, from, to)

	f.mu.Lock()
	after := f.afterList
	f.afterList = nil
	f.mu.Unlock()
	if after != nil {
		after()
	}

	return days, err
}
