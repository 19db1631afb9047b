package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey(t *testing.T) {
	month := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "calendar:7:2025-03", MonthKey(7, month))

	// Любой день месяца даёт тот же ключ
	assert.Equal(t, MonthKey(7, month), MonthKey(7, month.AddDate(0, 0, 20)))

	assert.Equal(t, "calendar:7:2025-03:version", versionKey(7, month))
	assert.Equal(t, "calendar:7:2025-03:v3", dataKey(7, month, 3))
}

func TestCalendarCache_UnavailableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewCalendarCache(client, time.Minute)
	month := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, _, ok, err := c.GetMonth(context.Background(), 1, month)
	require.Error(t, err)
	assert.False(t, ok)

	require.Error(t, c.InvalidateMonth(context.Background(), 1, month))
}

// TEST_REDIS_ADDR указывает на Redis, который можно занять под тест
func newRedisCache(t *testing.T) *CalendarCache {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	client := NewClient(addr, "", 0)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewCalendarCache(client, time.Minute)
}

func TestCalendarCache_StaleWriteIsInvisible(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	courtID := time.Now().UnixNano()
	month := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	stale := []*model.CalendarDay{{CourtID: courtID, Date: month, Slots: model.GenerateSlots(model.MustClock("09:00"), model.MustClock("10:00"))}}
	fresh := []*model.CalendarDay{{CourtID: courtID, Date: month, IsClosed: true, Slots: []model.Slot{}}}

	_, version, ok, err := c.GetMonth(ctx, courtID, month)
	require.NoError(t, err)
	assert.False(t, ok)

	// День изменился между чтением версии и записью
	require.NoError(t, c.InvalidateMonth(ctx, courtID, month))
	require.NoError(t, c.SetMonth(ctx, courtID, month, version, stale))

	_, current, ok, err := c.GetMonth(ctx, courtID, month)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, version+1, current)

	require.NoError(t, c.SetMonth(ctx, courtID, month, current, fresh))
	days, _, ok, err := c.GetMonth(ctx, courtID, month)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, days, 1)
	assert.True(t, days[0].IsClosed)

	require.NoError(t, c.InvalidateMonth(ctx, courtID, month))
	_, _, ok, err = c.GetMonth(ctx, courtID, month)
	require.NoError(t, err)
	assert.False(t, ok)
}
