package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/redis/go-redis/v9"
)

// CalendarCache кэш месячных календарей кортов в Redis.
// Любое изменение дня инвалидирует его месяц.
type CalendarCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCalendarCache(client redis.Cmdable, ttl time.Duration) *CalendarCache {
	return &CalendarCache{client: client, ttl: ttl}
}

// NewClient создаёт клиент Redis
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// MonthKey ключ месяца корта, например calendar:7:2025-03
func MonthKey(courtID int64, month time.Time) string {
	return fmt.Sprintf("calendar:%d:%s", courtID, month.Format("2006-01"))
}

// versionKey счётчик версий месяца, растёт при каждой инвалидации
func versionKey(courtID int64, month time.Time) string {
	return MonthKey(courtID, month) + ":version"
}

// dataKey дни месяца, записанные под версией version
func dataKey(courtID int64, month time.Time, version int64) string {
	return fmt.Sprintf("%s:v%d", MonthKey(courtID, month), version)
}

// GetMonth возвращает дни текущей версии месяца и саму версию.
// Версия нужна SetMonth, даже если в кэше пусто.
func (c *CalendarCache) GetMonth(ctx context.Context, courtID int64, month time.Time) ([]*model.CalendarDay, int64, bool, error) {
	version, err := c.client.Get(ctx, versionKey(courtID, month)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("get month version: %w", err)
	}

	val, err := c.client.Get(ctx, dataKey(courtID, month, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("get cached month: %w", err)
	}

	var days []*model.CalendarDay
	if err := json.Unmarshal(val, &days); err != nil {
		return nil, 0, false, fmt.Errorf("unmarshal cached month: %w", err)
	}

	return days, version, true, nil
}

// SetMonth кладёт дни месяца под версией, полученной из GetMonth до чтения дней.
// Если месяц успели инвалидировать, запись никто не прочитает и она истечёт по TTL.
func (c *CalendarCache) SetMonth(ctx context.Context, courtID int64, month time.Time, version int64, days []*model.CalendarDay) error {
	data, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("marshal month: %w", err)
	}

	if err := c.client.Set(ctx, dataKey(courtID, month, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached month: %w", err)
	}

	return nil
}

// InvalidateMonth переводит месяц на новую версию и удаляет прежние данные
func (c *CalendarCache) InvalidateMonth(ctx context.Context, courtID int64, month time.Time) error {
	version, err := c.client.Incr(ctx, versionKey(courtID, month)).Result()
	if err != nil {
		return fmt.Errorf("invalidate cached month: %w", err)
	}

	if err := c.client.Del(ctx, dataKey(courtID, month, version-1)).Err(); err != nil {
		return fmt.Errorf("drop cached month: %w", err)
	}
	return nil
}
