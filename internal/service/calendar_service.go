package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalendarOptions настройки материализации календаря
type CalendarOptions struct {
	Location          *time.Location   // часовой пояс площадки, определяет "сегодня"
	MonthsAhead       int              // на сколько месяцев вперёд держать календарь
	MaterializeOnRead bool             // достраивать календарь при чтении месяца
	RetainDays        int              // сколько прошедших дней хранить, 0 - не удалять
	Now               func() time.Time // источник времени, в тестах подменяется
}

type CalendarService struct {
	courts   CourtStore
	calendar CalendarStore
	cache    CalendarCache
	opts     CalendarOptions
	logger   *zap.Logger
}

func NewCalendarService(
	courts CourtStore,
	calendar CalendarStore,
	cache CalendarCache,
	opts CalendarOptions,
	logger *zap.Logger,
) *CalendarService {
	if cache == nil {
		cache = NopCache{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MonthsAhead <= 0 {
		opts.MonthsAhead = 1
	}

	return &CalendarService{
		courts:   courts,
		calendar: calendar,
		cache:    cache,
		opts:     opts,
		logger:   logger,
	}
}

// Today текущая дата площадки
func (s *CalendarService) Today() time.Time {
	return model.DateOf(s.opts.Now().In(s.opts.Location))
}

// Now текущий момент в часовом поясе площадки
func (s *CalendarService) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// Location часовой пояс площадки
func (s *CalendarService) Location() *time.Location {
	return s.opts.Location
}

// EnsureAhead достраивает календарь корта до today+monthsAhead.
// Существующие дни не трогает, повторный вызов ничего не меняет.
// Шаблон берётся хранилищем в момент вставки, а не из ранее прочитанного корта.
func (s *CalendarService) EnsureAhead(ctx context.Context, courtID int64, monthsAhead int) (int, error) {
	if monthsAhead <= 0 {
		monthsAhead = s.opts.MonthsAhead
	}

	today := s.Today()
	end := today.AddDate(0, monthsAhead, 0)

	// Без дней начинаем со "вчера + 1", то есть с сегодняшнего дня
	start := today
	latest, ok, err := s.calendar.LatestDate(ctx, courtID)
	if err != nil {
		return 0, fmt.Errorf("latest calendar date: %w", err)
	}
	if ok && !latest.Before(start) {
		start = latest.AddDate(0, 0, 1)
	}

	if start.After(end) {
		return 0, nil
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	inserted, err := s.calendar.MaterializeDays(ctx, courtID, dates)
	if err != nil {
		return 0, fmt.Errorf("materialize calendar days: %w", err)
	}

	for m := monthOf(start); !m.After(end); m = m.AddDate(0, 1, 0) {
		s.invalidate(ctx, courtID, m)
	}

	if inserted > 0 {
		s.logger.Info("Calendar materialized",
			zap.Int64("court_id", courtID),
			zap.String("from", start.Format(model.DateLayout)),
			zap.String("to", end.Format(model.DateLayout)),
			zap.Int("inserted", inserted),
		)
	}

	return inserted, nil
}

// Materialize явная операция материализации для одного корта
func (s *CalendarService) Materialize(ctx context.Context, courtID int64) (int, error) {
	if _, err := s.courts.GetByID(ctx, courtID); err != nil {
		return 0, err
	}
	return s.EnsureAhead(ctx, courtID, s.opts.MonthsAhead)
}

// MaterializeAll достраивает календари всех кортов и удаляет дни старше
// срока хранения. Вызывается планировщиком.
func (s *CalendarService) MaterializeAll(ctx context.Context) error {
	courts, err := s.courts.List(ctx)
	if err != nil {
		return fmt.Errorf("list courts: %w", err)
	}

	total := 0
	var errs []error
	for _, court := range courts {
		count, err := s.EnsureAhead(ctx, court.ID, s.opts.MonthsAhead)
		if err != nil {
			s.logger.Error("Failed to materialize calendar",
				zap.Int64("court_id", court.ID),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		total += count
	}

	s.logger.Info("Materialized calendars for all courts",
		zap.Int("total_courts", len(courts)),
		zap.Int("total_days_created", total),
	)

	if s.opts.RetainDays > 0 {
		if _, err := s.Prune(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Prune удаляет дни календаря старше RetainDays. Бронирования этих дней
// остаются в журнале и по-прежнему отменяются.
func (s *CalendarService) Prune(ctx context.Context) (int, error) {
	if s.opts.RetainDays <= 0 {
		return 0, nil
	}

	before := s.Today().AddDate(0, 0, -s.opts.RetainDays)
	deleted, err := s.calendar.DeleteDaysBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("prune calendar days: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("Old calendar days pruned",
			zap.String("before", before.Format(model.DateLayout)),
			zap.Int("deleted", deleted),
		)
	}

	return deleted, nil
}

// GetCalendar возвращает дни месяца. Если включено, сначала достраивает календарь.
func (s *CalendarService) GetCalendar(ctx context.Context, courtID int64, month time.Time) ([]*model.CalendarDay, error) {
	if _, err := s.courts.GetByID(ctx, courtID); err != nil {
		return nil, err
	}

	if s.opts.MaterializeOnRead {
		// Ошибка достройки не мешает чтению: следующий запрос попробует снова
		if _, err := s.EnsureAhead(ctx, courtID, s.opts.MonthsAhead); err != nil {
			s.logger.Warn("Calendar extension on read failed",
				zap.Int64("court_id", courtID),
				zap.Error(err),
			)
		}
	}

	month = monthOf(month)
	cached, version, ok, cacheErr := s.cache.GetMonth(ctx, courtID, month)
	if cacheErr == nil && ok {
		return cached, nil
	}
	if cacheErr != nil {
		s.logger.Warn("Calendar cache read failed", zap.Int64("court_id", courtID), zap.Error(cacheErr))
	}

	days, err := s.calendar.ListDays(ctx, courtID, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("list calendar days: %w", err)
	}

	// Версия прочитана до ListDays: если день успели изменить, запись уйдёт под старую версию
	if cacheErr == nil {
		if err := s.cache.SetMonth(ctx, courtID, month, version, days); err != nil {
			s.logger.Warn("Calendar cache write failed", zap.Int64("court_id", courtID), zap.Error(err))
		}
	}

	return days, nil
}

// GetRange дни в [from, to) без кэша, для недельного вида
func (s *CalendarService) GetRange(ctx context.Context, courtID int64, from, to time.Time) ([]*model.CalendarDay, error) {
	if _, err := s.courts.GetByID(ctx, courtID); err != nil {
		return nil, err
	}
	return s.calendar.ListDays(ctx, courtID, model.DateOf(from), model.DateOf(to))
}

// GetDay возвращает один день календаря
func (s *CalendarService) GetDay(ctx context.Context, courtID int64, date time.Time) (*model.CalendarDay, error) {
	return s.calendar.GetDay(ctx, courtID, model.DateOf(date))
}

// Regenerate пересчитывает материализованные дни недели weekday после смены шаблона.
// Слоты подтверждённых бронирований остаются занятыми, закрытые дни не трогаются.
// Шаблон каждого дня читается под его блокировкой, так что параллельная смена
// расписания не оставит день со старой сеткой.
func (s *CalendarService) Regenerate(ctx context.Context, court *model.Court, weekday time.Weekday) (int, error) {
	latest, ok, err := s.calendar.LatestDate(ctx, court.ID)
	if err != nil {
		return 0, fmt.Errorf("latest calendar date: %w", err)
	}
	if !ok {
		return 0, nil
	}

	count := 0
	for d := s.Today(); !d.After(latest); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != weekday {
			continue
		}

		_, _, err := s.calendar.MutateDay(ctx, court.ID, d, func(day *model.CalendarDay, template model.DaySchedule, confirmed []*model.Booking) ([]uuid.UUID, error) {
			if day.IsClosed {
				return nil, nil
			}
			day.Slots = model.MergeSlots(model.TemplateSlots(template), day.Slots, confirmed)
			return nil, nil
		})
		if errors.Is(err, model.ErrDayNotFound) {
			continue
		}
		if err != nil {
			return count, fmt.Errorf("regenerate %s: %w", d.Format(model.DateLayout), err)
		}

		s.invalidate(ctx, court.ID, d)
		count++
	}

	s.logger.Info("Calendar regenerated from template",
		zap.Int64("court_id", court.ID),
		zap.String("weekday", weekday.String()),
		zap.Int("days", count),
	)

	return count, nil
}

// CloseDay закрывает день: слоты удаляются, подтверждённые бронирования отменяются
func (s *CalendarService) CloseDay(ctx context.Context, caller model.Caller, courtID int64, date time.Time) (*model.CalendarDay, []*model.Booking, error) {
	if _, err := s.ownedCourt(ctx, caller, courtID); err != nil {
		return nil, nil, err
	}

	date = model.DateOf(date)
	day, cancelled, err := s.calendar.MutateDay(ctx, courtID, date, func(day *model.CalendarDay, _ model.DaySchedule, confirmed []*model.Booking) ([]uuid.UUID, error) {
		ids := make([]uuid.UUID, 0, len(confirmed))
		for _, b := range confirmed {
			ids = append(ids, b.ID)
		}
		day.IsClosed = true
		day.Slots = []model.Slot{}
		return ids, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, courtID, date)

	// Уведомление игроков об отмене сюда не входит, только журнал
	s.logger.Info("Day closed",
		zap.Int64("court_id", courtID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("cancelled_bookings", len(cancelled)),
	)

	return day, cancelled, nil
}

// ReopenDay открывает день заново по шаблону. Отменённые бронирования не восстанавливаются.
func (s *CalendarService) ReopenDay(ctx context.Context, caller model.Caller, courtID int64, date time.Time) (*model.CalendarDay, error) {
	if _, err := s.ownedCourt(ctx, caller, courtID); err != nil {
		return nil, err
	}

	date = model.DateOf(date)
	day, _, err := s.calendar.MutateDay(ctx, courtID, date, func(day *model.CalendarDay, template model.DaySchedule, confirmed []*model.Booking) ([]uuid.UUID, error) {
		day.IsClosed = false
		day.Slots = model.MergeSlots(model.TemplateSlots(template), nil, confirmed)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, courtID, date)

	s.logger.Info("Day reopened",
		zap.Int64("court_id", courtID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.Int("slots", len(day.Slots)),
	)

	return day, nil
}

// UpdateSlot включает или выключает один слот.
// Выключение слота под подтверждённым бронированием отменяет это бронирование.
func (s *CalendarService) UpdateSlot(ctx context.Context, caller model.Caller, courtID int64, date time.Time, at model.Clock, enabled bool) (*model.CalendarDay, []*model.Booking, error) {
	if _, err := s.ownedCourt(ctx, caller, courtID); err != nil {
		return nil, nil, err
	}

	date = model.DateOf(date)
	day, cancelled, err := s.calendar.MutateDay(ctx, courtID, date, func(day *model.CalendarDay, _ model.DaySchedule, confirmed []*model.Booking) ([]uuid.UUID, error) {
		i := day.SlotAt(at)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrSlotNotFound, at)
		}
		slot := day.Slots[i]

		if enabled {
			if slot.BookingID != nil {
				return nil, fmt.Errorf("%w: %s", model.ErrSlotBooked, at)
			}
			day.Slots[i].Enabled = true
			return nil, nil
		}

		if slot.BookingID == nil {
			day.Slots[i].Enabled = false
			return nil, nil
		}

		bookingID := *slot.BookingID
		covered := []model.Clock{at}
		for _, b := range confirmed {
			if b.ID == bookingID {
				covered = b.CoveredSlots()
				break
			}
		}
		day.Release(bookingID, covered)
		day.Slots[i] = model.Slot{Time: at, Enabled: false}

		return []uuid.UUID{bookingID}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, courtID, date)

	s.logger.Info("Slot updated",
		zap.Int64("court_id", courtID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.String("time", at.String()),
		zap.Bool("enabled", enabled),
		zap.Int("cancelled_bookings", len(cancelled)),
	)

	return day, cancelled, nil
}

// ownedCourt загружает корт и проверяет, что вызывающий - его владелец
func (s *CalendarService) ownedCourt(ctx context.Context, caller model.Caller, courtID int64) (*model.Court, error) {
	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, err
	}
	if !court.IsOwnedBy(caller) {
		return nil, model.ErrNotCourtOwner
	}
	return court, nil
}

// invalidate сбрасывает кэш месяца даты, ошибка кэша не влияет на результат
func (s *CalendarService) invalidate(ctx context.Context, courtID int64, date time.Time) {
	if err := s.cache.InvalidateMonth(ctx, courtID, monthOf(date)); err != nil {
		s.logger.Warn("Calendar cache invalidation failed",
			zap.Int64("court_id", courtID),
			zap.Error(err),
		)
	}
}
