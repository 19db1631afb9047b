package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CalendarRepository struct {
	*base.Repository
}

func NewCalendarRepository(pool *pgxpool.Pool) *CalendarRepository {
	return &CalendarRepository{Repository: base.NewRepository(pool)}
}

const dayColumns = `court_id, date, is_closed, slots, updated_at`

// LatestDate последняя материализованная дата корта
func (r *CalendarRepository) LatestDate(ctx context.Context, courtID int64) (time.Time, bool, error) {
	var latest *time.Time
	err := r.Pool().QueryRow(ctx,
		`SELECT max(date) FROM calendar_days WHERE court_id = $1`, courtID,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, model.StorageError("get latest calendar date", err)
	}

	if latest == nil {
		return time.Time{}, false, nil
	}

	return model.DateOf(*latest), true, nil
}

// MaterializeDays вставляет отсутствующие дни по текущему шаблону корта.
// Шаблон читается под FOR SHARE в той же транзакции: смена расписания
// либо ждёт конца вставки, либо уже видна ей.
func (r *CalendarRepository) MaterializeDays(ctx context.Context, courtID int64, dates []time.Time) (int, error) {
	if len(dates) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO calendar_days (court_id, date, is_closed, slots)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (court_id, date) DO NOTHING
	`

	inserted := 0
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		schedule, err := lockSchedule(ctx, tx, courtID)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, date := range dates {
			day := model.NewCalendarDay(courtID, date, schedule)
			slots, err := json.Marshal(day.Slots)
			if err != nil {
				return fmt.Errorf("marshal slots: %w", err)
			}
			batch.Queue(query, courtID, day.Date, day.IsClosed, slots)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range dates {
			tag, err := results.Exec()
			if err != nil {
				return model.StorageError("insert calendar days", err)
			}
			inserted += int(tag.RowsAffected())
		}

		if err := results.Close(); err != nil {
			return model.StorageError("insert calendar days", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// DeleteDaysBefore удаляет прошедшие дни всех кортов
func (r *CalendarRepository) DeleteDaysBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.Pool().Exec(ctx, `DELETE FROM calendar_days WHERE date < $1`, model.DateOf(before))
	if err != nil {
		return 0, model.StorageError("delete old calendar days", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetDay получает день календаря
func (r *CalendarRepository) GetDay(ctx context.Context, courtID int64, date time.Time) (*model.CalendarDay, error) {
	query := `SELECT ` + dayColumns + ` FROM calendar_days WHERE court_id = $1 AND date = $2`

	day, err := scanDay(r.Pool().QueryRow(ctx, query, courtID, model.DateOf(date)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrDayNotFound
		}
		return nil, model.StorageError("get calendar day", err)
	}

	return day, nil
}

// ListDays дни корта в [from, to)
func (r *CalendarRepository) ListDays(ctx context.Context, courtID int64, from, to time.Time) ([]*model.CalendarDay, error) {
	query := `
		SELECT ` + dayColumns + `
		FROM calendar_days
		WHERE court_id = $1 AND date >= $2 AND date < $3
		ORDER BY date
	`

	rows, err := r.Pool().Query(ctx, query, courtID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, model.StorageError("list calendar days", err)
	}
	defer rows.Close()

	days := make([]*model.CalendarDay, 0)
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, model.StorageError("list calendar days", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, model.StorageError("list calendar days", err)
	}

	return days, nil
}

// MutateDay применяет fn к заблокированному дню в одной транзакции
// с отменой бронирований, которые вернула fn
func (r *CalendarRepository) MutateDay(ctx context.Context, courtID int64, date time.Time, fn model.DayMutator) (*model.CalendarDay, []*model.Booking, error) {
	var (
		day       *model.CalendarDay
		cancelled []*model.Booking
	)

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		day, err = lockDay(ctx, tx, courtID, date)
		if err != nil {
			return err
		}

		schedule, err := lockSchedule(ctx, tx, courtID)
		if err != nil {
			return err
		}

		confirmed, err := confirmedBookings(ctx, tx, courtID, day.Date)
		if err != nil {
			return err
		}

		ids, err := fn(day, schedule.Day(day.Date), confirmed)
		if err != nil {
			return err
		}

		cancelled, err = cancelBookings(ctx, tx, ids)
		if err != nil {
			return err
		}

		return saveDay(ctx, tx, day)
	})
	if err != nil {
		return nil, nil, err
	}

	return day, cancelled, nil
}

// lockDay читает день с блокировкой строки до конца транзакции
func lockDay(ctx context.Context, q base.Querier, courtID int64, date time.Time) (*model.CalendarDay, error) {
	query := `SELECT ` + dayColumns + ` FROM calendar_days WHERE court_id = $1 AND date = $2 FOR UPDATE`

	day, err := scanDay(q.QueryRow(ctx, query, courtID, model.DateOf(date)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrDayNotFound
		}
		return nil, model.StorageError("lock calendar day", err)
	}

	return day, nil
}

// lockSchedule читает недельный шаблон корта, запрещая его смену до конца транзакции
func lockSchedule(ctx context.Context, q base.Querier, courtID int64) (model.WeeklySchedule, error) {
	var (
		schedule model.WeeklySchedule
		raw      []byte
	)

	err := q.QueryRow(ctx, `SELECT weekly_schedule FROM courts WHERE id = $1 FOR SHARE`, courtID).Scan(&raw)
	if err != nil {
		if base.IsNotFound(err) {
			return schedule, model.ErrCourtNotFound
		}
		return schedule, model.StorageError("lock court schedule", err)
	}

	if err := json.Unmarshal(raw, &schedule); err != nil {
		return schedule, fmt.Errorf("unmarshal weekly schedule: %w", err)
	}

	return schedule, nil
}

func saveDay(ctx context.Context, q base.Querier, day *model.CalendarDay) error {
	slots, err := json.Marshal(day.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}

	err = q.QueryRow(ctx, `
		UPDATE calendar_days
		SET is_closed = $3, slots = $4, updated_at = NOW()
		WHERE court_id = $1 AND date = $2
		RETURNING updated_at
	`, day.CourtID, model.DateOf(day.Date), day.IsClosed, slots).Scan(&day.UpdatedAt)
	if err != nil {
		return model.StorageError("save calendar day", err)
	}

	return nil
}

func confirmedBookings(ctx context.Context, q base.Querier, courtID int64, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1 AND date = $2 AND status = 'confirmed'
		ORDER BY start_time
	`
	return queryBookings(ctx, q, "list confirmed bookings", query, courtID, model.DateOf(date))
}

func cancelBookings(ctx context.Context, q base.Querier, ids []uuid.UUID) ([]*model.Booking, error) {
	if len(ids) == 0 {
		return []*model.Booking{}, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND status = 'confirmed'
		RETURNING ` + bookingColumns

	return queryBookings(ctx, q, "cancel bookings", query, raw)
}

func scanDay(row pgx.Row) (*model.CalendarDay, error) {
	var (
		day   model.CalendarDay
		slots []byte
	)

	err := row.Scan(&day.CourtID, &day.Date, &day.IsClosed, &slots, &day.UpdatedAt)
	if err != nil {
		return nil, err
	}

	day.Date = model.DateOf(day.Date)
	day.Slots = make([]model.Slot, 0)
	if err := json.Unmarshal(slots, &day.Slots); err != nil {
		return nil, fmt.Errorf("unmarshal slots: %w", err)
	}

	return &day, nil
}
