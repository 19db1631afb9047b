package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

const bookingColumns = `id, court_id, player_id, date, start_time, end_time, duration, price::text, status, created_at, updated_at, cancelled_at`

// Allocate создаёт бронирование и занимает слоты под блокировкой дня
func (r *BookingRepository) Allocate(ctx context.Context, booking *model.Booking) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		day, err := lockDay(ctx, tx, booking.CourtID, booking.Date)
		if err != nil {
			if errors.Is(err, model.ErrDayNotFound) {
				return model.ErrScheduleNotConfigured
			}
			return err
		}

		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE court_id = $1 AND date = $2 AND start_time = $3 AND status = 'confirmed'
			)
		`, booking.CourtID, day.Date, booking.StartTime.String()).Scan(&taken)
		if err != nil {
			return model.StorageError("check confirmed booking", err)
		}
		if taken {
			return model.ErrSlotUnavailable
		}

		times := booking.CoveredSlots()
		for _, t := range times {
			idx := day.SlotAt(t)
			if idx < 0 || !day.Slots[idx].Enabled {
				return fmt.Errorf("%w: %s", model.ErrSlotUnavailable, t)
			}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO bookings (id, court_id, player_id, date, start_time, end_time, duration, price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9)
			RETURNING created_at, updated_at
		`,
			booking.ID.String(),
			booking.CourtID,
			booking.PlayerID,
			day.Date,
			booking.StartTime.String(),
			booking.EndTime.String(),
			string(booking.Duration),
			booking.Price.String(),
			string(booking.Status),
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return model.ErrSlotUnavailable
			}
			return model.StorageError("create booking", err)
		}

		day.Lock(booking.ID, times)
		return saveDay(ctx, tx, day)
	})
}

// Cancel отменяет подтверждённое бронирование и освобождает его слоты.
// День блокируется раньше строки бронирования, как и в MutateDay.
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var cancelled *model.Booking

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		existing, err := getBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if !existing.IsConfirmed() {
			return model.ErrAlreadyCancelled
		}

		day, err := lockDay(ctx, tx, existing.CourtID, existing.Date)
		if err != nil && !errors.Is(err, model.ErrDayNotFound) {
			return err
		}

		bookings, err := cancelBookings(ctx, tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			return model.ErrAlreadyCancelled
		}
		cancelled = bookings[0]

		if day == nil || day.Release(cancelled.ID, cancelled.CoveredSlots()) == 0 {
			return nil
		}
		return saveDay(ctx, tx, day)
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return getBooking(ctx, r.Pool(), id)
}

// FindConfirmed подтверждённое бронирование, начинающееся в start
func (r *BookingRepository) FindConfirmed(ctx context.Context, courtID int64, date time.Time, start model.Clock) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1 AND date = $2 AND start_time = $3 AND status = 'confirmed'
	`

	booking, err := scanBooking(r.Pool().QueryRow(ctx, query, courtID, model.DateOf(date), start.String()))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrBookingNotFound
		}
		return nil, model.StorageError("find confirmed booking", err)
	}

	return booking, nil
}

// ListByPlayer бронирования игрока, новые сначала
func (r *BookingRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE player_id = $1
		ORDER BY date DESC, start_time DESC
	`
	return queryBookings(ctx, r.Pool(), "list player bookings", query, playerID)
}

// ListByCourtDate все бронирования корта на дату
func (r *BookingRepository) ListByCourtDate(ctx context.Context, courtID int64, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1 AND date = $2
		ORDER BY start_time, created_at
	`
	return queryBookings(ctx, r.Pool(), "list court bookings", query, courtID, model.DateOf(date))
}

func getBooking(ctx context.Context, q base.Querier, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(q.QueryRow(ctx, query, id.String()))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrBookingNotFound
		}
		return nil, model.StorageError("get booking", err)
	}

	return booking, nil
}

func queryBookings(ctx context.Context, q base.Querier, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, model.StorageError(op, err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, model.StorageError(op, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, model.StorageError(op, err)
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		booking    model.Booking
		id         string
		start, end string
		duration   string
		price      string
		status     string
	)

	err := row.Scan(
		&id,
		&booking.CourtID,
		&booking.PlayerID,
		&booking.Date,
		&start,
		&end,
		&duration,
		&price,
		&status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if booking.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse booking id: %w", err)
	}
	if booking.StartTime, err = model.ParseClock(start); err != nil {
		return nil, err
	}
	if booking.EndTime, err = model.ParseClock(end); err != nil {
		return nil, err
	}
	if booking.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse booking price: %w", err)
	}

	booking.Date = model.DateOf(booking.Date)
	booking.Duration = model.Duration(duration)
	booking.Status = model.BookingStatus(status)

	return &booking, nil
}
