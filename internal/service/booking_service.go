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

// BookingRequest запрос игрока на бронирование
type BookingRequest struct {
	CourtID   int64          `json:"court_id"`
	Date      time.Time      `json:"date"`
	StartTime model.Clock    `json:"start_time"`
	Duration  model.Duration `json:"duration"`
}

type BookingService struct {
	courts    CourtStore
	calendar  CalendarStore
	bookings  BookingStore
	calendars *CalendarService
	prices    PriceCalculator
	logger    *zap.Logger
}

func NewBookingService(
	courts CourtStore,
	calendar CalendarStore,
	bookings BookingStore,
	calendars *CalendarService,
	prices PriceCalculator,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		courts:    courts,
		calendar:  calendar,
		bookings:  bookings,
		calendars: calendars,
		prices:    prices,
		logger:    logger,
	}
}

// CreateBooking бронирует один или несколько подряд идущих слотов для игрока
func (s *BookingService) CreateBooking(ctx context.Context, caller model.Caller, req BookingRequest) (*model.Booking, error) {
	duration, err := model.ParseDuration(string(req.Duration))
	if err != nil {
		return nil, err
	}

	date := model.DateOf(req.Date)
	endTime := req.StartTime.Add(duration.Minutes())

	court, err := s.courts.GetByID(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}

	if model.At(date, req.StartTime, s.calendars.Location()).Before(s.calendars.Now()) {
		return nil, model.ErrSlotInPast
	}

	// Календарь мог ещё не дойти до этой даты
	if _, err := s.calendars.EnsureAhead(ctx, court.ID, 0); err != nil {
		s.logger.Warn("Calendar extension before booking failed",
			zap.Int64("court_id", court.ID),
			zap.Error(err),
		)
	}

	day, err := s.calendar.GetDay(ctx, court.ID, date)
	if errors.Is(err, model.ErrDayNotFound) {
		return nil, model.ErrScheduleNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar day: %w", err)
	}

	for i := 0; i < duration.Slots(); i++ {
		at := req.StartTime.Add(i * model.SlotMinutes)
		idx := day.SlotAt(at)

		notFound, unavailable := model.ErrSlotNotFound, model.ErrSlotUnavailable
		if i > 0 {
			notFound, unavailable = model.ErrSecondSlotNotFound, model.ErrSecondSlotUnavailable
		}

		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", notFound, at)
		}
		if !day.Slots[idx].Enabled {
			return nil, fmt.Errorf("%w: %s", unavailable, at)
		}
	}

	existing, err := s.bookings.FindConfirmed(ctx, court.ID, date, req.StartTime)
	if err != nil && !errors.Is(err, model.ErrBookingNotFound) {
		return nil, fmt.Errorf("find confirmed booking: %w", err)
	}
	if existing != nil {
		return nil, model.ErrSlotUnavailable
	}

	price, err := s.prices.Calculate(court.PricingRules, date, req.StartTime, duration)
	if err != nil {
		return nil, fmt.Errorf("calculate price: %w", err)
	}

	booking := &model.Booking{
		ID:        uuid.New(),
		CourtID:   court.ID,
		PlayerID:  caller.UserID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   endTime,
		Duration:  duration,
		Price:     price,
		Status:    model.BookingStatusConfirmed,
	}

	// Проверка занятости, создание бронирования и блокировка слотов - одна атомарная операция
	if err := s.bookings.Allocate(ctx, booking); err != nil {
		return nil, err
	}

	s.calendars.invalidate(ctx, court.ID, date)

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("court_id", court.ID),
		zap.Int64("player_id", caller.UserID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.String("start_time", booking.StartTime.String()),
		zap.String("duration", string(duration)),
		zap.String("price", price.StringFixed(2)),
	)

	return booking, nil
}

// CancelBooking отменяет бронирование игроком или владельцем корта
func (s *BookingService) CancelBooking(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.GetBooking(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.IsConfirmed() {
		return nil, model.ErrAlreadyCancelled
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.calendars.invalidate(ctx, cancelled.CourtID, cancelled.Date)

	s.logger.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.Int64("court_id", cancelled.CourtID),
		zap.Int64("user_id", caller.UserID),
	)

	return cancelled, nil
}

// GetBooking возвращает бронирование игроку или владельцу корта
func (s *BookingService) GetBooking(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.PlayerID == caller.UserID {
		return booking, nil
	}

	court, err := s.courts.GetByID(ctx, booking.CourtID)
	if err != nil && !errors.Is(err, model.ErrCourtNotFound) {
		return nil, err
	}
	if court == nil || !court.IsOwnedBy(caller) {
		return nil, model.ErrNotBookingParty
	}

	return booking, nil
}

// GetPlayerBookings все бронирования игрока, новые сначала
func (s *BookingService) GetPlayerBookings(ctx context.Context, caller model.Caller) ([]*model.Booking, error) {
	return s.bookings.ListByPlayer(ctx, caller.UserID)
}

// GetDayBookings бронирования корта на дату, только для владельца
func (s *BookingService) GetDayBookings(ctx context.Context, caller model.Caller, courtID int64, date time.Time) ([]*model.Booking, error) {
	if _, err := s.calendars.ownedCourt(ctx, caller, courtID); err != nil {
		return nil, err
	}
	return s.bookings.ListByCourtDate(ctx, courtID, model.DateOf(date))
}
