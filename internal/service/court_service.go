package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"go.uber.org/zap"
)

type CourtService struct {
	users     UserStore
	courts    CourtStore
	calendars *CalendarService
	logger    *zap.Logger
}

func NewCourtService(
	users UserStore,
	courts CourtStore,
	calendars *CalendarService,
	logger *zap.Logger,
) *CourtService {
	return &CourtService{
		users:     users,
		courts:    courts,
		calendars: calendars,
		logger:    logger,
	}
}

// CreateCourt создаёт корт владельца и сразу материализует календарь
func (s *CourtService) CreateCourt(ctx context.Context, caller model.Caller, name string, schedule model.WeeklySchedule, pricingRules json.RawMessage) (*model.Court, error) {
	owner, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	if !owner.IsOwner {
		return nil, model.ErrNotCourtOwner
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: court name is required", model.ErrValidation)
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	if len(pricingRules) == 0 {
		pricingRules = json.RawMessage(`{}`)
	}

	court := &model.Court{
		OwnerID:        owner.ID,
		Name:           name,
		WeeklySchedule: schedule,
		PricingRules:   pricingRules,
	}

	if err := s.courts.Create(ctx, court); err != nil {
		return nil, fmt.Errorf("create court: %w", err)
	}

	s.logger.Info("Court created",
		zap.Int64("court_id", court.ID),
		zap.Int64("owner_id", owner.ID),
		zap.String("name", name),
	)

	if _, err := s.calendars.EnsureAhead(ctx, court.ID, 0); err != nil {
		// Корт уже создан, календарь достроит планировщик или первое чтение
		s.logger.Error("Failed to materialize initial calendar",
			zap.Int64("court_id", court.ID),
			zap.Error(err),
		)
	}

	return court, nil
}

// GetCourt получает корт по ID
func (s *CourtService) GetCourt(ctx context.Context, courtID int64) (*model.Court, error) {
	return s.courts.GetByID(ctx, courtID)
}

// ListCourts все корты
func (s *CourtService) ListCourts(ctx context.Context) ([]*model.Court, error) {
	return s.courts.List(ctx)
}

// ListOwnerCourts корты владельца
func (s *CourtService) ListOwnerCourts(ctx context.Context, caller model.Caller) ([]*model.Court, error) {
	return s.courts.ListByOwner(ctx, caller.UserID)
}

// UpdateWeeklySchedule меняет часы работы одного дня недели и пересчитывает календарь
func (s *CourtService) UpdateWeeklySchedule(ctx context.Context, caller model.Caller, courtID int64, weekday time.Weekday, day model.DaySchedule) (*model.Court, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, model.ErrInvalidWeekday
	}

	if err := day.Validate(); err != nil {
		return nil, err
	}

	court, err := s.calendars.ownedCourt(ctx, caller, courtID)
	if err != nil {
		return nil, err
	}

	if !day.Enabled {
		day.Open, day.Close = 0, 0
	}

	court, err = s.courts.UpdateDaySchedule(ctx, court.ID, weekday, day)
	if err != nil {
		return nil, fmt.Errorf("update day schedule: %w", err)
	}

	s.logger.Info("Weekly schedule updated",
		zap.Int64("court_id", court.ID),
		zap.String("weekday", weekday.String()),
		zap.Bool("enabled", day.Enabled),
		zap.String("open", day.Open.String()),
		zap.String("close", day.Close.String()),
	)

	if _, err := s.calendars.Regenerate(ctx, court, weekday); err != nil {
		return nil, fmt.Errorf("regenerate calendar: %w", err)
	}

	return court, nil
}
