package handlers

import (
	"github.com/Freeeeeet/court_booking/internal/controller/state"
	"github.com/Freeeeeet/court_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	courtService    *service.CourtService
	calendarService *service.CalendarService
	bookingService  *service.BookingService
	stateManager    *state.Manager
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	courtService *service.CourtService,
	calendarService *service.CalendarService,
	bookingService *service.BookingService,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		courtService:    courtService,
		calendarService: calendarService,
		bookingService:  bookingService,
		stateManager:    stateManager,
		logger:          logger,
	}
}
