package api

import (
	"fmt"
	"net/http"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	bookings *service.BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings *service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// POST /v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var in struct {
		CourtID   int64  `json:"court_id" binding:"required"`
		Date      string `json:"date" binding:"required"`       // YYYY-MM-DD
		StartTime string `json:"start_time" binding:"required"` // HH:MM
		Duration  string `json:"duration" binding:"required"`   // 1h | 1.5h
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := model.ParseDate(in.Date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	start, err := model.ParseClock(in.StartTime)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	booking, err := h.bookings.CreateBooking(c, callerOf(c), service.BookingRequest{
		CourtID:   in.CourtID,
		Date:      date,
		StartTime: start,
		Duration:  model.Duration(in.Duration),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.CancelBooking(c, callerOf(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// GET /v1/bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c, callerOf(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// GET /v1/bookings
func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.bookings.GetPlayerBookings(c, callerOf(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GET /v1/courts/:id/days/:date/bookings (владелец корта)
func (h *BookingHandler) ListDay(c *gin.Context) {
	courtID, date, ok := parseCourtDate(c, h.logger)
	if !ok {
		return
	}

	bookings, err := h.bookings.GetDayBookings(c, callerOf(c), courtID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("%w: booking id %q", model.ErrValidation, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
