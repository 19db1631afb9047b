package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CourtHandler struct {
	courts   *service.CourtService
	calendar *service.CalendarService
	logger   *zap.Logger
}

func NewCourtHandler(courts *service.CourtService, calendar *service.CalendarService, logger *zap.Logger) *CourtHandler {
	return &CourtHandler{courts: courts, calendar: calendar, logger: logger}
}

// GET /v1/courts
func (h *CourtHandler) List(c *gin.Context) {
	courts, err := h.courts.ListCourts(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courts": courts})
}

// GET /v1/courts/:id
func (h *CourtHandler) Get(c *gin.Context) {
	courtID, ok := h.courtID(c)
	if !ok {
		return
	}

	court, err := h.courts.GetCourt(c, courtID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, court)
}

// POST /v1/courts
func (h *CourtHandler) Create(c *gin.Context) {
	var in struct {
		Name           string               `json:"name" binding:"required"`
		WeeklySchedule model.WeeklySchedule `json:"weekly_schedule"`
		PricingRules   json.RawMessage      `json:"pricing_rules"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	court, err := h.courts.CreateCourt(c, callerOf(c), in.Name, in.WeeklySchedule, in.PricingRules)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, court)
}

// PUT /v1/courts/:id/schedule/:weekday
func (h *CourtHandler) UpdateSchedule(c *gin.Context) {
	courtID, ok := h.courtID(c)
	if !ok {
		return
	}

	n, err := strconv.Atoi(c.Param("weekday"))
	if err != nil {
		writeError(c, h.logger, model.ErrInvalidWeekday)
		return
	}
	weekday, err := model.ParseWeekday(n)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var day model.DaySchedule
	if err := c.ShouldBindJSON(&day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	court, err := h.courts.UpdateWeeklySchedule(c, callerOf(c), courtID, weekday, day)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, court)
}

// POST /v1/courts/:id/materialize
func (h *CourtHandler) Materialize(c *gin.Context) {
	courtID, ok := h.courtID(c)
	if !ok {
		return
	}

	court, err := h.courts.GetCourt(c, courtID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !court.IsOwnedBy(callerOf(c)) {
		writeError(c, h.logger, model.ErrNotCourtOwner)
		return
	}

	inserted, err := h.calendar.Materialize(c, courtID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// GET /v1/courts/:id/calendar?month=2025-03
func (h *CourtHandler) Calendar(c *gin.Context) {
	courtID, ok := h.courtID(c)
	if !ok {
		return
	}

	month := h.calendar.Today()
	if q := c.Query("month"); q != "" {
		var err error
		if month, err = model.ParseMonth(q); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}

	days, err := h.calendar.GetCalendar(c, courtID, month)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"court_id": courtID, "month": month.Format("2006-01"), "days": days})
}

// GET /v1/courts/:id/days/:date
func (h *CourtHandler) Day(c *gin.Context) {
	courtID, date, ok := h.courtDate(c)
	if !ok {
		return
	}

	day, err := h.calendar.GetDay(c, courtID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// POST /v1/courts/:id/days/:date/close
func (h *CourtHandler) CloseDay(c *gin.Context) {
	courtID, date, ok := h.courtDate(c)
	if !ok {
		return
	}

	day, cancelled, err := h.calendar.CloseDay(c, callerOf(c), courtID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day, "cancelled": cancelled})
}

// POST /v1/courts/:id/days/:date/reopen
func (h *CourtHandler) ReopenDay(c *gin.Context) {
	courtID, date, ok := h.courtDate(c)
	if !ok {
		return
	}

	day, err := h.calendar.ReopenDay(c, callerOf(c), courtID, date)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day})
}

// PUT /v1/courts/:id/days/:date/slots/:time
func (h *CourtHandler) UpdateSlot(c *gin.Context) {
	courtID, date, ok := h.courtDate(c)
	if !ok {
		return
	}

	at, err := model.ParseClock(c.Param("time"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var in struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day, cancelled, err := h.calendar.UpdateSlot(c, callerOf(c), courtID, date, at, *in.Enabled)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day, "cancelled": cancelled})
}

func (h *CourtHandler) courtID(c *gin.Context) (int64, bool) {
	return parseCourtID(c, h.logger)
}

func (h *CourtHandler) courtDate(c *gin.Context) (int64, time.Time, bool) {
	return parseCourtDate(c, h.logger)
}

func parseCourtID(c *gin.Context, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, logger, fmt.Errorf("%w: court id %q", model.ErrValidation, c.Param("id")))
		return 0, false
	}
	return id, true
}

func parseCourtDate(c *gin.Context, logger *zap.Logger) (int64, time.Time, bool) {
	courtID, ok := parseCourtID(c, logger)
	if !ok {
		return 0, time.Time{}, false
	}

	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		writeError(c, logger, err)
		return 0, time.Time{}, false
	}
	return courtID, date, true
}
