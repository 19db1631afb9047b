package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает API
type Services struct {
	Courts   *service.CourtService
	Calendar *service.CalendarService
	Bookings *service.BookingService
}

// NewRouter собирает gin роутер с маршрутами /v1
func NewRouter(svc Services, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	ch := NewCourtHandler(svc.Courts, svc.Calendar, logger)
	bh := NewBookingHandler(svc.Bookings, logger)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.GET("/courts", ch.List)
		v1.GET("/courts/:id", ch.Get)
		v1.GET("/courts/:id/calendar", ch.Calendar)
		v1.GET("/courts/:id/days/:date", ch.Day)

		secured := v1.Group("")
		secured.Use(CallerAuth())
		{
			secured.POST("/courts", ch.Create)
			secured.PUT("/courts/:id/schedule/:weekday", ch.UpdateSchedule)
			secured.POST("/courts/:id/materialize", ch.Materialize)
			secured.POST("/courts/:id/days/:date/close", ch.CloseDay)
			secured.POST("/courts/:id/days/:date/reopen", ch.ReopenDay)
			secured.PUT("/courts/:id/days/:date/slots/:time", ch.UpdateSlot)
			secured.GET("/courts/:id/days/:date/bookings", bh.ListDay)

			secured.POST("/bookings", bh.Create)
			secured.GET("/bookings", bh.ListMine)
			secured.GET("/bookings/:id", bh.Get)
			secured.POST("/bookings/:id/cancel", bh.Cancel)
		}
	}

	return r
}

// Server HTTP сервер с корректной остановкой
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run слушает адрес до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP API")
	return s.srv.Shutdown(shutdownCtx)
}
