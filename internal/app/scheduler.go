package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const materializeJobName = "calendar_materialization"

var ErrEmptyCronExpr = errors.New("cron expression is required")

// Materializer продлевает календари всех кортов
type Materializer interface {
	MaterializeAll(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	scheduler    gocron.Scheduler
	materializer Materializer
	cronExpr     string
	timeout      time.Duration
	logger       *zap.Logger
	stopOnce     sync.Once
	stopErr      error
}

// NewScheduler создаёт новый планировщик
func NewScheduler(materializer Materializer, cronExpr string, location *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	if location == nil {
		location = time.UTC
	}

	sched, err := gocron.NewScheduler(
		gocron.WithLocation(location),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					logger.Error("Scheduler job panicked",
						zap.String("job_id", jobID.String()),
						zap.String("job_name", jobName),
						zap.Any("panic", recoverData),
					)
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler:    sched,
		materializer: materializer,
		cronExpr:     cronExpr,
		timeout:      5 * time.Minute,
		logger:       logger,
	}, nil
}

// Start регистрирует задачу материализации и запускает планировщик.
// Первый прогон выполняется сразу при старте.
func (s *Scheduler) Start(ctx context.Context) error {
	jobLogger := s.logger.With(
		zap.String("job_name", materializeJobName),
		zap.String("cron", s.cronExpr),
	)

	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cronExpr, false),
		gocron.NewTask(func() { s.materialize(ctx, jobLogger) }),
		gocron.WithName(materializeJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		jobLogger.Error("Failed to register scheduler job", zap.Error(err))
		return err
	}

	jobLogger.Info("Starting background scheduler")
	s.scheduler.Start()
	return nil
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// materialize держит календари всех кортов на горизонт вперёд
func (s *Scheduler) materialize(ctx context.Context, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	logger.Info("Starting calendar materialization")

	if err := s.materializer.MaterializeAll(ctx); err != nil {
		logger.Error("Calendar materialization failed", zap.Error(err))
		return
	}

	logger.Info("Calendar materialization completed", zap.Duration("took", time.Since(started)))
}
