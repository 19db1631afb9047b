package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/court_booking/internal/api"
	"github.com/Freeeeeet/court_booking/internal/app"
	"github.com/Freeeeeet/court_booking/internal/cache"
	"github.com/Freeeeeet/court_booking/internal/config"
	"github.com/Freeeeeet/court_booking/internal/controller"
	"github.com/Freeeeeet/court_booking/internal/migrations"
	"github.com/Freeeeeet/court_booking/internal/pricing"
	"github.com/Freeeeeet/court_booking/internal/repository"
	"github.com/Freeeeeet/court_booking/internal/repository/memory"
	"github.com/Freeeeeet/court_booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// stores реализации хранилищ для выбранного драйвера
type stores struct {
	users    service.UserStore
	courts   service.CourtStore
	calendar service.CalendarStore
	bookings service.BookingStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Court booking stopped with error", zap.Error(err))
	}

	logger.Info("Court booking stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Sugar().Infow("Starting court booking",
		"environment", cfg.Environment,
		"storage", cfg.StorageDriver,
		"timezone", cfg.Timezone,
		"months_ahead", cfg.MonthsAhead,
	)

	st, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	var calendarCache service.CalendarCache = service.NopCache{}
	if cfg.RedisAddr != "" {
		client := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is unavailable, calendar cache may miss", zap.Error(err))
		}
		calendarCache = cache.NewCalendarCache(client, cfg.CalendarCacheTTL)
		logger.Info("Calendar cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	calendarService := service.NewCalendarService(st.courts, st.calendar, calendarCache, service.CalendarOptions{
		Location:          location,
		MonthsAhead:       cfg.MonthsAhead,
		MaterializeOnRead: cfg.MaterializeOnRead,
		RetainDays:        cfg.RetainDays,
	}, logger)
	userService := service.NewUserService(st.users, logger)
	courtService := service.NewCourtService(st.users, st.courts, calendarService, logger)
	bookingService := service.NewBookingService(
		st.courts,
		st.calendar,
		st.bookings,
		calendarService,
		pricing.NewRuleCalculator(cfg.DefaultHourlyRate),
		logger,
	)

	scheduler, err := app.NewScheduler(calendarService, cfg.MaterializeCron, location, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return scheduler.Stop()
	})

	if cfg.HTTPAddr != "" {
		router := api.NewRouter(api.Services{
			Courts:   courtService,
			Calendar: calendarService,
			Bookings: bookingService,
		}, logger)
		server := api.NewServer(cfg.HTTPAddr, router, logger)
		g.Go(func() error { return server.Run(gctx) })
	}

	if cfg.TelegramToken != "" {
		botInstance, err := controller.NewBot(cfg.TelegramToken, logger)
		if err != nil {
			return err
		}

		botController := controller.NewBotController(botInstance, userService, courtService, calendarService, bookingService, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			// Меню команд не критично для работы
			logger.Warn("Bot commands menu is not set", zap.Error(err))
		}
		g.Go(func() error { return botController.Start(gctx) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openStores открывает хранилище по STORAGE_DRIVER и применяет миграции
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.New()
		return &stores{
			users:    mem.Users,
			courts:   mem.Courts,
			calendar: mem.Calendar,
			bookings: mem.Bookings,
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return &stores{
		users:    repository.NewUserRepository(pool),
		courts:   repository.NewCourtRepository(pool),
		calendar: repository.NewCalendarRepository(pool),
		bookings: repository.NewBookingRepository(pool),
	}, pool.Close, nil
}
