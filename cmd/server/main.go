package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/repository/memory"
	"github.com/iliyamo/room-booking/internal/router"
	"github.com/iliyamo/room-booking/internal/service"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := newLogger(cfg)
	model.AdminLevel = cfg.AdminLevel

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer closeStore()

	catalog := service.NewRoomCatalog(store, &logger)
	if cfg.RoomsSeedPath != "" {
		seed, err := config.LoadRoomsConfig(cfg.RoomsSeedPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.RoomsSeedPath).Msg("load room seed")
		}
		n, err := catalog.Seed(ctx, seed.Models())
		if err != nil {
			logger.Fatal().Err(err).Msg("seed rooms")
		}
		logger.Info().Int("inserted", n).Str("seed", seed.String()).Msg("room catalog seeded")
	}

	var events service.EventPublisher = queue.NoopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsQueue, &logger)
	}
	if cfg.EventLogConsumer {
		consumer := queue.NewEventLogConsumer(cfg.AMQPURL, cfg.EventsQueue, cfg.EventLogDir, &logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("event-consumer stopped")
			}
		}()
	}

	checker := service.NewConflictChecker()
	audit := service.NewAuditTrail(store)
	bookings := service.NewBookingService(store, checker, audit, events, &logger)
	approvals := service.NewApprovalWorkflow(bookings)
	queries := service.NewQueryService(store, audit, checker)
	exporter := service.NewExporter(queries, audit)

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn().Msg("redis unavailable; rate limiting is local and catalog caching is off")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	rooms := handler.NewRoomHandler(catalog, queries)
	rooms.OnChange = purgeRoomCache(rdb, cacheCfg.Prefix, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(logger), middleware.RequestLogger(logger))

	if cfg.MetricsEnabled {
		metrics.Register()
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	router.RegisterRoutes(e, router.Handlers{
		Bookings: handler.NewBookingHandler(bookings, queries),
		Rooms:    rooms,
		Admin:    handler.NewAdminHandler(approvals, queries, exporter),
		Ready:    &handler.ReadyHandler{Store: store, Redis: rdb},
	}, cfg.JWTSecret, router.Middleware{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		RoomCache: middleware.NewRedisCache(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "room-booking").Logger()
}

// openStore returns the configured booking store and its close function.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}
	db, err := database.Open(ctx, database.Params{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }, nil
}

func purgeRoomCache(rdb *redis.Client, prefix string, logger zerolog.Logger) func(context.Context) {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) {
		if err := middleware.PurgeCache(context.WithoutCancel(ctx), rdb, prefix); err != nil {
			logger.Warn().Err(err).Msg("purge room cache")
		}
	}
}
