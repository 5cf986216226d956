package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taxgeo/backend/internal/application/analytics"
	"github.com/taxgeo/backend/internal/application/identity"
	"github.com/taxgeo/backend/internal/application/orders"
	"github.com/taxgeo/backend/internal/application/receipts"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/clickhouse"
	"github.com/taxgeo/backend/internal/infrastructure/config"
	"github.com/taxgeo/backend/internal/infrastructure/crypto"
	"github.com/taxgeo/backend/internal/infrastructure/logger"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/storage"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
	"github.com/taxgeo/backend/internal/interfaces/http/handler"
	"github.com/taxgeo/backend/internal/interfaces/http/middleware"
	"github.com/taxgeo/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// Telemetry first so everything downstream is instrumented.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, &cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer shutdownProvider(tracerProvider.Shutdown, log, "tracer")

	meterProvider, err := telemetry.NewMeterProvider(ctx, &cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer shutdownProvider(meterProvider.Shutdown, log, "meter")

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, &cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer shutdownProvider(loggerProvider.Shutdown, log, "logger")
	log = loggerProvider.BridgeLogger(log, cfg.Telemetry.ServiceName)

	profiler, err := telemetry.NewProfiler(&cfg.Telemetry, log)
	if err != nil {
		log.Warn("profiler disabled", zap.Error(err))
	} else {
		defer func() { _ = profiler.Stop() }()
	}

	apiMetrics, err := telemetry.NewAPIMetrics(meterProvider.Meter("taxgeo-api"))
	if err != nil {
		return err
	}

	// Column encryption key derives once per process.
	if err := crypto.Init(cfg.Crypto.SecretKey, log); err != nil {
		return err
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, log); err != nil {
		log.Warn("database tracing disabled", zap.Error(err))
	}

	chClient := clickhouse.NewClient(&cfg.ClickHouse, log)
	defer func() { _ = chClient.Close() }()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	var responseCache *cache.ResponseCache
	if cfg.Cache.Enabled {
		responseCache = cache.NewResponseCache(redisClient, cfg.Cache.TTL, log)
	}

	store, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Repositories and services.
	employeeRepo := persistence.NewEmployeeRepository(db.DB, log)
	kkmRepo := persistence.NewKkmRepository(db.DB, log)
	organizationRepo := persistence.NewOrganizationRepository(db.DB, log)
	analyticsRepo := persistence.NewAnalyticsRepository(db.DB, log)
	receiptsRepo := clickhouse.NewReceiptsRepository(chClient, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewRedisTokenBlacklist(redisClient)

	authService := identity.NewAuthService(employeeRepo, jwtService, log)
	employeeService := identity.NewEmployeeService(employeeRepo, log)
	analyticsService := analytics.NewService(analyticsRepo, kkmRepo, apiMetrics, log)
	receiptsService := receipts.NewService(receiptsRepo, organizationRepo, kkmRepo, log)
	ordersService := orders.NewService(db, store, log)

	// Authentication chain shared by the protected route groups.
	employeeAuth := middleware.EmployeeAuth(middleware.AuthConfig{
		JWT:       jwtService,
		Blacklist: blacklist,
		Employees: employeeRepo,
		Log:       log,
	})

	r := router.New(cfg, log, apiMetrics)
	r.Register(
		handler.NewAuthHandler(authService, blacklist, cfg.Cookie, employeeAuth, log),
		handler.NewEmployeesHandler(employeeService, log, employeeAuth, middleware.RequireAdmin()),
		handler.NewDictionaries(db.DB, responseCache, apiMetrics, log),
		handler.NewEntities(db.DB, responseCache, apiMetrics, log),
		handler.NewAnalyticsHandler(analyticsService, responseCache, apiMetrics, log),
		handler.NewReceiptsHandler(receiptsService, responseCache, apiMetrics, log),
		handler.NewOrdersHandler(ordersService, responseCache, log, employeeAuth),
	)

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Setup(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Provider != "s3" {
		log.Info("using stub object storage")
		return storage.NewStubObjectStorage(), nil
	}
	s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3Store, nil
}

func shutdownProvider(shutdown func(context.Context) error, log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
	}
}
