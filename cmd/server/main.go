package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopadmin/backend/internal/application/reconcile"
	"github.com/shopadmin/backend/internal/infrastructure/cache"
	"github.com/shopadmin/backend/internal/infrastructure/config"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/orderapi"
	"github.com/shopadmin/backend/internal/infrastructure/persistence"
	"github.com/shopadmin/backend/internal/infrastructure/scheduler"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"github.com/shopadmin/backend/internal/interfaces/http/handler"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"github.com/shopadmin/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Shop Admin Backend API
//	@version		1.0
//	@description	Order status management and carrier reconciliation for the shop admin console

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Admin session token issued by the shop backend. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: map[string]string{"app": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shop admin backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database holds run history and the auto-refresh setting
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.DBLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	db, err := persistence.Open(connectCtx, &cfg.Database, persistence.WithGormLogger(gormLog))
	cancelConnect()
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	health := handler.NewHealthHandler(cfg.App.Name, version).
		AddCheck("database", db.Ping)

	// Order view cache
	var views cache.OrderViewCache
	if cfg.Redis.Enabled {
		redisViews, err := cache.NewRedisOrderViewCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisViews.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
		health.AddCheck("redis", redisViews.Ping)
		views = redisViews
		log.Info("Order view cache backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		views = cache.NewMemoryOrderViewCache(cfg.Redis.CacheTTL, 2*cfg.Redis.CacheTTL)
		log.Info("Order view cache in process memory")
	}

	// Shop backend client. Admin requests forward the admin's own token;
	// scheduled passes use the service token.
	client, err := orderapi.NewClient(orderapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, orderapi.ContextTokenSource{
		Fallback: orderapi.StaticTokenSource(cfg.Backend.ServiceToken),
	},
		orderapi.WithLogger(log),
		orderapi.WithMeter(mp.Meter("orderapi")),
	)
	if err != nil {
		log.Fatal("Failed to create shop backend client", zap.Error(err))
	}

	// Application services
	metrics, err := telemetry.NewReconcileMetrics(mp.Meter("reconcile"))
	if err != nil {
		log.Fatal("Failed to create reconcile metrics", zap.Error(err))
	}
	reconcileService := reconcile.NewService(client, views, reconcile.Config{
		CallDelay: cfg.Reconcile.CallDelay,
		PageSize:  cfg.Reconcile.PageSize,
	}, log, reconcile.WithMetrics(metrics))
	statusService := reconcile.NewStatusService(client, views, reconcileService, log)
	queryService := reconcile.NewOrderQueryService(client, views, log)

	// Scheduler
	schedulerCfg := scheduler.DefaultReconcileSchedulerConfig()
	schedulerCfg.Interval = cfg.Reconcile.Interval
	schedulerCfg.AutoRefreshDefault = cfg.Reconcile.AutoRefreshDefault
	schedulerCfg.RunTimeout = cfg.Reconcile.RunTimeout
	schedulerCfg.HistorySize = cfg.Reconcile.HistorySize
	reconcileScheduler, err := scheduler.NewReconcileScheduler(
		schedulerCfg,
		reconcileService,
		persistence.NewGormRunRepository(db.DB),
		persistence.NewGormSettingsRepository(db.DB),
		log,
	)
	if err != nil {
		log.Fatal("Failed to create reconcile scheduler", zap.Error(err))
	}
	if err := reconcileScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start reconcile scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After")

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.IsProduction()

	engine.Use(
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
			SkipPaths:   []string{"/health"},
		}),
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.SpanErrorMarker(),
		middleware.SecureWithConfig(securityCfg),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", health.Health)

	jwtCfg := middleware.DefaultJWTConfig(cfg.JWT.Secret, cfg.JWT.Issuer)
	jwtCfg.AllowedRoles = cfg.JWT.AllowedRoles
	jwtCfg.Logger = log

	api := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(
			middleware.JWTAuth(jwtCfg),
			middleware.TracingAttributeInjector(),
			middleware.Timeout(cfg.HTTP.RequestTimeout),
		)
	if cfg.HTTP.RateLimitEnabled {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(
			cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, 0,
		)))
	}

	api.Register(router.OrderRoutes(handler.NewOrderHandler(queryService, statusService, reconcileService))).
		Register(router.ReconcileRoutes(handler.NewReconcileHandler(reconcileScheduler))).
		Register(router.TaxonomyRoutes(handler.NewTaxonomyHandler())).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Reconcile scheduler did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
