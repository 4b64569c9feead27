package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/voyagehq/gatekeeper/internal/alerts"
	"github.com/voyagehq/gatekeeper/internal/auth"
	"github.com/voyagehq/gatekeeper/internal/background"
	"github.com/voyagehq/gatekeeper/internal/bruteforce"
	"github.com/voyagehq/gatekeeper/internal/config"
	"github.com/voyagehq/gatekeeper/internal/database"
	"github.com/voyagehq/gatekeeper/internal/detect"
	"github.com/voyagehq/gatekeeper/internal/events"
	"github.com/voyagehq/gatekeeper/internal/handlers"
	middlewareCustom "github.com/voyagehq/gatekeeper/internal/middleware"
	"github.com/voyagehq/gatekeeper/internal/ratelimit"
	"github.com/voyagehq/gatekeeper/internal/repositories"
	"github.com/voyagehq/gatekeeper/internal/routes"
	pkghttp "github.com/voyagehq/gatekeeper/pkg/http"
	pkglogger "github.com/voyagehq/gatekeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).
			Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	seclog := pkglogger.NewSecurityLogger(logger)

	// Event pipeline: store, recorder, alert engine
	store := events.NewStore(cfg.Protection.EventRetention)
	recorder := events.NewRecorder(store, seclog, logger)

	engine := alerts.NewEngine(store, alerts.DefaultRules(), seclog, logger)
	engine.AddNotifier(alerts.NewLogNotifier(logger))
	if cfg.Alerting.FromAddress != "" && cfg.Alerting.ToAddress != "" {
		notifier, err := alerts.NewSESNotifier(cfg.Alerting.AWSRegion,
			cfg.Alerting.FromAddress, cfg.Alerting.ToAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email notifier", slog.Any("error", err))
			os.Exit(1)
		}
		engine.AddNotifier(notifier)
		logger.Info("critical alert emails enabled", slog.String("to", cfg.Alerting.ToAddress))
	}
	recorder.AddSink(engine)

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()

	// Optional durable archive
	var db *database.DB
	if cfg.Archive.Enabled() {
		db, err = database.NewConnection(&cfg.Archive, logger)
		if err != nil {
			logger.Error("failed to connect to archive database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(migrateCtx, "migrations"); err != nil {
			cancel()
			logger.Error("failed to run archive migrations", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()

		archive := events.NewArchive(repositories.NewSecurityEventRepository(db), logger)
		recorder.AddSink(archive)
		go archive.Run(backgroundCtx)
		logger.Info("durable event archive enabled")
	}

	// Rate limiting: shared Redis counters when configured, otherwise
	// per-instance memory
	var counterStore ratelimit.CounterStore
	memoryStore := ratelimit.NewMemoryStore()
	counterStore = memoryStore
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		counterStore = ratelimit.NewRedisStore(redisClient)
		logger.Info("distributed rate limit counters enabled", slog.String("addr", cfg.Redis.Addr))
	}
	limiter := ratelimit.NewLimiter(counterStore, cfg.Protection.RouteLimits, logger)

	guard := bruteforce.NewGuard(bruteforce.Config{
		MaxFailures:     cfg.Protection.MaxLoginFailures,
		LockoutDuration: cfg.Protection.LockoutDuration,
		AttemptWindow:   cfg.Protection.AttemptWindow,
	}, recorder, logger)

	detector := detect.NewRegexDetector(store, cfg.Protection.BurstThreshold)

	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Server.Env == "production",
		SameSite: "lax",
	}
	sessions := auth.NewSessionManager(cfg.Server.SessionSecret, cfg.Protection.CSRFTokenTTL, cookieConfig)
	csrfManager := auth.NewCSRFTokenManager(cfg.Protection.CSRFTokenTTL)
	twoFactor := auth.NewTwoFactorManager(cfg.Protection.TwoFactorIssuer)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Demo credentials exercise the lockout pipeline end to end. With no
	// password configured every attempt fails, which is fine for a
	// protection demo.
	demoUser := getEnvDefault("DEMO_USERNAME", "admin")
	demoPass := os.Getenv("DEMO_PASSWORD")
	authenticate := func(username, password string) bool {
		return demoPass != "" && username == demoUser && password == demoPass
	}

	deps := routes.Dependencies{
		Limiter:     limiter,
		Recorder:    recorder,
		Detector:    detector,
		CSRFManager: csrfManager,
		IPConfig:    ipConfig,

		CSRFHandler:      handlers.NewCSRFHandler(sessions, csrfManager, cookieConfig, logger),
		TwoFactorHandler: handlers.NewTwoFactorHandler(twoFactor, guard, ipConfig, logger),
		SecurityHandler:  handlers.NewSecurityHandler(store, engine, logger),
		DemoHandler:      handlers.NewDemoLoginHandler(guard, authenticate, ipConfig, logger),

		Logger: logger,
	}

	// Periodic reclamation of expired protective state
	sweeper := background.NewSweeper(logger, cfg.Protection.SweepInterval)
	sweeper.Register("rate_limit_windows", memoryStore)
	sweeper.Register("lockout_records", guard)
	sweeper.Register("csrf_tokens", csrfManager)
	sweeper.Register("event_retention", store)
	go sweeper.Start(backgroundCtx)

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, deps)

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","archive":"down"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	backgroundCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvDefault(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
