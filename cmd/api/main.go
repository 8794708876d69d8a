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
	"github.com/redis/go-redis/v9"

	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/background"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/config"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/database"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/handlers"
	middlewareCustom "github.com/Sudo-psc/saraiva-vision-site-sub012/internal/middleware"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/ratelimit"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/repositories"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/routes"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/services"
	"github.com/Sudo-psc/saraiva-vision-site-sub012/internal/spam"
	pkghttp "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run database migrations
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Rate-limit and duplicate-content state live in redis when REDIS_ADDR
	// is set, so multiple replicas share one view. Without it, in-memory
	// stores keep single-instance deployments dependency-free.
	var limiterStore ratelimit.Store
	var duplicateStore spam.DuplicateStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		pingCancel()

		limiterStore = ratelimit.NewRedisStore(redisClient, "contact:ratelimit")
		duplicateStore = spam.NewRedisDuplicateStore(redisClient, "contact:duplicate")
		logger.Info("using redis-backed rate limit and duplicate stores", slog.String("addr", cfg.Redis.Addr))
	} else {
		limiterStore = ratelimit.NewMemoryStore()
		duplicateStore = spam.NewMemoryDuplicateStore()
		logger.Info("using in-memory rate limit and duplicate stores")
	}

	// Initialize repositories
	contactRepo := repositories.NewContactRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)

	// Rate limiter
	limiter := ratelimit.NewLimiter(limiterStore, ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	}, logger)

	// Spam classifier
	classifier := spam.NewClassifier(spam.DefaultConfig(), duplicateStore, logger)

	// reCAPTCHA verification delegate
	recaptchaService := services.NewRecaptchaService(
		cfg.Recaptcha.SecretKey,
		cfg.Recaptcha.MinScore,
		cfg.Recaptcha.VerifyURL,
		cfg.Recaptcha.Timeout,
		logger,
	)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Contact orchestrator
	contactService := services.NewContactService(
		contactRepo,
		outboxRepo,
		limiter,
		classifier,
		recaptchaService,
		emailService,
		services.ContactConfig{
			Env:         cfg.Server.Env,
			Recipient:   cfg.Email.Recipient,
			MaxRetries:  cfg.Outbox.MaxRetries,
			SendTimeout: cfg.Email.SendTimeout,
			SpamPenalty: cfg.RateLimit.SpamPenalty,
		},
		logger,
	)

	// Outbox retry worker
	outboxWorker := background.NewOutboxWorker(outboxRepo, emailService, background.OutboxWorkerConfig{
		PollInterval:   cfg.Outbox.PollInterval,
		BatchSize:      cfg.Outbox.BatchSize,
		RetryBaseDelay: cfg.Outbox.RetryBaseDelay,
		MaxRetryDelay:  cfg.Outbox.MaxRetryDelay,
		SendsPerSecond: cfg.Outbox.SendsPerSecond,
		SendTimeout:    cfg.Email.SendTimeout,
	}, logger)

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService, &pkghttp.IPConfig{
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Payload guard
	payloadGuardConfig := middlewareCustom.DefaultPayloadGuardConfig()
	payloadGuardConfig.MaxBodyBytes = cfg.Server.MaxBodyBytes

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	// RealIP is deliberately absent: it rewrites RemoteAddr from
	// X-Forwarded-For regardless of the peer, which would let any client
	// spoof the address the trusted-proxy check validates.
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.PayloadGuard(payloadGuardConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, contactHandler)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}

		stats := db.Stats()
		pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"pool": map[string]int32{
				"total_conns": stats.TotalConns(),
				"idle_conns":  stats.IdleConns(),
			},
		})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start outbox worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go outboxWorker.Start(workerCtx)

	// Start server
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

	workerCancel()
	outboxWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
