package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/installsync/portal-server-go/internal/auth"
	"github.com/installsync/portal-server-go/internal/config"
	"github.com/installsync/portal-server-go/internal/database"
	"github.com/installsync/portal-server-go/internal/handler"
	"github.com/installsync/portal-server-go/internal/jobs"
	"github.com/installsync/portal-server-go/internal/middleware"
	"github.com/installsync/portal-server-go/internal/redis"
	"github.com/installsync/portal-server-go/internal/repository"
	"github.com/installsync/portal-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	driverRepo := repository.NewDriverRepository(db.DB)
	pmRepo := repository.NewPropertyManagerRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	equipmentRepo := repository.NewEquipmentRepository(db.DB)
	tempLogRepo := repository.NewTempLogRepository(db.DB)
	activityRepo := repository.NewActivityLogRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AdminTokenTTL(), cfg.DriverTokenTTL())

	crmService := service.NewCRMService(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg.CRMLocationID)
	storageService := service.NewStorageService(cfg.StorageURL, cfg.StorageServiceKey)
	activityService := service.NewActivityService(activityRepo)
	driverAuthService := service.NewDriverAuthService(driverRepo, tokens)
	taskService := service.NewTaskService(taskRepo)
	tempLogService := service.NewTempLogService(tempLogRepo, equipmentRepo)
	portalService := service.NewPortalService(pmRepo, projectRepo, taskRepo, equipmentRepo, messageRepo)
	adminService := service.NewAdminService(
		tokens, driverRepo, pmRepo, projectRepo, taskRepo,
		equipmentRepo, messageRepo, activityRepo,
		crmService, activityService, cfg.AdminPasswordHash,
	)

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	authRateLimitMW := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.AuthRateLimit, config.AuthRateWindow, "auth",
	)
	adminAuthMW := middleware.NewAdminAuthMiddleware(tokens)
	driverAuthMW := middleware.NewDriverAuthMiddleware(driverAuthService)
	webhookMW := middleware.NewWebhookSignatureMiddleware(cfg.WebhookSigningKey, redisClient)
	bodyLimitMW := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMW := middleware.NewSecurityHeadersMiddleware(isProduction)

	uploadHandler := handler.NewUploadHandler(storageService, cfg.StorageBucket)
	driverHandler := handler.NewDriverHandler(
		driverAuthService, taskService, tempLogService,
		driverAuthMW.Handler, authRateLimitMW.Handler,
	)
	portalHandler := handler.NewPortalHandler(portalService)
	adminHandler := handler.NewAdminHandler(
		adminService, taskService, adminAuthMW.Handler, authRateLimitMW.Handler,
		uploadHandler, cfg.PortalBaseURL,
	)
	webhookHandler := handler.NewWebhookHandler(activityService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMW.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/portal/", http.StatusFound)
	})

	r.Route("/webhooks/email", func(r chi.Router) {
		r.Use(webhookMW.Handler)
		r.Post("/", webhookHandler.EmailEvent)
	})

	r.Route("/driver", func(r chi.Router) {
		r.Use(securityHeadersMW.Handler)
		r.Mount("/", driverHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/driver", "/driver").ServeHTTP)
	})

	r.Route("/portal", func(r chi.Router) {
		r.Use(securityHeadersMW.Handler)
		r.Mount("/", portalHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/portal", "/portal").ServeHTTP)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMW.Handler)
		r.Mount("/", adminHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/admin", "/admin").ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(
		tempLogRepo, activityRepo,
		config.CleanupJobInterval, config.TempSessionMaxAge, config.ActivityLogRetention,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
