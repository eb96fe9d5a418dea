package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campushire/campushire/internal/app"
	"github.com/campushire/campushire/internal/applications"
	"github.com/campushire/campushire/internal/guard"
	"github.com/campushire/campushire/internal/identity"
	"github.com/campushire/campushire/internal/observability"
	"github.com/campushire/campushire/internal/platform/cache"
	"github.com/campushire/campushire/internal/platform/db"
	"github.com/campushire/campushire/internal/platform/objstore"
	"github.com/campushire/campushire/internal/postings"
	"github.com/campushire/campushire/internal/profiles"
	"github.com/campushire/campushire/internal/quizzes"
	"github.com/campushire/campushire/internal/referrals"
	"github.com/campushire/campushire/internal/seminars"
	"github.com/campushire/campushire/internal/shared"
	"github.com/campushire/campushire/internal/uploads"
	"github.com/campushire/campushire/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := objstore.New(objstore.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		logger.Error("connect object storage", slog.Any("error", err))
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Warn("ensure bucket", slog.Any("error", err))
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.PortalURL)
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "campushire_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	tokens := identity.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo, tokens, jobClient, logger)
	identityHandler := identity.NewHandler(logger, identityService, sessionManager, csrfManager)

	profileRepo := profiles.NewRepository(dbpool)
	profileService := profiles.NewService(profileRepo)

	gate := guard.NewGate(profileService, logger)
	guardMW := guard.Middleware{
		Resolver: identityService,
		Gate:     gate,
		Logger:   logger,
		Counter:  metrics,
	}
	profilesHandler := profiles.NewHandler(logger, profileService, gate, identityService)

	postingRepo := postings.NewRepository(dbpool)
	postingService := postings.NewService(postingRepo, logger)
	postingsHandler := postings.NewHandler(logger, postingService, profileService)

	applicationRepo := applications.NewRepository(dbpool)
	applicationService := applications.NewService(applicationRepo, postingService, profileService, logger)
	applicationsHandler := applications.NewHandler(logger, applicationService)

	quizRepo := quizzes.NewRepository(dbpool)
	quizCache := quizzes.NewCache(redisClient, 10*time.Minute)
	quizService := quizzes.NewService(quizRepo, quizCache, logger)
	quizzesHandler := quizzes.NewHandler(logger, quizService)

	referralRepo := referrals.NewRepository(dbpool)
	referralService := referrals.NewService(referralRepo, logger)
	referralsHandler := referrals.NewHandler(logger, referralService)

	seminarRepo := seminars.NewRepository(dbpool)
	seminarService := seminars.NewService(seminarRepo, identityService, logger)
	seminarsHandler := seminars.NewHandler(logger, seminarService)

	uploadsHandler := uploads.NewHandler(logger, store, profileService, identityService, jobClient)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Guard:               guardMW,
		IdentityHandler:     identityHandler,
		ProfilesHandler:     profilesHandler,
		PostingsHandler:     postingsHandler,
		ApplicationsHandler: applicationsHandler,
		QuizzesHandler:      quizzesHandler,
		ReferralsHandler:    referralsHandler,
		SeminarsHandler:     seminarsHandler,
		UploadsHandler:      uploadsHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
