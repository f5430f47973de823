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

	"github.com/quillboard/quillboard/internal/app"
	"github.com/quillboard/quillboard/internal/attendance"
	"github.com/quillboard/quillboard/internal/groups"
	"github.com/quillboard/quillboard/internal/ledger"
	"github.com/quillboard/quillboard/internal/observability"
	"github.com/quillboard/quillboard/internal/places"
	"github.com/quillboard/quillboard/internal/platform/cache"
	"github.com/quillboard/quillboard/internal/platform/db"
	"github.com/quillboard/quillboard/internal/platform/mail"
	"github.com/quillboard/quillboard/internal/shared"
	"github.com/quillboard/quillboard/internal/threads"
	"github.com/quillboard/quillboard/internal/users"
	"github.com/quillboard/quillboard/internal/verify"
	"github.com/quillboard/quillboard/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "quillboard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	codeSender := jobs.NewCodeSender(jobClient, mailer, cfg.SiteName, logger)

	verifyStore := verify.NewStore(redisClient)
	verifyService := verify.NewService(verifyStore, &verify.SVGRenderer{}, codeSender, verify.Config{
		CaptchaTTL:    cfg.CaptchaTTL,
		CaptchaLength: cfg.CaptchaLength,
		EmailTTL:      cfg.EmailCodeTTL,
		EmailLength:   cfg.EmailCodeLen,
	})
	verifyHandler := verify.NewHandler(logger, verifyService, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, verifyService, cfg.CaptchaEnabled)

	groupsRepo := groups.NewRepository(dbpool)
	groupsService := groups.NewService(groupsRepo)
	groupsHandler := groups.NewHandler(logger, groupsService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	threadsRepo := threads.NewRepository(dbpool)
	threadsService := threads.NewService(threadsRepo, ledgerService)
	threadsHandler := threads.NewHandler(logger, threadsService)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo)
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	placesRepo := places.NewRepository(dbpool)
	placesService := places.NewService(placesRepo)
	placesHandler := places.NewHandler(logger, placesService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		UsersHandler:      usersHandler,
		GroupsHandler:     groupsHandler,
		GroupsService:     groupsService,
		VerifyHandler:     verifyHandler,
		ThreadsHandler:    threadsHandler,
		LedgerHandler:     ledgerHandler,
		AttendanceHandler: attendanceHandler,
		PlacesHandler:     placesHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
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
