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

	"github.com/cvdesk/cvdesk/internal/accounts"
	"github.com/cvdesk/cvdesk/internal/app"
	"github.com/cvdesk/cvdesk/internal/auth"
	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/dashboard"
	"github.com/cvdesk/cvdesk/internal/observability"
	"github.com/cvdesk/cvdesk/internal/platform/cache"
	"github.com/cvdesk/cvdesk/internal/platform/db"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/tasks"
	"github.com/cvdesk/cvdesk/internal/uploads"
	"github.com/cvdesk/cvdesk/internal/users"
	"github.com/cvdesk/cvdesk/internal/view"
	"github.com/cvdesk/cvdesk/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "cvdesk_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	roleTable := authz.DefaultRoleTable()
	guard := authz.NewGuard(authz.GuardConfig{
		Table:      roleTable,
		Classifier: authz.NewClassifier(authz.DefaultRules()),
		Resolver:   authz.NewResolver(usersService, logger),
	})
	metrics := observability.NewMetrics()
	authzMW := authz.Middleware{Guard: guard, Logger: logger, Observe: metrics.ObserveDecision}

	renderer := &view.Renderer{Logger: logger, Templates: templates, CSRF: csrfManager, Guard: guard}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, renderer, sessionManager, auditLogger, guard.DefaultLanding())

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	tasksRepo := tasks.NewRepository(pool)
	tasksService := tasks.NewService(tasksRepo, roleTable, jobs.AssignmentNotifier{Client: jobsClient}, logger)
	tasksHandler := tasks.NewHandler(logger, tasksService, renderer, guard, authzMW, auditLogger)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService, renderer, authzMW, auditLogger)

	usersHandler := users.NewHandler(logger, usersService, renderer, auditLogger)

	dashboardService := dashboard.NewService(pool, roleTable, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, renderer)

	uploadStore, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}
	uploadsHandler := uploads.NewHandler(logger, uploadStore, tasksService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Renderer:         renderer,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthzMW:          authzMW,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		TasksHandler:     tasksHandler,
		AccountsHandler:  accountsHandler,
		UsersHandler:     usersHandler,
		UploadsHandler:   uploadsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
