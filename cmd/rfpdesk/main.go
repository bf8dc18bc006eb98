package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rfpdesk/rfpdesk/internal/app"
	"github.com/rfpdesk/rfpdesk/internal/auth"
	"github.com/rfpdesk/rfpdesk/internal/billing"
	"github.com/rfpdesk/rfpdesk/internal/notifications"
	"github.com/rfpdesk/rfpdesk/internal/observability"
	platformcache "github.com/rfpdesk/rfpdesk/internal/platform/cache"
	"github.com/rfpdesk/rfpdesk/internal/platform/db"
	"github.com/rfpdesk/rfpdesk/internal/quota"
	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/roles"
	"github.com/rfpdesk/rfpdesk/internal/security"
	"github.com/rfpdesk/rfpdesk/internal/shared"
	"github.com/rfpdesk/rfpdesk/internal/users"
	"github.com/rfpdesk/rfpdesk/jobs"
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
	if cfg.DBAutoMigrate {
		if err := db.ApplySchema(ctx, dbpool); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := platformcache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	jsonCache := platformcache.NewJSONCache(redisClient, cfg.CacheTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rolesService := roles.NewService(roles.NewRepository(dbpool), jsonCache, auditLogger, logger)
	rbacMiddleware := rbac.Middleware{Service: rbac.NewService(rolesService), Logger: logger}
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)), rbacMiddleware)

	billingService := billing.NewService(billing.NewRepository(dbpool), jsonCache, jobsClient, metrics, logger)
	billingHandler := billing.NewHandler(logger, billingService, rbacMiddleware, idempotencyStore)

	quotaService := quota.NewService(quota.NewRepository(dbpool), auditLogger, logger)
	quotaHandler := quota.NewHandler(logger, quotaService, rbacMiddleware)

	securityService := security.NewService(security.NewRepository(dbpool), jsonCache, auditLogger, logger)
	securityHandler := security.NewHandler(logger, securityService, rbacMiddleware)
	guard := security.NewGuard(securityService, metrics, logger)

	notificationsHandler := notifications.NewHandler(logger, notifications.NewService(notifications.NewRepository(dbpool)), rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Guard:                guard,
		AuthHandler:          authHandler,
		RolesHandler:         rolesHandler,
		UsersHandler:         usersHandler,
		BillingHandler:       billingHandler,
		QuotaHandler:         quotaHandler,
		SecurityHandler:      securityHandler,
		NotificationsHandler: notificationsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
