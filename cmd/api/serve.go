package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/ai"
	httptransport "github.com/helpdesk/support-desk/internal/api/http"
	"github.com/helpdesk/support-desk/internal/api/http/handlers"
	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/events"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/persistence"
	"github.com/helpdesk/support-desk/internal/ratelimit"
	"github.com/helpdesk/support-desk/internal/service"
	"github.com/helpdesk/support-desk/internal/worker"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadRuntime()
			if err != nil {
				return err
			}
			defer env.logger.Sync() //nolint:errcheck
			return serve(cmd.Context(), env)
		},
	}
}

func serve(parent context.Context, env *runtimeEnv) error {
	cfg, logger := env.cfg, env.logger

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(cfg.Tracing, cfg.App)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()
	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg)

	var chatLimiter ratelimit.Limiter = ratelimit.NewLocalLimiter(ratelimit.PerMinute(cfg.RateLimit.ChatPerMinute))
	if redis.Enabled() {
		chatLimiter = ratelimit.NewRedisLimiter(redis.Client, "ai-chat", ratelimit.PerMinute(cfg.RateLimit.ChatPerMinute))
	}

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return err
	}
	policy := ai.NewPolicy(provider, cfg.AI.Timeout())
	logger.Info("ai provider configured", zap.String("provider", policy.ProviderName()))

	notifyWorker := worker.NewNotificationWorker(events.NewInMemoryDispatcher(), 2, 256, logger)
	notifications := service.NewNotificationService(notifyWorker, logger, cfg.Notification)
	worker.StartNotificationWorker(ctx, notifyWorker, notifications)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, repos.users, tokens, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		MessageRepo: repos.messages,
		Policy:      policy,
		Dispatcher:  notifyWorker,
		Metrics:     metrics,
		Logger:      logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Dispatcher: notifyWorker,
		Metrics:    metrics,
		Logger:     logger,
	})
	assistant := service.NewAssistantService(policy, repos.feedback, metrics, logger)

	app := httptransport.NewApp(cfg.App)
	httptransport.RegisterMiddlewares(app, cfg.App, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.IsProduction()),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Admin:          handlers.NewAdminHandler(adminService),
		AI:             handlers.NewAIHandler(assistant),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.users),
		ChatLimiter:    chatLimiter,
		Metrics:        metrics,
		Logger:         logger,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return err
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(shutdownGrace); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer drainCancel()
	if err := notifyWorker.Stop(drainCtx); err != nil {
		logger.Warn("notification worker drain", zap.Error(err))
	}
	return nil
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
