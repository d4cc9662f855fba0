package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/config"
	"github.com/helpdesk/support-desk/internal/observability"
	"github.com/helpdesk/support-desk/internal/persistence"
	"github.com/helpdesk/support-desk/internal/repository"
)

var errNoDatabase = errors.New("POSTGRES_DSN is required for this command")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "support-desk",
		Short:         "Help desk ticketing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newUsersCmd())
	return root
}

// runtimeEnv is the config and logger shared by every subcommand.
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &runtimeEnv{cfg: cfg, logger: logger}, nil
}

// repositories selects Postgres when a pool is open and the in-memory store otherwise.
type repositories struct {
	users    repository.UserRepository
	tickets  repository.TicketRepository
	messages repository.TicketMessageRepository
	feedback repository.FeedbackRepository
}

func newRepositories(pg *persistence.Postgres) repositories {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return repositories{
			users:    repository.NewUserRepository(pool),
			tickets:  repository.NewTicketRepository(pool),
			messages: repository.NewTicketMessageRepository(pool),
			feedback: repository.NewFeedbackRepository(pool),
		}
	}
	store := repository.NewMemoryStore()
	return repositories{
		users:    store.Users(),
		tickets:  store.Tickets(),
		messages: store.Messages(),
		feedback: store.Feedback(),
	}
}

// openDatabase connects to Postgres and fails when no DSN is configured.
func openDatabase(ctx context.Context, env *runtimeEnv) (*persistence.Postgres, error) {
	if env.cfg.Postgres.DSN == "" {
		return nil, errNoDatabase
	}
	pg, err := persistence.NewPostgres(ctx, env.cfg.Postgres, env.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pg, nil
}
