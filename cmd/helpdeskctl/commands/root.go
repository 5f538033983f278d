// Package commands implements the helpdeskctl administration CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "helpdeskctl",
		Short: "Administer the helpdesk database",
		Long: `helpdeskctl runs maintenance tasks against the helpdesk database
configured through the same environment variables as the API server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(
		newMigrateCommand(),
		newSeedCommand(),
		newUserCommand(),
		newRatingCommand(),
		newExportCommand(),
	)
	return root
}

// store bundles what the subcommands need from the database.
type store struct {
	cfg      *config.Config
	logger   *zap.Logger
	database *persistence.Database
	redis    *persistence.Redis
	cache    *cache.Cache
	users    repository.UserRepository
	requests repository.RequestRepository
}

// openStore loads configuration, opens the database and applies migrations.
// Logs go to stderr so command output stays clean for piping.
func openStore(ctx context.Context) (*store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Logger.Output = "stderr"
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	database, err := persistence.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := persistence.RunMigrations(ctx, database.Handle(), database.Driver, logger); err != nil {
		database.Close()
		return nil, err
	}

	// Account changes made here must invalidate results the API server has cached.
	redis := persistence.NewRedis(cfg.Redis, logger)

	db := database.Handle()
	return &store{
		cfg:      cfg,
		logger:   logger,
		database: database,
		redis:    redis,
		cache:    cache.New(redis.Client, cfg.Cache, nil, logger),
		users:    repository.NewUserRepository(db),
		requests: repository.NewRequestRepository(db),
	}, nil
}

func (s *store) Close() {
	s.redis.Close()
	s.database.Close()
	_ = s.logger.Sync()
}

func (s *store) authService() *service.AuthService {
	return service.NewAuthService(*s.cfg, service.AuthDependencies{
		UserRepo:    s.users,
		RequestRepo: s.requests,
		Cache:       s.cache,
	}, s.logger)
}

func (s *store) requestService() *service.RequestService {
	db := s.database.Handle()
	return service.NewRequestService(service.RequestDependencies{
		RequestRepo: s.requests,
		UserRepo:    s.users,
		LookupRepo:  repository.NewLookupRepository(db),
		Dispatcher:  events.NewInMemoryDispatcher(s.logger, nil),
	}, s.logger)
}
