package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/clientsphere/config"
	pginfra "github.com/oksasatya/clientsphere/internal/infrastructure/postgres"
	"github.com/oksasatya/clientsphere/pkg/helpers"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Development helpers for the customer directory",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = config.Load()
			opts.logger = helpers.NewLogger(opts.cfg.AppName+"-seed", opts.cfg.Env, opts.cfg.LogLevel)
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newCustomersCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newReindexCommand(opts))
	return cmd
}

// openPool connects and migrates the postgres store.
func (o *rootOptions) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pginfra.NewPool(ctx, o.cfg.PoolOptions())
	if err != nil {
		return nil, err
	}
	if err := pginfra.RunMigrations(o.cfg.PostgresDSN(), o.cfg.MigrationsDir, o.logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
