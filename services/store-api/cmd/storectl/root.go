package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"superfoods-store/shared/pkg/config"
	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/logger"
)

type app struct {
	cfg  config.Config
	log  zerolog.Logger
	pool *pgxpool.Pool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Operator tasks for the superfoods store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New("storectl", cfg.Common.LogLevel)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			pool, err := db.Connect(ctx, cfg.Postgres.DSN, 20*time.Second)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			a.pool = pool
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.pool != nil {
				a.pool.Close()
			}
		},
	}
	root.AddCommand(
		newMigrateCmd(a),
		newCreateAdminCmd(a),
		newPromoteCmd(a),
		newSeedProductsCmd(a),
	)
	return root
}
