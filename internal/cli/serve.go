package cli

import (
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadopc/askfin/internal/logging"
	"github.com/sadopc/askfin/internal/server"
	"github.com/sadopc/askfin/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		seed     bool
		seedRand uint64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend over a local SQLite database",
		Long: `Serve answers the askfin wire protocol from a local SQLite database. It does
not translate natural language: /ask runs the question only when it is already
a read-only SELECT or WITH statement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, Out: cmd.OutOrStdout()})
			if err != nil {
				return err
			}
			defer closer.Close()

			dbPath := cfg.Server.DBPath
			if dbPath == "" {
				if dbPath, err = store.DefaultDBPath(); err != nil {
					return fmt.Errorf("resolve database path: %w", err)
				}
			}
			st, err := store.New(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seed {
				seeded, err := st.Seed(ctx, rand.New(rand.NewPCG(seedRand, seedRand)), time.Now())
				if err != nil {
					return fmt.Errorf("seed database: %w", err)
				}
				if seeded {
					logger.Info().Int("customers", store.SeedCustomers).Int("transactions", store.SeedTransactions).Msg("database seeded")
				}
			}

			logger.Info().Str("db", dbPath).Msg("database ready")
			return server.New(logger, server.Config{Addr: cfg.Server.Addr, Backend: st}).Start(ctx)
		},
	}

	f := cmd.Flags()
	f.String("addr", "", "listen address (default :8000)")
	f.String("db", "", "SQLite database path (default ~/.config/askfin/askfin.db)")
	f.BoolVar(&seed, "seed", true, "fill an empty database with sample customers and transactions")
	f.Uint64Var(&seedRand, "seed-value", 1, "random seed for sample data")
	return cmd
}
