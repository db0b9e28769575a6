package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"preset-shop/internal/auth"
	"preset-shop/internal/config"
	"preset-shop/internal/database"
	"preset-shop/internal/logger"
	"preset-shop/internal/repository"
	"preset-shop/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env holds what every subcommand needs once the root command has run
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "presetctl",
		Short:         "Operator tooling for the preset shop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = config.Load()
			log, err := logger.NewCLI(e.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			e.log = log
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "verbose output")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withDB(func(db *sql.DB) error {
					return database.RunMigrations(db, e.log)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the migration status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withDB(database.GetMigrationStatus)
			},
		},
	)

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap administrator and default categories on an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDB(func(db *sql.DB) error {
				seeder := service.NewSeeder(
					repository.NewAdminRepository(db),
					repository.NewCategoryRepository(db),
					auth.NewBcryptHasher(e.cfg.JWT.BcryptCost),
					e.cfg.Seed,
					e.log,
				)
				return seeder.Seed(cmd.Context())
			})
		},
	}

	root.AddCommand(migrate, seed)
	return root
}

func (e *env) withDB(fn func(db *sql.DB) error) error {
	db, err := database.New(e.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
