package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/claimlab/apiserver/internal/db"
	"github.com/claimlab/apiserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverMigrate bool
	serverSeed    bool
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the Claim Manager API server",
	Long: `Starts the Claim Manager API server. Usage:

	claimsrv server [--migrate] [--seed]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serverMigrate {
			if err := db.MigrateUp(cfg); err != nil {
				return err
			}
			logger.Info("migrations applied")
		}

		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		if serverSeed {
			if err := seedDatabase(ctx, cfg); err != nil {
				_ = srv.Shutdown(context.Background())
				return err
			}
			logger.Info("sample data loaded")
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			_ = srv.Shutdown(context.Background())
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().BoolVar(&serverMigrate, "migrate", false, "apply database migrations before serving")
	serverCmd.Flags().BoolVar(&serverSeed, "seed", false, "reload the workshop accounts and sample claims before serving")
}
