package cmd

import (
	"context"
	"fmt"

	"github.com/claimlab/apiserver/config"
	"github.com/claimlab/apiserver/internal/db"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the workshop accounts, categories and sample claims",
	Long: `Load the workshop accounts (admin, alice, bob), the category catalogue
and the sample claims. Existing claims are replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		if err := seedDatabase(cmd.Context(), cfg); err != nil {
			return err
		}
		logger.Info("sample data loaded")
		return nil
	},
}

func seedDatabase(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Seed(ctx, conn); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
