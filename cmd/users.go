package cmd

import (
	"fmt"

	"github.com/claimlab/apiserver/internal/db"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage workshop accounts",
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <username> <user|admin>",
	Short: "Change the stored role of an account",
	Long: `Change the stored role of an account. Sessions issued before the
change keep the role they were issued with until they expire.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		users := services.NewUserService(store.NewUserRepository(conn))
		if err := users.SetRole(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		logger.Info("role updated", zap.String("username", args[0]), zap.String("role", args[1]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersSetRoleCmd)
}
