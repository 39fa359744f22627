package cmd

import (
	"fmt"

	authPostgres "github.com/frahmantamala/feedback-management/internal/auth/postgres"
	employeePostgres "github.com/frahmantamala/feedback-management/internal/employee/postgres"
	"github.com/spf13/cobra"
)

var (
	grantUsername   string
	grantPermission string
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant a permission to a user",
	Long:  `Grant a named permission (for example "admin" or "manage_questions") to an existing user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		db, gdb, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := authPostgres.NewRepository(gdb, employeePostgres.NewEmployeeRepository(gdb, db))

		userID, err := repo.GetUserIDByUsername(cmd.Context(), grantUsername)
		if err != nil {
			return err
		}
		if err := repo.GrantPermission(cmd.Context(), userID, grantPermission); err != nil {
			return fmt.Errorf("grant %s to %s: %w", grantPermission, grantUsername, err)
		}

		fmt.Printf("granted %q to %s\n", grantPermission, grantUsername)
		return nil
	},
}

func init() {
	grantCmd.Flags().StringVarP(&grantUsername, "username", "u", "", "username to grant to")
	grantCmd.Flags().StringVarP(&grantPermission, "permission", "p", "admin", "permission name")
	_ = grantCmd.MarkFlagRequired("username")
}
