package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User accounts",
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account without an existing session. The password can be
passed with --password or through VERELER_ADMIN_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv("VERELER_ADMIN_PASSWORD")
		}
		if adminEmail == "" || password == "" {
			return errors.New("--email and a password are required")
		}

		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		user, err := newServices(repository.NewRepository(db)).Auth.CreateAdmin(ctx, adminEmail, password, adminName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "full name")
	usersCmd.AddCommand(createAdminCmd)
}
