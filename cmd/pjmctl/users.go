package main

import (
	"context"
	"fmt"
	"log/slog"

	"pjm/internal/permission"
	"pjm/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage application accounts",
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change the app role of an account (ADMINISTRATEUR, MEMBRE, OBSERVATEUR)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := loadConfig()

		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("connect to DB: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		role, err := setAppRole(cmd.Context(), repository.NewUserRepository(db), args[0], args[1])
		if err != nil {
			return err
		}
		log.Info("app role updated", slog.String("email", args[0]), slog.String("role", string(role)))
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
		return nil
	},
}

type appRoleSetter interface {
	SetAppRole(ctx context.Context, email, role string) error
}

// setAppRole stores the canonical spelling of label for the account.
func setAppRole(ctx context.Context, users appRoleSetter, email, label string) (permission.Role, error) {
	role := permission.ParseRole(label)
	if !role.IsValid() {
		return permission.RoleUnknown, fmt.Errorf("unknown role %q", label)
	}
	if err := users.SetAppRole(ctx, email, string(role)); err != nil {
		return permission.RoleUnknown, fmt.Errorf("set role of %s: %w", email, err)
	}
	return role, nil
}

func init() {
	usersCmd.AddCommand(usersSetRoleCmd)
	rootCmd.AddCommand(usersCmd)
}
