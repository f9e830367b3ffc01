package main

import (
	"errors"
	"fmt"

	"github.com/judgmentpress/internal/db"
	"github.com/spf13/cobra"
)

var (
	newUsername string
	newPassword string
	newFullName string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a login account",
	RunE:  runCreateUser,
}

func init() {
	createUserCmd.Flags().StringVarP(&newUsername, "username", "u", "", "login name (required)")
	createUserCmd.Flags().StringVarP(&newPassword, "password", "p", "", "password (required)")
	createUserCmd.Flags().StringVar(&newFullName, "full-name", "", "display name")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	user, err := db.CreateUser(gdb, newUsername, newPassword, newFullName)
	if errors.Is(err, db.ErrUserExists) {
		return fmt.Errorf("user %q already exists", newUsername)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}
