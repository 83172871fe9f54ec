// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations for the identity tables.`,
		RunE:  runMigrate,
	}
	cmd.Flags().Bool("down", false, "roll back all migrations (destructive)")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck // close error is secondary to migration outcome

	down, _ := cmd.Flags().GetBool("down") //nolint:errcheck // flag registered above
	if down {
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("Migrations rolled back")
		return nil
	}

	if err := migrator.Up(); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed (version %d, dirty=%v)\n", version, dirty)
	return nil
}
