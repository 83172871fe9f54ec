// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep subcommand, the periodic cleanup
// collaborator. It deletes pending registrations whose key has expired
// so the database does not accumulate clutter.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired pending registrations",
		RunE:  runSweep,
	}
	cmd.Flags().Duration("every", 0, "run on this interval instead of once")
	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, pool, err := buildCore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	every, _ := cmd.Flags().GetDuration("every") //nolint:errcheck // flag registered above
	return runPeriodic(cfg, every, func(ctx context.Context) error {
		swept, err := svc.SweepExpired(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Removed %d expired pending registrations\n", swept)
		return nil
	})
}
