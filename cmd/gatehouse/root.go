// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gatehouse CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse - user identity core",
		Long: `Gatehouse manages user identities: registration with email
confirmation, account activation, password authentication with
brute-force suspension, and role-based access control.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database.url", "", "database connection URL")
	cmd.PersistentFlags().String("database.param_style", "", "driver placeholder style (question, numeric, named)")
	cmd.PersistentFlags().String("log.format", "", "log format (json or text)")
	cmd.PersistentFlags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("metrics.addr", "", "metrics listen address")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewNotifyCmd())

	return cmd
}

// loadConfig resolves configuration for a subcommand and installs the
// default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault("gatehouse", version, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}
