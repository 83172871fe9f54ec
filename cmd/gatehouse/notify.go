// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/mailer"
)

// NewNotifyCmd creates the notify subcommand, the mail-dispatch
// collaborator. It sends confirmation messages for registrations whose
// confirmation has not gone out yet.
func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send pending registration confirmations",
		RunE:  runNotify,
	}
	cmd.Flags().Duration("every", 0, "run on this interval instead of once")
	return cmd
}

func runNotify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, pool, err := buildCore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	dispatcher, err := mailer.New(svc,
		&mailer.SMTPSender{Addr: cfg.Mail.SMTPAddr, From: cfg.Mail.FromAddress},
		mailer.Options{
			From:         cfg.Mail.From,
			FromAddress:  cfg.Mail.FromAddress,
			Subject:      cfg.Mail.Subject,
			TemplatePath: cfg.Mail.TemplatePath,
		},
		slog.Default(),
	)
	if err != nil {
		return err
	}

	every, _ := cmd.Flags().GetDuration("every") //nolint:errcheck // flag registered above
	return runPeriodic(cfg, every, func(ctx context.Context) error {
		report, err := dispatcher.Run(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Sent %d confirmations\n", report.Sent)
		for _, f := range report.Failed {
			cmd.Printf("Sending failed for %s: %v\n", f.Email, f.Err)
		}
		return nil
	})
}
