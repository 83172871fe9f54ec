// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mailer dispatches registration-confirmation messages. It is
// the external consumer of the identity core's pending accessors: it
// reads rows whose confirmation has not been sent and marks them sent
// after delivery. Run it periodically so users get their confirmation
// link soon after registering.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"text/template"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// Source is the slice of the identity core the dispatcher reads from.
type Source interface {
	UnsentConfirmations(ctx context.Context) ([]identity.PendingConfirmation, error)
	MarkConfirmationSent(ctx context.Context, email string) error
}

// Sender delivers a rendered message to a recipient.
type Sender interface {
	Send(ctx context.Context, to string, msg []byte) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	Addr string
	From string
}

// Send delivers msg to a single recipient.
func (s *SMTPSender) Send(_ context.Context, to string, msg []byte) error {
	if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("smtp_addr", s.Addr).
			Wrap(err)
	}
	return nil
}

// Options configures a Dispatcher.
type Options struct {
	From         string
	FromAddress  string
	Subject      string
	TemplatePath string
}

// confirmation is the data a message template renders with.
type confirmation struct {
	Email           string
	RegistrationKey string
}

// Failure records one recipient the dispatcher could not handle.
type Failure struct {
	Email string
	Err   error
}

// Report summarizes one dispatcher run. Per-recipient failures never
// abort the run.
type Report struct {
	Sent   int
	Failed []Failure
}

// Dispatcher renders and sends pending confirmations.
type Dispatcher struct {
	source Source
	sender Sender
	tmpl   *template.Template
	opts   Options
	log    *slog.Logger
}

// New creates a Dispatcher. The template file receives .Email and
// .RegistrationKey.
func New(source Source, sender Sender, opts Options, log *slog.Logger) (*Dispatcher, error) {
	if source == nil {
		return nil, oops.Code("MAIL_BAD_DEPS").Errorf("source is required")
	}
	if sender == nil {
		return nil, oops.Code("MAIL_BAD_DEPS").Errorf("sender is required")
	}
	body, err := os.ReadFile(opts.TemplatePath)
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_FAILED").
			With("path", opts.TemplatePath).
			Wrap(err)
	}
	tmpl, err := template.New("confirmation").Parse(string(body))
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_FAILED").
			With("path", opts.TemplatePath).
			Wrap(err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{source: source, sender: sender, tmpl: tmpl, opts: opts, log: log}, nil
}

// Run sends every unsent confirmation once, marking rows sent only
// after successful delivery.
func (d *Dispatcher) Run(ctx context.Context) (Report, error) {
	pending, err := d.source.UnsentConfirmations(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, p := range pending {
		msg, err := d.render(confirmation{Email: p.Email, RegistrationKey: p.RegistrationKey})
		if err != nil {
			report.Failed = append(report.Failed, Failure{Email: p.Email, Err: err})
			continue
		}
		if err := d.sender.Send(ctx, p.Email, msg); err != nil {
			d.log.WarnContext(ctx, "confirmation delivery failed", "email", p.Email, "error", err)
			report.Failed = append(report.Failed, Failure{Email: p.Email, Err: err})
			continue
		}
		if err := d.source.MarkConfirmationSent(ctx, p.Email); err != nil {
			// Delivered but unmarked; the next run resends. Surfaced as
			// a failure so the operator sees it.
			report.Failed = append(report.Failed, Failure{Email: p.Email, Err: err})
			continue
		}
		report.Sent++
	}
	return report, nil
}

// render builds the full message with headers for one recipient.
func (d *Dispatcher) render(c confirmation) ([]byte, error) {
	var body bytes.Buffer
	if err := d.tmpl.Execute(&body, c); err != nil {
		return nil, oops.Code("MAIL_RENDER_FAILED").With("email", c.Email).Wrap(err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", d.opts.From, d.opts.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", c.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", d.opts.Subject)
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
