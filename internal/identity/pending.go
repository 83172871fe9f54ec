// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"time"
)

// PendingUser is a registered-but-unconfirmed identity awaiting
// activation. At most one row per email; the registration key is
// globally unique by store constraint.
type PendingUser struct {
	Email            string
	PasswordHash     string
	RegistrationKey  string
	RegisteredAt     time.Time
	ConfirmationSent bool
}

// Expired reports whether the registration is older than ttl at the
// given instant. An expired pending row is stale, not a conflict.
func (p *PendingUser) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.RegisteredAt) > ttl
}

// PendingConfirmation is the slice of a pending row the mail dispatcher
// needs.
type PendingConfirmation struct {
	Email           string
	RegistrationKey string
}

// PendingUserRepository manages pending-user persistence.
type PendingUserRepository interface {
	// Get retrieves a pending user by email. Returns ErrNotFound if absent.
	Get(ctx context.Context, email string) (*PendingUser, error)

	// Create stores a new pending user. A registration-key collision
	// surfaces as the store's integrity error.
	Create(ctx context.Context, pending *PendingUser) error

	// Delete removes a pending user by email.
	Delete(ctx context.Context, email string) error

	// Unsent lists pending users whose confirmation message has not
	// been sent yet.
	Unsent(ctx context.Context) ([]PendingConfirmation, error)

	// MarkConfirmationSent flags a pending user's confirmation as sent.
	MarkConfirmationSent(ctx context.Context, email string) error

	// DeleteRegisteredBefore removes pending users registered before the
	// cutoff and returns how many were removed.
	DeleteRegisteredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
