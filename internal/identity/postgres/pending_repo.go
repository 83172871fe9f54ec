// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres persists identity records through the store gateway.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/store"
)

// PendingUserRepository implements identity.PendingUserRepository on
// the store gateway.
type PendingUserRepository struct {
	store *store.Store
}

// NewPendingUserRepository creates a new PendingUserRepository.
func NewPendingUserRepository(st *store.Store) *PendingUserRepository {
	return &PendingUserRepository{store: st}
}

// Get retrieves a pending user by email.
func (r *PendingUserRepository) Get(ctx context.Context, email string) (*identity.PendingUser, error) {
	var (
		pending    identity.PendingUser
		registered int64
	)
	err := r.store.FetchOne(ctx,
		[]any{&pending.Email, &pending.PasswordHash, &pending.RegistrationKey, &registered, &pending.ConfirmationSent},
		`SELECT email, password, registration_key, registration_date, confirmation_sent
		 FROM pending_users WHERE email = ?`,
		email)
	if errors.Is(err, store.ErrNoRows) {
		return nil, oops.Code("PENDING_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PENDING_GET_FAILED").
			With("email", email).
			Wrap(err)
	}
	pending.RegisteredAt = time.Unix(registered, 0).UTC()
	return &pending, nil
}

// Create stores a new pending user. A duplicate email or registration
// key surfaces as the store's integrity error.
func (r *PendingUserRepository) Create(ctx context.Context, pending *identity.PendingUser) error {
	_, err := r.store.Exec(ctx,
		`INSERT INTO pending_users (email, password, registration_key, registration_date, confirmation_sent)
		 VALUES (?, ?, ?, ?, ?)`,
		pending.Email,
		pending.PasswordHash,
		pending.RegistrationKey,
		pending.RegisteredAt.Unix(),
		pending.ConfirmationSent)
	if err != nil {
		return oops.Code("PENDING_CREATE_FAILED").
			With("email", pending.Email).
			Wrap(err)
	}
	return nil
}

// Delete removes a pending user by email.
func (r *PendingUserRepository) Delete(ctx context.Context, email string) error {
	affected, err := r.store.Exec(ctx,
		`DELETE FROM pending_users WHERE email = ?`,
		email)
	if err != nil {
		return oops.Code("PENDING_DELETE_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("PENDING_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// Unsent lists pending users whose confirmation has not been sent.
func (r *PendingUserRepository) Unsent(ctx context.Context) ([]identity.PendingConfirmation, error) {
	var out []identity.PendingConfirmation
	err := r.store.FetchAll(ctx, func(rows pgx.Rows) error {
		var c identity.PendingConfirmation
		if err := rows.Scan(&c.Email, &c.RegistrationKey); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	},
		`SELECT email, registration_key FROM pending_users WHERE confirmation_sent = FALSE`)
	if err != nil {
		return nil, oops.Code("PENDING_LIST_UNSENT_FAILED").Wrap(err)
	}
	return out, nil
}

// MarkConfirmationSent flags a pending user's confirmation as sent.
func (r *PendingUserRepository) MarkConfirmationSent(ctx context.Context, email string) error {
	affected, err := r.store.Exec(ctx,
		`UPDATE pending_users SET confirmation_sent = TRUE WHERE email = ?`,
		email)
	if err != nil {
		return oops.Code("PENDING_MARK_SENT_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("PENDING_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// DeleteRegisteredBefore removes pending users registered before the
// cutoff and returns how many were removed.
func (r *PendingUserRepository) DeleteRegisteredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	affected, err := r.store.Exec(ctx,
		`DELETE FROM pending_users WHERE registration_date < ?`,
		cutoff.Unix())
	if err != nil {
		return 0, oops.Code("PENDING_SWEEP_FAILED").Wrap(err)
	}
	return affected, nil
}

// Compile-time interface check.
var _ identity.PendingUserRepository = (*PendingUserRepository)(nil)
