// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/store"
)

// UserRepository implements identity.UserRepository on the store
// gateway. Dates are persisted as Unix epoch seconds.
type UserRepository struct {
	store *store.Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(st *store.Store) *UserRepository {
	return &UserRepository{store: st}
}

// Get retrieves a user by email.
func (r *UserRepository) Get(ctx context.Context, email string) (*identity.User, error) {
	var (
		user      identity.User
		suspended *int64
	)
	err := r.store.FetchOne(ctx,
		[]any{&user.Email, &user.PasswordHash, &user.FailedAttempts, &suspended, &user.Role},
		`SELECT email, password, failed_login_attempts, suspended_until, role
		 FROM users WHERE email = ?`,
		email)
	if errors.Is(err, store.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("email", email).
			Wrap(err)
	}
	user.SuspendedUntil = epochToTime(suspended)
	return &user, nil
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	_, err := r.store.Exec(ctx,
		`INSERT INTO users (email, password, failed_login_attempts, suspended_until, role)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.FailedAttempts,
		timeToEpoch(user.SuspendedUntil),
		user.Role)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("email", user.Email).
			Wrap(err)
	}
	return nil
}

// SetFailedAttempts records the failed-login counter.
func (r *UserRepository) SetFailedAttempts(ctx context.Context, email string, attempts int) error {
	affected, err := r.store.Exec(ctx,
		`UPDATE users SET failed_login_attempts = ? WHERE email = ?`,
		attempts, email)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// Suspend records the counter and opens a suspension window.
func (r *UserRepository) Suspend(ctx context.Context, email string, attempts int, until time.Time) error {
	affected, err := r.store.Exec(ctx,
		`UPDATE users SET failed_login_attempts = ?, suspended_until = ? WHERE email = ?`,
		attempts, until.Unix(), email)
	if err != nil {
		return oops.Code("USER_SUSPEND_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// LiftSuspension clears the window and resets the counter.
func (r *UserRepository) LiftSuspension(ctx context.Context, email string) error {
	affected, err := r.store.Exec(ctx,
		`UPDATE users SET suspended_until = NULL, failed_login_attempts = 0 WHERE email = ?`,
		email)
	if err != nil {
		return oops.Code("USER_LIFT_SUSPENSION_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// SetRole assigns the user's role.
func (r *UserRepository) SetRole(ctx context.Context, email, role string) error {
	affected, err := r.store.Exec(ctx,
		`UPDATE users SET role = ? WHERE email = ?`,
		role, email)
	if err != nil {
		return oops.Code("USER_SET_ROLE_FAILED").
			With("email", email).
			Wrap(err)
	}
	if affected == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

// Role returns the user's role, nil when none is assigned.
func (r *UserRepository) Role(ctx context.Context, email string) (*string, error) {
	var role *string
	err := r.store.FetchOne(ctx, []any{&role},
		`SELECT role FROM users WHERE email = ?`,
		email)
	if errors.Is(err, store.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_ROLE_FAILED").
			With("email", email).
			Wrap(err)
	}
	return role, nil
}

// epochToTime converts nullable epoch seconds to a time pointer.
func epochToTime(epoch *int64) *time.Time {
	if epoch == nil {
		return nil
	}
	t := time.Unix(*epoch, 0).UTC()
	return &t
}

// timeToEpoch converts a time pointer to nullable epoch seconds.
func timeToEpoch(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	e := t.Unix()
	return &e
}

// Compile-time interface check.
var _ identity.UserRepository = (*UserRepository)(nil)
