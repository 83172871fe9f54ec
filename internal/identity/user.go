// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"time"
)

// Well-known roles. A user carries at most one role; the access gate
// compares it against an operation's required role.
const (
	RoleAdmin = "admin"
)

// User is an activated account. Created exactly once per email by
// activation; never recreated or overwritten.
type User struct {
	Email          string
	PasswordHash   string
	FailedAttempts int
	SuspendedUntil *time.Time
	Role           *string
}

// IsSuspended reports whether the user is inside a suspension window at
// the given instant. A lapsed window has no effect; it is not cleared
// until the next successful authentication.
func (u *User) IsSuspended(now time.Time) bool {
	return u.SuspendedUntil != nil && now.Before(*u.SuspendedUntil)
}

// UserRepository manages active-user persistence.
type UserRepository interface {
	// Get retrieves a user by email. Returns ErrNotFound if absent.
	Get(ctx context.Context, email string) (*User, error)

	// Create stores a new user. The email must not already exist.
	Create(ctx context.Context, user *User) error

	// SetFailedAttempts records the failed-login counter without
	// touching the suspension window.
	SetFailedAttempts(ctx context.Context, email string, attempts int) error

	// Suspend records the counter and opens a suspension window.
	Suspend(ctx context.Context, email string, attempts int, until time.Time) error

	// LiftSuspension clears the window and resets the counter.
	LiftSuspension(ctx context.Context, email string) error

	// SetRole assigns the user's role.
	SetRole(ctx context.Context, email, role string) error

	// Role returns the user's role, nil when none is assigned.
	// Returns ErrNotFound if the user does not exist.
	Role(ctx context.Context, email string) (*string, error)
}
