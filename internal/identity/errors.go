// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import "errors"

// Sentinel errors for the identity workflows. Services wrap these with
// oops codes; callers match with errors.Is and present kind-specific
// messaging.
var (
	// ErrInvalidEmail is returned for a missing or malformed email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidPassword is returned for a missing password.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrAlreadyRegistered is returned when registering an email that
	// already has an active account.
	ErrAlreadyRegistered = errors.New("email already registered")

	// ErrPendingRegistration is returned when an unexpired pending
	// registration already exists for the email.
	ErrPendingRegistration = errors.New("pending registration exists")

	// ErrInvalidRegistrationKey covers both a missing pending row and a
	// key mismatch, so callers cannot tell which half failed.
	ErrInvalidRegistrationKey = errors.New("invalid or expired registration key")

	// ErrAlreadyActive is returned when activating an email that already
	// has an active account. Activation never overwrites.
	ErrAlreadyActive = errors.New("account already active")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid authentication credentials")

	// ErrAccountSuspended is returned during a suspension window when
	// the disclosure policy allows distinguishing it from bad credentials.
	ErrAccountSuspended = errors.New("account temporarily suspended")

	// ErrUnauthorized is returned by the access gate when the user lacks
	// the required role.
	ErrUnauthorized = errors.New("user does not have the required role")

	// ErrNotFound is returned when a requested identity does not exist.
	ErrNotFound = errors.New("not found")
)
