// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Transactor runs a function inside a single store transaction.
// Satisfied by *store.Store.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service coordinates the identity workflows: registration, activation,
// authentication and role assignment. Every operation reads the clock
// once, so expiry comparisons within one call never race a moving clock.
type Service struct {
	users   UserRepository
	pending PendingUserRepository
	tx      Transactor
	hasher  PasswordHasher
	policy  Policy

	validateEmail EmailValidator
	now           func() time.Time
	log           *slog.Logger

	// dummyHash is verified against for unknown emails so lookup
	// misses and password mismatches take similar time.
	dummyHash string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEmailValidator swaps the structural email validator.
func WithEmailValidator(v EmailValidator) Option {
	return func(s *Service) { s.validateEmail = v }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, pending PendingUserRepository, tx Transactor, hasher PasswordHasher, policy Policy, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").Errorf("user repository is required")
	}
	if pending == nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").Errorf("pending user repository is required")
	}
	if tx == nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").Errorf("transactor is required")
	}
	if hasher == nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").Errorf("password hasher is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		users:         users,
		pending:       pending,
		tx:            tx,
		hasher:        hasher,
		policy:        policy,
		validateEmail: ValidateEmail,
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash("gatehouse-timing-filler")
	if err != nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").With("operation", "prepare dummy hash").Wrap(err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Register creates a pending registration for email. An expired
// pending registration is replaced; an unexpired one is a conflict.
// Email and password are validated independently before any store
// access so both omissions report deterministically.
func (s *Service) Register(ctx context.Context, email, password string) error {
	if err := s.validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return oops.Code("IDENTITY_INVALID_PASSWORD").Wrap(ErrInvalidPassword)
	}

	now := s.now()

	if _, err := s.users.Get(ctx, email); err == nil {
		return oops.Code("IDENTITY_ALREADY_REGISTERED").
			With("email", email).
			Wrap(ErrAlreadyRegistered)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	prior, err := s.pending.Get(ctx, email)
	switch {
	case err == nil:
		if !prior.Expired(now, s.policy.RegistrationExpiration) {
			return oops.Code("IDENTITY_PENDING_EXISTS").
				With("email", email).
				Wrap(ErrPendingRegistration)
		}
		// Stale registration, not a conflict. Replace it.
		if err := s.pending.Delete(ctx, email); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	key, err := NewRegistrationKey()
	if err != nil {
		return err
	}

	// A registration-key collision violates the store's uniqueness
	// constraint and propagates as an integrity error. Not retried:
	// at 256-bit keyspace a collision means broken randomness, and a
	// retry would mask it.
	if err := s.pending.Create(ctx, &PendingUser{
		Email:           email,
		PasswordHash:    hash,
		RegistrationKey: key,
		RegisteredAt:    now,
	}); err != nil {
		return err
	}

	registrationsTotal.Inc()
	s.log.InfoContext(ctx, "registration created", "email", email)
	return nil
}

// Activate converts a pending registration into an active user, exactly
// once per valid key. The pending delete and the user insert happen in
// one transaction so no half-migrated state is ever visible.
func (s *Service) Activate(ctx context.Context, email, registrationKey string) error {
	pending, err := s.pending.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same error as a key mismatch; do not leak which half failed.
			return oops.Code("IDENTITY_BAD_KEY").Wrap(ErrInvalidRegistrationKey)
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(pending.RegistrationKey), []byte(registrationKey)) != 1 {
		return oops.Code("IDENTITY_BAD_KEY").Wrap(ErrInvalidRegistrationKey)
	}

	// Re-activation must fail before anything is mutated.
	if _, err := s.users.Get(ctx, email); err == nil {
		return oops.Code("IDENTITY_ALREADY_ACTIVE").
			With("email", email).
			Wrap(ErrAlreadyActive)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.pending.Delete(ctx, email); err != nil {
			return err
		}
		return s.users.Create(ctx, &User{
			Email:        email,
			PasswordHash: pending.PasswordHash,
		})
	})
	if err != nil {
		return err
	}

	activationsTotal.Inc()
	s.log.InfoContext(ctx, "account activated", "email", email)
	return nil
}

// Authenticate validates credentials for email. Success is silent;
// failure is the only observable signal. Failed attempts accumulate and
// open a fixed suspension window at the policy threshold; attempts
// during the window keep counting but never extend it.
func (s *Service) Authenticate(ctx context.Context, email, password string) error {
	now := s.now()

	user, err := s.users.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Even out timing between unknown emails and bad passwords.
			_, _ = s.hasher.Verify(password, s.dummyHash) //nolint:errcheck // timing filler only
			authAttemptsTotal.WithLabelValues("invalid").Inc()
			return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return err
	}

	if user.IsSuspended(now) {
		// Record the attempt; the window stays fixed at first suspension.
		if err := s.users.SetFailedAttempts(ctx, email, user.FailedAttempts+1); err != nil {
			return err
		}
		authAttemptsTotal.WithLabelValues("suspended").Inc()
		return s.suspendedError()
	}

	if user.SuspendedUntil != nil {
		// The window has lapsed; the next attempt is evaluated as if the
		// user were normal, with a fresh attempt count.
		if err := s.users.LiftSuspension(ctx, email); err != nil {
			return err
		}
		user.SuspendedUntil = nil
		user.FailedAttempts = 0
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if ok {
		if user.FailedAttempts > 0 || user.SuspendedUntil != nil {
			if err := s.users.LiftSuspension(ctx, email); err != nil {
				return err
			}
		}
		authAttemptsTotal.WithLabelValues("success").Inc()
		return nil
	}

	attempts := user.FailedAttempts + 1
	if attempts >= s.policy.MaxFailedAttempts {
		until := now.Add(s.policy.SuspensionDuration)
		if err := s.users.Suspend(ctx, email, attempts, until); err != nil {
			return err
		}
		suspensionsTotal.Inc()
		s.log.WarnContext(ctx, "account suspended",
			"email", email,
			"failed_attempts", attempts,
			"suspended_until", until)
		authAttemptsTotal.WithLabelValues("suspended").Inc()
		return s.suspendedError()
	}

	if err := s.users.SetFailedAttempts(ctx, email, attempts); err != nil {
		return err
	}
	authAttemptsTotal.WithLabelValues("invalid").Inc()
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

// suspendedError surfaces a suspension per the disclosure policy:
// distinct when disclosure is on, indistinguishable from invalid
// credentials when off.
func (s *Service) suspendedError() error {
	if s.policy.DiscloseSuspension {
		return oops.Code("AUTH_SUSPENDED").Wrap(ErrAccountSuspended)
	}
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

// AssignRole sets the role of an active user.
func (s *Service) AssignRole(ctx context.Context, email, role string) error {
	return s.users.SetRole(ctx, email, role)
}

// Role returns the role of an active user, nil when none is assigned.
func (s *Service) Role(ctx context.Context, email string) (*string, error) {
	return s.users.Role(ctx, email)
}

// UnsentConfirmations lists pending registrations whose confirmation
// message has not gone out. Read accessor for the mail dispatcher.
func (s *Service) UnsentConfirmations(ctx context.Context) ([]PendingConfirmation, error) {
	return s.pending.Unsent(ctx)
}

// MarkConfirmationSent flags a pending registration as mailed.
func (s *Service) MarkConfirmationSent(ctx context.Context, email string) error {
	return s.pending.MarkConfirmationSent(ctx, email)
}

// SweepExpired deletes pending registrations older than the
// registration expiration and returns how many were removed. Called by
// the periodic cleanup collaborator.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.policy.RegistrationExpiration)
	swept, err := s.pending.DeleteRegisteredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	pendingSweptTotal.Add(float64(swept))
	if swept > 0 {
		s.log.InfoContext(ctx, "swept expired pending registrations", "count", swept)
	}
	return swept, nil
}
