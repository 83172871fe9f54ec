// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity_test

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// memBackend is an in-memory backend implementing the repository and
// transactor interfaces for service tests.
type memBackend struct {
	users   map[string]*identity.User
	pending map[string]*identity.PendingUser

	// failNext makes the next repository call fail, for propagation tests.
	failNext error
}

func newMemBackend() *memBackend {
	return &memBackend{
		users:   make(map[string]*identity.User),
		pending: make(map[string]*identity.PendingUser),
	}
}

func (m *memBackend) fail() error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	return nil
}

// UserRepository

func (m *memBackend) Get(_ context.Context, email string) (*identity.User, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memBackend) Create(_ context.Context, user *identity.User) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.users[user.Email]; ok {
		return oops.Code("USER_DUPLICATE").Errorf("duplicate user")
	}
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *memBackend) SetFailedAttempts(_ context.Context, email string, attempts int) error {
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[email]
	if !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	u.FailedAttempts = attempts
	return nil
}

func (m *memBackend) Suspend(_ context.Context, email string, attempts int, until time.Time) error {
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[email]
	if !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	u.FailedAttempts = attempts
	u.SuspendedUntil = &until
	return nil
}

func (m *memBackend) LiftSuspension(_ context.Context, email string) error {
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[email]
	if !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	u.FailedAttempts = 0
	u.SuspendedUntil = nil
	return nil
}

func (m *memBackend) SetRole(_ context.Context, email, role string) error {
	if err := m.fail(); err != nil {
		return err
	}
	u, ok := m.users[email]
	if !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	u.Role = &role
	return nil
}

func (m *memBackend) Role(_ context.Context, email string) (*string, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, oops.Wrap(identity.ErrNotFound)
	}
	return u.Role, nil
}

// PendingUserRepository

func (m *memBackend) GetPending(_ context.Context, email string) (*identity.PendingUser, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	p, ok := m.pending[email]
	if !ok {
		return nil, oops.Code("PENDING_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memBackend) CreatePending(_ context.Context, pending *identity.PendingUser) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.pending[pending.Email]; ok {
		return oops.Code("PENDING_DUPLICATE").Errorf("duplicate pending user")
	}
	cp := *pending
	m.pending[pending.Email] = &cp
	return nil
}

func (m *memBackend) DeletePending(_ context.Context, email string) error {
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.pending[email]; !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	delete(m.pending, email)
	return nil
}

func (m *memBackend) Unsent(_ context.Context) ([]identity.PendingConfirmation, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []identity.PendingConfirmation
	for _, p := range m.pending {
		if !p.ConfirmationSent {
			out = append(out, identity.PendingConfirmation{
				Email:           p.Email,
				RegistrationKey: p.RegistrationKey,
			})
		}
	}
	return out, nil
}

func (m *memBackend) MarkConfirmationSent(_ context.Context, email string) error {
	if err := m.fail(); err != nil {
		return err
	}
	p, ok := m.pending[email]
	if !ok {
		return oops.Wrap(identity.ErrNotFound)
	}
	p.ConfirmationSent = true
	return nil
}

func (m *memBackend) DeleteRegisteredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if err := m.fail(); err != nil {
		return 0, err
	}
	var n int64
	for email, p := range m.pending {
		if p.RegisteredAt.Before(cutoff) {
			delete(m.pending, email)
			n++
		}
	}
	return n, nil
}

// Transactor

func (m *memBackend) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// pendingAdapter exposes the pending half of memBackend under the
// identity.PendingUserRepository method names.
type pendingAdapter struct{ m *memBackend }

func (a pendingAdapter) Get(ctx context.Context, email string) (*identity.PendingUser, error) {
	return a.m.GetPending(ctx, email)
}

func (a pendingAdapter) Create(ctx context.Context, p *identity.PendingUser) error {
	return a.m.CreatePending(ctx, p)
}

func (a pendingAdapter) Delete(ctx context.Context, email string) error {
	return a.m.DeletePending(ctx, email)
}

func (a pendingAdapter) Unsent(ctx context.Context) ([]identity.PendingConfirmation, error) {
	return a.m.Unsent(ctx)
}

func (a pendingAdapter) MarkConfirmationSent(ctx context.Context, email string) error {
	return a.m.MarkConfirmationSent(ctx, email)
}

func (a pendingAdapter) DeleteRegisteredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return a.m.DeleteRegisteredBefore(ctx, cutoff)
}
