// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/identity"
)

// staticRoles is a RoleReader over a fixed role table.
type staticRoles struct {
	roles map[string]*string
	err   error
}

func (r staticRoles) Role(_ context.Context, email string) (*string, error) {
	if r.err != nil {
		return nil, r.err
	}
	role, ok := r.roles[email]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return role, nil
}

func strptr(s string) *string { return &s }

func TestNewGate(t *testing.T) {
	gate, err := identity.NewGate(nil)
	require.Error(t, err)
	assert.Nil(t, gate)

	gate, err = identity.NewGate(staticRoles{})
	require.NoError(t, err)
	assert.NotNil(t, gate)
}

func TestGate_Guard(t *testing.T) {
	ctx := context.Background()
	reader := staticRoles{roles: map[string]*string{
		"root@example.com":   strptr(identity.RoleAdmin),
		"plain@example.com":  nil,
		"editor@example.com": strptr("editor"),
	}}
	gate, err := identity.NewGate(reader)
	require.NoError(t, err)

	t.Run("matching role invokes the operation once with its arguments", func(t *testing.T) {
		calls := 0
		op := gate.Guard(identity.RoleAdmin, func(_ context.Context, email string, args ...any) (any, error) {
			calls++
			assert.Equal(t, "root@example.com", email)
			assert.Equal(t, []any{"a", 2, true}, args)
			return "done", nil
		})

		got, err := op(ctx, "root@example.com", "a", 2, true)
		require.NoError(t, err)
		assert.Equal(t, "done", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("operation errors pass through unchanged", func(t *testing.T) {
		op := gate.Guard(identity.RoleAdmin, func(context.Context, string, ...any) (any, error) {
			return nil, assert.AnError
		})

		_, err := op(ctx, "root@example.com")
		assert.ErrorIs(t, err, assert.AnError)
	})

	denied := []struct {
		name  string
		email string
	}{
		{name: "user without a role", email: "plain@example.com"},
		{name: "user with a different role", email: "editor@example.com"},
		{name: "unknown user", email: "ghost@example.com"},
	}
	for _, tt := range denied {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			op := gate.Guard(identity.RoleAdmin, func(context.Context, string, ...any) (any, error) {
				calls++
				return "done", nil
			})

			got, err := op(ctx, tt.email)
			assert.ErrorIs(t, err, identity.ErrUnauthorized)
			assert.Nil(t, got)
			assert.Zero(t, calls, "denied operations must never run")
		})
	}

	t.Run("reader errors propagate without becoming a denial", func(t *testing.T) {
		failing, err := identity.NewGate(staticRoles{err: assert.AnError})
		require.NoError(t, err)

		op := failing.Guard(identity.RoleAdmin, func(context.Context, string, ...any) (any, error) {
			t.Fatal("operation must not run")
			return nil, nil
		})

		_, err = op(ctx, "root@example.com")
		assert.ErrorIs(t, err, assert.AnError)
		assert.NotErrorIs(t, err, identity.ErrUnauthorized)
	})
}
