// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// RoleReader loads a user's role. Satisfied by UserRepository and by
// *Service.
type RoleReader interface {
	Role(ctx context.Context, email string) (*string, error)
}

// Operation is a protected operation invoked on behalf of an
// authenticated user.
type Operation func(ctx context.Context, email string, args ...any) (any, error)

// Gate wraps protected operations with a role pre-check. It assumes the
// caller already authenticated the email; it performs no credential
// check of its own.
type Gate struct {
	roles RoleReader
}

// NewGate creates a Gate over the given role reader.
func NewGate(roles RoleReader) (*Gate, error) {
	if roles == nil {
		return nil, oops.Code("IDENTITY_BAD_DEPS").Errorf("role reader is required")
	}
	return &Gate{roles: roles}, nil
}

// Guard returns op wrapped with a required-role check. On a role
// mismatch, a missing role, or an unknown user the wrapped operation
// fails with ErrUnauthorized and op is never invoked. Otherwise op runs
// once with the original arguments and its result passes through
// unchanged.
func (g *Gate) Guard(required string, op Operation) Operation {
	return func(ctx context.Context, email string, args ...any) (any, error) {
		role, err := g.roles.Role(ctx, email)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, oops.Code("ACCESS_DENIED").
					With("required_role", required).
					Wrap(ErrUnauthorized)
			}
			return nil, err
		}
		if role == nil || *role != required {
			return nil, oops.Code("ACCESS_DENIED").
				With("required_role", required).
				Wrap(ErrUnauthorized)
		}
		return op(ctx, email, args...)
	}
}
