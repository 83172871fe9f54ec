// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"time"

	"github.com/samber/oops"
)

// Default policy values, overridable through configuration.
const (
	DefaultRegistrationExpiration = 7 * 24 * time.Hour
	DefaultMaxFailedAttempts      = 3
	DefaultSuspensionDuration     = 5 * time.Minute
)

// Policy holds the tunables of the identity workflows. Constructed once
// at process start and injected; no ambient state.
type Policy struct {
	// RegistrationExpiration is how long a pending registration stays
	// valid before re-registration may replace it.
	RegistrationExpiration time.Duration

	// MaxFailedAttempts is the failed-login count that opens a
	// suspension window.
	MaxFailedAttempts int

	// SuspensionDuration is the length of a suspension window. The
	// window is fixed at first suspension and never extended by further
	// attempts.
	SuspensionDuration time.Duration

	// DiscloseSuspension controls whether suspended-account failures
	// are observably distinct from invalid credentials. When false,
	// both surface as ErrInvalidCredentials.
	DiscloseSuspension bool
}

// DefaultPolicy returns the policy with default tunables.
func DefaultPolicy() Policy {
	return Policy{
		RegistrationExpiration: DefaultRegistrationExpiration,
		MaxFailedAttempts:      DefaultMaxFailedAttempts,
		SuspensionDuration:     DefaultSuspensionDuration,
	}
}

// Validate checks the policy tunables.
func (p Policy) Validate() error {
	if p.RegistrationExpiration <= 0 {
		return oops.Code("POLICY_INVALID").Errorf("registration expiration must be positive")
	}
	if p.MaxFailedAttempts <= 0 {
		return oops.Code("POLICY_INVALID").Errorf("max failed attempts must be positive")
	}
	if p.SuspensionDuration <= 0 {
		return oops.Code("POLICY_INVALID").Errorf("suspension duration must be positive")
	}
	return nil
}
