// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gatehouse/gatehouse/internal/identity"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{email: "ada@example.com", valid: true},
		{email: "a.b+tag@sub.example.co.uk", valid: true},
		{email: "x@y.z", valid: true},
		{email: "", valid: false},
		{email: "no-at-sign", valid: false},
		{email: "@example.com", valid: false},
		{email: "ada@", valid: false},
		{email: "ada@nodot", valid: false},
		{email: "ada@exam ple.com", valid: false},
		{email: "ada @example.com", valid: false},
		{email: "ada@@example.com", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := identity.ValidateEmail(tt.email)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, identity.ErrInvalidEmail)
			}
		})
	}
}

func TestUser_IsSuspended(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)

	tests := []struct {
		name  string
		until *time.Time
		want  bool
	}{
		{name: "no window", until: nil, want: false},
		{name: "inside window", until: &later, want: true},
		{name: "window lapsed", until: &earlier, want: false},
		{name: "window end is exclusive", until: &now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &identity.User{SuspendedUntil: tt.until}
			assert.Equal(t, tt.want, u.IsSuspended(now))
		})
	}
}

func TestPendingUser_Expired(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ttl := 7 * 24 * time.Hour

	tests := []struct {
		name         string
		registeredAt time.Time
		want         bool
	}{
		{name: "fresh", registeredAt: now, want: false},
		{name: "inside ttl", registeredAt: now.Add(-ttl + time.Second), want: false},
		{name: "exactly at ttl", registeredAt: now.Add(-ttl), want: false},
		{name: "past ttl", registeredAt: now.Add(-ttl - time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &identity.PendingUser{RegisteredAt: tt.registeredAt}
			assert.Equal(t, tt.want, p.Expired(now, ttl))
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, identity.DefaultPolicy().Validate())

	bad := []identity.Policy{
		{},
		{RegistrationExpiration: time.Hour, MaxFailedAttempts: 0, SuspensionDuration: time.Minute},
		{RegistrationExpiration: 0, MaxFailedAttempts: 3, SuspensionDuration: time.Minute},
		{RegistrationExpiration: time.Hour, MaxFailedAttempts: 3, SuspensionDuration: -time.Minute},
	}
	for i, p := range bad {
		assert.Error(t, p.Validate(), "policy %d", i)
	}
}
