// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/identity"
)

func TestNewSaltedHasher(t *testing.T) {
	tests := []struct {
		name    string
		saltLen int
		wantErr bool
	}{
		{name: "minimum", saltLen: identity.MinSaltLength},
		{name: "default", saltLen: identity.DefaultSaltLength},
		{name: "maximum", saltLen: identity.MaxSaltLength},
		{name: "below minimum", saltLen: identity.MinSaltLength - 1, wantErr: true},
		{name: "above maximum", saltLen: identity.MaxSaltLength + 1, wantErr: true},
		{name: "zero", saltLen: 0, wantErr: true},
		{name: "negative", saltLen: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := identity.NewSaltedHasher(tt.saltLen)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestSaltedHasher_Hash(t *testing.T) {
	h, err := identity.NewSaltedHasher(identity.DefaultSaltLength)
	require.NoError(t, err)

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := h.Hash("")
		assert.ErrorIs(t, err, identity.ErrEmptyPassword)
	})

	t.Run("output shape", func(t *testing.T) {
		stored, err := h.Hash("hunter2")
		require.NoError(t, err)
		// Fixed-width salt prefix plus a 64-char hex digest.
		require.Len(t, stored, identity.DefaultSaltLength+64)
		_, err = hex.DecodeString(stored[identity.DefaultSaltLength:])
		assert.NoError(t, err, "suffix must be hex")
	})

	t.Run("fresh salt per call", func(t *testing.T) {
		a, err := h.Hash("hunter2")
		require.NoError(t, err)
		b, err := h.Hash("hunter2")
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "same secret must not produce the same stored value twice")
	})

	t.Run("deterministic for a fixed salt", func(t *testing.T) {
		a := h.HashWithSalt("hunter2", "abcd")
		b := h.HashWithSalt("hunter2", "abcd")
		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, "abcd"))

		c := h.HashWithSalt("hunter2", "wxyz")
		assert.NotEqual(t, a, c, "different salt must change the digest")
	})
}

func TestSaltedHasher_Verify(t *testing.T) {
	h, err := identity.NewSaltedHasher(identity.DefaultSaltLength)
	require.NoError(t, err)

	stored, err := h.Hash("hunter2")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		ok, err := h.Verify("hunter2", stored)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("mismatch", func(t *testing.T) {
		ok, err := h.Verify("hunter3", stored)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed stored value", func(t *testing.T) {
		for _, bad := range []string{"", "short", stored + "x"} {
			_, err := h.Verify("hunter2", bad)
			assert.Error(t, err, "stored value %q", bad)
		}
	})

	t.Run("salt length mismatch between hashers", func(t *testing.T) {
		other, err := identity.NewSaltedHasher(identity.MaxSaltLength)
		require.NoError(t, err)
		_, err = other.Verify("hunter2", stored)
		assert.Error(t, err)
	})
}

func TestArgon2idHasher(t *testing.T) {
	h := identity.NewArgon2idHasher()

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := h.Hash("")
		assert.ErrorIs(t, err, identity.ErrEmptyPassword)
	})

	t.Run("roundtrip", func(t *testing.T) {
		stored, err := h.Hash("hunter2")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored, "$argon2id$"))

		ok, err := h.Verify("hunter2", stored)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Verify("hunter3", stored)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed stored value", func(t *testing.T) {
		for _, bad := range []string{
			"",
			"plaintext",
			"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
			"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		} {
			_, err := h.Verify("hunter2", bad)
			assert.Error(t, err, "stored value %q", bad)
		}
	})
}

func TestNewHasher(t *testing.T) {
	tests := []struct {
		name    string
		scheme  string
		want    any
		wantErr bool
	}{
		{name: "empty scheme defaults to salted digest", scheme: "", want: &identity.SaltedHasher{}},
		{name: "sha256", scheme: "sha256", want: &identity.SaltedHasher{}},
		{name: "argon2id", scheme: "argon2id", want: &identity.Argon2idHasher{}},
		{name: "unknown", scheme: "bcrypt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := identity.NewHasher(tt.scheme, identity.DefaultSaltLength)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, h)
		})
	}
}

func TestNewRegistrationKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		key, err := identity.NewRegistrationKey()
		require.NoError(t, err)
		require.Len(t, key, 64)
		_, err = hex.DecodeString(key)
		require.NoError(t, err)
		assert.False(t, seen[key], "keys must not repeat")
		seen[key] = true
	}
}
