// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Salt length bounds for the salted-digest scheme. The length is a
// tunable, not a correctness-critical value.
const (
	MinSaltLength     = 2
	MaxSaltLength     = 8
	DefaultSaltLength = 4
)

// saltPool is the alphabet salts are drawn from.
const saltPool = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// registrationKeyBytes is the amount of fresh randomness behind each
// registration key. 256-bit keyspace; uniqueness is enforced by the
// store's constraint, never pre-checked.
const registrationKeyBytes = 32

// ErrEmptyPassword is returned when attempting to hash an empty secret.
var ErrEmptyPassword = oops.Code("HASH_EMPTY_SECRET").Errorf("secret cannot be empty")

// PasswordHasher produces and verifies stored credential digests.
// Implementations own the storage encoding of their output.
type PasswordHasher interface {
	// Hash produces the stored form of the secret.
	Hash(secret string) (string, error)

	// Verify checks the secret against a stored value.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an
	// error when the stored value is malformed.
	Verify(secret, stored string) (bool, error)
}

// SaltedHasher implements PasswordHasher as a salted SHA-256 digest.
// The stored form is the fixed-width salt followed by the hex digest of
// salt+secret, so the salt never needs a column of its own.
type SaltedHasher struct {
	saltLen int
}

// NewSaltedHasher creates a SaltedHasher with the given salt length.
func NewSaltedHasher(saltLen int) (*SaltedHasher, error) {
	if saltLen < MinSaltLength || saltLen > MaxSaltLength {
		return nil, oops.Code("HASH_BAD_SALT_LENGTH").
			With("salt_length", saltLen).
			Errorf("salt length must be between %d and %d", MinSaltLength, MaxSaltLength)
	}
	return &SaltedHasher{saltLen: saltLen}, nil
}

// Hash generates a fresh salt and returns the salt-prefixed digest.
func (h *SaltedHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyPassword
	}
	salt, err := h.newSalt()
	if err != nil {
		return "", err
	}
	return h.HashWithSalt(secret, salt), nil
}

// HashWithSalt returns the salt-prefixed hex digest of salt+secret.
// Deterministic for a given pair; exported so callers can recompute a
// digest against a known salt.
func (h *SaltedHasher) HashWithSalt(secret, salt string) string {
	sum := sha256.Sum256([]byte(salt + secret))
	return salt + hex.EncodeToString(sum[:])
}

// Verify splits the fixed-width salt prefix off the stored value,
// recomputes the digest and compares in constant time.
func (h *SaltedHasher) Verify(secret, stored string) (bool, error) {
	if len(stored) != h.saltLen+hex.EncodedLen(sha256.Size) {
		return false, oops.Code("HASH_MALFORMED").
			With("length", len(stored)).
			Errorf("stored digest has unexpected size")
	}
	salt := stored[:h.saltLen]
	computed := h.HashWithSalt(secret, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}

// newSalt draws a fixed-length salt from the alphanumeric pool. The
// salt deters precomputed-table attacks; it is not itself a secret.
func (h *SaltedHasher) newSalt() (string, error) {
	buf := make([]byte, h.saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}
	for i, b := range buf {
		buf[i] = saltPool[int(b)%len(saltPool)]
	}
	return string(buf), nil
}

// NewRegistrationKey produces a high-entropy single-use token by
// digesting fresh randomness with a fresh salt. Same primitive as
// password hashing, but the token is itself the secret-equivalent.
func NewRegistrationKey() (string, error) {
	buf := make([]byte, registrationKeyBytes+MaxSaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("REGISTRATION_KEY_FAILED").Wrap(err)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// Argon2id parameters (OWASP-recommended).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// Argon2idHasher implements PasswordHasher using argon2id with the PHC
// string encoding. Selectable through the hash.scheme configuration as
// a hardened alternative to the salted-digest default.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the secret.
func (h *Argon2idHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks the secret against a PHC-encoded argon2id hash.
func (h *Argon2idHasher) Verify(secret, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 {
		return false, oops.Code("HASH_MALFORMED").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, oops.Code("HASH_MALFORMED").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("HASH_MALFORMED").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("HASH_MALFORMED").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("HASH_MALFORMED").Wrap(err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("HASH_MALFORMED").Wrap(err)
	}

	if threads > 255 {
		return false, oops.Code("HASH_MALFORMED").Errorf("threads value %d exceeds uint8 max", threads)
	}
	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("HASH_MALFORMED").Errorf("invalid hash key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(secret), salt, time, memory, uint8(threads), uint32(keyLen))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// NewHasher constructs the hasher for the configured scheme.
func NewHasher(scheme string, saltLen int) (PasswordHasher, error) {
	switch scheme {
	case "", "sha256":
		return NewSaltedHasher(saltLen)
	case "argon2id":
		return NewArgon2idHasher(), nil
	}
	return nil, oops.Code("HASH_BAD_SCHEME").
		With("scheme", scheme).
		Errorf("unknown hash scheme %q", scheme)
}
