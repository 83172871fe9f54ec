// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package identity

import (
	"regexp"

	"github.com/samber/oops"
)

// EmailValidator validates the structure of an email address. The
// service accepts any implementation so a stricter external validator
// can be swapped in.
type EmailValidator func(email string) error

// emailRegex is a permissive structural check: local part, "@", domain
// with at least one dot. A placeholder for a real validator, included
// for completeness only.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail is the default EmailValidator.
func ValidateEmail(email string) error {
	if email == "" || !emailRegex.MatchString(email) {
		return oops.Code("IDENTITY_INVALID_EMAIL").
			With("email", email).
			Wrap(ErrInvalidEmail)
	}
	return nil
}
