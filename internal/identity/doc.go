// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package identity implements the user-identity core: registration
// with email confirmation, exactly-once activation, password
// authentication with bounded suspension windows, and role-gated
// access to protected operations.
//
// # Domain Types
//
// PendingUser and User share the email identity key but are mutually
// exclusive rows; activation moves an identity from one to the other
// atomically. Repositories persist both through the store gateway.
//
// # Services
//
//   - Service - registration, activation, authentication, role
//     assignment, plus the accessors consumed by the mail-dispatch and
//     pending-cleanup collaborators
//   - Gate - wraps protected operations with a required-role pre-check
//
// Services are created with New* constructors that validate their
// dependencies.
package identity
