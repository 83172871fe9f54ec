// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for store failure classes. Callers match with errors.Is.
var (
	// ErrNoRows is returned when a single-row fetch matches nothing.
	ErrNoRows = errors.New("no rows in result")

	// ErrIntegrity is returned for constraint violations (duplicate key,
	// unique registration key collision). Never retried.
	ErrIntegrity = errors.New("integrity constraint violation")

	// ErrConnection is returned for connection-level failures. These are
	// not retried; reconnect policy belongs to a future layer.
	ErrConnection = errors.New("store connection failure")

	// ErrCursor is returned when a cursor-level failure survives its
	// single recovery attempt. The driver error stays reachable through
	// errors.As.
	ErrCursor = errors.New("store cursor failure")

	// ErrConnectionRequired is returned when a Store is constructed or
	// used without a backing connection.
	ErrConnectionRequired = errors.New("store connection required")

	// ErrUnsupportedParamStyle is returned when the configured parameter
	// placeholder style is not one the gateway can translate.
	ErrUnsupportedParamStyle = errors.New("unsupported parameter placeholder style")
)

// isCursorFailure reports whether the error is a cursor-level failure,
// the only class the gateway retries (exactly once).
func isCursorFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsInvalidCursorState(pgErr.Code) ||
		pgerrcode.IsInvalidCursorName(pgErr.Code)
}

// classify maps driver errors onto the store's sentinel classes. A
// cursor failure reaches classification only after the retry loop has
// exhausted its single recovery attempt.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return errors.Join(ErrIntegrity, err)
		case pgerrcode.IsConnectionException(pgErr.Code):
			return errors.Join(ErrConnection, err)
		case pgerrcode.IsInvalidCursorState(pgErr.Code) || pgerrcode.IsInvalidCursorName(pgErr.Code):
			return errors.Join(ErrCursor, err)
		}
	}
	return err
}
