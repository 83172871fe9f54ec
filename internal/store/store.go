// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package store provides the transactional gateway to the relational
// backing store. Queries are authored in a canonical "?" placeholder
// style and rebound to the driver's declared style before execution.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DB is the subset of *pgxpool.Pool the gateway drives. pgxmock's pool
// interface satisfies it as well, which keeps the gateway testable
// without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier abstracts statement execution for both the pool and an active
// transaction, so gateway calls inside InTransaction participate in it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// cursorRetryDelay is the pause before the single cursor-recovery retry.
const cursorRetryDelay = 50 * time.Millisecond

// Store executes parameterized statements against the backing store.
// Cursor-level failures are retried exactly once with a fresh cursor;
// if the retry fails too, the error propagates unchanged. Connection
// failures are never retried here.
type Store struct {
	db    DB
	style ParamStyle
}

// New creates a Store over db using the driver's declared placeholder
// style.
func New(db DB, style ParamStyle) (*Store, error) {
	if db == nil {
		return nil, oops.Code("STORE_NO_CONNECTION").Wrap(ErrConnectionRequired)
	}
	switch style {
	case StyleQuestion, StyleNumeric, StyleNamed:
	default:
		return nil, oops.Code("STORE_BAD_PARAMSTYLE").
			With("style", string(style)).
			Wrap(ErrUnsupportedParamStyle)
	}
	return &Store{db: db, style: style}, nil
}

// Connect opens a connection pool for the given DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}
	return pool, nil
}

// Exec runs a statement and returns the number of affected rows.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	bound, boundArgs, err := rebind(s.style, query, args)
	if err != nil {
		return 0, err
	}
	var affected int64
	err = s.do(ctx, func(q querier) error {
		tag, execErr := q.Exec(ctx, bound, boundArgs...)
		if execErr != nil {
			return execErr
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// FetchOne runs a query expected to match at most one row and scans it
// into dest. Returns ErrNoRows when nothing matches.
func (s *Store) FetchOne(ctx context.Context, dest []any, query string, args ...any) error {
	bound, boundArgs, err := rebind(s.style, query, args)
	if err != nil {
		return err
	}
	return s.do(ctx, func(q querier) error {
		return q.QueryRow(ctx, bound, boundArgs...).Scan(dest...)
	})
}

// FetchAll runs a query and invokes scan for every result row.
func (s *Store) FetchAll(ctx context.Context, scan func(rows pgx.Rows) error, query string, args ...any) error {
	bound, boundArgs, err := rebind(s.style, query, args)
	if err != nil {
		return err
	}
	return s.do(ctx, func(q querier) error {
		rows, queryErr := q.Query(ctx, bound, boundArgs...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		for rows.Next() {
			if scanErr := scan(rows); scanErr != nil {
				return scanErr
			}
		}
		return rows.Err()
	})
}

// txKey carries the active transaction through context.
type txKey struct{}

// InTransaction begins a transaction, stores it in context, and calls
// fn. Gateway calls made with the derived context run inside the same
// transaction. If fn returns nil the transaction is committed,
// otherwise it is rolled back.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return oops.Code("STORE_TX_BEGIN_FAILED").Wrap(classify(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("STORE_TX_COMMIT_FAILED").Wrap(classify(err))
	}
	return nil
}

// querier returns the transaction from ctx if present, otherwise the pool.
func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.db
}

// do runs op with the gateway's recovery policy: cursor-level failures
// get exactly one retry against a fresh cursor, everything else
// propagates immediately. The final error is classified onto the
// store's sentinel error classes.
func (s *Store) do(ctx context.Context, op func(q querier) error) error {
	q := s.querier(ctx)
	b := retry.WithMaxRetries(1, retry.NewConstant(cursorRetryDelay))
	err := retry.Do(ctx, b, func(_ context.Context) error {
		if opErr := op(q); opErr != nil {
			if isCursorFailure(opErr) {
				return retry.RetryableError(opErr)
			}
			return opErr
		}
		return nil
	})
	return classify(err)
}
