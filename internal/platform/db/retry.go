package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrconsole/internal/platform/querier"
)

const (
	readAttempts = 3
	readBackoff  = 100 * time.Millisecond
)

// Retry runs an idempotent read up to three times. Only connection-level
// failures are retried; no-rows, constraint and syntax errors return at once.
func Retry[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= readAttempts; attempt++ {
		value, err := read(ctx)
		if err == nil {
			return value, nil
		}
		if !Transient(err) {
			return zero, err
		}
		lastErr = err
		if attempt == readAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(attempt) * readBackoff):
		}
	}
	return zero, lastErr
}

// RetryRead is Retry for a read issued through q. Inside a transaction a
// failed statement aborts the whole transaction, so the read runs once and
// retrying is left to whoever owns the transaction.
func RetryRead[T any](ctx context.Context, q querier.Querier, read func(context.Context) (T, error)) (T, error) {
	if _, inTx := q.(pgx.Tx); inTx {
		return read(ctx)
	}
	return Retry(ctx, read)
}

// Transient reports whether err looks like a dropped connection or a server
// that is temporarily unavailable.
func Transient(err error) bool {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P: operator intervention
		return len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code == "57P01" || pgErr.Code == "57P03")
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
