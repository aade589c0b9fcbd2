package payroll_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/payroll"
)

type brokenRow struct{}

func (brokenRow) Scan(...any) error {
	return &pgconn.PgError{Code: "08006", Message: "connection failure"}
}

type countingTx struct {
	pgx.Tx
	reads int
}

func (t *countingTx) QueryRow(context.Context, string, ...any) pgx.Row {
	t.reads++
	return brokenRow{}
}

func (t *countingTx) Rollback(context.Context) error { return nil }

type countingPool struct {
	tx    *countingTx
	reads int
}

func (p *countingPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (p *countingPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (p *countingPool) QueryRow(context.Context, string, ...any) pgx.Row {
	p.reads++
	return brokenRow{}
}

func (p *countingPool) Begin(context.Context) (pgx.Tx, error) {
	return p.tx, nil
}

func TestStoreReadsRetryOnPoolOnly(t *testing.T) {
	pool := &countingPool{tx: &countingTx{}}
	store := payroll.NewStore(pool)

	_, err := store.GetBatch(context.Background(), tenantID, "b1")
	require.Error(t, err)
	assert.Equal(t, 3, pool.reads)

	err = store.InTx(context.Background(), func(repo payroll.Repository) error {
		_, err := repo.GetBatch(context.Background(), tenantID, "b1")
		return err
	})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, 1, pool.tx.reads)
}
