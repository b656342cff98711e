package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draft-strategy-lab/internal/storage"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("noop", nil))
	assert.ErrorIs(t, translate("get", pgx.ErrNoRows), storage.ErrNotFound)

	dup := &pgconn.PgError{Code: pgErrUniqueViolation, Message: "duplicate key"}
	assert.ErrorIs(t, translate("insert", fmt.Errorf("exec: %w", dup)), storage.ErrDuplicateKey)

	for _, code := range []string{pgErrNotNullViolation, pgErrCheckViolation, pgErrInvalidText} {
		err := translate("insert match", &pgconn.PgError{Code: code, Message: "bad row"})
		assert.ErrorIs(t, err, storage.ErrInvalidInput, code)
		assert.Contains(t, err.Error(), "insert match")
	}

	other := &pgconn.PgError{Code: "40001", Message: "serialization failure"}
	err := translate("commit", other)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "unmapped errors keep the driver error")
	assert.Equal(t, "40001", pgErr.Code)
	assert.NotErrorIs(t, err, storage.ErrInvalidInput)
	assert.Contains(t, err.Error(), "commit")
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse postgres dsn")
}

func TestNewPool_Options(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	dsn := pool.Config().ConnString()
	tuned, err := NewPool(ctx, dsn, WithMaxConns(3), WithConnectTimeout(5*time.Second))
	require.NoError(t, err)
	defer tuned.Close()

	assert.Equal(t, int32(3), tuned.Config().MaxConns)
	assert.Equal(t, 5*time.Second, tuned.Config().ConnConfig.ConnectTimeout)

	var name string
	require.NoError(t, tuned.QueryRow(ctx, "SHOW application_name").Scan(&name))
	assert.Equal(t, ApplicationName, name)

	// Zero values keep the defaults.
	plain, err := NewPool(ctx, dsn, WithMaxConns(0), WithConnectTimeout(0))
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, pool.Config().MaxConns, plain.Config().MaxConns)
}

func TestTranslate_NotNullViolation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO preferences (key, value, updated_at) VALUES ($1, NULL, 0)`, "team_home")
	assert.ErrorIs(t, translate("insert preference", err), storage.ErrInvalidInput)
}
