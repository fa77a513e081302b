package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/akulikov-dev/localchat/internal/errs"
)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewWithPool(mock), mock
}

func TestStore_Get(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key=\$1`).
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`[]`))
	v, err := s.Get(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, `[]`, v)

	mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set_Upserts(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO kv_entries \(key, value\) VALUES \(\$1, \$2\) ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED\.value`).
		WithArgs("userStatuses", `{}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.Set(ctx, "userStatuses", `{}`))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	s, mock := newStore(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM kv_entries WHERE key=\$1`).
		WithArgs("chat_a_b").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, s.Delete(ctx, "chat_a_b"))

	require.NoError(t, mock.ExpectationsWereMet())
}
