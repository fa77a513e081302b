// Package migrate applies the embedded SQL migrations that set up the
// kv_entries table backing the postgres store.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/akulikov-dev/localchat/migrations"
)

// Up brings the key-value schema at dsn up to date. It opens its own
// short-lived connection so callers can pool separately.
func Up(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
