// Package storetest builds throwaway sqlite source stores for tests.
package storetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"salesreport/internal/store"
)

// Seeded writes ds into a fresh sqlite file under t.TempDir and returns a
// read-only Source for it.
func Seeded(t testing.TB, ds *store.Dataset) store.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.db")
	src := store.Source{Driver: store.DefaultDriver, DSN: path, Create: true}

	ctx := context.Background()
	err := store.WithSource(ctx, src, nil, func(db *sql.DB) error {
		return store.Seed(ctx, db, src.Driver, ds)
	})
	if err != nil {
		t.Fatalf("failed to seed source store: %v", err)
	}

	src.Create = false
	return src
}

// Exec runs statements against a fresh sqlite file, for stores whose schema
// deliberately differs from the one Seed creates.
func Exec(t testing.TB, statements ...string) store.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.db")
	src := store.Source{Driver: store.DefaultDriver, DSN: path, Create: true}

	ctx := context.Background()
	err := store.WithSource(ctx, src, nil, func(db *sql.DB) error {
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to prepare source store: %v", err)
	}

	src.Create = false
	return src
}

// Int returns a valid NullInt64.
func Int(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

// Name returns a valid NullString.
func Name(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
