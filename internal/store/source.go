// Package store reads the customers, sales, orders and items relations from
// the source store. Any database/sql driver registered here can back it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql" // mysql
	_ "github.com/jackc/pgx/v5/stdlib" // pgx
	_ "github.com/mattn/go-sqlite3"    // sqlite3 (cgo)
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite (pure Go)
)

// DefaultDriver is used when a Source names no driver.
const DefaultDriver = "sqlite"

// Drivers lists the registered driver names.
var Drivers = []string{"sqlite", "sqlite3", "mysql", "pgx"}

var sqlOpen = sql.Open

// Source locates the store.
type Source struct {
	Driver string
	DSN    string // file path for the sqlite drivers
	// Create allows opening a sqlite file that does not exist yet. Readers
	// leave it false so a wrong path fails instead of yielding an empty store.
	Create bool
}

func (s Source) driver() string {
	if s.Driver == "" {
		return DefaultDriver
	}
	return s.Driver
}

// IsSQLite reports whether the source uses one of the sqlite drivers.
func (s Source) IsSQLite() bool {
	d := s.driver()
	return d == "sqlite" || d == "sqlite3"
}

// Open opens and pings the store.
func Open(ctx context.Context, src Source, logger *zap.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := src.driver()
	if !slices.Contains(Drivers, driver) {
		return nil, &DataAccessError{Op: "open", Err: fmt.Errorf("unsupported driver %q", driver)}
	}
	if src.DSN == "" {
		return nil, &DataAccessError{Op: "open", Err: errors.New("empty data source name")}
	}

	if src.IsSQLite() && !src.Create && isPlainPath(src.DSN) {
		if _, err := os.Stat(src.DSN); err != nil {
			return nil, &DataAccessError{Op: "open", Err: err}
		}
	}

	db, err := sqlOpen(driver, src.DSN)
	if err != nil {
		return nil, &DataAccessError{Op: "open", Err: err}
	}
	if src.IsSQLite() {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &DataAccessError{Op: "ping", Err: err}
	}

	logger.Debug("Opened source store", zap.String("driver", driver))
	return db, nil
}

// WithSource opens the store, hands it to fn and closes it when fn returns,
// whether fn succeeded or not.
func WithSource(ctx context.Context, src Source, logger *zap.Logger, fn func(*sql.DB) error) (err error) {
	db, err := Open(ctx, src, logger)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))
	return fn(db)
}

// isPlainPath reports whether dsn names a file rather than a URI or an
// in-memory database.
func isPlainPath(dsn string) bool {
	return !strings.HasPrefix(dsn, "file:") && !strings.HasPrefix(dsn, ":memory:")
}
