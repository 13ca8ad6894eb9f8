package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options describes how to reach the database.  MySQL is the production
// engine; SQLite is used for local development and tests.
type Options struct {
	Driver     string
	User       string
	Pass       string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// Open connects to the configured engine and verifies the connection.
func Open(opts Options) (*sqlx.DB, error) {
	switch opts.Driver {
	case DriverMySQL, "":
		return openMySQL(opts)
	case DriverSQLite:
		return OpenSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
}

func openMySQL(opts Options) (*sqlx.DB, error) {
	auth := opts.User
	if opts.Pass != "" {
		auth = fmt.Sprintf("%s:%s", opts.User, opts.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, opts.Host, opts.Port, opts.Name)

	db, err := sqlx.Open(DriverMySQL, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a file-backed SQLite database.  The pool is pinned to a
// single connection: SQLite has no row locks, so transactions are
// serialized at the connection instead.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func ping(db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// ForUpdate returns the row-locking suffix for SELECT statements on the
// given driver.  SQLite has no FOR UPDATE; its single-connection pool
// already gives each transaction exclusive access.
func ForUpdate(driverName string) string {
	if driverName == DriverMySQL {
		return " FOR UPDATE"
	}
	return ""
}
