package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/mysql.sql
var mysqlSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// Migrate creates the ticketing tables if they do not exist yet.  The MySQL
// driver rejects multi-statement Exec calls by default, so the schema is
// applied one statement at a time.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := mysqlSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w (statement: %.60s)", err, stmt)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	parts := strings.Split(schema, ";\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), ";"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
