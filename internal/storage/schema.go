package storage

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/fatali-fataliyev/expense_tracker/logging"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// EnsureSchema creates the tables when they are missing. It is a
// development bootstrap, existing tables are never altered.
func EnsureSchema(ctx context.Context, pool *Pool) error {
	content, err := schemaFS.ReadFile("schema/" + string(pool.Dialect()) + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for dialect %s: %w", pool.Dialect(), err)
	}

	statements := strings.Split(string(content), ";")
	for _, statement := range statements {
		trimmedStmt := strings.TrimSpace(statement)
		if trimmedStmt == "" {
			continue
		}

		if _, err := pool.Exec(ctx, "schema", trimmedStmt); err != nil {
			return fmt.Errorf("schema statement failed: %w\nStatement: %s", err, trimmedStmt)
		}
	}

	logging.Logger.Info("database schema is ready")
	return nil
}
