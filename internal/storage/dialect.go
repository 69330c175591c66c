package storage

import (
	"strconv"
	"strings"

	"github.com/fatali-fataliyev/expense_tracker/internal/config"
)

type Dialect string

const (
	MySQL    Dialect = config.DriverMySQL
	Postgres Dialect = config.DriverPostgres
	SQLite   Dialect = config.DriverSQLite
)

// Rebind rewrites ? placeholders into the form the dialect expects.
// Statements in this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SupportsReturning is true where inserts report the new id through RETURNING
// instead of LastInsertId.
func (d Dialect) SupportsReturning() bool {
	return d == Postgres
}

// DateColumn renders a DATE column as YYYY-MM-DD text.
func (d Dialect) DateColumn(column string) string {
	if d == Postgres {
		return "to_char(" + column + ", 'YYYY-MM-DD')"
	}
	return column
}
