package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	query := "UPDATE users SET email = ?, phone = ? WHERE id = ?"

	assert.Equal(t, query, MySQL.Rebind(query))
	assert.Equal(t, query, SQLite.Rebind(query))
	assert.Equal(t, "UPDATE users SET email = $1, phone = $2 WHERE id = $3", Postgres.Rebind(query))
}

func TestDateColumn(t *testing.T) {
	assert.Equal(t, "expense_date", MySQL.DateColumn("expense_date"))
	assert.Equal(t, "to_char(expense_date, 'YYYY-MM-DD')", Postgres.DateColumn("expense_date"))
	assert.True(t, Postgres.SupportsReturning())
	assert.False(t, MySQL.SupportsReturning())
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045}, false},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "42P01"}, false},
		{"wrapped", &StoreError{Op: "save user", Err: fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062})}, true},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}
