// Package store is the relational store boundary the database tools talk to.
//
// The agent only needs four read operations: list table names, describe a
// table's columns, count its rows and run an arbitrary query. [Store] captures
// exactly that; [SQL] implements it on top of sqlx for SQLite and Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Column is one column of a table as reported by the database catalog.
type Column struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// Result is the materialized outcome of a query. Rows holds driver values
// with []byte already converted to string. An empty result has no rows but a
// non-nil Result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Store is the read surface used by the database tools.
type Store interface {
	// TableNames returns user table names sorted by name.
	TableNames(ctx context.Context) ([]string, error)

	// Columns returns the columns of table in declaration order. It returns
	// an empty slice and no error when the table does not exist.
	Columns(ctx context.Context, table string) ([]Column, error)

	// RowCount returns the number of rows in table.
	RowCount(ctx context.Context, table string) (int64, error)

	// Query executes a statement and returns every row it produced.
	Query(ctx context.Context, query string) (*Result, error)

	Close() error
}

// ErrUnsupportedDriver is returned by Open for drivers without a dialect.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// SQL implements Store on an sqlx database handle.
type SQL struct {
	db      *sqlx.DB
	dialect Dialect
}

// New wraps an open handle. The dialect must match the handle's driver.
func New(db *sqlx.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

// Open connects to the database identified by driver and dsn and verifies the
// connection. driver is one of DriverSQLite or DriverPostgres.
func Open(ctx context.Context, driver, dsn string) (*SQL, error) {
	dialect, ok := DialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}
	dialect.configure(db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	return New(db, dialect), nil
}

// DB returns the underlying handle.
func (s *SQL) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the dialect the store was opened with.
func (s *SQL) Dialect() Dialect {
	return s.dialect
}

// TableNames implements Store.
func (s *SQL) TableNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, s.dialect.TablesQuery); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Columns implements Store.
func (s *SQL) Columns(ctx context.Context, table string) ([]Column, error) {
	var cols []Column
	query := s.db.Rebind(s.dialect.ColumnsQuery)
	if err := s.db.SelectContext(ctx, &cols, query, table); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	return cols, nil
}

// RowCount implements Store.
func (s *SQL) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM " + s.dialect.QuoteIdent(table)
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Query implements Store.
func (s *SQL) Query(ctx context.Context, query string) (*Result, error) {
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Close closes the underlying handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

// quoteIdent wraps name in double quotes, doubling embedded quotes. Both
// SQLite and Postgres accept this form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Compile-time check that SQL implements Store.
var _ Store = (*SQL)(nil)
