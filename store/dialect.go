package store

import (
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported driver names accepted by Open and DialectFor.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect holds the catalog queries and quoting rules of one database engine.
type Dialect struct {
	// Name is the user-facing driver name.
	Name string

	// DriverName is the database/sql driver registration name.
	DriverName string

	// TablesQuery selects user table names, sorted.
	TablesQuery string

	// ColumnsQuery selects name and type of a table's columns. It takes the
	// table name as its only bind parameter, written with '?' and rebound
	// for the driver.
	ColumnsQuery string

	// MaxOpenConns caps the pool; zero leaves the database/sql default.
	MaxOpenConns int
}

// SQLite reads the catalog from sqlite_master and pragma_table_info.
var SQLite = Dialect{
	Name:       DriverSQLite,
	DriverName: "sqlite",
	TablesQuery: `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
	ColumnsQuery: `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
	// One connection keeps in-memory databases visible to every query.
	MaxOpenConns: 1,
}

// Postgres reads the catalog from information_schema in the current schema.
var Postgres = Dialect{
	Name:       DriverPostgres,
	DriverName: "pgx",
	TablesQuery: `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
	ColumnsQuery: `SELECT column_name AS name, data_type AS type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`,
	MaxOpenConns: 10,
}

func init() {
	// sqlx does not know the modernc driver name; it binds with '?'.
	sqlx.BindDriver(SQLite.DriverName, sqlx.QUESTION)
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return SQLite, true
	case DriverPostgres, "pgx", "postgresql":
		return Postgres, true
	default:
		return Dialect{}, false
	}
}

// QuoteIdent quotes a table or column name for use in generated SQL.
func (d Dialect) QuoteIdent(name string) string {
	return quoteIdent(name)
}

func (d Dialect) configure(db *sqlx.DB) {
	if d.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.MaxOpenConns)
	}
}
