// Package dbtools provides the read-only database tools the agent can call:
// list_tables, describe_table and query_database.
//
// Every tool reports failures as text and never returns an error, so a bad
// query or a missing table becomes an observation the model can correct.
package dbtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/store"
	"github.com/rickchristie/sqlagent/toolchain"
)

// Tool names.
const (
	ListTablesName    = "list_tables"
	DescribeTableName = "describe_table"
	QueryDatabaseName = "query_database"
)

// Parameter names.
const (
	ParamTableName = "table_name"
	ParamQuery     = "query"
)

// NewRegistry builds the catalog of database tools over s in the order
// list_tables, describe_table, query_database.
func NewRegistry(s store.Store) *toolchain.Registry {
	return Register(toolchain.NewRegistry(), s)
}

// Register adds the database tools to reg and returns it.
func Register(reg *toolchain.Registry, s store.Store) *toolchain.Registry {
	return reg.
		RegisterTool(ListTables(s)).
		RegisterTool(DescribeTable(s)).
		RegisterTool(QueryDatabase(s))
}

// ListTables returns the list_tables tool.
func ListTables(s store.Store) sqlagent.Tool {
	return sqlagent.NewToolFunc(
		ListTablesName,
		"Lists all tables in the database",
		nil,
		func(ctx context.Context, _ map[string]any) string {
			names, err := s.TableNames(ctx)
			if err != nil {
				return fmt.Sprintf("Error listing tables: %v", err)
			}
			if len(names) == 0 {
				return "No tables found"
			}
			return "Available tables: " + strings.Join(names, ", ")
		},
	)
}

// DescribeTable returns the describe_table tool.
func DescribeTable(s store.Store) sqlagent.Tool {
	return sqlagent.NewToolFunc(
		DescribeTableName,
		"Describes the schema of a table (columns, types, row count)",
		[]sqlagent.Parameter{
			{Name: ParamTableName, Description: "Name of the table to describe (string)"},
		},
		func(ctx context.Context, args map[string]any) string {
			return describe(ctx, s, sqlagent.StringArg(args, ParamTableName))
		},
	)
}

func describe(ctx context.Context, s store.Store, table string) string {
	cols, err := s.Columns(ctx, table)
	if err != nil {
		return fmt.Sprintf("Error describing table: %v", err)
	}
	if len(cols) == 0 {
		return fmt.Sprintf("Table '%s' not found", table)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Table: %s\nColumns:\n", table)
	for _, c := range cols {
		fmt.Fprintf(&sb, "  - %s (%s)\n", c.Name, c.Type)
	}

	count, err := s.RowCount(ctx, table)
	if err != nil {
		return fmt.Sprintf("Error describing table: %v", err)
	}
	fmt.Fprintf(&sb, "Row count: %d", count)
	return sb.String()
}

// QueryDatabase returns the query_database tool.
func QueryDatabase(s store.Store) sqlagent.Tool {
	return sqlagent.NewToolFunc(
		QueryDatabaseName,
		fmt.Sprintf("Executes a SELECT query (read-only, max %d rows)", DefaultRowLimit),
		[]sqlagent.Parameter{
			{Name: ParamQuery, Description: "SQL SELECT query to execute (string)"},
		},
		func(ctx context.Context, args map[string]any) string {
			return runQuery(ctx, s, sqlagent.StringArg(args, ParamQuery))
		},
	)
}

func runQuery(ctx context.Context, s store.Store, query string) string {
	if !IsReadOnly(query) {
		return "Error: Only SELECT queries are allowed (read-only mode)"
	}

	res, err := s.Query(ctx, WithLimit(query))
	if err != nil {
		return fmt.Sprintf("SQL Error: %v. Check your query syntax.", err)
	}
	if res == nil || len(res.Rows) == 0 {
		return "Query executed successfully. No rows returned."
	}
	return FormatResult(res)
}
