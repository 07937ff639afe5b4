// Package toolchain holds the tool catalog the agent advertises to the model
// and dispatches actions through.
//
// # Overview
//
// A Registry is responsible for:
//  1. Explaining to the model what tools are available and their parameters
//  2. Validating action arguments against a JSON Schema derived from the tool
//  3. Dispatching the call by name and returning the tool's text result
//
// Failures never escape as Go errors from Invoke. An unknown tool or invalid
// arguments become a text observation the model can read and correct:
//
//	Error: Unknown tool 'drop_everything'
//	Error: invalid parameters for tool 'describe_table': missing property 'table_name'
//
// # Example Usage
//
//	reg := toolchain.NewRegistry().
//	    RegisterTool(listTables).
//	    RegisterTool(describeTable)
//
//	fmt.Println(reg.AvailableToolsPrompt())
//	// - list_tables(no parameters): Lists all tables in the database
//	// - describe_table(table_name): Describes the schema of a table ...
//
//	obs := reg.Invoke(ctx, "describe_table", map[string]any{"table_name": "orders"})
//
// The catalog is built once and must not be mutated while runs are in
// progress. Registration order is preserved in the prompt.
package toolchain
