package store

import (
	"context"
	"fmt"
	"os"
)

// Customer is a row of the sample customers table.
type Customer struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
	Age   int    `db:"age"`
	City  string `db:"city"`
}

// Order is a row of the sample orders table.
type Order struct {
	ID         int     `db:"id"`
	CustomerID int     `db:"customer_id"`
	Product    string  `db:"product"`
	Amount     float64 `db:"amount"`
	OrderDate  string  `db:"order_date"`
}

// SampleCustomers is the customers table of the demo database.
var SampleCustomers = []Customer{
	{1, "Alice Johnson", "alice@email.com", 28, "New York"},
	{2, "Bob Smith", "bob@email.com", 35, "Los Angeles"},
	{3, "Carol White", "carol@email.com", 42, "Chicago"},
	{4, "David Brown", "david@email.com", 31, "Houston"},
	{5, "Eve Davis", "eve@email.com", 26, "Phoenix"},
}

// SampleOrders is the orders table of the demo database.
var SampleOrders = []Order{
	{1, 1, "Laptop", 999.99, "2024-01-15"},
	{2, 1, "Mouse", 29.99, "2024-01-16"},
	{3, 2, "Keyboard", 79.99, "2024-01-20"},
	{4, 3, "Monitor", 299.99, "2024-02-01"},
	{5, 3, "Desk", 449.99, "2024-02-05"},
	{6, 4, "Chair", 199.99, "2024-02-10"},
}

var sampleSchema = []string{
	`DROP TABLE IF EXISTS orders`,
	`DROP TABLE IF EXISTS customers`,
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		age INTEGER,
		city TEXT
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER REFERENCES customers(id),
		product TEXT,
		amount DECIMAL(10,2),
		order_date DATE
	)`,
}

// SeedSample replaces the customers and orders tables with the demo data set
// in a single transaction.
func SeedSample(ctx context.Context, s *SQL) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range sampleSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed schema: %w", err)
		}
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO customers (id, name, email, age, city)
		VALUES (:id, :name, :email, :age, :city)`,
		SampleCustomers,
	); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO orders (id, customer_id, product, amount, order_date)
		VALUES (:id, :customer_id, :product, :amount, :order_date)`,
		SampleOrders,
	); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// CreateSampleDatabase writes a fresh SQLite demo database at path, removing
// any file already there.
func CreateSampleDatabase(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	s, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		return err
	}
	defer s.Close()

	return SeedSample(ctx, s)
}
