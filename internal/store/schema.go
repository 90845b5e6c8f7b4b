package store

import (
	"context"
	"database/sql"
	"strings"
)

// Table describes a source relation and the columns read from it.
type Table struct {
	Name    string
	Columns []string
	ddl     string
}

var (
	TableCustomers = Table{
		Name:    "customers",
		Columns: []string{"customer_id", "age"},
		ddl:     `CREATE TABLE IF NOT EXISTS customers (customer_id INTEGER PRIMARY KEY, age INTEGER)`,
	}
	TableSales = Table{
		Name:    "sales",
		Columns: []string{"sales_id", "customer_id"},
		ddl:     `CREATE TABLE IF NOT EXISTS sales (sales_id INTEGER PRIMARY KEY, customer_id INTEGER NOT NULL)`,
	}
	TableOrders = Table{
		Name:    "orders",
		Columns: []string{"sales_id", "item_id", "quantity"},
		ddl:     `CREATE TABLE IF NOT EXISTS orders (sales_id INTEGER NOT NULL, item_id INTEGER NOT NULL, quantity INTEGER)`,
	}
	TableItems = Table{
		Name:    "items",
		Columns: []string{"item_id", "item_name"},
		ddl:     `CREATE TABLE IF NOT EXISTS items (item_id INTEGER PRIMARY KEY, item_name TEXT)`,
	}
)

// Tables lists the source relations in load order.
var Tables = []Table{TableCustomers, TableSales, TableOrders, TableItems}

func (t Table) selectQuery() string {
	return "SELECT " + strings.Join(t.Columns, ", ") + " FROM " + t.Name
}

// CheckSchema verifies that every source relation exists and carries the
// columns read from it. Column names compare case-insensitively.
func CheckSchema(ctx context.Context, db *sql.DB) error {
	for _, t := range Tables {
		// LIMIT 0 returns the column set without reading rows on every driver.
		rows, err := db.QueryContext(ctx, "SELECT * FROM "+t.Name+" LIMIT 0")
		if err != nil {
			return &DataAccessError{Op: "inspect", Table: t.Name, Err: err}
		}
		cols, err := rows.Columns()
		rows.Close()
		if err != nil {
			return &DataAccessError{Op: "inspect", Table: t.Name, Err: err}
		}

		present := make(map[string]bool, len(cols))
		for _, c := range cols {
			present[strings.ToLower(c)] = true
		}
		var missing []string
		for _, c := range t.Columns {
			if !present[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return &SchemaMismatchError{Table: t.Name, Missing: missing}
		}
	}
	return nil
}

// CreateSchema creates the four relations when they do not exist.
// Statements run one at a time since mysql rejects multi-statement Exec.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, t := range Tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return &DataAccessError{Op: "create", Table: t.Name, Err: err}
		}
	}
	return nil
}
