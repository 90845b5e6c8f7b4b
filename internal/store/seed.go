package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/sample.yaml
var sampleFixture []byte

// fixture is the YAML form of a Dataset. Absent age, quantity or item_name
// keys load as NULL.
type fixture struct {
	Customers []struct {
		CustomerID int64  `yaml:"customer_id"`
		Age        *int64 `yaml:"age"`
	} `yaml:"customers"`
	Sales []struct {
		SalesID    int64 `yaml:"sales_id"`
		CustomerID int64 `yaml:"customer_id"`
	} `yaml:"sales"`
	Orders []struct {
		SalesID  int64  `yaml:"sales_id"`
		ItemID   int64  `yaml:"item_id"`
		Quantity *int64 `yaml:"quantity"`
	} `yaml:"orders"`
	Items []struct {
		ItemID   int64   `yaml:"item_id"`
		ItemName *string `yaml:"item_name"`
	} `yaml:"items"`
}

// DefaultFixture returns the embedded sample dataset.
func DefaultFixture() (*Dataset, error) {
	return ParseFixture(sampleFixture)
}

// LoadFixture reads a YAML dataset from path.
func LoadFixture(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML dataset.
func ParseFixture(data []byte) (*Dataset, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	ds := &Dataset{}
	for _, c := range f.Customers {
		ds.Customers = append(ds.Customers, Customer{CustomerID: c.CustomerID, Age: nullInt(c.Age)})
	}
	for _, s := range f.Sales {
		ds.Sales = append(ds.Sales, Sale{SalesID: s.SalesID, CustomerID: s.CustomerID})
	}
	for _, o := range f.Orders {
		ds.Orders = append(ds.Orders, Order{SalesID: o.SalesID, ItemID: o.ItemID, Quantity: nullInt(o.Quantity)})
	}
	for _, i := range f.Items {
		item := Item{ItemID: i.ItemID}
		if i.ItemName != nil {
			item.ItemName = sql.NullString{String: *i.ItemName, Valid: true}
		}
		ds.Items = append(ds.Items, item)
	}
	return ds, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// Seed creates the schema and inserts ds in one transaction.
func Seed(ctx context.Context, db *sql.DB, driver string, ds *Dataset) error {
	if err := CreateSchema(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &DataAccessError{Op: "insert", Err: err}
	}

	insert := func(t Table, args ...any) error {
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			t.Name, strings.Join(t.Columns, ", "), placeholders(driver, len(args)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &DataAccessError{Op: "insert", Table: t.Name, Err: err}
		}
		return nil
	}

	err = func() error {
		for _, c := range ds.Customers {
			if err := insert(TableCustomers, c.CustomerID, c.Age); err != nil {
				return err
			}
		}
		for _, s := range ds.Sales {
			if err := insert(TableSales, s.SalesID, s.CustomerID); err != nil {
				return err
			}
		}
		for _, o := range ds.Orders {
			if err := insert(TableOrders, o.SalesID, o.ItemID, o.Quantity); err != nil {
				return err
			}
		}
		for _, i := range ds.Items {
			if err := insert(TableItems, i.ItemID, i.ItemName); err != nil {
				return err
			}
		}
		return nil
	}()
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return &DataAccessError{Op: "insert", Err: err}
	}
	return nil
}

// placeholders returns n bind parameters in the driver's syntax.
func placeholders(driver string, n int) string {
	params := make([]string, n)
	for i := range params {
		if driver == "pgx" {
			params[i] = fmt.Sprintf("$%d", i+1)
		} else {
			params[i] = "?"
		}
	}
	return strings.Join(params, ", ")
}
