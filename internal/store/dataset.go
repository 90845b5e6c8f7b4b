package store

import (
	"context"
	"database/sql"
)

// Customer is a row of the customers relation.
type Customer struct {
	CustomerID int64
	Age        sql.NullInt64
}

// Sale is a row of the sales relation.
type Sale struct {
	SalesID    int64
	CustomerID int64
}

// Order is a row of the orders relation. Quantity may be NULL.
type Order struct {
	SalesID  int64
	ItemID   int64
	Quantity sql.NullInt64
}

// Item is a row of the items relation.
type Item struct {
	ItemID   int64
	ItemName sql.NullString
}

// Dataset holds the four source relations in memory.
type Dataset struct {
	Customers []Customer
	Sales     []Sale
	Orders    []Order
	Items     []Item
}

// LoadDataset reads every row of the four relations.
func LoadDataset(ctx context.Context, db *sql.DB) (*Dataset, error) {
	ds := &Dataset{}
	var err error

	ds.Customers, err = load(ctx, db, TableCustomers, func(rows *sql.Rows) (Customer, error) {
		var c Customer
		err := rows.Scan(&c.CustomerID, &c.Age)
		return c, err
	})
	if err != nil {
		return nil, err
	}

	ds.Sales, err = load(ctx, db, TableSales, func(rows *sql.Rows) (Sale, error) {
		var s Sale
		err := rows.Scan(&s.SalesID, &s.CustomerID)
		return s, err
	})
	if err != nil {
		return nil, err
	}

	ds.Orders, err = load(ctx, db, TableOrders, func(rows *sql.Rows) (Order, error) {
		var o Order
		err := rows.Scan(&o.SalesID, &o.ItemID, &o.Quantity)
		return o, err
	})
	if err != nil {
		return nil, err
	}

	ds.Items, err = load(ctx, db, TableItems, func(rows *sql.Rows) (Item, error) {
		var i Item
		err := rows.Scan(&i.ItemID, &i.ItemName)
		return i, err
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func load[T any](ctx context.Context, db *sql.DB, table Table, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, table.selectQuery())
	if err != nil {
		return nil, &DataAccessError{Op: "query", Table: table.Name, Err: err}
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, &DataAccessError{Op: "scan", Table: table.Name, Err: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &DataAccessError{Op: "query", Table: table.Name, Err: err}
	}
	return out, nil
}
