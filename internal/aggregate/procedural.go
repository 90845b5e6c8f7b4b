package aggregate

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"salesreport/internal/report"
	"salesreport/internal/store"
)

// Procedural loads the relations and aggregates them in memory.
type Procedural struct {
	logger *zap.Logger
}

// NewProcedural creates the procedural strategy.
func NewProcedural(logger *zap.Logger) *Procedural {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Procedural{logger: logger}
}

func (p *Procedural) Name() string { return "procedural" }

func (p *Procedural) Aggregate(ctx context.Context, db *sql.DB) ([]report.Row, error) {
	ds, err := store.LoadDataset(ctx, db)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Loaded dataset",
		zap.Int("customers", len(ds.Customers)),
		zap.Int("sales", len(ds.Sales)),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("items", len(ds.Items)))

	rows := AggregateDataset(ds)
	p.logger.Debug("Procedural aggregation complete", zap.Int("rows", len(rows)))
	return rows, nil
}

// joinedOrder is one order after the sale, customer and item joins.
type joinedOrder struct {
	CustomerID int64
	Age        sql.NullInt64
	ItemName   sql.NullString
	Quantity   sql.NullInt64
}

type groupKey struct {
	customer int64
	age      int64
	item     string
}

// AggregateDataset computes the report from in-memory relations.
func AggregateDataset(ds *store.Dataset) []report.Row {
	joined := joinOrders(ds)

	sums := make(map[groupKey]int64)
	var keys []groupKey
	for _, j := range joined {
		if !j.Age.Valid || !inAgeRange(j.Age.Int64) {
			continue
		}
		if !j.Quantity.Valid {
			continue
		}
		if !j.ItemName.Valid {
			continue
		}

		k := groupKey{customer: j.CustomerID, age: j.Age.Int64, item: j.ItemName.String}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] += j.Quantity.Int64
	}

	var out []report.Row
	for _, k := range keys {
		total := sums[k]
		if total <= 0 {
			continue
		}
		out = append(out, report.Row{
			Customer: k.customer,
			Age:      k.age,
			Item:     k.item,
			Quantity: total,
		})
	}

	report.Sort(out)
	return out
}

// joinOrders inner-joins orders with sales on sales_id, customers on
// customer_id and items on item_id. Unmatched rows drop out, and duplicate
// keys on the lookup side fan out as they would in SQL.
func joinOrders(ds *store.Dataset) []joinedOrder {
	salesByID := make(map[int64][]store.Sale, len(ds.Sales))
	for _, s := range ds.Sales {
		salesByID[s.SalesID] = append(salesByID[s.SalesID], s)
	}
	customersByID := make(map[int64][]store.Customer, len(ds.Customers))
	for _, c := range ds.Customers {
		customersByID[c.CustomerID] = append(customersByID[c.CustomerID], c)
	}
	itemsByID := make(map[int64][]store.Item, len(ds.Items))
	for _, i := range ds.Items {
		itemsByID[i.ItemID] = append(itemsByID[i.ItemID], i)
	}

	var joined []joinedOrder
	for _, o := range ds.Orders {
		for _, s := range salesByID[o.SalesID] {
			for _, c := range customersByID[s.CustomerID] {
				for _, i := range itemsByID[o.ItemID] {
					joined = append(joined, joinedOrder{
						CustomerID: c.CustomerID,
						Age:        c.Age,
						ItemName:   i.ItemName,
						Quantity:   o.Quantity,
					})
				}
			}
		}
	}
	return joined
}
