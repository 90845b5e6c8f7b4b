package aggregate

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"salesreport/internal/report"
	"salesreport/internal/store"
)

// relationalQuery joins, filters, groups and orders in one statement.
// COALESCE keeps the fold at zero should a NULL quantity survive the filter.
var relationalQuery = fmt.Sprintf(`
	SELECT c.customer_id AS Customer,
	       c.age AS Age,
	       i.item_name AS Item,
	       SUM(COALESCE(o.quantity, 0)) AS Quantity
	FROM customers c
	JOIN sales s ON c.customer_id = s.customer_id
	JOIN orders o ON s.sales_id = o.sales_id
	JOIN items i ON o.item_id = i.item_id
	WHERE c.age BETWEEN %d AND %d
	  AND o.quantity IS NOT NULL
	  AND i.item_name IS NOT NULL
	GROUP BY c.customer_id, c.age, i.item_name
	HAVING SUM(COALESCE(o.quantity, 0)) > 0
	ORDER BY c.customer_id, i.item_name`, report.MinAge, report.MaxAge)

// Relational evaluates the report as a single SQL query.
type Relational struct {
	logger *zap.Logger
}

// NewRelational creates the relational strategy.
func NewRelational(logger *zap.Logger) *Relational {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relational{logger: logger}
}

func (r *Relational) Name() string { return "relational" }

// Aggregate runs the query. The rows are re-sorted in Go because only the
// sqlite drivers guarantee byte-wise ORDER BY on item_name; other backends
// order by their collation.
func (r *Relational) Aggregate(ctx context.Context, db *sql.DB) ([]report.Row, error) {
	rows, err := db.QueryContext(ctx, relationalQuery)
	if err != nil {
		return nil, &store.DataAccessError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var row report.Row
		if err := rows.Scan(&row.Customer, &row.Age, &row.Item, &row.Quantity); err != nil {
			return nil, &store.DataAccessError{Op: "scan", Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.DataAccessError{Op: "query", Err: err}
	}

	report.Sort(out)
	r.logger.Debug("Relational aggregation complete", zap.Int("rows", len(out)))
	return out, nil
}
