// Package aggregate turns the source relations into report rows.
//
// Three strategies implement the same contract: the relational strategy
// delegates the whole pipeline to one SQL query, the procedural strategy joins
// and groups in Go, and the datalog strategy evaluates Mangle rules over the
// relations. For any dataset they must return identical rows.
package aggregate

import (
	"context"
	"database/sql"

	"salesreport/internal/report"
)

// Aggregator computes report rows from an open source store.
type Aggregator interface {
	Name() string
	Aggregate(ctx context.Context, db *sql.DB) ([]report.Row, error)
}

// inAgeRange is the age predicate shared by the in-memory strategies.
func inAgeRange(age int64) bool {
	return age >= report.MinAge && age <= report.MaxAge
}
