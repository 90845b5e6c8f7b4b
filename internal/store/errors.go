package store

import (
	"fmt"
	"strings"
)

// DataAccessError reports an unreachable store, a missing relation or a
// failed query. It unwraps to the driver error.
type DataAccessError struct {
	Op    string // open, ping, inspect, query, scan, create, insert
	Table string // empty when the failure is not tied to a relation
	Err   error
}

func (e *DataAccessError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("failed to %s source store: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s table %s: %v", e.Op, e.Table, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a relation that lacks required columns.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %s is missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}
