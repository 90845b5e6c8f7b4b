// Package report defines the report row produced by every aggregation
// strategy and writes rows as semicolon-delimited text.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Customers outside [MinAge, MaxAge] never appear in a report.
const (
	MinAge = 18
	MaxAge = 35
)

// Header is the fixed column order of a report.
var Header = []string{"Customer", "Age", "Item", "Quantity"}

// Row is one (customer, item) line of the report.
type Row struct {
	Customer int64
	Age      int64
	Item     string
	Quantity int64
}

// Record renders the row in Header order.
func (r Row) Record() []string {
	return []string{
		strconv.FormatInt(r.Customer, 10),
		strconv.FormatInt(r.Age, 10),
		r.Item,
		strconv.FormatInt(r.Quantity, 10),
	}
}

// Compare orders rows by Customer, then Item byte-wise. Age breaks the tie
// left when a customer id carries more than one age.
func Compare(a, b Row) int {
	if c := cmp.Compare(a.Customer, b.Customer); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Item, b.Item); c != 0 {
		return c
	}
	return cmp.Compare(a.Age, b.Age)
}

// Sort puts rows into report order.
func Sort(rows []Row) {
	slices.SortStableFunc(rows, Compare)
}

// Check verifies the row invariants: age in range, positive quantity,
// report order and one row per (customer, age, item).
func Check(rows []Row) error {
	for i, r := range rows {
		if r.Age < MinAge || r.Age > MaxAge {
			return fmt.Errorf("row %d: age %d outside [%d, %d]", i, r.Age, MinAge, MaxAge)
		}
		if r.Quantity <= 0 {
			return fmt.Errorf("row %d: quantity %d is not positive", i, r.Quantity)
		}
		if i == 0 {
			continue
		}
		switch c := Compare(rows[i-1], r); {
		case c == 0:
			return fmt.Errorf("row %d: duplicate row for customer %d item %q", i, r.Customer, r.Item)
		case c > 0:
			return fmt.Errorf("row %d: customer %d item %q is out of order", i, r.Customer, r.Item)
		}
	}
	return nil
}
