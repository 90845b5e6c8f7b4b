package pipeline

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Verify compares every result against the first one. Nil and empty row sets
// are equal.
func Verify(results []Result) error {
	if len(results) < 2 {
		return nil
	}
	base := results[0]
	for _, other := range results[1:] {
		if diff := cmp.Diff(base.Rows, other.Rows, cmpopts.EquateEmpty()); diff != "" {
			return &EquivalenceError{Strategy: other.Strategy, Baseline: base.Strategy, Diff: diff}
		}
	}
	return nil
}
