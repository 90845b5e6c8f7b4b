package pipeline

import "fmt"

// StrategyError wraps the failure of a single strategy.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s strategy failed: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// EquivalenceError reports a strategy whose rows differ from the baseline.
type EquivalenceError struct {
	Strategy string
	Baseline string
	Diff     string // go-cmp diff, -baseline +strategy
}

func (e *EquivalenceError) Error() string {
	return fmt.Sprintf("%s result differs from %s result (-%s +%s):\n%s",
		e.Strategy, e.Baseline, e.Baseline, e.Strategy, e.Diff)
}
