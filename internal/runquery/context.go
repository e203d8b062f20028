package runquery

import (
	"sort"

	"github.com/roach88/rundb/internal/cond"
)

// Context narrows a query to a run selection and an optional filter
// expression. The zero value selects every run with no filter. Contexts are
// immutable; the With methods return modified copies.
type Context struct {
	runs   []int64
	ranges [][2]int64
	filter cond.Expr
}

// NewContext returns a context selecting all runs.
func NewContext() Context {
	return Context{}
}

// WithRun adds a single run to the selection.
func (c Context) WithRun(run int64) Context {
	c.runs = append(append([]int64(nil), c.runs...), run)
	return c
}

// WithRuns adds several runs to the selection.
func (c Context) WithRuns(runs ...int64) Context {
	c.runs = append(append([]int64(nil), c.runs...), runs...)
	return c
}

// WithRunRange adds an inclusive run range to the selection. An inverted
// range contributes an empty range: the selection stays restricted, so a
// context holding only an inverted range selects nothing.
func (c Context) WithRunRange(min, max int64) Context {
	c.ranges = append(append([][2]int64(nil), c.ranges...), [2]int64{min, max})
	return c
}

// Filter sets the condition filter, replacing any previous one.
func (c Context) Filter(e cond.Expr) Context {
	c.filter = e
	return c
}

// FilterExpr returns the current filter expression, nil when unset.
func (c Context) FilterExpr() cond.Expr {
	return c.filter
}

// Runs returns the explicit runs in the selection, sorted and deduplicated.
func (c Context) Runs() []int64 {
	out := append([]int64(nil), c.runs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	for i, r := range out {
		if i == 0 || r != out[i-1] {
			dedup = append(dedup, r)
		}
	}
	return dedup
}

// RunRanges returns the inclusive ranges in the selection.
func (c Context) RunRanges() [][2]int64 {
	return append([][2]int64(nil), c.ranges...)
}

// selectsAll reports whether the context places no run restriction.
func (c Context) selectsAll() bool {
	return len(c.runs) == 0 && len(c.ranges) == 0
}
