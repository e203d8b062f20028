package calib

import (
	"time"

	"github.com/roach88/rundb/internal/timeparse"
)

// DefaultVariation is used when a fetch does not name a variation.
const DefaultVariation = "default"

// MaxRunNumber is the largest run number the store can address.
const MaxRunNumber int64 = 2_147_483_647

// Context carries the run selection, variation, and point-in-time of a
// calibration fetch. Context is a value type; the With* methods return a
// modified copy.
type Context struct {
	runs      []int64
	variation string
	timestamp time.Time
}

// NewContext returns a context selecting run 0 on the default variation at
// the current instant.
func NewContext() Context {
	return Context{
		runs:      []int64{0},
		variation: DefaultVariation,
		timestamp: time.Now().UTC(),
	}
}

func clampRun(run int64) int64 {
	if run < 0 {
		return 0
	}
	if run > MaxRunNumber {
		return MaxRunNumber
	}
	return run
}

// WithRun selects a single run.
func (c Context) WithRun(run int64) Context {
	c.runs = []int64{clampRun(run)}
	return c
}

// WithRuns selects an explicit run set.
func (c Context) WithRuns(runs []int64) Context {
	out := make([]int64, len(runs))
	for i, r := range runs {
		out[i] = clampRun(r)
	}
	c.runs = out
	return c
}

// WithRunRange selects every run in the inclusive range [lo, hi].
// An inverted range selects nothing.
func (c Context) WithRunRange(lo, hi int64) Context {
	lo, hi = clampRun(lo), clampRun(hi)
	if lo > hi {
		c.runs = nil
		return c
	}
	runs := make([]int64, 0, hi-lo+1)
	for r := lo; r <= hi; r++ {
		runs = append(runs, r)
	}
	c.runs = runs
	return c
}

// WithVariation selects a named variation.
func (c Context) WithVariation(name string) Context {
	c.variation = name
	return c
}

// WithTimestamp sets the point-in-time of the fetch.
func (c Context) WithTimestamp(t time.Time) Context {
	c.timestamp = t.UTC()
	return c
}

// WithTimestampString sets the point-in-time from the fixed textual format
// "YYYY-MM-DD HH:MM:SS", interpreted as UTC. Any other shape is a
// CONFIGURATION error.
func (c Context) WithTimestampString(s string) (Context, error) {
	t, err := timeparse.Parse(s)
	if err != nil {
		return c, err
	}
	c.timestamp = t
	return c, nil
}

// Runs returns the selected run set.
func (c Context) Runs() []int64 {
	return c.runs
}

// Variation returns the selected variation name.
func (c Context) Variation() string {
	if c.variation == "" {
		return DefaultVariation
	}
	return c.variation
}

// Timestamp returns the point-in-time of the fetch.
func (c Context) Timestamp() time.Time {
	if c.timestamp.IsZero() {
		return time.Now().UTC()
	}
	return c.timestamp
}
