// Package flux carries the boundary types handed to downstream luminosity
// aggregators: binned histograms keyed by well-known names, and the run
// period registry used to select run ranges.
package flux

import (
	"math"

	"github.com/roach88/rundb/internal/dberr"
)

// Well-known histogram keys consumers expect in a HistogramSet.
const (
	KeyTaggedFlux       = "tagged_flux"
	KeyTagmFlux         = "tagm_flux"
	KeyTaghFlux         = "tagh_flux"
	KeyTaggedLuminosity = "tagged_luminosity"
)

// Histogram is a binned accumulator. For N bins it holds N+1 edges and N
// counts and errors. Errors combine in quadrature as samples accumulate.
type Histogram struct {
	Edges  []float64 `yaml:"edges" json:"edges"`
	Counts []float64 `yaml:"counts" json:"counts"`
	Errors []float64 `yaml:"errors" json:"errors"`
}

// NewHistogram builds an empty histogram over the given bin edges. Edges
// must be strictly increasing and at least two.
func NewHistogram(edges []float64) (*Histogram, error) {
	if len(edges) < 2 {
		return nil, dberr.New(dberr.CodeConfiguration, "histogram needs at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, dberr.New(dberr.CodeConfiguration, "histogram edges must be strictly increasing at index %d", i)
		}
	}
	n := len(edges) - 1
	return &Histogram{
		Edges:  append([]float64(nil), edges...),
		Counts: make([]float64, n),
		Errors: make([]float64, n),
	}, nil
}

// Bins returns the bin count.
func (h *Histogram) Bins() int {
	return len(h.Counts)
}

// BinIndex returns the bin holding x, or false when x falls outside the
// edge range. Bins are half-open on the right except the last, which
// includes its upper edge.
func (h *Histogram) BinIndex(x float64) (int, bool) {
	n := h.Bins()
	if n == 0 || math.IsNaN(x) || x < h.Edges[0] || x > h.Edges[n] {
		return 0, false
	}
	if x == h.Edges[n] {
		return n - 1, true
	}
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if x < h.Edges[mid+1] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, true
}

// Accumulate adds a weighted sample at x. The bin count grows by weight and
// the bin error absorbs err in quadrature. Samples outside the edges are
// dropped and reported false.
func (h *Histogram) Accumulate(x, weight, err float64) bool {
	i, ok := h.BinIndex(x)
	if !ok {
		return false
	}
	h.Counts[i] += weight
	h.Errors[i] = math.Hypot(h.Errors[i], err)
	return true
}

// HistogramSet maps well-known keys to histograms sharing one edge layout.
type HistogramSet map[string]*Histogram

// NewHistogramSet builds an empty set with the four standard keys over the
// given edges.
func NewHistogramSet(edges []float64) (HistogramSet, error) {
	set := make(HistogramSet, 4)
	for _, key := range []string{KeyTaggedFlux, KeyTagmFlux, KeyTaghFlux, KeyTaggedLuminosity} {
		h, err := NewHistogram(edges)
		if err != nil {
			return nil, err
		}
		set[key] = h
	}
	return set, nil
}
