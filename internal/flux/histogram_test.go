package flux

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/dberr"
)

func TestNewHistogram_ShapeInvariant(t *testing.T) {
	h, err := NewHistogram([]float64{8.0, 8.2, 8.4, 8.6})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Bins())
	assert.Len(t, h.Edges, 4)
	assert.Len(t, h.Counts, 3)
	assert.Len(t, h.Errors, 3)
}

func TestNewHistogram_BadEdges(t *testing.T) {
	_, err := NewHistogram([]float64{8.0})
	require.Error(t, err)
	assert.True(t, dberr.IsConfiguration(err))

	_, err = NewHistogram([]float64{8.0, 8.0, 8.4})
	require.Error(t, err)
	assert.True(t, dberr.IsConfiguration(err))

	_, err = NewHistogram([]float64{8.4, 8.0})
	require.Error(t, err)
	assert.True(t, dberr.IsConfiguration(err))
}

func TestBinIndex_HalfOpenBins(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1, 2, 3})
	require.NoError(t, err)

	i, ok := h.BinIndex(0)
	require.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = h.BinIndex(0.999)
	require.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = h.BinIndex(1)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	// The top edge belongs to the last bin.
	i, ok = h.BinIndex(3)
	require.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = h.BinIndex(-0.001)
	assert.False(t, ok)
	_, ok = h.BinIndex(3.001)
	assert.False(t, ok)
}

func TestAccumulate_QuadratureErrors(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1})
	require.NoError(t, err)

	require.True(t, h.Accumulate(0.5, 10, 3))
	require.True(t, h.Accumulate(0.5, 5, 4))

	assert.Equal(t, 15.0, h.Counts[0])
	assert.InDelta(t, 5.0, h.Errors[0], 1e-12) // hypot(3, 4)
}

func TestAccumulate_OutOfRangeDropped(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1})
	require.NoError(t, err)

	assert.False(t, h.Accumulate(2.0, 10, 1))
	assert.Equal(t, 0.0, h.Counts[0])
	assert.Equal(t, 0.0, h.Errors[0])
}

func TestNewHistogramSet_StandardKeys(t *testing.T) {
	set, err := NewHistogramSet([]float64{8.0, 8.4, 8.8})
	require.NoError(t, err)
	require.Len(t, set, 4)
	for _, key := range []string{KeyTaggedFlux, KeyTagmFlux, KeyTaghFlux, KeyTaggedLuminosity} {
		h, ok := set[key]
		require.True(t, ok, key)
		assert.Equal(t, 2, h.Bins())
	}

	// Histograms are independent accumulators.
	set[KeyTaggedFlux].Accumulate(8.2, 1, 0)
	assert.Equal(t, 0.0, set[KeyTagmFlux].Counts[0])
}

func TestAccumulate_NaNRejected(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1})
	require.NoError(t, err)
	assert.False(t, h.Accumulate(math.NaN(), 1, 0))
}
