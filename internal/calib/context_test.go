package calib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/dberr"
)

func TestNewContext_Defaults(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, []int64{0}, ctx.Runs())
	assert.Equal(t, DefaultVariation, ctx.Variation())
	assert.WithinDuration(t, time.Now().UTC(), ctx.Timestamp(), 5*time.Second)
}

func TestContext_WithRunClamps(t *testing.T) {
	assert.Equal(t, []int64{0}, NewContext().WithRun(-5).Runs())
	assert.Equal(t, []int64{MaxRunNumber}, NewContext().WithRun(MaxRunNumber+10).Runs())
	assert.Equal(t, []int64{100}, NewContext().WithRun(100).Runs())
}

func TestContext_WithRunReplacesSelection(t *testing.T) {
	ctx := NewContext().WithRuns([]int64{1, 2, 3}).WithRun(9)
	assert.Equal(t, []int64{9}, ctx.Runs())
}

func TestContext_WithRunRangeInclusive(t *testing.T) {
	ctx := NewContext().WithRunRange(10, 13)
	assert.Equal(t, []int64{10, 11, 12, 13}, ctx.Runs())
}

func TestContext_InvertedRangeSelectsNothing(t *testing.T) {
	ctx := NewContext().WithRunRange(20, 10)
	assert.Empty(t, ctx.Runs())
}

func TestContext_WithTimestampNormalizesUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ctx := NewContext().WithTimestamp(time.Date(2013, 2, 22, 14, 40, 35, 0, loc))
	assert.Equal(t, time.Date(2013, 2, 22, 19, 40, 35, 0, time.UTC), ctx.Timestamp())
}

func TestContext_WithTimestampString(t *testing.T) {
	ctx, err := NewContext().WithTimestampString("2013-02-22 19:40:35")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 2, 22, 19, 40, 35, 0, time.UTC), ctx.Timestamp())

	_, err = NewContext().WithTimestampString("2013-02-22")
	require.Error(t, err)
	assert.True(t, dberr.IsConfiguration(err))
}

func TestContext_CopySemantics(t *testing.T) {
	base := NewContext().WithRun(5)
	derived := base.WithVariation("mc")
	assert.Equal(t, DefaultVariation, base.Variation())
	assert.Equal(t, "mc", derived.Variation())
	assert.Equal(t, []int64{5}, derived.Runs())
}
