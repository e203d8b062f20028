package flux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/dberr"
)

func TestRunPeriods_OrderedAndDisjoint(t *testing.T) {
	periods := RunPeriods()
	require.Len(t, periods, 12)
	for i := 1; i < len(periods); i++ {
		assert.Greater(t, periods[i].MinRun, periods[i-1].MaxRun,
			"%s overlaps %s", periods[i].Name, periods[i-1].Name)
	}
}

func TestParseRunPeriod_ShortNames(t *testing.T) {
	rp, err := ParseRunPeriod("S18")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), rp.MinRun)
	assert.Equal(t, int64(49999), rp.MaxRun)

	// Case-insensitive.
	rp, err = ParseRunPeriod("f18")
	require.NoError(t, err)
	assert.Equal(t, "2018-08", rp.Name)

	// cpp and npp both resolve to the CPP/NPP period.
	rp, err = ParseRunPeriod("cpp")
	require.NoError(t, err)
	assert.Equal(t, "2021-11", rp.Name)
	rp, err = ParseRunPeriod("npp")
	require.NoError(t, err)
	assert.Equal(t, "2021-11", rp.Name)
}

func TestParseRunPeriod_Unknown(t *testing.T) {
	_, err := ParseRunPeriod("S99")
	require.Error(t, err)
	assert.True(t, dberr.IsLookup(err))
}

func TestPeriodOfRun(t *testing.T) {
	rp, err := PeriodOfRun(41234)
	require.NoError(t, err)
	assert.Equal(t, "S18", rp.ShortName)

	rp, err = PeriodOfRun(10000)
	require.NoError(t, err)
	assert.Equal(t, "S16", rp.ShortName)

	// The gap below the first period belongs to none.
	_, err = PeriodOfRun(25000)
	require.Error(t, err)
	assert.True(t, dberr.IsLookup(err))
}

func TestRunPeriod_Contains(t *testing.T) {
	rp, err := ParseRunPeriod("S16")
	require.NoError(t, err)
	assert.True(t, rp.Contains(10000))
	assert.True(t, rp.Contains(19999))
	assert.False(t, rp.Contains(20000))
}

func TestCoherentPeak_WindowsByRun(t *testing.T) {
	low, high := CoherentPeak(31000)
	assert.Equal(t, 8.2, low)
	assert.Equal(t, 8.8, high)

	low, high = CoherentPeak(105000)
	assert.Equal(t, 5.2, low)
	assert.Equal(t, 5.7, high)

	low, high = CoherentPeak(3000)
	assert.Equal(t, 2.5, low)
	assert.Equal(t, 3.0, high)
}
