package runquery

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/cond"
	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/testutil"
	"github.com/roach88/rundb/internal/value"
)

func openDemo(t *testing.T) *DB {
	t.Helper()
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()
	db, err := Open(fixture.Path())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MissingFileIsIO(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.sqlite"))
	require.Error(t, err)
	assert.True(t, dberr.IsIO(err))
}

func TestOpen_MissingSchemaVersionIsIO(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.DropSchemaVersion()
	_, err := Open(fixture.Path())
	require.Error(t, err)
	assert.True(t, dberr.IsIO(err))
}

func TestConditionTypes_SortedSchema(t *testing.T) {
	db := openDemo(t)
	types := db.ConditionTypes()
	require.Len(t, types, 5)
	assert.Equal(t, "beam_energy", types[0].Name)
	assert.Equal(t, value.TypeFloat, types[0].Type)
	assert.Equal(t, "run_type", types[4].Name)
	assert.Equal(t, value.TypeText, types[4].Type)
}

func TestFetch_TypedValuesByRun(t *testing.T) {
	db := openDemo(t)

	byRun, err := db.Fetch([]string{"event_count", "beam_energy", "run_type"},
		NewContext().WithRunRange(1000, 1100))
	require.NoError(t, err)
	require.Len(t, byRun, 3)

	assert.Equal(t, value.Int(1), byRun[1000]["event_count"])
	assert.Equal(t, value.Float(7.5), byRun[1000]["beam_energy"])
	assert.Equal(t, value.Text("hd_all.tsg"), byRun[1000]["run_type"])
	assert.Equal(t, value.Int(3), byRun[1002]["event_count"])
}

func TestFetch_AbsentConditionOmittedRunPresent(t *testing.T) {
	db := openDemo(t)

	byRun, err := db.Fetch([]string{"event_count", "run_type"},
		NewContext().WithRunRange(1000, 1100))
	require.NoError(t, err)

	// Run 1001 exists but never recorded an event_count or run_type.
	record, ok := byRun[1001]
	require.True(t, ok)
	assert.Empty(t, record)

	// Run 1002 recorded event_count but not run_type.
	record = byRun[1002]
	_, ok = record["run_type"]
	assert.False(t, ok)
	assert.Equal(t, value.Int(3), record["event_count"])
}

func TestFetch_BoolAndTimeDecoding(t *testing.T) {
	db := openDemo(t)

	byRun, err := db.Fetch([]string{"is_valid_run_end", "run_start_time"},
		NewContext().WithRuns(1000, 10000))
	require.NoError(t, err)

	assert.Equal(t, value.Bool(true), byRun[1000]["is_valid_run_end"])
	assert.Equal(t, value.Bool(false), byRun[10000]["is_valid_run_end"])
	assert.Equal(t,
		value.Time(time.Date(2017, 1, 1, 8, 0, 0, 0, time.UTC)),
		byRun[1000]["run_start_time"])
}

func TestFetch_EmptyNamesIsConfiguration(t *testing.T) {
	db := openDemo(t)
	_, err := db.Fetch(nil, NewContext())
	require.Error(t, err)
	assert.True(t, dberr.IsConfiguration(err))
}

func TestFetch_UnknownConditionIsLookup(t *testing.T) {
	db := openDemo(t)
	_, err := db.Fetch([]string{"event_count", "no_such"}, NewContext())
	require.Error(t, err)
	assert.True(t, dberr.IsLookup(err))
}

func TestFetch_FilterNarrowsRuns(t *testing.T) {
	db := openDemo(t)

	ctx := NewContext().
		WithRunRange(1000, 20000).
		Filter(cond.IntCond("event_count").Geq(500))
	byRun, err := db.Fetch([]string{"event_count"}, ctx)
	require.NoError(t, err)
	require.Len(t, byRun, 2)
	assert.Equal(t, value.Int(500), byRun[10001]["event_count"])
	assert.Equal(t, value.Int(1000), byRun[10002]["event_count"])
}

func TestFetch_FilterOnUnfetchedCondition(t *testing.T) {
	db := openDemo(t)

	// The filter references run_type, which is not in the fetch list; it
	// still joins and narrows.
	ctx := NewContext().Filter(cond.StringCond("run_type").Eq("hd_all.bcal"))
	byRun, err := db.Fetch([]string{"event_count"}, ctx)
	require.NoError(t, err)
	require.Len(t, byRun, 1)
	assert.Equal(t, value.Int(2), byRun[10000]["event_count"])
}

func TestFetch_FilterTypeMismatchBeforeRows(t *testing.T) {
	db := openDemo(t)

	ctx := NewContext().Filter(cond.FloatCond("event_count").Gt(1.0))
	_, err := db.Fetch([]string{"event_count"}, ctx)
	require.Error(t, err)
	assert.True(t, dberr.IsTypeMismatch(err))
}

func TestFetchOne_PresentAbsent(t *testing.T) {
	db := openDemo(t)

	v, err := db.FetchOne("event_count", 10000)
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), v)

	_, err = db.FetchOne("event_count", 1001)
	require.Error(t, err)
	assert.True(t, dberr.IsNotFound(err))

	_, err = db.FetchOne("event_count", 999999)
	require.Error(t, err)
	assert.True(t, dberr.IsNotFound(err))
}

func TestFetchRuns_AgreesWithFetch(t *testing.T) {
	db := openDemo(t)

	ctx := NewContext().
		WithRunRange(1000, 20000).
		Filter(cond.IntCond("event_count").Geq(2))
	runs, err := db.FetchRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1002, 10000, 10001, 10002}, runs)

	byRun, err := db.Fetch([]string{"event_count"}, ctx)
	require.NoError(t, err)
	require.Len(t, byRun, len(runs))
	for _, run := range runs {
		_, ok := byRun[run]
		assert.True(t, ok, "run %d", run)
	}
}

func TestFetchRuns_UnrestrictedSelectsAll(t *testing.T) {
	db := openDemo(t)
	runs, err := db.FetchRuns(NewContext())
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 1001, 1002, 10000, 10001, 10002}, runs)
}

func TestFetchRuns_InvertedRangeSelectsNothing(t *testing.T) {
	db := openDemo(t)
	runs, err := db.FetchRuns(NewContext().WithRunRange(200, 100))
	require.NoError(t, err)
	assert.Empty(t, runs)

	byRun, err := db.Fetch([]string{"event_count"}, NewContext().WithRunRange(200, 100))
	require.NoError(t, err)
	assert.Empty(t, byRun)
}

func TestFetchRuns_EmptySelectionIsEmptySlice(t *testing.T) {
	db := openDemo(t)
	runs, err := db.FetchRuns(NewContext().WithRunRange(5000, 6000))
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestFetch_AliasFilter(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.AddConditionType("run_type", "string")
	fixture.AddConditionType("beam_current", "float")
	fixture.AddConditionType("event_count", "int")
	fixture.AddConditionType("solenoid_current", "float")
	fixture.AddConditionType("collimator_diameter", "string")

	good, bad := int64(3000), int64(3001)
	fixture.SetCondition(good, "run_type", "hd_all.tsg")
	fixture.SetCondition(good, "beam_current", 120.5)
	fixture.SetCondition(good, "event_count", 60_000_000)
	fixture.SetCondition(good, "solenoid_current", 1350.0)
	fixture.SetCondition(good, "collimator_diameter", "5.0mm hole")
	fixture.SetCondition(bad, "run_type", "junk")
	fixture.SetCondition(bad, "beam_current", 0.1)

	db, err := Open(fixture.Path())
	require.NoError(t, err)
	defer db.Close()

	expr, err := cond.AliasExpression("is_production")
	require.NoError(t, err)
	runs, err := db.FetchRuns(NewContext().Filter(expr))
	require.NoError(t, err)
	assert.Equal(t, []int64{good}, runs)
}

func TestFetch_ConditionNamesMatchInNFCForm(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	// "béam" with a decomposed e + combining acute in the store.
	fixture.AddConditionType("béam_energy", "float")
	fixture.SetCondition(4000, "béam_energy", 11.6)

	db, err := Open(fixture.Path())
	require.NoError(t, err)
	defer db.Close()

	byRun, err := db.Fetch([]string{"béam_energy"}, NewContext().WithRun(4000))
	require.NoError(t, err)
	require.Contains(t, byRun, int64(4000))
	assert.Equal(t, value.Float(11.6), byRun[4000]["béam_energy"])
}

func TestFetchRuns_IntFilterOnUnsignedCondition(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.AddConditionType("trigger_count", "ulong")
	fixture.SetCondition(5000, "trigger_count", 40)
	fixture.SetCondition(5001, "trigger_count", 400)

	db, err := Open(fixture.Path())
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.FetchRuns(NewContext().Filter(cond.IntCond("trigger_count").Gt(100)))
	require.NoError(t, err)
	assert.Equal(t, []int64{5001}, runs)
}
