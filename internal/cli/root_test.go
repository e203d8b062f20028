package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "info", "whatever.sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRoot_ListsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"info", "fetch", "runs", "flux"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestInfo_ListsNamespaceJSON(t *testing.T) {
	fixture := testutil.NewCalibFixture(t)
	fixture.SeedDemo()
	path := fixture.Path()

	out, _, err := execute(t, "--format", "json", "info", path, "/test/demo")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestInfo_TableColumnsText(t *testing.T) {
	fixture := testutil.NewCalibFixture(t)
	fixture.SeedDemo()

	out, _, err := execute(t, "info", fixture.Path(), "/test/demo/mytable")
	require.NoError(t, err)
	assert.Contains(t, out, "/test/demo/mytable")
	assert.Contains(t, out, "x")
	assert.Contains(t, out, "float")
}

func TestInfo_MissingStoreExitsCommandError(t *testing.T) {
	_, _, err := execute(t, "info", filepath.Join(t.TempDir(), "absent.sqlite"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFetch_RequestStringText(t *testing.T) {
	fixture := testutil.NewCalibFixture(t)
	fixture.SeedDemo()

	out, _, err := execute(t, "fetch", fixture.Path(), "/test/demo/mytable:0:mc:2016-01-01 00:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "run 0")
	assert.Contains(t, out, "x=-1")
}

func TestFetch_BadRequestExitsCommandError(t *testing.T) {
	fixture := testutil.NewCalibFixture(t)
	fixture.SeedDemo()

	_, _, err := execute(t, "fetch", fixture.Path(), "no-leading-slash")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRuns_NumbersOnly(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()

	out, _, err := execute(t, "runs", fixture.Path(), "--run-range", "1000:1100")
	require.NoError(t, err)
	assert.Equal(t, "1000\n1001\n1002\n", out)
}

func TestRuns_ConditionValues(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()

	out, _, err := execute(t, "runs", fixture.Path(), "event_count", "--run-range", "10000:10300")
	require.NoError(t, err)
	assert.Contains(t, out, "run 10000  event_count=2")
}

func TestRuns_SchemaListing(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()

	out, _, err := execute(t, "runs", fixture.Path(), "--schema")
	require.NoError(t, err)
	assert.Contains(t, out, "event_count")
	assert.Contains(t, out, "int")
}

func TestRuns_UnknownConditionExitsFailure(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()

	_, _, err := execute(t, "runs", fixture.Path(), "no_such_condition")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRuns_BadRunRangeExitsCommandError(t *testing.T) {
	fixture := testutil.NewCondFixture(t)
	fixture.SeedDemo()

	_, _, err := execute(t, "runs", fixture.Path(), "--run-range", "1000")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFlux_PlanFromRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"run_periods:\n  S18: 19\nedges: [8.0, 8.2, 8.4]\n"), 0o644))

	out, _, err := execute(t, "flux", path)
	require.NoError(t, err)
	assert.Contains(t, out, "S18")
	assert.Contains(t, out, "runs 40000-49999")
	assert.Contains(t, out, "2 bins")
}

func TestFlux_JSONPlanCarriesHistogramShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"run_periods:\n  S16: 4\nedges: [8.0, 8.4, 8.8]\n"), 0o644))

	out, _, err := execute(t, "--format", "json", "flux", path)
	require.NoError(t, err)

	var resp struct {
		Status string   `json:"status"`
		Data   FluxPlan `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Bins)
	require.Contains(t, resp.Data.Histograms, "tagged_flux")
	assert.Len(t, resp.Data.Histograms["tagged_flux"].Edges, 3)
	assert.Len(t, resp.Data.Histograms["tagged_flux"].Counts, 2)
}
