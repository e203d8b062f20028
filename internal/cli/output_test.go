package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/dberr"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestSuccess_JSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"runs": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestSuccess_TextPassthrough(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success("hello"))
	assert.Equal(t, "hello\n", buf.String())
}

func TestFail_CarriesCodeAndDetails(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	err := f.Fail(dberr.New(dberr.CodeNotFound, "no assignment").WithDetail("path", "/a/b"))
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "/a/b", resp.Error.Details["path"])
}

func TestFail_ExitCodeByCategory(t *testing.T) {
	f := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}}

	assert.Equal(t, ExitCommandError, GetExitCode(f.Fail(dberr.New(dberr.CodeConfiguration, "bad request"))))
	assert.Equal(t, ExitCommandError, GetExitCode(f.Fail(dberr.New(dberr.CodeIO, "store gone"))))
	assert.Equal(t, ExitFailure, GetExitCode(f.Fail(dberr.New(dberr.CodeNotFound, "absent"))))
	assert.Equal(t, ExitFailure, GetExitCode(f.Fail(dberr.New(dberr.CodeLookup, "unknown"))))
	assert.Equal(t, ExitFailure, GetExitCode(f.Fail(errors.New("plain"))))
}

func TestFail_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	_ = f.Fail(dberr.New(dberr.CodeLookup, "alias not found: x"))
	assert.Equal(t, "Error [LOOKUP]: alias not found: x\n", buf.String())
}

func TestVerboseLog_RoutesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}
	f.VerboseLog("opened %s", "store")
	assert.Empty(t, out.String())
	assert.Equal(t, "opened store\n", errOut.String())

	quiet := &OutputFormatter{Format: "text", Writer: &out, Verbose: false}
	quiet.VerboseLog("never printed")
	assert.Empty(t, out.String())
}
