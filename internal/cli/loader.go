package cli

import (
	"os"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/flux"
)

// FluxRequest describes a downstream flux-histogram build: which run
// periods to cover, the energy bin edges, and where the stores live.
type FluxRequest struct {
	RunPeriods    map[string]int `yaml:"run_periods" json:"run_periods"` // short name -> production version
	Edges         []float64      `yaml:"edges" json:"edges"`
	CoherentPeak  bool           `yaml:"coherent_peak" json:"coherent_peak"`
	Polarized     bool           `yaml:"polarized" json:"polarized"`
	CalibrationDB string         `yaml:"calibration_db" json:"calibration_db"`
	ConditionsDB  string         `yaml:"conditions_db" json:"conditions_db"`
}

// fluxRequestSchema is the CUE contract a request file must satisfy before
// any store is opened.
const fluxRequestSchema = `
{
	run_periods: {[string]: int & >=0}
	edges: [...number]
	coherent_peak?: bool
	polarized?: bool
	calibration_db?: string
	conditions_db?: string
}
`

// LoadFluxRequest reads a YAML request file and validates it against the
// request schema. Schema violations and malformed YAML are configuration
// errors carrying the offending path.
func LoadFluxRequest(path string) (*FluxRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "read request file: %s", path)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, dberr.Wrap(dberr.CodeConfiguration, err, "parse request file: %s", path)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(fluxRequestSchema)
	if err := schema.Err(); err != nil {
		return nil, dberr.Wrap(dberr.CodeConfiguration, err, "compile request schema")
	}
	unified := schema.Unify(ctx.Encode(decoded))
	if err := unified.Validate(); err != nil {
		return nil, dberr.Wrap(dberr.CodeConfiguration, err, "invalid request file: %s", path).
			WithDetail("file", path)
	}

	var req FluxRequest
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return nil, dberr.Wrap(dberr.CodeConfiguration, err, "decode request file: %s", path)
	}
	if len(req.RunPeriods) == 0 {
		return nil, dberr.New(dberr.CodeConfiguration, "request file %s selects no run periods", path)
	}
	if len(req.Edges) < 2 {
		return nil, dberr.New(dberr.CodeConfiguration, "request file %s needs at least 2 bin edges", path)
	}
	for name := range req.RunPeriods {
		if _, err := flux.ParseRunPeriod(name); err != nil {
			return nil, err
		}
	}
	return &req, nil
}
