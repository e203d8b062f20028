package flux

import (
	"strings"

	"github.com/roach88/rundb/internal/dberr"
)

// RunPeriod names a contiguous block of run numbers taken under one
// experimental configuration.
type RunPeriod struct {
	Name      string
	ShortName string
	MinRun    int64
	MaxRun    int64
	Comment   string
}

// Contains reports whether run falls inside the period.
func (rp RunPeriod) Contains(run int64) bool {
	return run >= rp.MinRun && run <= rp.MaxRun
}

// Runs returns every run number in the period in order.
func (rp RunPeriod) Runs() []int64 {
	out := make([]int64, 0, rp.MaxRun-rp.MinRun+1)
	for r := rp.MinRun; r <= rp.MaxRun; r++ {
		out = append(out, r)
	}
	return out
}

var runPeriods = []RunPeriod{
	{Name: "2016-02", ShortName: "S16", MinRun: 10000, MaxRun: 19999, Comment: "Commissioning, 12 GeV"},
	{Name: "2017-01", ShortName: "S17", MinRun: 30000, MaxRun: 39999, Comment: "Phase I, 12 GeV"},
	{Name: "2018-01", ShortName: "S18", MinRun: 40000, MaxRun: 49999, Comment: "Phase I, 12 GeV"},
	{Name: "2018-08", ShortName: "F18", MinRun: 50000, MaxRun: 59999, Comment: "Phase I / low energy commissioning"},
	{Name: "2019-01", ShortName: "S19", MinRun: 60000, MaxRun: 69999, Comment: "DIRC commissioning"},
	{Name: "2019-11", ShortName: "S20", MinRun: 70000, MaxRun: 79999, Comment: "DIRC commissioning / Phase II"},
	{Name: "2021-08", ShortName: "SRC", MinRun: 80000, MaxRun: 89999, Comment: "PrimEx"},
	{Name: "2021-11", ShortName: "CPP/NPP", MinRun: 90000, MaxRun: 99999, Comment: "SRC"},
	{Name: "2022-05", ShortName: "S22", MinRun: 100000, MaxRun: 109999, Comment: "CPP/NPP"},
	{Name: "2022-08", ShortName: "F22", MinRun: 110000, MaxRun: 119999, Comment: "PrimEx"},
	{Name: "2023-01", ShortName: "S23", MinRun: 120000, MaxRun: 129999, Comment: "Phase II"},
	{Name: "2025-01", ShortName: "S25", MinRun: 130000, MaxRun: 139999, Comment: "ECAL commissioning / Phase II"},
}

// RunPeriods returns the registered periods in run order.
func RunPeriods() []RunPeriod {
	return append([]RunPeriod(nil), runPeriods...)
}

// ParseRunPeriod resolves a period from its short name, case-insensitive.
func ParseRunPeriod(s string) (RunPeriod, error) {
	needle := strings.ToLower(s)
	if needle == "cpp" || needle == "npp" {
		needle = "cpp/npp"
	}
	for _, rp := range runPeriods {
		if strings.ToLower(rp.ShortName) == needle || rp.Name == needle {
			return rp, nil
		}
	}
	return RunPeriod{}, dberr.New(dberr.CodeLookup, "unknown run period %q", s)
}

// PeriodOfRun returns the period containing run.
func PeriodOfRun(run int64) (RunPeriod, error) {
	for _, rp := range runPeriods {
		if rp.Contains(run) {
			return rp, nil
		}
	}
	return RunPeriod{}, dberr.New(dberr.CodeLookup, "run %d not in any known run period", run)
}

// CoherentPeak returns the nominal coherent peak energy window in GeV for a
// run.
func CoherentPeak(run int64) (low, high float64) {
	switch {
	case run < 2760:
		return 8.4, 9.0
	case run < 4001:
		return 2.5, 3.0
	case run < 30000:
		return 8.4, 9.0
	case run < 70000:
		return 8.2, 8.8
	case run < 100000:
		return 8.0, 8.6
	case run < 110000:
		return 5.2, 5.7
	default:
		return 8.0, 8.6
	}
}
