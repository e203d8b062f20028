package calib

import (
	"strconv"
	"strings"

	"github.com/roach88/rundb/internal/dberr"
)

// Request is the textual form of a calibration fetch:
//
//	/dir/table:run:variation:YYYY-MM-DD HH:MM:SS
//
// Path is mandatory; the trailing fields are optional and may be left empty
// ("/dir/table::mc" selects the mc variation with the default run and time).
type Request struct {
	Path    string
	Context Context
}

func validPath(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	for _, c := range p {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '/' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// ParseRequest decodes the textual request form. Malformed paths, run
// numbers, and timestamps are CONFIGURATION errors.
func ParseRequest(s string) (Request, error) {
	path, rest, hasRest := strings.Cut(s, ":")
	if !validPath(path) {
		return Request{}, dberr.New(dberr.CodeConfiguration, "invalid request path: %q", path)
	}
	ctx := NewContext()
	if hasRest {
		parts := strings.SplitN(rest, ":", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		if parts[0] != "" {
			run, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil || run < 0 {
				return Request{}, dberr.New(dberr.CodeConfiguration, "invalid run number: %q", parts[0])
			}
			ctx = ctx.WithRun(run)
		}
		if parts[1] != "" {
			ctx = ctx.WithVariation(parts[1])
		}
		if parts[2] != "" {
			var err error
			ctx, err = ctx.WithTimestampString(parts[2])
			if err != nil {
				return Request{}, err
			}
		}
	}
	return Request{Path: path, Context: ctx}, nil
}
