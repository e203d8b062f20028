// Package timeparse handles the fixed textual timestamp format shared by the
// calibration and run-conditions stores.
package timeparse

import (
	"time"

	"github.com/roach88/rundb/internal/dberr"
)

// Layout is the only accepted textual timestamp format, interpreted as UTC.
const Layout = "2006-01-02 15:04:05"

// Parse decodes a "YYYY-MM-DD HH:MM:SS" string as a UTC instant.
// Any other shape is a CONFIGURATION error.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, dberr.Wrap(dberr.CodeConfiguration, err,
			"timestamp %q does not match %q", s, Layout)
	}
	return t, nil
}

// Format renders an instant in the store's textual form, in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}
