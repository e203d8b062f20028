package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// CondFixture builds a run-conditions store on disk.
type CondFixture struct {
	t    *testing.T
	db   *sql.DB
	path string

	nextType int64
	types    map[string]int64
}

const condSchema = `
CREATE TABLE schema_versions (
	version INTEGER PRIMARY KEY
);
CREATE TABLE condition_types (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	value_type TEXT NOT NULL,
	description TEXT
);
CREATE TABLE runs (
	number INTEGER PRIMARY KEY
);
CREATE TABLE conditions (
	run_number INTEGER NOT NULL,
	condition_type_id INTEGER NOT NULL,
	text_value TEXT,
	int_value INTEGER,
	float_value REAL,
	bool_value INTEGER,
	time_value TEXT,
	PRIMARY KEY (run_number, condition_type_id)
);
`

// NewCondFixture creates an empty conditions store carrying schema
// version 2.
func NewCondFixture(t *testing.T) *CondFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cond.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(condSchema)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO schema_versions (version) VALUES (2)`)
	require.NoError(t, err)

	f := &CondFixture{t: t, db: db, path: path, types: make(map[string]int64)}
	t.Cleanup(func() { db.Close() })
	return f
}

// Path returns the store location, closing the write connection first.
func (f *CondFixture) Path() string {
	f.t.Helper()
	require.NoError(f.t, f.db.Close())
	return f.path
}

// DropSchemaVersion clears schema_versions to simulate a corrupt store.
func (f *CondFixture) DropSchemaVersion() {
	f.t.Helper()
	_, err := f.db.Exec(`DELETE FROM schema_versions`)
	require.NoError(f.t, err)
}

// AddConditionType registers a condition type and returns its id.
func (f *CondFixture) AddConditionType(name, valueType string) int64 {
	f.t.Helper()
	f.nextType++
	_, err := f.db.Exec(`INSERT INTO condition_types (id, name, value_type) VALUES (?, ?, ?)`,
		f.nextType, name, valueType)
	require.NoError(f.t, err)
	f.types[name] = f.nextType
	return f.nextType
}

// AddRun registers a run number.
func (f *CondFixture) AddRun(run int64) {
	f.t.Helper()
	_, err := f.db.Exec(`INSERT OR IGNORE INTO runs (number) VALUES (?)`, run)
	require.NoError(f.t, err)
}

// SetCondition records a condition value for a run in the column matching
// the registered value type.
func (f *CondFixture) SetCondition(run int64, name string, v any) {
	f.t.Helper()
	id, ok := f.types[name]
	require.True(f.t, ok, "condition type %q not registered", name)
	f.AddRun(run)

	var column string
	var row *sql.Row
	row = f.db.QueryRow(`SELECT value_type FROM condition_types WHERE id = ?`, id)
	var valueType string
	require.NoError(f.t, row.Scan(&valueType))
	switch valueType {
	case "int", "long", "ulong":
		column = "int_value"
	case "float", "double":
		column = "float_value"
	case "bool":
		column = "bool_value"
	case "time":
		column = "time_value"
	default:
		column = "text_value"
	}

	_, err := f.db.Exec(
		`INSERT INTO conditions (run_number, condition_type_id, `+column+`) VALUES (?, ?, ?)
		 ON CONFLICT (run_number, condition_type_id) DO UPDATE SET `+column+` = excluded.`+column,
		run, id, v)
	require.NoError(f.t, err)
}

// SeedDemo registers the canonical condition schema and two run blocks,
// 1000-1002 and 10000-10002. Run 1001 carries no event_count. It returns
// nothing; tests address runs directly.
func (f *CondFixture) SeedDemo() {
	f.t.Helper()
	f.AddConditionType("event_count", "int")
	f.AddConditionType("beam_energy", "float")
	f.AddConditionType("run_type", "string")
	f.AddConditionType("is_valid_run_end", "bool")
	f.AddConditionType("run_start_time", "time")

	for _, run := range []int64{1000, 1001, 1002, 10000, 10001, 10002} {
		f.AddRun(run)
	}
	f.SetCondition(1000, "event_count", 1)
	f.SetCondition(1002, "event_count", 3)
	f.SetCondition(10000, "event_count", 2)
	f.SetCondition(10001, "event_count", 500)
	f.SetCondition(10002, "event_count", 1000)
	f.SetCondition(1000, "beam_energy", 7.5)
	f.SetCondition(1002, "beam_energy", 11.6)
	f.SetCondition(10000, "beam_energy", 11.6)
	f.SetCondition(1000, "run_type", "hd_all.tsg")
	f.SetCondition(10000, "run_type", "hd_all.bcal")
	f.SetCondition(1000, "is_valid_run_end", 1)
	f.SetCondition(10000, "is_valid_run_end", 0)
	f.SetCondition(1000, "run_start_time", "2017-01-01 08:00:00")
	f.SetCondition(10000, "run_start_time", "2018-01-01 08:00:00")
}
