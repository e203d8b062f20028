// Package testutil builds throwaway SQLite stores for tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// CalibFixture builds a calibration store on disk and tracks the row ids it
// hands out. The file is closed before Path is used so read-only handles
// can open it.
type CalibFixture struct {
	t    *testing.T
	db   *sql.DB
	path string

	nextDir       int64
	nextTable     int64
	nextColumn    int64
	nextVariation int64
	nextSet       int64
	nextRange     int64
	nextAssign    int64
}

const calibSchema = `
CREATE TABLE directories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	parentId INTEGER NOT NULL DEFAULT 0,
	comment TEXT
);
CREATE TABLE typeTables (
	id INTEGER PRIMARY KEY,
	directoryId INTEGER NOT NULL,
	name TEXT NOT NULL,
	nRows INTEGER NOT NULL,
	nColumns INTEGER NOT NULL,
	comment TEXT
);
CREATE TABLE columns (
	id INTEGER PRIMARY KEY,
	typeId INTEGER NOT NULL,
	name TEXT,
	columnType TEXT NOT NULL,
	"order" INTEGER NOT NULL,
	comment TEXT
);
CREATE TABLE variations (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	parentId INTEGER
);
CREATE TABLE runRanges (
	id INTEGER PRIMARY KEY,
	runMin INTEGER NOT NULL,
	runMax INTEGER NOT NULL
);
CREATE TABLE constantSets (
	id INTEGER PRIMARY KEY,
	vault TEXT NOT NULL,
	constantTypeId INTEGER NOT NULL
);
CREATE TABLE assignments (
	id INTEGER PRIMARY KEY,
	created TEXT NOT NULL,
	constantSetId INTEGER NOT NULL,
	variationId INTEGER NOT NULL,
	runRangeId INTEGER NOT NULL
);
`

// NewCalibFixture creates an empty calibration store in a temp directory
// with the default variation pre-seeded.
func NewCalibFixture(t *testing.T) *CalibFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calib.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(calibSchema)
	require.NoError(t, err)

	f := &CalibFixture{t: t, db: db, path: path}
	f.AddVariation("default", 0)
	t.Cleanup(func() { db.Close() })
	return f
}

// Path returns the store location, closing the write connection first.
func (f *CalibFixture) Path() string {
	f.t.Helper()
	require.NoError(f.t, f.db.Close())
	return f.path
}

// AddDirectory inserts a directory and returns its id. A parent of 0 means
// the root.
func (f *CalibFixture) AddDirectory(name string, parent int64) int64 {
	f.t.Helper()
	f.nextDir++
	_, err := f.db.Exec(`INSERT INTO directories (id, name, parentId) VALUES (?, ?, ?)`,
		f.nextDir, name, parent)
	require.NoError(f.t, err)
	return f.nextDir
}

// AddTable inserts a table under a directory with the given typed columns
// and returns its id. Columns are declared as name:type pairs.
func (f *CalibFixture) AddTable(dir int64, name string, nRows int, columns ...[2]string) int64 {
	f.t.Helper()
	f.nextTable++
	_, err := f.db.Exec(`INSERT INTO typeTables (id, directoryId, name, nRows, nColumns) VALUES (?, ?, ?, ?, ?)`,
		f.nextTable, dir, name, nRows, len(columns))
	require.NoError(f.t, err)
	for i, col := range columns {
		f.nextColumn++
		_, err := f.db.Exec(`INSERT INTO columns (id, typeId, name, columnType, "order") VALUES (?, ?, ?, ?, ?)`,
			f.nextColumn, f.nextTable, col[0], col[1], i)
		require.NoError(f.t, err)
	}
	return f.nextTable
}

// AddVariation inserts a variation and returns its id. A parent of 0 means
// no parent.
func (f *CalibFixture) AddVariation(name string, parent int64) int64 {
	f.t.Helper()
	f.nextVariation++
	var parentVal any
	if parent != 0 {
		parentVal = parent
	}
	_, err := f.db.Exec(`INSERT INTO variations (id, name, parentId) VALUES (?, ?, ?)`,
		f.nextVariation, name, parentVal)
	require.NoError(f.t, err)
	return f.nextVariation
}

// AddAssignment inserts a constant set with its vault blob and an
// assignment binding it to the table, variation and run range.
func (f *CalibFixture) AddAssignment(table, variation int64, runMin, runMax int64, created, vault string) int64 {
	f.t.Helper()
	f.nextSet++
	_, err := f.db.Exec(`INSERT INTO constantSets (id, vault, constantTypeId) VALUES (?, ?, ?)`,
		f.nextSet, vault, table)
	require.NoError(f.t, err)
	f.nextRange++
	_, err = f.db.Exec(`INSERT INTO runRanges (id, runMin, runMax) VALUES (?, ?, ?)`,
		f.nextRange, runMin, runMax)
	require.NoError(f.t, err)
	f.nextAssign++
	_, err = f.db.Exec(`INSERT INTO assignments (id, created, constantSetId, variationId, runRangeId) VALUES (?, ?, ?, ?, ?)`,
		f.nextAssign, created, f.nextSet, variation, f.nextRange)
	require.NoError(f.t, err)
	return f.nextAssign
}

// SeedDemo populates the canonical demo layout: /test/demo/mytable with
// three double columns, two rows, two assignments on the default variation
// and one on mc. It returns the table id.
func (f *CalibFixture) SeedDemo() int64 {
	f.t.Helper()
	test := f.AddDirectory("test", 0)
	demo := f.AddDirectory("demo", test)
	table := f.AddTable(demo, "mytable", 2,
		[2]string{"x", "double"}, [2]string{"y", "double"}, [2]string{"z", "double"})
	mc := f.AddVariation("mc", 1)

	f.AddAssignment(table, 1, 0, 2147483647, "2013-02-22 19:40:35",
		"1.0|2.0|3.0|4.0|5.0|6.0")
	f.AddAssignment(table, 1, 0, 2147483647, "2020-02-01 00:00:00",
		"10.0|20.0|30.0|40.0|50.0|60.0")
	f.AddAssignment(table, mc, 0, 2147483647, "2015-06-01 12:00:00",
		"-1.0|-2.0|-3.0|-4.0|-5.0|-6.0")
	return table
}
