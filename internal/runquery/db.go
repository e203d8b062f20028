// Package runquery implements the typed run-conditions query engine: per-run
// scalar metadata in an existing SQLite store, filtered by cond expressions.
package runquery

import (
	"database/sql"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/value"
)

// DB is a read-only session handle over a run-conditions SQLite file.
//
// The condition-type schema is loaded at Open behind a read-write mutex;
// queries take read locks only. The connection pool is limited to one
// connection so concurrent callers serialize inside the handle rather than
// observing driver-level contention.
type DB struct {
	db      *sql.DB
	path    string
	session string

	mu        sync.RWMutex
	condTypes map[string]conditionType
}

type conditionType struct {
	id          int64
	name        string
	valueType   value.Type
	description string
}

// ConditionType describes one named, typed run-metadata field.
type ConditionType struct {
	Name        string
	Type        value.Type
	Description string
}

// Open opens a read-only session over an existing run-conditions SQLite
// file. A missing file is an IO error reported here; a store without the
// expected schema version is treated as corrupt.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "conditions store not found: %s", path)
	}

	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "open conditions store: %s", path)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, dberr.Wrap(dberr.CodeIO, err, "connect to conditions store: %s", path)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{
		db:      conn,
		path:    path,
		session: uuid.NewString(),
	}
	if err := db.checkSchemaVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.loadConditionTypes(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the store connection.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

// Path returns the filesystem path this handle was opened on.
func (db *DB) Path() string {
	return db.path
}

// Session returns the unique id of this handle, carried in error details.
func (db *DB) Session() string {
	return db.session
}

// checkSchemaVersion verifies the store carries schema version 2, the only
// layout this engine reads.
func (db *DB) checkSchemaVersion() error {
	var one int
	err := db.db.QueryRow(`SELECT 1 FROM schema_versions WHERE version = 2 LIMIT 1`).Scan(&one)
	if err == sql.ErrNoRows {
		return dberr.New(dberr.CodeIO, "store %s does not carry schema version 2", db.path)
	}
	if err != nil {
		return dberr.Wrap(dberr.CodeIO, err, "check schema version: %s", db.path)
	}
	return nil
}

func (db *DB) loadConditionTypes() error {
	rows, err := db.db.Query(`
		SELECT id, name, value_type, IFNULL(description, '')
		FROM condition_types
	`)
	if err != nil {
		return dberr.Wrap(dberr.CodeIO, err, "query condition types")
	}
	defer rows.Close()

	loaded := make(map[string]conditionType)
	for rows.Next() {
		var ct conditionType
		var wireType string
		if err := rows.Scan(&ct.id, &ct.name, &wireType, &ct.description); err != nil {
			return dberr.Wrap(dberr.CodeIO, err, "scan condition type")
		}
		vt, ok := value.ParseType(wireType)
		if !ok {
			return dberr.New(dberr.CodeIO, "unknown condition value type %q for %s", wireType, ct.name)
		}
		ct.valueType = vt
		ct.name = norm.NFC.String(ct.name)
		loaded[ct.name] = ct
	}
	if err := rows.Err(); err != nil {
		return dberr.Wrap(dberr.CodeIO, err, "iterate condition types")
	}

	db.mu.Lock()
	db.condTypes = loaded
	db.mu.Unlock()
	return nil
}

// conditionType resolves a condition by name. Names are matched in NFC
// form so callers agree with the store regardless of composition.
func (db *DB) conditionType(name string) (conditionType, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ct, ok := db.condTypes[norm.NFC.String(name)]
	return ct, ok
}

// ConditionTypes returns the schema of known conditions sorted by name.
func (db *DB) ConditionTypes() []ConditionType {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]ConditionType, 0, len(db.condTypes))
	for _, ct := range db.condTypes {
		out = append(out, ConditionType{Name: ct.name, Type: ct.valueType, Description: ct.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
