// Package calib implements the versioned calibration constants engine: a
// directory/table namespace over an existing SQLite store, with assignment
// resolution by (run, timestamp, variation).
package calib

import (
	"database/sql"
	"os"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rundb/internal/dberr"
)

// assignmentCacheSize bounds the per-handle (table, variation) history cache.
const assignmentCacheSize = 256

// DB is a read-only session handle over a calibration SQLite file.
//
// Directory and table metadata are loaded once at Open and are immutable for
// the life of the handle. Variation metadata and assignment histories are
// cached lazily per handle; cache entries live until Close. The handle is
// safe for concurrent readers: the connection pool is limited to one
// connection, so store access serializes internally.
type DB struct {
	db      *sql.DB
	path    string
	session string

	// Namespace arena: nodes reference parents by id, never by pointer.
	dirs           map[int64]*dirMeta
	dirByPath      map[string]int64
	tables         map[int64]*tableMeta
	tableByDirName map[dirNameKey]int64

	mu        sync.RWMutex
	varByName map[string]variationMeta
	varChains map[int64][]variationMeta
	columns   map[int64][]Column

	assignments *lru.Cache[assignKey, []assignmentRec]
}

type dirNameKey struct {
	dirID int64
	name  string
}

type assignKey struct {
	tableID     int64
	variationID int64
}

type dirMeta struct {
	id       int64
	name     string
	parentID int64
	comment  string
}

type tableMeta struct {
	id          int64
	directoryID int64
	name        string
	nRows       int
	nColumns    int
	comment     string
}

type variationMeta struct {
	id       int64
	name     string
	parentID int64
}

// Open opens a read-only session over an existing calibration SQLite file.
// A missing or unreadable file is an IO error reported here, never deferred
// to the first query.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "calibration store not found: %s", path)
	}

	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "open calibration store: %s", path)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, dberr.Wrap(dberr.CodeIO, err, "connect to calibration store: %s", path)
	}

	// SQLite serializes writers; the store is read-only, but a single
	// connection keeps concurrent callers from tripping SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		conn.Close()
		return nil, dberr.Wrap(dberr.CodeIO, err, "apply pragmas: %s", path)
	}

	cache, err := lru.New[assignKey, []assignmentRec](assignmentCacheSize)
	if err != nil {
		conn.Close()
		return nil, dberr.Wrap(dberr.CodeIO, err, "init assignment cache")
	}

	db := &DB{
		db:          conn,
		path:        path,
		session:     uuid.NewString(),
		varByName:   make(map[string]variationMeta),
		varChains:   make(map[int64][]variationMeta),
		columns:     make(map[int64][]Column),
		assignments: cache,
	}
	if err := db.loadDirectories(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.loadTables(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the store connection and drops all session caches.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	db.assignments.Purge()
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

func (db *DB) loadDirectories() error {
	rows, err := db.db.Query(`
		SELECT id, name, parentId, IFNULL(comment, '')
		FROM directories
	`)
	if err != nil {
		return db.ioErr(err, "query directories")
	}
	defer rows.Close()

	dirs := make(map[int64]*dirMeta)
	for rows.Next() {
		var d dirMeta
		if err := rows.Scan(&d.id, &d.name, &d.parentID, &d.comment); err != nil {
			return db.ioErr(err, "scan directory")
		}
		d.name = norm.NFC.String(d.name)
		dirs[d.id] = &d
	}
	if err := rows.Err(); err != nil {
		return db.ioErr(err, "iterate directories")
	}

	byPath := make(map[string]int64, len(dirs))
	for id, d := range dirs {
		byPath[dirPath(dirs, d)] = id
	}
	db.dirs = dirs
	db.dirByPath = byPath
	return nil
}

// dirPath reconstructs the /-joined path by walking parent ids.
func dirPath(dirs map[int64]*dirMeta, d *dirMeta) string {
	if d.parentID == 0 {
		return "/" + d.name
	}
	parent, ok := dirs[d.parentID]
	if !ok {
		return "/" + d.name
	}
	return dirPath(dirs, parent) + "/" + d.name
}

func (db *DB) loadTables() error {
	rows, err := db.db.Query(`
		SELECT id, directoryId, name, nRows, nColumns, IFNULL(comment, '')
		FROM typeTables
	`)
	if err != nil {
		return db.ioErr(err, "query tables")
	}
	defer rows.Close()

	tables := make(map[int64]*tableMeta)
	byDirName := make(map[dirNameKey]int64)
	for rows.Next() {
		var t tableMeta
		if err := rows.Scan(&t.id, &t.directoryID, &t.name, &t.nRows, &t.nColumns, &t.comment); err != nil {
			return db.ioErr(err, "scan table")
		}
		t.name = norm.NFC.String(t.name)
		tables[t.id] = &t
		byDirName[dirNameKey{t.directoryID, t.name}] = t.id
	}
	if err := rows.Err(); err != nil {
		return db.ioErr(err, "iterate tables")
	}
	db.tables = tables
	db.tableByDirName = byDirName
	return nil
}

// variation returns the metadata for a named variation, loading and caching
// it on first use. An unknown variation name is a LOOKUP error.
func (db *DB) variation(name string) (variationMeta, error) {
	db.mu.RLock()
	v, ok := db.varByName[name]
	db.mu.RUnlock()
	if ok {
		return v, nil
	}

	row := db.db.QueryRow(`SELECT id, name, IFNULL(parentId, 0) FROM variations WHERE name = ?`, name)
	if err := row.Scan(&v.id, &v.name, &v.parentID); err != nil {
		if err == sql.ErrNoRows {
			return variationMeta{}, dberr.New(dberr.CodeLookup, "variation not found: %s", name)
		}
		return variationMeta{}, db.ioErr(err, "query variation")
	}

	db.mu.Lock()
	db.varByName[name] = v
	db.mu.Unlock()
	return v, nil
}

// variationChain returns the variation and its ancestors, nearest first.
// A child variation shadows its parent during resolution.
func (db *DB) variationChain(start variationMeta) ([]variationMeta, error) {
	db.mu.RLock()
	chain, ok := db.varChains[start.id]
	db.mu.RUnlock()
	if ok {
		return chain, nil
	}

	chain = []variationMeta{start}
	seen := map[int64]bool{start.id: true}
	current := start
	for current.parentID > 0 {
		if seen[current.parentID] {
			// A parent loop in seed data would otherwise spin forever.
			return nil, dberr.New(dberr.CodeIO, "variation parent chain does not terminate at %s", start.name)
		}
		var next variationMeta
		row := db.db.QueryRow(`SELECT id, name, IFNULL(parentId, 0) FROM variations WHERE id = ?`, current.parentID)
		if err := row.Scan(&next.id, &next.name, &next.parentID); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return nil, db.ioErr(err, "query variation chain")
		}
		chain = append(chain, next)
		seen[next.id] = true
		current = next
	}

	db.mu.Lock()
	db.varChains[start.id] = chain
	db.mu.Unlock()
	return chain, nil
}

func (db *DB) ioErr(err error, op string) error {
	return dberr.Wrap(dberr.CodeIO, err, "%s", op).WithDetail("session", db.session)
}

func (db *DB) lookupErr(format string, args ...any) error {
	return dberr.New(dberr.CodeLookup, format, args...).WithDetail("session", db.session)
}
