package calib

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/value"
)

// Column describes one column of a table schema.
type Column struct {
	Name    string
	Type    value.Type
	Comment string
}

// Directory is a node in the calibration namespace tree. Directories are
// immutable once the session is open.
type Directory struct {
	db   *DB
	meta dirMeta
}

// Table is a leaf namespace node owning a column schema.
type Table struct {
	db   *DB
	meta tableMeta
}

// normalizePath resolves "."/".."/empty segments of path against base,
// returning an absolute /-joined path. Segments are NFC-normalized so
// lookups agree with the store regardless of how the caller composed the
// characters.
func normalizePath(base, path string) string {
	var segments []string
	push := func(v string) {
		for _, part := range strings.Split(norm.NFC.String(v), "/") {
			switch part {
			case "", ".":
			case "..":
				if len(segments) > 0 {
					segments = segments[:len(segments)-1]
				}
			default:
				segments = append(segments, part)
			}
		}
	}
	if strings.HasPrefix(path, "/") {
		push(path)
	} else {
		push(base)
		push(path)
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// Root returns the namespace root directory.
func (db *DB) Root() Directory {
	return Directory{db: db, meta: dirMeta{id: 0, name: ""}}
}

// Dir looks up a directory by absolute path. An unknown path is a LOOKUP error.
func (db *DB) Dir(path string) (Directory, error) {
	if path == "/" || path == "" {
		return db.Root(), nil
	}
	abs := normalizePath("/", path)
	id, ok := db.dirByPath[abs]
	if !ok {
		return Directory{}, db.lookupErr("directory not found: %s", abs)
	}
	return Directory{db: db, meta: *db.dirs[id]}, nil
}

// Table looks up a table by absolute path. An unknown path is a LOOKUP error.
func (db *DB) Table(path string) (Table, error) {
	abs := normalizePath("/", path)
	slash := strings.LastIndex(abs, "/")
	name := abs[slash+1:]
	if name == "" {
		return Table{}, db.lookupErr("not a table path: %s", abs)
	}
	dir, err := db.Dir(abs[:slash])
	if err != nil {
		return Table{}, err
	}
	return dir.Table(name)
}

// Name returns the directory's own name ("" for the root).
func (d Directory) Name() string {
	return d.meta.name
}

// FullPath returns the /-joined path from the root, walking parent ids.
func (d Directory) FullPath() string {
	if d.meta.id == 0 {
		return "/"
	}
	names := []string{d.meta.name}
	current := d.meta
	for current.parentID != 0 {
		parent, ok := d.db.dirs[current.parentID]
		if !ok {
			break
		}
		names = append(names, parent.name)
		current = *parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/")
}

// Parent returns the parent directory, or false for the root.
func (d Directory) Parent() (Directory, bool) {
	if d.meta.id == 0 {
		return Directory{}, false
	}
	if d.meta.parentID == 0 {
		return d.db.Root(), true
	}
	parent, ok := d.db.dirs[d.meta.parentID]
	if !ok {
		return Directory{}, false
	}
	return Directory{db: d.db, meta: *parent}, true
}

// Dirs returns the child directories sorted by name.
func (d Directory) Dirs() []Directory {
	var children []Directory
	for _, meta := range d.db.dirs {
		if meta.parentID == d.meta.id {
			children = append(children, Directory{db: d.db, meta: *meta})
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].meta.name < children[j].meta.name })
	return children
}

// Dir resolves a path relative to this directory.
func (d Directory) Dir(path string) (Directory, error) {
	return d.db.Dir(normalizePath(d.FullPath(), path))
}

// Tables returns the tables owned by this directory, sorted by name.
func (d Directory) Tables() []Table {
	var tables []Table
	for _, meta := range d.db.tables {
		if meta.directoryID == d.meta.id {
			tables = append(tables, Table{db: d.db, meta: *meta})
		}
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].meta.name < tables[j].meta.name })
	return tables
}

// Table looks up a child table by name, matched in NFC form. An unknown
// name is a LOOKUP error.
func (d Directory) Table(name string) (Table, error) {
	id, ok := d.db.tableByDirName[dirNameKey{d.meta.id, norm.NFC.String(name)}]
	if !ok {
		return Table{}, d.db.lookupErr("table not found: %s/%s", strings.TrimSuffix(d.FullPath(), "/"), name)
	}
	return Table{db: d.db, meta: *d.db.tables[id]}, nil
}

// Name returns the table's own name.
func (t Table) Name() string {
	return t.meta.name
}

// NRows returns the row count of the table's current assignments.
func (t Table) NRows() int {
	return t.meta.nRows
}

// NColumns returns the column count of the table's schema.
func (t Table) NColumns() int {
	return t.meta.nColumns
}

// Comment returns the table's stored description.
func (t Table) Comment() string {
	return t.meta.comment
}

// FullPath returns the /-joined path from the root, including the table name.
func (t Table) FullPath() string {
	dir, ok := t.db.dirs[t.meta.directoryID]
	if !ok {
		return "/" + t.meta.name
	}
	p := dirPath(t.db.dirs, dir)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p + t.meta.name
}

// Columns returns the table schema in declared column order, loading it on
// first use and caching it for the session.
func (t Table) Columns() ([]Column, error) {
	t.db.mu.RLock()
	cols, ok := t.db.columns[t.meta.id]
	t.db.mu.RUnlock()
	if ok {
		return cols, nil
	}

	rows, err := t.db.db.Query(`
		SELECT IFNULL(name, ''), columnType, IFNULL(comment, '')
		FROM columns
		WHERE typeId = ?
		ORDER BY "order" ASC, id ASC
	`, t.meta.id)
	if err != nil {
		return nil, t.db.ioErr(err, "query columns")
	}
	defer rows.Close()

	for rows.Next() {
		var name, wireType, comment string
		if err := rows.Scan(&name, &wireType, &comment); err != nil {
			return nil, t.db.ioErr(err, "scan column")
		}
		typ, ok := value.ParseType(wireType)
		if !ok {
			return nil, dberr.New(dberr.CodeIO, "unknown column type %q in table %s", wireType, t.meta.name)
		}
		cols = append(cols, Column{Name: name, Type: typ, Comment: comment})
	}
	if err := rows.Err(); err != nil {
		return nil, t.db.ioErr(err, "iterate columns")
	}

	t.db.mu.Lock()
	t.db.columns[t.meta.id] = cols
	t.db.mu.Unlock()
	return cols, nil
}
