package calib

import (
	"strings"

	"github.com/roach88/rundb/internal/dberr"
)

// Fetch resolves every selected run independently and returns the resolved
// grids keyed by run. Runs with no valid assignment are omitted; a query
// where nothing resolves returns an empty map, never an error.
func (t Table) Fetch(ctx Context) (map[int64]*Data, error) {
	runs := sortedRuns(ctx.Runs())
	if len(runs) == 0 {
		runs = []int64{0}
	}
	resolved, err := t.resolveRuns(runs, ctx.Variation(), ctx.Timestamp())
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return map[int64]*Data{}, nil
	}

	columns, err := t.Columns()
	if err != nil {
		return nil, err
	}
	vaults, err := t.db.loadVaults(resolved)
	if err != nil {
		return nil, err
	}

	result := make(map[int64]*Data, len(resolved))
	parsed := make(map[int64]*Data, len(vaults))
	for run, assignment := range resolved {
		data, ok := parsed[assignment.ConstantSetID]
		if !ok {
			vault, found := vaults[assignment.ConstantSetID]
			if !found {
				return nil, dberr.New(dberr.CodeIO,
					"assignment %d references missing constant set %d",
					assignment.ID, assignment.ConstantSetID)
			}
			data, err = parseVault(vault, columns)
			if err != nil {
				return nil, err
			}
			parsed[assignment.ConstantSetID] = data
		}
		result[run] = data
	}
	return result, nil
}

// Fetch is the path-addressed form of Table.Fetch.
func (db *DB) Fetch(path string, ctx Context) (map[int64]*Data, error) {
	table, err := db.Table(path)
	if err != nil {
		return nil, err
	}
	return table.Fetch(ctx)
}

// FetchRequest parses and executes a textual request string.
func (db *DB) FetchRequest(request string) (map[int64]*Data, error) {
	req, err := ParseRequest(request)
	if err != nil {
		return nil, err
	}
	return db.Fetch(req.Path, req.Context)
}

// loadVaults reads the constant-set blobs referenced by a resolution in one
// round trip, keyed by constant set id.
func (db *DB) loadVaults(resolved map[int64]Assignment) (map[int64]string, error) {
	seen := make(map[int64]bool, len(resolved))
	ids := make([]int64, 0, len(resolved))
	for _, a := range resolved {
		if !seen[a.ConstantSetID] {
			seen[a.ConstantSetID] = true
			ids = append(ids, a.ConstantSetID)
		}
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := db.db.Query(
		`SELECT id, vault FROM constantSets WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, db.ioErr(err, "query constant sets")
	}
	defer rows.Close()

	vaults := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var vault string
		if err := rows.Scan(&id, &vault); err != nil {
			return nil, db.ioErr(err, "scan constant set")
		}
		vaults[id] = vault
	}
	if err := rows.Err(); err != nil {
		return nil, db.ioErr(err, "iterate constant sets")
	}
	return vaults, nil
}
