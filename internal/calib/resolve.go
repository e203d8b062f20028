package calib

import (
	"sort"
	"time"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/timeparse"
)

// Assignment is one resolved history record: the immutable constants grid
// reference valid for a run range, committed at a point in time, on one
// variation.
type Assignment struct {
	ID            int64
	Created       time.Time
	ConstantSetID int64
	RunMin        int64
	RunMax        int64
	Variation     string
}

// assignmentRec is the cached history form, without the variation name.
type assignmentRec struct {
	id            int64
	created       time.Time
	constantSetID int64
	runMin        int64
	runMax        int64
}

// assignmentHistory returns every assignment of (table, variation), oldest
// first. The full history is cached per handle so repeated resolutions over
// the same table and variation never rescan the store; entries live until
// the session closes.
func (db *DB) assignmentHistory(tableID, variationID int64) ([]assignmentRec, error) {
	key := assignKey{tableID: tableID, variationID: variationID}
	if recs, ok := db.assignments.Get(key); ok {
		return recs, nil
	}

	rows, err := db.db.Query(`
		SELECT a.id, a.created, a.constantSetId, rr.runMin, rr.runMax
		FROM assignments a
		JOIN constantSets cs ON cs.id = a.constantSetId
		JOIN runRanges rr ON rr.id = a.runRangeId
		WHERE cs.constantTypeId = ?
		  AND a.variationId = ?
		ORDER BY a.created ASC, a.id ASC
	`, tableID, variationID)
	if err != nil {
		return nil, db.ioErr(err, "query assignments")
	}
	defer rows.Close()

	recs := []assignmentRec{}
	for rows.Next() {
		var rec assignmentRec
		var created string
		if err := rows.Scan(&rec.id, &created, &rec.constantSetID, &rec.runMin, &rec.runMax); err != nil {
			return nil, db.ioErr(err, "scan assignment")
		}
		rec.created, err = timeparse.Parse(created)
		if err != nil {
			return nil, dberr.Wrap(dberr.CodeIO, err, "assignment %d has malformed commit time", rec.id)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, db.ioErr(err, "iterate assignments")
	}

	db.assignments.Add(key, recs)
	return recs, nil
}

// bestAssignment picks the most recently committed record whose run range
// contains run and whose commit time is at or before ts. Reports false when
// nothing qualifies.
func bestAssignment(history []assignmentRec, run int64, ts time.Time) (assignmentRec, bool) {
	var best assignmentRec
	found := false
	for _, rec := range history {
		if run < rec.runMin || run > rec.runMax {
			continue
		}
		if rec.created.After(ts) {
			continue
		}
		if !found || rec.created.After(best.created) {
			best = rec
			found = true
		}
	}
	return best, found
}

// resolveRuns resolves each run independently against the variation chain:
// a run satisfied by a nearer variation is never looked up in its parents.
// Runs with no valid assignment are simply absent from the result.
func (t Table) resolveRuns(runs []int64, variation string, ts time.Time) (map[int64]Assignment, error) {
	if len(runs) == 0 {
		return map[int64]Assignment{}, nil
	}
	start, err := t.db.variation(variation)
	if err != nil {
		return nil, err
	}
	chain, err := t.db.variationChain(start)
	if err != nil {
		return nil, err
	}

	resolved := make(map[int64]Assignment)
	unresolved := make(map[int64]bool, len(runs))
	for _, run := range runs {
		unresolved[run] = true
	}

	for _, varMeta := range chain {
		if len(unresolved) == 0 {
			break
		}
		history, err := t.db.assignmentHistory(t.meta.id, varMeta.id)
		if err != nil {
			return nil, err
		}
		for run := range unresolved {
			rec, ok := bestAssignment(history, run, ts)
			if !ok {
				continue
			}
			resolved[run] = Assignment{
				ID:            rec.id,
				Created:       rec.created,
				ConstantSetID: rec.constantSetID,
				RunMin:        rec.runMin,
				RunMax:        rec.runMax,
				Variation:     varMeta.name,
			}
			delete(unresolved, run)
		}
	}
	return resolved, nil
}

// Resolve selects the single authoritative assignment for one run at the
// context's timestamp and variation. When no assignment qualifies the
// result is a NOT_FOUND error: absence, not failure. Callers resolving many
// runs should use Fetch, which absorbs the absent runs instead.
func (t Table) Resolve(run int64, ctx Context) (Assignment, error) {
	resolved, err := t.resolveRuns([]int64{clampRun(run)}, ctx.Variation(), ctx.Timestamp())
	if err != nil {
		return Assignment{}, err
	}
	a, ok := resolved[clampRun(run)]
	if !ok {
		return Assignment{}, dberr.New(dberr.CodeNotFound,
			"no assignment for %s run %d variation %s at %s",
			t.FullPath(), run, ctx.Variation(), timeparse.Format(ctx.Timestamp()))
	}
	return a, nil
}

// Resolve is the path-addressed form of Table.Resolve.
func (db *DB) Resolve(path string, run int64, ctx Context) (Assignment, error) {
	table, err := db.Table(path)
	if err != nil {
		return Assignment{}, err
	}
	return table.Resolve(run, ctx)
}

// sortedRuns returns the distinct runs of a selection in ascending order.
func sortedRuns(runs []int64) []int64 {
	seen := make(map[int64]bool, len(runs))
	out := make([]int64, 0, len(runs))
	for _, r := range runs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
