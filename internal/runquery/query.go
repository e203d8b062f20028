package runquery

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rundb/internal/cond"
	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/timeparse"
	"github.com/roach88/rundb/internal/value"
)

type joinPlan struct {
	aliases map[string]string
	order   []string
	types   map[string]value.Type
}

// planJoins assigns one table alias per distinct condition name so each
// referenced condition contributes exactly one LEFT JOIN.
func (db *DB) planJoins(fetched []string, filter cond.Expr) (*joinPlan, error) {
	plan := &joinPlan{
		aliases: make(map[string]string),
		types:   make(map[string]value.Type),
	}
	add := func(name string) error {
		if _, ok := plan.aliases[name]; ok {
			return nil
		}
		ct, ok := db.conditionType(name)
		if !ok {
			return dberr.New(dberr.CodeLookup, "unknown condition %q", name).
				WithDetail("session", db.session)
		}
		plan.aliases[name] = fmt.Sprintf("cond_%d", len(plan.order))
		plan.order = append(plan.order, name)
		plan.types[name] = ct.valueType
		return nil
	}
	for _, name := range fetched {
		if err := add(name); err != nil {
			return nil, err
		}
	}
	for _, name := range cond.ReferencedConditions(filter) {
		if err := add(name); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (plan *joinPlan) lookup(name string) (string, value.Type, bool) {
	alias, ok := plan.aliases[name]
	if !ok {
		return "", "", false
	}
	return alias, plan.types[name], true
}

func (db *DB) buildJoins(plan *joinPlan, params *[]any) string {
	var b strings.Builder
	for _, name := range plan.order {
		ct, _ := db.conditionType(name)
		alias := plan.aliases[name]
		fmt.Fprintf(&b, "\nLEFT JOIN conditions AS %s ON %s.run_number = runs.number AND %s.condition_type_id = ?",
			alias, alias, alias)
		*params = append(*params, ct.id)
	}
	return b.String()
}

// runSelection renders the WHERE fragment for the context's run selection.
func runSelection(ctx Context, params *[]any) string {
	if ctx.selectsAll() {
		return "1 = 1"
	}
	var clauses []string
	if runs := ctx.Runs(); len(runs) > 0 {
		placeholders := make([]string, len(runs))
		for i, r := range runs {
			placeholders[i] = "?"
			*params = append(*params, r)
		}
		clauses = append(clauses, "runs.number IN ("+strings.Join(placeholders, ", ")+")")
	}
	for _, rr := range ctx.RunRanges() {
		clauses = append(clauses, "(runs.number >= ? AND runs.number <= ?)")
		*params = append(*params, rr[0], rr[1])
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}

// Fetch returns the named condition values for every run the context
// selects, keyed run number then condition name. Runs where a condition was
// never recorded simply omit that name; runs appear even when every
// requested condition is absent. At least one name is required.
func (db *DB) Fetch(names []string, ctx Context) (map[int64]map[string]value.Value, error) {
	if len(names) == 0 {
		return nil, dberr.New(dberr.CodeConfiguration, "no condition names requested")
	}
	plan, err := db.planJoins(names, ctx.FilterExpr())
	if err != nil {
		return nil, err
	}

	var params []any
	cols := make([]string, 0, len(names)+1)
	cols = append(cols, "runs.number")
	for _, name := range names {
		alias := plan.aliases[name]
		cols = append(cols, alias+"."+valueColumn(plan.types[name]))
	}

	query := "SELECT " + strings.Join(cols, ", ") + "\nFROM runs"
	query += db.buildJoins(plan, &params)
	where := runSelection(ctx, &params)
	filterSQL, err := cond.ToSQL(ctx.FilterExpr(), plan.lookup, &params)
	if err != nil {
		return nil, err
	}
	query += "\nWHERE " + where + " AND " + filterSQL
	query += "\nORDER BY runs.number ASC"

	rows, err := db.db.Query(query, params...)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "query conditions").
			WithDetail("session", db.session)
	}
	defer rows.Close()

	out := make(map[int64]map[string]value.Value)
	for rows.Next() {
		var run int64
		raw := make([]sql.NullString, len(names))
		dest := make([]any, 0, len(names)+1)
		dest = append(dest, &run)
		for i := range raw {
			dest = append(dest, &raw[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, dberr.Wrap(dberr.CodeIO, err, "scan condition row")
		}
		record := make(map[string]value.Value)
		for i, name := range names {
			if !raw[i].Valid {
				continue
			}
			v, err := decodeCell(raw[i].String, plan.types[name])
			if err != nil {
				return nil, dberr.Wrap(dberr.CodeIO, err, "decode condition %q for run %d", name, run)
			}
			record[name] = v
		}
		out[run] = record
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "iterate condition rows")
	}
	return out, nil
}

// FetchOne returns a single condition for a single run. Absent values are a
// NOT_FOUND error rather than a nil value.
func (db *DB) FetchOne(name string, run int64) (value.Value, error) {
	records, err := db.Fetch([]string{name}, NewContext().WithRun(run))
	if err != nil {
		return nil, err
	}
	record, ok := records[run]
	if !ok {
		return nil, dberr.New(dberr.CodeNotFound, "run %d not present in store", run).
			WithDetail("session", db.session)
	}
	v, ok := record[name]
	if !ok {
		return nil, dberr.New(dberr.CodeNotFound, "condition %q not recorded for run %d", name, run).
			WithDetail("session", db.session)
	}
	return v, nil
}

// FetchRuns returns the ordered run numbers the context selects. It agrees
// with Fetch on the run set for the same context.
func (db *DB) FetchRuns(ctx Context) ([]int64, error) {
	plan, err := db.planJoins(nil, ctx.FilterExpr())
	if err != nil {
		return nil, err
	}

	var params []any
	query := "SELECT runs.number\nFROM runs"
	query += db.buildJoins(plan, &params)
	where := runSelection(ctx, &params)
	filterSQL, err := cond.ToSQL(ctx.FilterExpr(), plan.lookup, &params)
	if err != nil {
		return nil, err
	}
	query += "\nWHERE " + where + " AND " + filterSQL
	query += "\nORDER BY runs.number ASC"

	rows, err := db.db.Query(query, params...)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "query runs").
			WithDetail("session", db.session)
	}
	defer rows.Close()

	runs := []int64{}
	for rows.Next() {
		var run int64
		if err := rows.Scan(&run); err != nil {
			return nil, dberr.Wrap(dberr.CodeIO, err, "scan run number")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(dberr.CodeIO, err, "iterate runs")
	}
	return runs, nil
}

func valueColumn(t value.Type) string {
	switch t {
	case value.TypeInt, value.TypeUint:
		return "int_value"
	case value.TypeFloat:
		return "float_value"
	case value.TypeBool:
		return "bool_value"
	case value.TypeTime:
		return "time_value"
	default:
		return "text_value"
	}
}

// decodeCell turns a raw SQLite cell into a typed value. Every column is
// scanned as text; SQLite renders numeric affinities in a form strconv
// parses back exactly.
func decodeCell(raw string, t value.Type) (value.Value, error) {
	switch t {
	case value.TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case value.TypeUint:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return value.Uint(n), nil
	case value.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case value.TypeBool:
		return value.Bool(raw != "0" && raw != "" && raw != "false"), nil
	case value.TypeTime:
		ts, err := timeparse.Parse(raw)
		if err != nil {
			return nil, err
		}
		return value.Time(ts), nil
	default:
		return value.Text(raw), nil
	}
}
