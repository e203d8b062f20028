package calib

import (
	"strconv"
	"strings"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/value"
)

// vaultDelimiterEscape is how the store encodes a literal "|" inside a
// string cell.
const vaultDelimiterEscape = "&delimeter"

// Data is the resolved grid of one assignment: n_rows x n_columns typed
// values in the table's declared column order. Data is immutable.
type Data struct {
	names []string
	index map[string]int
	types []value.Type
	cells [][]value.Value // column-major: cells[col][row]
	nRows int
}

// ColumnValue is one (name, type, value) triple of a row enumeration.
type ColumnValue struct {
	Name  string
	Type  value.Type
	Value value.Value
}

// Row is a view onto one row of a Data grid. It shares the underlying grid;
// no values are copied.
type Row struct {
	data *Data
	row  int
}

// parseVault decodes the store's "|"-separated vault blob against the table
// schema. The row count is derived from the blob itself: assignments of the
// same table may carry different row counts. A cell count that is not a
// multiple of the column count is an IO error: the store is corrupt, not
// the request.
func parseVault(vault string, columns []Column) (*Data, error) {
	nCols := len(columns)

	raw := strings.Split(vault, "|")
	if vault == "" {
		raw = nil
	}
	if nCols == 0 || len(raw)%nCols != 0 {
		return nil, dberr.New(dberr.CodeIO,
			"vault cell count %d does not fill %d columns", len(raw), nCols)
	}
	nRows := len(raw) / nCols

	names := make([]string, nCols)
	types := make([]value.Type, nCols)
	index := make(map[string]int, nCols)
	cells := make([][]value.Value, nCols)
	for i, col := range columns {
		name := col.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		names[i] = name
		types[i] = col.Type
		index[name] = i
		cells[i] = make([]value.Value, 0, nRows)
	}

	for idx, token := range raw {
		col := idx % nCols
		row := idx / nCols
		v, err := parseCell(token, types[col])
		if err != nil {
			return nil, dberr.Wrap(dberr.CodeIO, err,
				"parse cell at row %d, column %d (%s)", row, col, types[col])
		}
		cells[col] = append(cells[col], v)
	}

	return &Data{names: names, index: index, types: types, cells: cells, nRows: nRows}, nil
}

func parseCell(token string, t value.Type) (value.Value, error) {
	switch t {
	case value.TypeInt:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case value.TypeUint:
		n, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return nil, err
		}
		return value.Uint(n), nil
	case value.TypeFloat:
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case value.TypeBool:
		return value.Bool(parseBool(token)), nil
	case value.TypeText:
		return value.Text(strings.ReplaceAll(token, vaultDelimiterEscape, "|")), nil
	default:
		return value.Text(token), nil
	}
}

// parseBool accepts "true"/"false" and any integer, where nonzero is true.
func parseBool(s string) bool {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n != 0
}

// NRows returns the number of rows in the grid.
func (d *Data) NRows() int {
	return d.nRows
}

// NColumns returns the number of columns in the grid.
func (d *Data) NColumns() int {
	return len(d.names)
}

// ColumnNames returns the column names in declared order.
// The returned slice is a copy.
func (d *Data) ColumnNames() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// ColumnTypes returns the column types in declared order.
// The returned slice is a copy.
func (d *Data) ColumnTypes() []value.Type {
	out := make([]value.Type, len(d.types))
	copy(out, d.types)
	return out
}

func (d *Data) checkRow(row int) error {
	if row < 0 || row >= d.nRows {
		return dberr.New(dberr.CodeBounds, "row index %d out of range [0, %d)", row, d.nRows)
	}
	return nil
}

// Value returns the cell at (row, named column), typed exactly as the
// column declares. An unknown name is a LOOKUP error; a bad row index is a
// BOUNDS error.
func (d *Data) Value(name string, row int) (value.Value, error) {
	col, ok := d.index[name]
	if !ok {
		return nil, dberr.New(dberr.CodeLookup, "column not found: %s", name)
	}
	if err := d.checkRow(row); err != nil {
		return nil, err
	}
	return d.cells[col][row], nil
}

// ValueAt returns the cell at (row, column index). Out-of-range indexes are
// BOUNDS errors.
func (d *Data) ValueAt(col, row int) (value.Value, error) {
	if col < 0 || col >= len(d.cells) {
		return nil, dberr.New(dberr.CodeBounds, "column index %d out of range [0, %d)", col, len(d.cells))
	}
	if err := d.checkRow(row); err != nil {
		return nil, err
	}
	return d.cells[col][row], nil
}

// Row returns a view onto one row. A bad index is a BOUNDS error.
func (d *Data) Row(row int) (Row, error) {
	if err := d.checkRow(row); err != nil {
		return Row{}, err
	}
	return Row{data: d, row: row}, nil
}

// Columns enumerates the first row's (name, type, value) triples in
// declared column order. For the common one-row table this is the whole
// grid; use Row(i).Columns() for a specific row.
func (d *Data) Columns() ([]ColumnValue, error) {
	row, err := d.Row(0)
	if err != nil {
		return nil, err
	}
	return row.Columns(), nil
}

// Index returns this row's index in the grid.
func (r Row) Index() int {
	return r.row
}

// Value returns the named cell of this row.
func (r Row) Value(name string) (value.Value, error) {
	return r.data.Value(name, r.row)
}

// ValueAt returns the cell at a column index of this row.
func (r Row) ValueAt(col int) (value.Value, error) {
	return r.data.ValueAt(col, r.row)
}

// Columns enumerates this row's (name, type, value) triples in declared
// column order.
func (r Row) Columns() []ColumnValue {
	out := make([]ColumnValue, len(r.data.names))
	for i := range r.data.names {
		out[i] = ColumnValue{
			Name:  r.data.names[i],
			Type:  r.data.types[i],
			Value: r.data.cells[i][r.row],
		}
	}
	return out
}
