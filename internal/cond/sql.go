package cond

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/timeparse"
	"github.com/roach88/rundb/internal/value"
)

// SchemaLookup resolves a condition name to the SQL table alias carrying its
// value and the condition's declared type. Reporting ok=false means the name
// is unknown to the schema.
type SchemaLookup func(name string) (alias string, typ value.Type, ok bool)

// ToSQL renders an expression as a parameterized SQL fragment against the
// conditions schema. Literal operands are appended to params, never
// interpolated. An unknown condition name is a LOOKUP error; a leaf whose
// declared type disagrees with the schema is a TYPE_MISMATCH error. Both
// surface here, before any row is read.
func ToSQL(e Expr, lookup SchemaLookup, params *[]any) (string, error) {
	if e == nil {
		return "1 = 1", nil
	}
	switch node := e.(type) {
	case Compare:
		return compareToSQL(node, lookup, params)
	case All:
		return groupToSQL(node.Exprs, " AND ", "1 = 1", lookup, params)
	case Any:
		return groupToSQL(node.Exprs, " OR ", "1 = 0", lookup, params)
	case Not:
		inner, err := ToSQL(node.Expr, lookup, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil
	default:
		return "", dberr.New(dberr.CodeConfiguration, "unknown expression node: %T", e)
	}
}

func groupToSQL(exprs []Expr, joiner, identity string, lookup SchemaLookup, params *[]any) (string, error) {
	if len(exprs) == 0 {
		return identity, nil
	}
	rendered := make([]string, 0, len(exprs))
	for _, sub := range exprs {
		clause, err := ToSQL(sub, lookup, params)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, clause)
	}
	return "(" + strings.Join(rendered, joiner) + ")", nil
}

// typesCompatible reports whether a leaf declared as declared may compare
// against a condition stored as actual. Unsigned conditions accept integer
// leaves: both live in int_value.
func typesCompatible(actual, declared value.Type) bool {
	if actual == declared {
		return true
	}
	return actual == value.TypeUint && declared == value.TypeInt
}

// valueColumn names the conditions-table column holding values of a type.
func valueColumn(t value.Type) string {
	switch t {
	case value.TypeText:
		return "text_value"
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

func compareToSQL(cmp Compare, lookup SchemaLookup, params *[]any) (string, error) {
	alias, actual, ok := lookup(cmp.Name)
	if !ok {
		return "", dberr.New(dberr.CodeLookup, "condition not found: %s", cmp.Name)
	}
	if !typesCompatible(actual, cmp.Type) {
		return "", dberr.New(dberr.CodeTypeMismatch,
			"condition %s is %s, compared as %s", cmp.Name, actual, cmp.Type).
			WithDetail("condition", cmp.Name)
	}
	column := fmt.Sprintf("%s.%s", alias, valueColumn(cmp.Type))
	switch cmp.Op {
	case OpEq, OpNeq, OpGt, OpGeq, OpLt, OpLeq:
		*params = append(*params, sqlOperand(cmp.Arg))
		return fmt.Sprintf("%s %s ?", column, sqlOperator(cmp.Op)), nil
	case OpIn:
		if len(cmp.List) == 0 {
			return "1 = 0", nil
		}
		placeholders := make([]string, len(cmp.List))
		for i, v := range cmp.List {
			placeholders[i] = "?"
			*params = append(*params, v)
		}
		return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), nil
	case OpContains:
		*params = append(*params, sqlOperand(cmp.Arg))
		return fmt.Sprintf("INSTR(%s, ?) > 0", column), nil
	case OpIsTrue:
		return fmt.Sprintf("%s = 1", column), nil
	case OpIsFalse:
		return fmt.Sprintf("%s = 0", column), nil
	case OpExists:
		return fmt.Sprintf("%s IS NOT NULL", column), nil
	default:
		return "", dberr.New(dberr.CodeConfiguration, "unknown operator: %s", cmp.Op)
	}
}

func sqlOperator(op Op) string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpGt:
		return ">"
	case OpGeq:
		return ">="
	case OpLt:
		return "<"
	case OpLeq:
		return "<="
	default:
		return "="
	}
}

// sqlOperand converts a literal to its database/sql parameter form.
// Timestamps travel as the store's textual format.
func sqlOperand(v value.Value) any {
	switch val := v.(type) {
	case value.Text:
		return string(val)
	case value.Int:
		return int64(val)
	case value.Uint:
		return int64(val)
	case value.Float:
		return float64(val)
	case value.Bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case value.Time:
		return timeparse.Format(time.Time(val))
	default:
		return nil
	}
}
