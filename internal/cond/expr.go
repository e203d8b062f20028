// Package cond provides the typed boolean expression DSL used to filter
// run-conditions queries.
//
// Expressions are immutable value trees built from typed leaf comparisons
// (IntCond, FloatCond, StringCond, BoolCond, TimeCond) combined with All/Any
// and Not. A leaf only exposes the comparators legal for its declared type,
// so an ill-typed comparison cannot be constructed; a leaf whose declared
// type disagrees with the store's schema fails with TYPE_MISMATCH when the
// expression is bound to a query, before any row is evaluated.
package cond

import (
	"time"

	"github.com/roach88/rundb/internal/value"
)

// Expr is a sealed interface over expression tree nodes.
//
// Node types:
//   - Compare: typed comparison of a named condition against a literal
//   - All: conjunction (empty = always true)
//   - Any: disjunction (empty = always false)
//   - Not: negation
//
// The marker method seals the interface to this package and enables
// exhaustive type switches in the SQL renderer and evaluators.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Op identifies a comparison operator.
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpGt       Op = "gt"
	OpGeq      Op = "geq"
	OpLt       Op = "lt"
	OpLeq      Op = "leq"
	OpIn       Op = "isin"
	OpContains Op = "contains"
	OpIsTrue   Op = "is_true"
	OpIsFalse  Op = "is_false"
	OpExists   Op = "exists"
)

// Compare is a leaf comparison: the named condition, its declared type, the
// operator, and the literal operand (Arg for scalar operators, List for isin).
type Compare struct {
	Name string
	Type value.Type
	Op   Op
	Arg  value.Value // scalar operand (nil for isin/is_true/is_false/exists)
	List []string    // operand set for isin
}

func (Compare) exprNode() {}

// All is a conjunction of expressions. An empty All is the identity
// "always true".
type All struct {
	Exprs []Expr
}

func (All) exprNode() {}

// Any is a disjunction of expressions. An empty Any is "always false".
type Any struct {
	Exprs []Expr
}

func (Any) exprNode() {}

// Not negates an expression.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// AllOf combines expressions with AND semantics.
func AllOf(exprs ...Expr) Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return All{Exprs: exprs}
}

// AnyOf combines expressions with OR semantics.
func AnyOf(exprs ...Expr) Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return Any{Exprs: exprs}
}

// Negate wraps an expression in a logical NOT.
func Negate(e Expr) Expr {
	return Not{Expr: e}
}

// ReferencedConditions returns the condition names an expression mentions,
// in first-reference order without duplicates.
func ReferencedConditions(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Expr)
	walk = func(e Expr) {
		switch node := e.(type) {
		case Compare:
			if !seen[node.Name] {
				seen[node.Name] = true
				names = append(names, node.Name)
			}
		case All:
			for _, sub := range node.Exprs {
				walk(sub)
			}
		case Any:
			for _, sub := range node.Exprs {
				walk(sub)
			}
		case Not:
			walk(node.Expr)
		}
	}
	if e != nil {
		walk(e)
	}
	return names
}

// IntField builds comparisons against an integer condition.
type IntField struct {
	name string
}

// IntCond begins an integer comparison against the named condition.
func IntCond(name string) IntField {
	return IntField{name: name}
}

func (f IntField) compare(op Op, v int64) Expr {
	return Compare{Name: f.name, Type: value.TypeInt, Op: op, Arg: value.Int(v)}
}

// Eq matches when the condition equals v.
func (f IntField) Eq(v int64) Expr { return f.compare(OpEq, v) }

// Neq matches when the condition differs from v.
func (f IntField) Neq(v int64) Expr { return f.compare(OpNeq, v) }

// Gt matches when the condition is strictly greater than v.
func (f IntField) Gt(v int64) Expr { return f.compare(OpGt, v) }

// Geq matches when the condition is at least v.
func (f IntField) Geq(v int64) Expr { return f.compare(OpGeq, v) }

// Lt matches when the condition is strictly less than v.
func (f IntField) Lt(v int64) Expr { return f.compare(OpLt, v) }

// Leq matches when the condition is at most v.
func (f IntField) Leq(v int64) Expr { return f.compare(OpLeq, v) }

// FloatField builds comparisons against a floating-point condition.
type FloatField struct {
	name string
}

// FloatCond begins a floating-point comparison against the named condition.
func FloatCond(name string) FloatField {
	return FloatField{name: name}
}

func (f FloatField) compare(op Op, v float64) Expr {
	return Compare{Name: f.name, Type: value.TypeFloat, Op: op, Arg: value.Float(v)}
}

// Eq matches when the condition equals v.
func (f FloatField) Eq(v float64) Expr { return f.compare(OpEq, v) }

// Gt matches when the condition is strictly greater than v.
func (f FloatField) Gt(v float64) Expr { return f.compare(OpGt, v) }

// Geq matches when the condition is at least v.
func (f FloatField) Geq(v float64) Expr { return f.compare(OpGeq, v) }

// Lt matches when the condition is strictly less than v.
func (f FloatField) Lt(v float64) Expr { return f.compare(OpLt, v) }

// Leq matches when the condition is at most v.
func (f FloatField) Leq(v float64) Expr { return f.compare(OpLeq, v) }

// StringField builds comparisons against a text condition.
type StringField struct {
	name string
}

// StringCond begins a string comparison against the named condition.
func StringCond(name string) StringField {
	return StringField{name: name}
}

// Eq matches when the condition equals v.
func (f StringField) Eq(v string) Expr {
	return Compare{Name: f.name, Type: value.TypeText, Op: OpEq, Arg: value.Text(v)}
}

// Neq matches when the condition differs from v.
func (f StringField) Neq(v string) Expr {
	return Compare{Name: f.name, Type: value.TypeText, Op: OpNeq, Arg: value.Text(v)}
}

// IsIn matches when the condition string is one of values. An empty list
// matches nothing.
func (f StringField) IsIn(values ...string) Expr {
	list := make([]string, len(values))
	copy(list, values)
	return Compare{Name: f.name, Type: value.TypeText, Op: OpIn, List: list}
}

// Contains matches when the condition string contains v as a substring.
func (f StringField) Contains(v string) Expr {
	return Compare{Name: f.name, Type: value.TypeText, Op: OpContains, Arg: value.Text(v)}
}

// BoolField builds comparisons against a boolean condition.
type BoolField struct {
	name string
}

// BoolCond begins a boolean comparison against the named condition.
func BoolCond(name string) BoolField {
	return BoolField{name: name}
}

// IsTrue matches when the condition is explicitly true.
func (f BoolField) IsTrue() Expr {
	return Compare{Name: f.name, Type: value.TypeBool, Op: OpIsTrue}
}

// IsFalse matches when the condition is explicitly false.
func (f BoolField) IsFalse() Expr {
	return Compare{Name: f.name, Type: value.TypeBool, Op: OpIsFalse}
}

// Exists matches when the run has any value for the condition.
func (f BoolField) Exists() Expr {
	return Compare{Name: f.name, Type: value.TypeBool, Op: OpExists}
}

// TimeField builds comparisons against a timestamp condition.
type TimeField struct {
	name string
}

// TimeCond begins a timestamp comparison against the named condition.
func TimeCond(name string) TimeField {
	return TimeField{name: name}
}

func (f TimeField) compare(op Op, v time.Time) Expr {
	return Compare{Name: f.name, Type: value.TypeTime, Op: op, Arg: value.Time(v)}
}

// Eq matches when the condition timestamp equals v.
func (f TimeField) Eq(v time.Time) Expr { return f.compare(OpEq, v) }

// Gt matches when the condition timestamp is after v.
func (f TimeField) Gt(v time.Time) Expr { return f.compare(OpGt, v) }

// Geq matches when the condition timestamp is at or after v.
func (f TimeField) Geq(v time.Time) Expr { return f.compare(OpGeq, v) }

// Lt matches when the condition timestamp is before v.
func (f TimeField) Lt(v time.Time) Expr { return f.compare(OpLt, v) }

// Leq matches when the condition timestamp is at or before v.
func (f TimeField) Leq(v time.Time) Expr { return f.compare(OpLeq, v) }
