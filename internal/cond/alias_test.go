package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rundb/internal/dberr"
	"github.com/roach88/rundb/internal/value"
)

func TestAliases_RegistrationOrderStable(t *testing.T) {
	aliases := Aliases()
	require.Len(t, aliases, 18)
	assert.Equal(t, "is_production", aliases[0].Name)
	assert.Equal(t, "is_cpp_production", aliases[5].Name)
	assert.Equal(t, "is_production_long", aliases[6].Name)
	assert.Equal(t, "status_reject", aliases[len(aliases)-1].Name)
}

func TestProductionAliases_DaqRunOperands(t *testing.T) {
	cases := map[string]string{
		"is_cpp_production":  "PHYSICS_CPP",
		"is_production_long": "PHYSICS_raw",
	}
	for name, want := range cases {
		expr, err := AliasExpression(name)
		require.NoError(t, err)
		group, ok := expr.(All)
		require.True(t, ok, name)
		cmp, ok := group.Exprs[0].(Compare)
		require.True(t, ok, name)
		assert.Equal(t, "daq_run", cmp.Name)
		got, ok := value.AsText(cmp.Arg)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAliases_ReturnsCopy(t *testing.T) {
	first := Aliases()
	first[0].Name = "clobbered"
	assert.Equal(t, "is_production", Aliases()[0].Name)
}

func TestLookupAlias_Known(t *testing.T) {
	a, err := LookupAlias("is_cosmic")
	require.NoError(t, err)
	assert.Equal(t, "is_cosmic", a.Name)
	assert.NotNil(t, a.Expression())
}

func TestLookupAlias_Unknown(t *testing.T) {
	_, err := LookupAlias("is_imaginary")
	require.Error(t, err)
	assert.True(t, dberr.IsLookup(err))
}

func TestAliasExpression_FreshTreePerCall(t *testing.T) {
	a, err := AliasExpression("is_production")
	require.NoError(t, err)
	b, err := AliasExpression("is_production")
	require.NoError(t, err)

	// Equal trees built independently.
	assert.Equal(t, a, b)
}

func TestAliasExpressions_BindAgainstSchema(t *testing.T) {
	// Every seeded alias references only schema-known conditions.
	for _, a := range Aliases() {
		var params []any
		_, err := ToSQL(a.Expression(), testSchema(), &params)
		assert.NoError(t, err, "alias %s", a.Name)
	}
}

func TestStatusAliases_Operands(t *testing.T) {
	cases := map[string]int64{
		"status_calibration":   3,
		"status_approved_long": 2,
		"status_approved":      1,
		"status_unchecked":     -1,
		"status_reject":        0,
	}
	for name, want := range cases {
		expr, err := AliasExpression(name)
		require.NoError(t, err)
		cmp, ok := expr.(Compare)
		require.True(t, ok, name)
		assert.Equal(t, "status", cmp.Name)
		assert.Equal(t, OpEq, cmp.Op)
		got, ok := value.AsInt(cmp.Arg)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
}
