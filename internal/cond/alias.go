package cond

import (
	"github.com/roach88/rundb/internal/dberr"
)

// Alias is a named, reusable condition expression. The registry ships with
// the store's seed data and is read-only at query time.
type Alias struct {
	// Name is the exact lookup key.
	Name string

	// Comment describes what the alias selects.
	Comment string

	build func() Expr
}

// Expression returns a fresh expression tree built from the alias definition.
func (a Alias) Expression() Expr {
	return a.build()
}

// defaultAliases is the seeded registry, in registration order.
var defaultAliases = []Alias{
	{Name: "is_production", Comment: "Is production run", build: aliasIsProduction},
	{Name: "is_2018production", Comment: "Is production run", build: aliasIs2018Production},
	{Name: "is_primex_production", Comment: "Is PrimEx production run", build: aliasIsPrimexProduction},
	{Name: "is_dirc_production", Comment: "Is DIRC production run", build: aliasIsDircProduction},
	{Name: "is_src_production", Comment: "Is SRC production run", build: aliasIsSrcProduction},
	{Name: "is_cpp_production", Comment: "Is CPP production run", build: aliasIsCppProduction},
	{Name: "is_production_long", Comment: "Is production run with long mode data", build: aliasIsProductionLong},
	{Name: "is_cosmic", Comment: "Is cosmic run", build: aliasIsCosmic},
	{Name: "is_empty_target", Comment: "Target is empty", build: aliasIsEmptyTarget},
	{Name: "is_amorph_radiator", Comment: "Amorphous radiator", build: aliasIsAmorphRadiator},
	{Name: "is_coherent_beam", Comment: "Coherent beam", build: aliasIsCoherentBeam},
	{Name: "is_field_off", Comment: "Field off", build: aliasIsFieldOff},
	{Name: "is_field_on", Comment: "Field on", build: aliasIsFieldOn},
	{Name: "status_calibration", Comment: "Run status = calibration", build: func() Expr { return IntCond("status").Eq(3) }},
	{Name: "status_approved_long", Comment: "Run status = approved (long)", build: func() Expr { return IntCond("status").Eq(2) }},
	{Name: "status_approved", Comment: "Run status = approved", build: func() Expr { return IntCond("status").Eq(1) }},
	{Name: "status_unchecked", Comment: "Run status = unchecked", build: func() Expr { return IntCond("status").Eq(-1) }},
	{Name: "status_reject", Comment: "Run status = reject", build: func() Expr { return IntCond("status").Eq(0) }},
}

// Aliases returns the registered aliases in registration order.
// The returned slice is a copy.
func Aliases() []Alias {
	out := make([]Alias, len(defaultAliases))
	copy(out, defaultAliases)
	return out
}

// LookupAlias returns the alias registered under the exact name.
// An unknown name is a LOOKUP error.
func LookupAlias(name string) (Alias, error) {
	for _, a := range defaultAliases {
		if a.Name == name {
			return a, nil
		}
	}
	return Alias{}, dberr.New(dberr.CodeLookup, "alias not found: %s", name)
}

// AliasExpression is a shorthand for LookupAlias(name).Expression().
func AliasExpression(name string) (Expr, error) {
	a, err := LookupAlias(name)
	if err != nil {
		return nil, err
	}
	return a.Expression(), nil
}

func aliasIsProduction() Expr {
	return AllOf(
		StringCond("run_type").IsIn("hd_all.tsg", "hd_all.tsg_ps", "hd_all.bcal_fcal_st.tsg"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(500_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIs2018Production() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(10_000_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsPrimexProduction() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS_PRIMEX"),
		IntCond("event_count").Gt(1_000_000),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsDircProduction() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS_DIRC"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(5_000_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsSrcProduction() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS_SRC"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(5_000_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsCppProduction() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS_CPP"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(5_000_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsProductionLong() Expr {
	return AllOf(
		StringCond("daq_run").Eq("PHYSICS_raw"),
		FloatCond("beam_current").Gt(2.0),
		IntCond("event_count").Gt(5_000_000),
		FloatCond("solenoid_current").Gt(100.0),
		StringCond("collimator_diameter").Neq("Blocking"),
	)
}

func aliasIsCosmic() Expr {
	return AllOf(
		StringCond("run_config").Contains("cosmic"),
		FloatCond("beam_current").Lt(1.0),
		IntCond("event_count").Gt(5_000),
	)
}

func aliasIsEmptyTarget() Expr {
	return StringCond("target_type").Eq("EMPTY & Ready")
}

func aliasIsAmorphRadiator() Expr {
	return FloatCond("polarization_angle").Lt(0.0)
}

func aliasIsCoherentBeam() Expr {
	return FloatCond("polarization_angle").Geq(0.0)
}

func aliasIsFieldOff() Expr {
	return FloatCond("solenoid_current").Lt(100.0)
}

func aliasIsFieldOn() Expr {
	return FloatCond("solenoid_current").Geq(100.0)
}
