package panel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestpanel/internal/country"
)

func newAssembler(t *testing.T) *Assembler {
	t.Helper()
	return NewAssembler(country.NewResolver(), nil)
}

func TestAssembleLeftJoin(t *testing.T) {
	a := newAssembler(t)
	ctx := context.Background()

	base, overwrites := a.Assemble(ctx, New(), Series{
		{ISO3: "BRA", Year: 2000}: 521274,
		{ISO3: "BRA", Year: 2020}: 496620,
		{ISO3: "ARG", Year: 2000}: 33378,
	}, "forest_area_kha")
	require.Empty(t, overwrites)
	assert.Equal(t, 3, base.NumRows())

	// Second join adds a column and a new row without touching existing
	// cells.
	out, overwrites := a.Assemble(ctx, base, Series{
		{ISO3: "BRA", Year: 2000}: 0.28,
		{ISO3: "CHL", Year: 2010}: 0.19,
	}, "co2_per_gdp_kg_per_usd")
	require.Empty(t, overwrites)
	assert.Equal(t, 4, out.NumRows())
	assert.Equal(t, []string{"forest_area_kha", "co2_per_gdp_kg_per_usd"}, out.Columns())

	v, ok := out.Value(Key{ISO3: "BRA", Year: 2000}, "forest_area_kha")
	require.True(t, ok)
	assert.Equal(t, 521274.0, v)
	_, ok = out.Value(Key{ISO3: "ARG", Year: 2000}, "co2_per_gdp_kg_per_usd")
	assert.False(t, ok)

	// Input snapshot untouched.
	assert.Equal(t, 3, base.NumRows())
	assert.False(t, base.HasColumn("co2_per_gdp_kg_per_usd"))
}

func TestAssembleDomainRestriction(t *testing.T) {
	a := newAssembler(t)
	out, _ := a.Assemble(context.Background(), New(), Series{
		{ISO3: "BRA", Year: 2000}: 1,
		{ISO3: "MEX", Year: 2000}: 2, // out of scope
		{ISO3: "BRA", Year: 2005}: 3, // off-year
	}, "x")
	assert.Equal(t, 1, out.NumRows())
}

func TestAssembleOverwriteLastWins(t *testing.T) {
	a := newAssembler(t)
	ctx := context.Background()

	base, _ := a.Assemble(ctx, New(), Series{
		{ISO3: "PRY", Year: 2010}: 55.0,
		{ISO3: "URY", Year: 2010}: 60.0,
	}, "hydro_electricity_share_pct")

	out, overwrites := a.Assemble(ctx, base, Series{
		{ISO3: "PRY", Year: 2010}: 57.5, // changed upstream
		{ISO3: "URY", Year: 2010}: 60.0, // identical, no diagnostic
	}, "hydro_electricity_share_pct")

	require.Len(t, overwrites, 1)
	assert.Equal(t, Key{ISO3: "PRY", Year: 2010}, overwrites[0].Key)
	assert.Equal(t, 55.0, overwrites[0].Previous)
	assert.Equal(t, 57.5, overwrites[0].Next)

	v, _ := out.Value(Key{ISO3: "PRY", Year: 2010}, "hydro_electricity_share_pct")
	assert.Equal(t, 57.5, v)
}

func TestAssembleEmptySeriesRegistersColumn(t *testing.T) {
	a := newAssembler(t)
	out, overwrites := a.Assemble(context.Background(), New(), Series{}, "methane_emissions_kt_co2eq")
	require.Empty(t, overwrites)
	assert.True(t, out.HasColumn("methane_emissions_kt_co2eq"))
	assert.Zero(t, out.Observations("methane_emissions_kt_co2eq"))
}

func TestWithColumnNeverAddsRows(t *testing.T) {
	a := newAssembler(t)
	base, _ := a.Assemble(context.Background(), New(), Series{
		{ISO3: "COL", Year: 2020}: 3.2e11,
	}, "gdp_constant_2015_usd")

	out := base.WithColumn("non_oil_gdp_constant_2015_usd", Series{
		{ISO3: "COL", Year: 2020}: 3.0e11,
		{ISO3: "ECU", Year: 2020}: 9.0e10, // no base row, dropped
	})
	assert.Equal(t, 1, out.NumRows())
	v, ok := out.Value(Key{ISO3: "COL", Year: 2020}, "non_oil_gdp_constant_2015_usd")
	require.True(t, ok)
	assert.Equal(t, 3.0e11, v)
}
