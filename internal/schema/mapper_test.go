package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

func metadataSpec() TableSpec {
	return TableSpec{
		Name: "metadata",
		Role: table.RoleDimension,
		Columns: []ColumnSpec{
			{Name: "country_code", Aliases: []string{"alpha_3_code", "ISO3"}, Type: String, Required: true},
			{Name: "population", Aliases: []string{"Population", "population"}, Type: Integer},
			{Name: "gdp_per_capita", Aliases: []string{"GDP_per_capita", "GDP Per Capita (USD)"}, Type: Float},
		},
	}
}

func TestMap_RenamesSelectsAndOrders(t *testing.T) {
	raw := &table.Table{
		Name:    "metadata.csv",
		Columns: []string{"GDP Per Capita (USD)", "country", "alpha_3_code", "Population"},
		Rows: []records.Record{
			{"GDP Per Capita (USD)": "$48,000", "country": "United States", "alpha_3_code": " USA ", "Population": "309,000,000"},
		},
	}

	out, res, err := Map(raw, metadataSpec())
	require.NoError(t, err)

	assert.Equal(t, []string{"country_code", "population", "gdp_per_capita"}, out.Columns)
	assert.Equal(t, table.RoleDimension, out.Role)
	assert.Equal(t, records.Record{
		"country_code":   "USA",
		"population":     "309,000,000",
		"gdp_per_capita": "$48,000",
	}, out.Rows[0])
	assert.Equal(t, Resolution{
		"country_code":   "alpha_3_code",
		"population":     "Population",
		"gdp_per_capita": "GDP Per Capita (USD)",
	}, res)

	// The raw table is untouched.
	assert.Equal(t, " USA ", raw.Rows[0]["alpha_3_code"])
}

func TestMap_FirstAliasWins(t *testing.T) {
	raw := &table.Table{
		Columns: []string{"GDP Per Capita (USD)", "GDP_per_capita", "alpha_3_code"},
		Rows:    []records.Record{{"GDP Per Capita (USD)": "2", "GDP_per_capita": "1", "alpha_3_code": "FRA"}},
	}
	out, res, err := Map(raw, metadataSpec())
	require.NoError(t, err)
	assert.Equal(t, "GDP_per_capita", res["gdp_per_capita"])
	assert.Equal(t, "1", out.Rows[0]["gdp_per_capita"])
}

func TestMap_AliasMatchIsCaseSensitive(t *testing.T) {
	raw := &table.Table{
		Columns: []string{"ALPHA_3_CODE"},
		Rows:    []records.Record{{"ALPHA_3_CODE": "USA"}},
	}
	_, _, err := Map(raw, metadataSpec())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "metadata", se.Table)
	assert.Equal(t, "country_code", se.Column)
	assert.Equal(t, []string{"alpha_3_code", "ISO3", "country_code"}, se.Aliases)
}

func TestMap_OptionalColumnFilledWithNull(t *testing.T) {
	raw := &table.Table{
		Columns: []string{"alpha_3_code"},
		Rows:    []records.Record{{"alpha_3_code": "USA"}, {"alpha_3_code": ""}},
	}
	out, res, err := Map(raw, metadataSpec())
	require.NoError(t, err)
	assert.False(t, res.Resolved("population"))
	assert.Equal(t, records.Record{"country_code": "USA", "population": nil, "gdp_per_capita": nil}, out.Rows[0])
	// Empty text becomes null.
	assert.Nil(t, out.Rows[1]["country_code"])
}

func TestMap_IdempotentOnNormalizedTable(t *testing.T) {
	raw := &table.Table{
		Columns: []string{"alpha_3_code", "Population", "GDP_per_capita"},
		Rows:    []records.Record{{"alpha_3_code": "usa", "Population": int64(5), "GDP_per_capita": 1.5}},
	}
	once, _, err := Map(raw, metadataSpec())
	require.NoError(t, err)
	twice, _, err := Map(once, metadataSpec())
	require.NoError(t, err)
	assert.Equal(t, table.Digest(once), table.Digest(twice))
}

func TestTableSpec_Validate(t *testing.T) {
	require.NoError(t, metadataSpec().Validate())

	bad := metadataSpec()
	bad.Columns = append(bad.Columns, ColumnSpec{Name: "population", Type: Integer})
	assert.ErrorContains(t, bad.Validate(), "duplicate column")

	bad = metadataSpec()
	bad.Columns[1].Type = "decimal"
	assert.ErrorContains(t, bad.Validate(), "unknown type")

	bad = metadataSpec()
	bad.Columns[0].Aliases = append(bad.Columns[0].Aliases, " ")
	assert.ErrorContains(t, bad.Validate(), "empty alias")

	bad = metadataSpec()
	bad.Role = "lookup"
	assert.ErrorContains(t, bad.Validate(), "unknown role")
}
