package pipeline

import (
	"healthetl/internal/derive"
	"healthetl/internal/reconcile"
	"healthetl/internal/schema"
	"healthetl/internal/table"
	"healthetl/internal/transformer/builtin"
)

// Source names of the UNICEF indicator run.
const (
	Coverage  = "coverage"
	Mortality = "mortality"
	Metadata  = "metadata"
)

// FinalColumns is the column set of the UNICEF analysis table.
var FinalColumns = []string{
	"country_code", "year", "coverage", "mortality_rate", "population",
	"gdp_per_capita", "decade", "mortality_per_100k", "gdp_category", "coverage_status",
}

var countryCode = schema.ColumnSpec{
	Name:     "country_code",
	Aliases:  []string{"alpha_3_code", "ISO3", "iso3"},
	Type:     schema.String,
	Required: true,
}

var year = schema.ColumnSpec{
	Name:     "year",
	Aliases:  []string{"time_period", "TIME_PERIOD", "Year"},
	Type:     schema.Integer,
	Required: true,
}

var (
	codeRule = builtin.Rule{Kind: builtin.KindCountryCode}
	yearRule = builtin.Rule{Kind: builtin.KindYear}
)

// Default returns the configuration that reconciles the vitamin A coverage
// indicator, the adolescent mortality indicator and country metadata.
func Default() Config {
	return Config{
		Name: "unicef",
		Sources: []Source{
			{
				Spec: schema.TableSpec{
					Name: Coverage,
					Role: table.RoleFact,
					Columns: []schema.ColumnSpec{
						countryCode,
						year,
						{Name: "coverage", Aliases: []string{"obs_value", "OBS_VALUE", "vitamin_a_coverage"}, Type: schema.Float, Required: true},
					},
				},
				Coerce: map[string]builtin.Rule{
					"country_code": codeRule,
					"year":         yearRule,
					"coverage":     {Kind: builtin.KindFloat},
				},
			},
			{
				Spec: schema.TableSpec{
					Name: Mortality,
					Role: table.RoleFact,
					Columns: []schema.ColumnSpec{
						countryCode,
						year,
						{Name: "mortality_rate", Aliases: []string{"obs_value", "OBS_VALUE", "mortality"}, Type: schema.Float, Required: true},
						{Name: "sex", Aliases: []string{"Sex", "SEX"}, Type: schema.Category},
					},
				},
				Coerce: map[string]builtin.Rule{
					"country_code":   codeRule,
					"year":           yearRule,
					"mortality_rate": {Kind: builtin.KindFloat},
				},
				Keep: []builtin.Keep{{Field: "sex", Values: []string{"Total"}}},
			},
			{
				Spec: schema.TableSpec{
					Name: Metadata,
					Role: table.RoleDimension,
					Columns: []schema.ColumnSpec{
						countryCode,
						{Name: "population", Aliases: []string{"Population", "Population, total"}, Type: schema.Integer},
						{Name: "gdp_per_capita", Aliases: []string{"GDP Per Capita (USD)", "GDP_per_capita", "GDP per capita (current US$)"}, Type: schema.Float},
					},
				},
				Coerce: map[string]builtin.Rule{
					"country_code":   codeRule,
					"population":     {Kind: builtin.KindInteger},
					"gdp_per_capita": {Kind: builtin.KindFloat},
				},
			},
		},
		Joins: []JoinStep{
			{Right: Mortality, Spec: reconcile.Spec{Key: reconcile.Key{"country_code", "year"}, Mode: reconcile.Inner, Unique: reconcile.UniqueBoth}},
			{Right: Metadata, Spec: reconcile.Spec{Key: reconcile.Key{"country_code"}, Mode: reconcile.Left, Unique: reconcile.UniqueRight}},
		},
		Derive: []derive.Rule{
			derive.Clip{Input: "coverage", Out: "coverage", Min: 0, Max: 100},
			derive.Floor{Input: "year", Out: "decade", Step: 10},
			derive.Scale{Input: "mortality_rate", Out: "mortality_per_100k", Factor: 100},
			derive.Bins{
				Input:  "gdp_per_capita",
				Out:    "gdp_category",
				Edges:  []float64{0, 1000, 4000, 12000},
				Labels: []string{"Low", "Lower-Middle", "Upper-Middle", "High"},
			},
			derive.Threshold{Input: "coverage", Out: "coverage_status", Cutoff: 80, AtOrAbove: "Adequate", Below: "Inadequate"},
		},
		Required: []string{"country_code", "year", "coverage", "mortality_rate"},
		Output:   append([]string(nil), FinalColumns...),
	}
}
