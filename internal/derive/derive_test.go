package derive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

var gdpBins = Bins{
	Input: "gdp_per_capita", Out: "gdp_category",
	Edges:  []float64{0, 1000, 4000, 12000},
	Labels: []string{"Low", "Lower-Middle", "Upper-Middle", "High"},
}

func TestClip(t *testing.T) {
	c := Clip{Input: "coverage", Out: "coverage", Min: 0, Max: 100}
	for in, want := range map[float64]float64{-5: 0, 0: 0, 55.5: 55.5, 100: 100, 120: 100} {
		r := records.Record{"coverage": in}
		c.Apply(r)
		assert.Equal(t, want, r["coverage"], "clip(%v)", in)
	}
	r := records.Record{"coverage": nil}
	c.Apply(r)
	assert.Nil(t, r["coverage"])
}

func TestThreshold_StatusIffAtOrAbove(t *testing.T) {
	th := Threshold{Input: "coverage", Out: "coverage_status", Cutoff: 80, AtOrAbove: "Adequate", Below: "Inadequate"}
	tests := []struct {
		in   any
		want any
	}{
		{80.0, "Adequate"},
		{100.0, "Adequate"},
		{79.999, "Inadequate"},
		{int64(0), "Inadequate"},
		{nil, nil},
		{"85", nil},
	}
	for _, tc := range tests {
		r := records.Record{"coverage": tc.in}
		th.Apply(r)
		assert.Equal(t, tc.want, r["coverage_status"], "status(%#v)", tc.in)
	}
}

func TestScale_IsExactProduct(t *testing.T) {
	s := Scale{Input: "mortality_rate", Out: "mortality_per_100k", Factor: 100}
	for _, v := range []float64{0, 0.01, 0.5, 3.3, 12.75} {
		r := records.Record{"mortality_rate": v}
		s.Apply(r)
		assert.Equal(t, v*100, r["mortality_per_100k"])
	}
	r := records.Record{"mortality_rate": nil}
	s.Apply(r)
	assert.Nil(t, r["mortality_per_100k"])
}

func TestFloor_Decade(t *testing.T) {
	f := Floor{Input: "year", Out: "decade", Step: 10}
	for in, want := range map[int64]int64{2010: 2010, 2019: 2010, 1999: 1990, 2000: 2000} {
		r := records.Record{"year": in}
		f.Apply(r)
		assert.Equal(t, want, r["decade"])
	}
}

func TestBins(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{-1.0, nil},
		{0.0, nil},
		{0.5, "Low"},
		{1000.0, "Low"},
		{1000.01, "Lower-Middle"},
		{4000.0, "Lower-Middle"},
		{12000.0, "Upper-Middle"},
		{48000.0, "High"},
		{nil, nil},
	}
	for _, tc := range tests {
		r := records.Record{"gdp_per_capita": tc.in}
		gdpBins.Apply(r)
		assert.Equal(t, tc.want, r["gdp_category"], "bin(%#v)", tc.in)
	}
}

func unicefRules() []Rule {
	return []Rule{
		Clip{Input: "coverage", Out: "coverage", Min: 0, Max: 100},
		Floor{Input: "year", Out: "decade", Step: 10},
		Scale{Input: "mortality_rate", Out: "mortality_per_100k", Factor: 100},
		gdpBins,
		Threshold{Input: "coverage", Out: "coverage_status", Cutoff: 80, AtOrAbove: "Adequate", Below: "Inadequate"},
	}
}

func TestApply_RulesSeeEarlierOutputsAndRequiredDrops(t *testing.T) {
	in := table.New("joined", table.RoleFact, []string{"country_code", "year", "coverage", "mortality_rate", "gdp_per_capita"})
	in.Rows = []records.Record{
		{"country_code": "USA", "year": int64(2010), "coverage": 120.0, "mortality_rate": 0.5, "gdp_per_capita": 48000.0},
		{"country_code": "XXX", "year": int64(2011), "coverage": 50.0, "mortality_rate": 1.0, "gdp_per_capita": -100.0},
	}

	required := []string{"coverage", "gdp_category"}
	out, st, err := Apply(in, unicefRules(), required)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"country_code", "year", "coverage", "mortality_rate", "gdp_per_capita",
		"decade", "mortality_per_100k", "gdp_category", "coverage_status",
	}, out.Columns)
	assert.Equal(t, Stats{In: 2, Out: 1, Dropped: 1}, st)

	row := out.Rows[0]
	assert.Equal(t, 100.0, row["coverage"])
	// Threshold ran after Clip and saw the clipped value.
	assert.Equal(t, "Adequate", row["coverage_status"])
	assert.Equal(t, int64(2010), row["decade"])
	assert.Equal(t, "High", row["gdp_category"])

	// Input unchanged.
	assert.Equal(t, 120.0, in.Rows[0]["coverage"])
}

func TestApply_UnknownColumn(t *testing.T) {
	in := table.New("joined", table.RoleFact, []string{"coverage"})
	in.Rows = []records.Record{{"coverage": 1.0}}

	_, _, err := Apply(in, []Rule{Floor{Input: "year", Out: "decade", Step: 10}}, nil)
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	_, _, err = Apply(in, nil, []string{"population"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	// A later rule may consume an earlier output.
	rules := []Rule{
		Scale{Input: "coverage", Out: "pct", Factor: 1},
		Threshold{Input: "pct", Out: "status", Cutoff: 1, AtOrAbove: "ok", Below: "low"},
	}
	out, _, err := Apply(in, rules, []string{"status"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Rows[0]["status"])
}

func TestSpec_Build(t *testing.T) {
	rules, err := BuildAll([]Spec{
		{Kind: "clip", Input: "coverage", Output: "coverage", Min: 0, Max: 100},
		{Kind: "bins", Input: "gdp_per_capita", Output: "gdp_category", Edges: gdpBins.Edges, Labels: gdpBins.Labels},
	})
	require.NoError(t, err)
	assert.Equal(t, Clip{Input: "coverage", Out: "coverage", Min: 0, Max: 100}, rules[0])
	assert.Equal(t, gdpBins, rules[1])

	_, err = Spec{Kind: "bins", Input: "a", Output: "b", Edges: []float64{0, 1}, Labels: []string{"x"}}.Build()
	assert.ErrorContains(t, err, "2 edges for 1 labels")

	_, err = Spec{Kind: "median", Input: "a", Output: "b"}.Build()
	assert.ErrorContains(t, err, "unknown rule kind")

	_, err = BuildAll([]Spec{{Kind: "floor", Input: "year", Output: "decade"}})
	assert.ErrorContains(t, err, "derive[0]")
}
