package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"healthetl/pkg/records"
)

func TestRequire_DropsNullsOnly(t *testing.T) {
	var dropped []records.Record
	r := Require{
		Fields: []string{"coverage", "mortality_rate"},
		OnDrop: func(rec records.Record) { dropped = append(dropped, rec) },
	}
	in := []records.Record{
		{"coverage": 85.0, "mortality_rate": 12.5},
		{"coverage": nil, "mortality_rate": 1.0},
		{"mortality_rate": 1.0},
		{"coverage": 0.0, "mortality_rate": 0.0},
	}
	out := r.Apply(in)

	assert.Equal(t, []records.Record{
		{"coverage": 85.0, "mortality_rate": 12.5},
		{"coverage": 0.0, "mortality_rate": 0.0},
	}, out)
	assert.Len(t, dropped, 2)
}

func TestRequire_NoFieldsKeepsEverything(t *testing.T) {
	in := []records.Record{{"a": nil}}
	assert.Equal(t, in, Require{}.Apply(in))
}

func TestKeep_CaseInsensitiveMatch(t *testing.T) {
	k := Keep{Field: "sex", Values: []string{"Total"}}
	out := k.Apply([]records.Record{
		{"sex": "Total", "id": 1},
		{"sex": "Female", "id": 2},
		{"sex": " total ", "id": 3},
		{"sex": nil, "id": 4},
		{"id": 5},
	})
	assert.Equal(t, []records.Record{
		{"sex": "Total", "id": 1},
		{"sex": " total ", "id": 3},
	}, out)
}
