package builtin

import (
	"reflect"
	"testing"

	"healthetl/pkg/records"
)

/*
TestNormalizeApply_TableDriven verifies the normalization semantics of
Normalize.Apply:

  - NBSP (and its latin1 mojibake form) becomes an ASCII space.
  - Leading/trailing whitespace is trimmed.
  - Decomposed accents are recomposed (NFC).
  - Non-string values are left unchanged.
*/
func TestNormalizeApply_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		in   []records.Record
		want []records.Record
	}{
		{
			name: "no_strings_no_change",
			in:   []records.Record{{"a": int64(1), "b": 2.5, "c": nil}},
			want: []records.Record{{"a": int64(1), "b": 2.5, "c": nil}},
		},
		{
			name: "simple_trim_spaces",
			in:   []records.Record{{"a": " foo ", "b": "\tbar\n"}},
			want: []records.Record{{"a": "foo", "b": "bar"}},
		},
		{
			name: "nbsp_replaced_and_trimmed",
			in:   []records.Record{{"a": " " + nbspace + "USA" + nbspace + " "}},
			want: []records.Record{{"a": "USA"}},
		},
		{
			name: "mojibake_nbsp_in_thousands",
			in:   []records.Record{{"a": "309" + mojibakeNBSP + "000"}},
			want: []records.Record{{"a": "309 000"}},
		},
		{
			name: "nfc_recomposition",
			in:   []records.Record{{"a": "Co\u0302te d'Ivoire"}},
			want: []records.Record{{"a": "C\u00f4te d'Ivoire"}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := Normalize{}.Apply(tc.in)
			if !reflect.DeepEqual(out, tc.want) {
				t.Fatalf("Normalize.Apply() mismatch:\n got: %#v\nwant: %#v", out, tc.want)
			}
		})
	}
}

func TestNormalizeApply_EmptyInputs(t *testing.T) {
	var nilSlice []records.Record
	if got := (Normalize{}).Apply(nilSlice); got != nil {
		t.Fatalf("Normalize.Apply(nil) = %#v; want nil", got)
	}
}
