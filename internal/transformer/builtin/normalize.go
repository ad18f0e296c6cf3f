package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"healthetl/pkg/records"
)

const nbspace = "\u00a0"

// mojibakeNBSP is a UTF-8 NBSP that was decoded as latin1 and re-encoded.
const mojibakeNBSP = "\u00c2\u00a0"

// Normalize trims string cells, folds NBSP to a plain space and puts text in
// Unicode NFC so that visually identical values compare equal. Empty strings
// are kept; the coercer and mapper decide what empty means for each column.
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			r[k] = normalizeText(s)
		}
	}
	return in
}

func normalizeText(s string) string {
	if strings.Contains(s, "\u00c2") {
		s = strings.ReplaceAll(s, mojibakeNBSP, " ")
	}
	if strings.Contains(s, nbspace) {
		s = strings.ReplaceAll(s, nbspace, " ")
	}
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	return strings.TrimSpace(s)
}
