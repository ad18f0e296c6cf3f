// Package reconcile joins normalized tables on declared keys.
//
// Key cells are trimmed and upper-cased before comparison. Joins never fan
// out: a duplicated key on a side that must be unique is an error.
package reconcile

import (
	"fmt"
	"strings"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Key is an ordered tuple of column names shared by both tables.
type Key []string

// Mode selects which unmatched rows survive a join.
type Mode string

const (
	Inner Mode = "inner"
	Left  Mode = "left"
)

// Unique declares which sides must hold at most one row per key.
type Unique string

const (
	UniqueBoth  Unique = "both"
	UniqueRight Unique = "right"
)

// Spec declares one join.
type Spec struct {
	Key    Key
	Mode   Mode
	Unique Unique
}

// Validate checks the spec for declaration mistakes.
func (s Spec) Validate() error {
	if len(s.Key) == 0 {
		return fmt.Errorf("reconcile: join key must not be empty")
	}
	switch s.Mode {
	case Inner, Left:
	default:
		return fmt.Errorf("reconcile: unknown join mode %q", s.Mode)
	}
	switch s.Unique {
	case UniqueBoth, UniqueRight, "":
	default:
		return fmt.Errorf("reconcile: unknown uniqueness %q", s.Unique)
	}
	return nil
}

// Stats describes what a join did with its inputs.
type Stats struct {
	LeftRows       int
	RightRows      int
	Matched        int // left rows that found a partner
	UnmatchedLeft  int // dropped (inner) or null-filled (left)
	UnmatchedRight int // right rows no left row referenced
	NullKeys       int // rows on either side with a null key cell
	Emitted        int
}

// Dropped returns the number of left rows that did not reach the output.
func (s Stats) Dropped() int { return s.LeftRows - s.Emitted }

// NormalizeKey renders one key cell for comparison. ok is false for null
// cells, which never match.
func NormalizeKey(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s := strings.ToUpper(strings.TrimSpace(table.Format(v)))
	if s == "" {
		return "", false
	}
	return s, true
}

// keyed is a row plus its normalized key parts.
type keyed struct {
	parts []string
	ok    bool
}

func keyOf(r records.Record, key Key) keyed {
	parts := make([]string, len(key))
	for i, c := range key {
		s, ok := NormalizeKey(r[c])
		if !ok {
			return keyed{}
		}
		parts[i] = s
	}
	return keyed{parts: parts, ok: true}
}

// joinParts builds a map key from normalized parts; the separator cannot
// occur in trimmed text.
func joinParts(parts []string) string { return strings.Join(parts, "\x1f") }

// Join matches left and right rows on spec.Key.
//
// Output columns are the left columns followed by right non-key columns; a
// right column whose name the left already uses is suffixed with
// "_<right.Name>". Key columns in the output carry the normalized key value.
// Neither input is modified.
func Join(left, right *table.Table, spec Spec) (*table.Table, Stats, error) {
	if err := spec.Validate(); err != nil {
		return nil, Stats{}, err
	}
	for _, c := range spec.Key {
		if !left.HasColumn(c) {
			return nil, Stats{}, fmt.Errorf("reconcile: table %s has no key column %q", left.Name, c)
		}
		if !right.HasColumn(c) {
			return nil, Stats{}, fmt.Errorf("reconcile: table %s has no key column %q", right.Name, c)
		}
	}

	st := Stats{LeftRows: left.Len(), RightRows: right.Len()}

	leftKeys := make([]keyed, len(left.Rows))
	seenLeft := make(map[string]struct{}, len(left.Rows))
	for i, r := range left.Rows {
		k := keyOf(r, spec.Key)
		leftKeys[i] = k
		if !k.ok {
			st.NullKeys++
			continue
		}
		if spec.Unique == UniqueBoth || spec.Unique == "" {
			mk := joinParts(k.parts)
			if _, dup := seenLeft[mk]; dup {
				return nil, Stats{}, &Error{Kind: ErrAmbiguousKey, Table: left.Name, Key: spec.Key, Value: k.parts}
			}
			seenLeft[mk] = struct{}{}
		}
	}

	index := make(map[string]records.Record, len(right.Rows))
	for _, r := range right.Rows {
		k := keyOf(r, spec.Key)
		if !k.ok {
			st.NullKeys++
			continue
		}
		mk := joinParts(k.parts)
		if _, dup := index[mk]; dup {
			return nil, Stats{}, &Error{Kind: ErrAmbiguousKey, Table: right.Name, Key: spec.Key, Value: k.parts}
		}
		index[mk] = r
	}

	rightCols := outputRightColumns(left, right, spec.Key)
	cols := append([]string(nil), left.Columns...)
	for _, rc := range rightCols {
		cols = append(cols, rc.out)
	}

	out := table.New(left.Name+"+"+right.Name, left.Role, cols)
	out.Rows = make([]records.Record, 0, len(left.Rows))
	used := make(map[string]struct{}, len(index))

	for i, lr := range left.Rows {
		k := leftKeys[i]
		var match records.Record
		if k.ok {
			mk := joinParts(k.parts)
			if m, ok := index[mk]; ok {
				match = m
				used[mk] = struct{}{}
			}
		}
		if match == nil {
			st.UnmatchedLeft++
			if spec.Mode == Inner {
				continue
			}
		} else {
			st.Matched++
		}

		nr := make(records.Record, len(cols))
		for _, c := range left.Columns {
			nr[c] = lr[c]
		}
		if k.ok {
			for j, c := range spec.Key {
				nr[c] = normalizedKeyCell(lr[c], k.parts[j])
			}
		}
		for _, rc := range rightCols {
			if match == nil {
				nr[rc.out] = nil
			} else {
				nr[rc.out] = match[rc.in]
			}
		}
		out.Rows = append(out.Rows, nr)
	}

	st.UnmatchedRight = len(index) - len(used)
	st.Emitted = len(out.Rows)
	return out, st, nil
}

// normalizedKeyCell keeps numeric key cells numeric and replaces text cells
// with their normalized form.
func normalizedKeyCell(orig any, norm string) any {
	if _, isText := orig.(string); isText {
		return norm
	}
	return orig
}

type colMap struct{ in, out string }

func outputRightColumns(left, right *table.Table, key Key) []colMap {
	isKey := make(map[string]struct{}, len(key))
	for _, k := range key {
		isKey[k] = struct{}{}
	}
	var out []colMap
	for _, c := range right.Columns {
		if _, skip := isKey[c]; skip {
			continue
		}
		name := c
		if left.HasColumn(c) {
			name = c + "_" + right.Name
		}
		out = append(out, colMap{in: c, out: name})
	}
	return out
}
