// Package csv reads delimited text files into raw tables. Header names keep
// their spelling (only a BOM, surrounding whitespace and Unicode composition
// are cleaned) so that schema aliases can match them exactly.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"healthetl/internal/table"
	"healthetl/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// Encoding of the input: "utf-8" (default), "latin1" or "windows-1252".
	Encoding string

	// HeaderMap renames source headers after cleanup. Unmapped headers keep
	// their name.
	HeaderMap map[string]string

	// Logger receives one warning per skipped row, up to a limit. Nil
	// disables logging.
	Logger *zerolog.Logger
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps per-row warnings for badly broken files.
const skipLogLimit = 100

// Parse reads a header row and every data row from r into a raw table named
// name. Rows that fail to parse or have the wrong width are skipped and
// counted; only header and I/O errors are returned.
func (p *Parser) Parse(name string, r io.Reader) (*table.Table, int, error) {
	log := zerolog.Nop()
	if p.opt.Logger != nil {
		log = *p.opt.Logger
	}

	dr, err := decode(r, p.opt.Encoding)
	if err != nil {
		return nil, 0, err
	}

	cr := csv.NewReader(dr)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h, p.opt)
	if err := checkHeaders(headers); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", name, err)
	}

	out := table.New(name, table.RoleRaw, headers)
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, 0, fmt.Errorf("read %s: %w", name, err)
			}
			if skipped < skipLogLimit {
				log.Warn().Str("file", name).Int("line", line).Err(err).Msg("skipping row")
			}
			skipped++
			continue
		}

		if len(row) != len(headers) {
			if skipped < skipLogLimit {
				log.Warn().Str("file", name).Int("line", line).
					Int("expected", len(headers)).Int("got", len(row)).
					Msg("skipping row: incorrect number of fields")
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		out.Rows = append(out.Rows, rec)
	}
	if skipped > 0 {
		log.Warn().Str("file", name).Int("skipped", skipped).Msg("rows skipped")
	}
	return out, skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders strips the BOM, trims, composes to NFC and applies
// HeaderMap. Blank headers become "col_N".
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	copy(res, h)
	StripHeaderBOM(res)
	for i, col := range res {
		c := norm.NFC.String(strings.TrimSpace(col))
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}

func checkHeaders(headers []string) error {
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if _, dup := seen[h]; dup {
			return fmt.Errorf("duplicate header %q", h)
		}
		seen[h] = struct{}{}
	}
	return nil
}
