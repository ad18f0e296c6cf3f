package export

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"healthetl/internal/table"
)

// Preview renders the first limit rows of t as a box table. limit <= 0
// renders every row.
func Preview(w io.Writer, t *table.Table, limit int) {
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	n := t.Len()
	if limit > 0 && limit < n {
		n = limit
	}

	pt := prettytable.NewWriter()
	pt.SetOutputMirror(w)
	pt.SetStyle(prettytable.StyleLight)

	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	pt.AppendHeader(header)

	for i := 0; i < n; i++ {
		vals := t.Values(i)
		row := make(prettytable.Row, len(vals))
		for j, v := range vals {
			if v == nil {
				row[j] = "NULL"
				continue
			}
			row[j] = table.Format(v)
		}
		pt.AppendRow(row)
	}
	pt.Render()

	if n < t.Len() {
		_, _ = fmt.Fprintf(w, "(%s of %s rows)\n", humanize.Comma(int64(n)), humanize.Comma(int64(t.Len())))
		return
	}
	_, _ = fmt.Fprintf(w, "(%s rows)\n", humanize.Comma(int64(n)))
}
