// Package parser defines the interface file formats implement to produce raw
// tables.
package parser

import (
	"io"

	"healthetl/internal/table"
)

// Parser reads one file into a raw table and reports how many rows it skipped.
type Parser interface {
	Parse(name string, r io.Reader) (*table.Table, int, error)
}
