package csv

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names accepted by Options.Encoding.
const (
	UTF8        = "utf-8"
	Latin1      = "latin1"
	Windows1252 = "windows-1252"
)

// decode wraps r so that it yields UTF-8.
func decode(r io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", UTF8, "utf8":
		return r, nil
	case Latin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case Windows1252, "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	}
	return nil, fmt.Errorf("csv: unsupported encoding %q", enc)
}

// ValidEncoding reports whether enc is accepted by the parser.
func ValidEncoding(enc string) bool {
	_, err := decode(strings.NewReader(""), enc)
	return err == nil
}
