package table

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
)

// Digest fingerprints the table contents: column order, row order and every
// cell including its Go type. Two tables with the same Digest are identical
// for all downstream purposes.
func Digest(t *Table) uint64 {
	h := xxh3.New()
	var buf [8]byte

	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = h.Write(buf[:])
		_, _ = h.WriteString(s)
	}

	writeStr(t.Name)
	for _, c := range t.Columns {
		writeStr(c)
	}
	for _, row := range t.Rows {
		for _, c := range t.Columns {
			switch v := row[c].(type) {
			case nil:
				_, _ = h.Write([]byte{0})
			case string:
				_, _ = h.Write([]byte{1})
				writeStr(v)
			case int64:
				_, _ = h.Write([]byte{2})
				binary.LittleEndian.PutUint64(buf[:], uint64(v))
				_, _ = h.Write(buf[:])
			case float64:
				_, _ = h.Write([]byte{3})
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				_, _ = h.Write(buf[:])
			default:
				_, _ = h.Write([]byte{4})
				writeStr(fmt.Sprintf("%T:%v", v, v))
			}
		}
	}
	return h.Sum64()
}

// DigestString is Digest rendered as fixed-width hex.
func DigestString(t *Table) string {
	return fmt.Sprintf("%016x", Digest(t))
}
