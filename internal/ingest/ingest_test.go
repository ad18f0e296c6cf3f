package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/datasource/file"
	pcsv "healthetl/internal/parser/csv"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_AllSources(t *testing.T) {
	dir := t.TempDir()
	csvp := pcsv.NewParser(pcsv.Options{})
	inputs := []Input{
		{Name: "mortality", Source: file.NewLocal(write(t, dir, "m.csv", "alpha_3_code,obs_value\nUSA,1\nBAD\n")), Parser: csvp},
		{Name: "coverage", Source: file.NewLocal(write(t, dir, "c.csv", "alpha_3_code,obs_value\nUSA,85\nFRA,70\n")), Parser: csvp},
	}

	tables, rep, err := Load(context.Background(), inputs, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 2, tables["coverage"].Len())
	assert.Equal(t, "m.csv", tables["mortality"].Name)

	require.Len(t, rep.Files, 2)
	assert.Equal(t, "coverage", rep.Files[0].Name)
	assert.Equal(t, "mortality", rep.Files[1].Name)
	assert.Equal(t, 1, rep.Skipped())
}

func TestLoad_FirstErrorWins(t *testing.T) {
	dir := t.TempDir()
	inputs := []Input{
		{Name: "coverage", Source: file.NewLocal(write(t, dir, "c.csv", "a\n1\n")), Parser: pcsv.NewParser(pcsv.Options{})},
		{Name: "metadata", Source: file.NewLocal(filepath.Join(dir, "missing.csv")), Parser: pcsv.NewParser(pcsv.Options{})},
	}
	tables, _, err := Load(context.Background(), inputs, zerolog.Nop())
	assert.Nil(t, tables)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.ErrorContains(t, err, "ingest metadata")
}

func TestLoad_DuplicateName(t *testing.T) {
	in := Input{Name: "x", Source: file.NewLocal("x.csv"), Parser: pcsv.NewParser(pcsv.Options{})}
	_, _, err := Load(context.Background(), []Input{in, in}, zerolog.Nop())
	assert.ErrorContains(t, err, `duplicate input "x"`)
}

type stringSource struct{ name, body string }

func (s stringSource) Name() string { return s.name }
func (s stringSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func TestLoad_CustomSource(t *testing.T) {
	tables, _, err := Load(context.Background(), []Input{
		{Name: "metadata", Source: stringSource{"inline", "alpha_3_code\nUSA\n"}, Parser: pcsv.NewParser(pcsv.Options{})},
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "USA", tables["metadata"].Rows[0]["alpha_3_code"])
}
