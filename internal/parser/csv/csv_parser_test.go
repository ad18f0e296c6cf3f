package csv_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcsv "healthetl/internal/parser/csv"
	"healthetl/pkg/records"
)

func TestParse_KeepsHeaderSpellingAndOrder(t *testing.T) {
	in := "\uFEFFcountry,alpha_3_code, GDP Per Capita (USD) ,Population\n" +
		"United States,USA,\"$48,000\",\"309,000,000\"\n" +
		"Nowhere,,,\n"

	tb, skipped, err := pcsv.NewParser(pcsv.Options{}).Parse("unicef_metadata.csv", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, "unicef_metadata.csv", tb.Name)
	assert.Equal(t, []string{"country", "alpha_3_code", "GDP Per Capita (USD)", "Population"}, tb.Columns)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, records.Record{
		"country": "United States", "alpha_3_code": "USA",
		"GDP Per Capita (USD)": "$48,000", "Population": "309,000,000",
	}, tb.Rows[0])
	assert.Nil(t, tb.Rows[1]["alpha_3_code"])
}

func TestParse_Latin1(t *testing.T) {
	// "Côte d'Ivoire" with ô as the single latin1 byte 0xF4.
	in := []byte("country,alpha_3_code\nC\xf4te d'Ivoire,CIV\n")

	tb, _, err := pcsv.NewParser(pcsv.Options{Encoding: pcsv.Latin1}).Parse("meta", bytes.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "Côte d'Ivoire", tb.Rows[0]["country"])
}

func TestParse_SkipsBadRows(t *testing.T) {
	in := "a,b\n1,2\n3\n4,5,6\n7,8\n"
	tb, skipped, err := pcsv.NewParser(pcsv.Options{}).Parse("t", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, "7", tb.Rows[1]["a"])
}

func TestParse_OptionsAndHeaderErrors(t *testing.T) {
	in := "ISO3;Value\n usa ;1\n"
	tb, _, err := pcsv.NewParser(pcsv.Options{
		Comma:     ';',
		TrimSpace: true,
		HeaderMap: map[string]string{"ISO3": "alpha_3_code"},
	}).Parse("t", strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha_3_code", "Value"}, tb.Columns)
	assert.Equal(t, "usa", tb.Rows[0]["alpha_3_code"])

	_, _, err = pcsv.NewParser(pcsv.Options{}).Parse("t", strings.NewReader("a,a\n1,2\n"))
	assert.ErrorContains(t, err, `duplicate header "a"`)

	_, _, err = pcsv.NewParser(pcsv.Options{}).Parse("t", strings.NewReader(""))
	assert.ErrorContains(t, err, "read csv header")

	_, _, err = pcsv.NewParser(pcsv.Options{Encoding: "ebcdic"}).Parse("t", strings.NewReader("a\n"))
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestValidEncoding(t *testing.T) {
	for _, enc := range []string{"", "utf-8", "UTF8", "latin1", "windows-1252", "cp1252"} {
		assert.True(t, pcsv.ValidEncoding(enc), enc)
	}
	assert.False(t, pcsv.ValidEncoding("utf-16"))
}
