package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{
		"":     FormatCSV,
		"csv":  FormatCSV,
		"CSV":  FormatCSV,
		" pdf": FormatPDF,
		"PDF":  FormatPDF,
	} {
		got, err := ParseFormat(raw)
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, want, got, "raw %q", raw)
	}

	_, err := ParseFormat("xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestRenderCSVPadsShortRows(t *testing.T) {
	data, err := Render(Table{
		Headers: []string{"Name", "Score", "Remarks"},
		Rows:    [][]string{{"Jo Ward", "85.00"}},
	}, FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Score,Remarks", lines[0])
	assert.Equal(t, "Jo Ward,85.00,", lines[1])
}

func TestRenderPDFHeader(t *testing.T) {
	data, err := Render(Table{
		Title:   "Grade Report",
		Headers: []string{"Name", "Score"},
		Rows:    [][]string{{"Jo Ward", "85.00"}},
	}, FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := Render(Table{}, FormatCSV)
	require.Error(t, err)
}
