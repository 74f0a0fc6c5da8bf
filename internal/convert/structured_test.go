package convert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avallone/convertd/pkg/logger"
)

func newTestDocumentConverter() *DocumentConverter {
	return NewDocumentConverter(logger.NewTestLogger(), Tools{Pandoc: "pandoc"})
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCSVToJSON(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.csv", "a,b\n1,2\n3,4\n")
	output := filepath.Join(t.TempDir(), "data.json")

	require.True(t, c.convertStructured(input, output, "csv", "json"))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(readFile(t, output)), &rows))
	assert.Equal(t, []map[string]string{
		{"a": "1", "b": "2"},
		{"a": "3", "b": "4"},
	}, rows)
}

func TestJSONToCSVSortedHeader(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.json", `[{"b": 2, "a": 1}, {"c": "x", "a": 3}]`)
	output := filepath.Join(t.TempDir(), "data.csv")

	require.True(t, c.convertStructured(input, output, "json", "csv"))

	lines := strings.Split(strings.TrimSpace(readFile(t, output)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a,b,c", lines[0])
	assert.Equal(t, "1,2,", lines[1])
	assert.Equal(t, "3,,x", lines[2])
}

func TestJSONToCSVRejectsNonArray(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.json", `{"not": "an array"}`)
	output := filepath.Join(t.TempDir(), "data.csv")

	assert.False(t, c.convertStructured(input, output, "json", "csv"))
}

func TestCSVJSONRoundTrip(t *testing.T) {
	c := newTestDocumentConverter()
	dir := t.TempDir()

	input := writeTemp(t, "data.csv", "a,b\n1,2\n3,4\n")
	asJSON := filepath.Join(dir, "data.json")
	backToCSV := filepath.Join(dir, "roundtrip.csv")

	require.True(t, c.convertStructured(input, asJSON, "csv", "json"))
	require.True(t, c.convertStructured(asJSON, backToCSV, "json", "csv"))

	assert.Equal(t, "a,b\n1,2\n3,4", strings.TrimSpace(readFile(t, backToCSV)))
}

func TestXMLToJSON(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.xml",
		`<library year="2024"><book>first</book><book>second</book></library>`)
	output := filepath.Join(t.TempDir(), "data.json")

	require.True(t, c.convertStructured(input, output, "xml", "json"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, output)), &doc))

	library, ok := doc["library"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"year": "2024"}, library["@attributes"])
	assert.Equal(t, []any{"first", "second"}, library["book"])
}

func TestJSONToXMLDeterministic(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.json", `{"person": {"name": "Ada", "born": 1815}}`)
	output := filepath.Join(t.TempDir(), "data.xml")

	require.True(t, c.convertStructured(input, output, "json", "xml"))

	got := readFile(t, output)
	assert.Contains(t, got, "<person>")
	assert.Contains(t, got, "<name>Ada</name>")
	assert.Contains(t, got, "<born>1815</born>")
	// Map keys render sorted, so born precedes name.
	assert.Less(t, strings.Index(got, "<born>"), strings.Index(got, "<name>"))
}

func TestCSVToXMLPivot(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.csv", "name,age\nAda,36\n")
	output := filepath.Join(t.TempDir(), "data.xml")

	require.True(t, c.convertStructured(input, output, "csv", "xml"))

	got := readFile(t, output)
	assert.Contains(t, got, "<name>Ada</name>")
	assert.Contains(t, got, "<age>36</age>")
}

func TestStructuredUnsupportedPair(t *testing.T) {
	c := newTestDocumentConverter()
	input := writeTemp(t, "data.csv", "a\n1\n")
	output := filepath.Join(t.TempDir(), "data.yaml")

	assert.False(t, c.convertStructured(input, output, "csv", "yaml"))
	assert.NoFileExists(t, output)
}

func TestScalarString(t *testing.T) {
	assert.Equal(t, "42", scalarString(float64(42)))
	assert.Equal(t, "4.2", scalarString(4.2))
	assert.Equal(t, "true", scalarString(true))
	assert.Equal(t, "hi", scalarString("hi"))
}
