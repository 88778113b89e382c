package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Files.jsonl")
	content := "[\"file_id\",\"file_name\"]\n\n{not json\n[\"f1\",\"cv.pdf\"]\n{\"object\":true}\n[\"f2\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	header, rows, err := readJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"file_id", "file_name"}, header)
	assert.Equal(t, [][]string{{"f1", "cv.pdf"}, {"f2"}}, rows)
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, _, err := readJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Companies.jsonl")
	header := []string{"company_id", "name", "notes"}
	rows := [][]string{{"c1", "Zakład <Łódź> & Syn", ""}, {"c2", "Acme", "line1\nline2"}}

	require.NoError(t, writeJSONL(path, header, rows))

	gotHeader, gotRows, err := readJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, rows, gotRows)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSheetFileNames(t *testing.T) {
	path := sheetFile("/data", "_Config")
	assert.Equal(t, filepath.Join("/data", "_Config.jsonl"), path)
	assert.Equal(t, "_Config", sheetFromFile(path))
}
