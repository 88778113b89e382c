package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const jsonlExt = ".jsonl"

// sheetFile returns the JSONL path that persists sheet.
func sheetFile(dataDir, sheet string) string {
	return filepath.Join(dataDir, sheet+jsonlExt)
}

// sheetFromFile reverses sheetFile.
func sheetFromFile(path string) string {
	return strings.TrimSuffix(filepath.Base(path), jsonlExt)
}

// readJSONL reads a sheet file. The first line holds the header as a JSON
// array of column names; each further line holds one row as a JSON array
// of cell strings. Blank and malformed lines are skipped.
func readJSONL(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cells []string
		if err := json.Unmarshal(line, &cells); err != nil {
			continue
		}
		if first {
			header = cells
			first = false
			continue
		}
		rows = append(rows, cells)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return header, rows, nil
}

// writeJSONL atomically writes a sheet file using the temp-file, fsync,
// rename pattern.
func writeJSONL(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(header); err != nil {
		return fail("writing header", err)
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fail("writing row", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
