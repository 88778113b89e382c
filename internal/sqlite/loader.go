package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// loadAllJSONL reads every sheet file in dataDir into SQLite inside one
// transaction: either every sheet loads or the database stays empty.
func loadAllJSONL(db *sql.DB, dataDir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dataDir, "*"+jsonlExt))
	if err != nil {
		return 0, fmt.Errorf("listing sheet files: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaded := 0
	for _, path := range paths {
		header, rows, err := readJSONL(path)
		if err != nil {
			return 0, err
		}
		if header == nil {
			continue
		}
		if err := insertSheet(tx, sheetFromFile(path), header, rows); err != nil {
			return 0, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

func insertSheet(tx *sql.Tx, sheet string, header []string, rows [][]string) error {
	cols, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO headers (sheet, columns) VALUES (?, ?)`, sheet, string(cols)); err != nil {
		return fmt.Errorf("inserting header: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO rows (sheet, seq, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(sheet, i+1, string(cells)); err != nil {
			return fmt.Errorf("inserting row %d: %w", i+1, err)
		}
	}
	return nil
}
