package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListRows returns the data rows of ref's sheet keyed by header.
func (b *Backend) ListRows(ctx context.Context, ref types.SheetRef) ([]types.Row, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	start := time.Now()
	rows, err := b.listRows(ctx, ref.Sheet)
	return rows, b.done("list", ref, start, err)
}

func (b *Backend) listRows(ctx context.Context, sheet string) ([]types.Row, error) {
	header, err := readHeader(ctx, b.db, sheet)
	if err != nil || header == nil {
		return nil, err
	}
	all, err := readCells(ctx, b.db, sheet)
	if err != nil {
		return nil, err
	}

	out := make([]types.Row, 0, len(all))
	for i, cells := range all {
		values := make(map[string]string, len(header))
		for j, col := range header {
			if col == "" {
				continue
			}
			if j < len(cells) {
				values[col] = cells[j]
			} else {
				values[col] = ""
			}
		}
		out = append(out, types.Row{Position: i + types.FirstDataPosition, Values: values})
	}
	return out, nil
}

// AppendRow adds a row after the last row of ref's sheet.
func (b *Backend) AppendRow(ctx context.Context, ref types.SheetRef, values map[string]string) error {
	return b.write(ctx, "append", ref, func(tx *sql.Tx) error {
		header, err := requireHeader(ctx, tx, ref.Sheet)
		if err != nil {
			return err
		}
		var last int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM rows WHERE sheet = ?`, ref.Sheet).Scan(&last); err != nil {
			return fmt.Errorf("reading last row: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO rows (sheet, seq, cells) VALUES (?, ?, ?)`,
			ref.Sheet, last+1, encodeCells(project(header, values)))
		return err
	})
}

// UpdateRow overwrites the row at position.
func (b *Backend) UpdateRow(ctx context.Context, ref types.SheetRef, position int, values map[string]string) error {
	return b.write(ctx, "update", ref, func(tx *sql.Tx) error {
		header, err := requireHeader(ctx, tx, ref.Sheet)
		if err != nil {
			return err
		}
		seq, err := seqAt(ctx, tx, ref.Sheet, position)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE rows SET cells = ? WHERE sheet = ? AND seq = ?`,
			encodeCells(project(header, values)), ref.Sheet, seq)
		return err
	})
}

// DeleteRow removes the row at position; later rows move up by one.
func (b *Backend) DeleteRow(ctx context.Context, ref types.SheetRef, position int) error {
	return b.write(ctx, "delete", ref, func(tx *sql.Tx) error {
		seq, err := seqAt(ctx, tx, ref.Sheet, position)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM rows WHERE sheet = ? AND seq = ?`, ref.Sheet, seq)
		return err
	})
}

// EnsureHeaders creates the sheet with columns as its header. An existing
// header is left untouched.
func (b *Backend) EnsureHeaders(ctx context.Context, ref types.SheetRef, columns []string) error {
	return b.write(ctx, "headers", ref, func(tx *sql.Tx) error {
		header, err := readHeader(ctx, tx, ref.Sheet)
		if err != nil || header != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO headers (sheet, columns) VALUES (?, ?)`,
			ref.Sheet, encodeCells(columns))
		return err
	})
}

// write runs fn in a transaction and rewrites the sheet's JSONL file before
// committing. A failed file write rolls the transaction back.
func (b *Backend) write(ctx context.Context, op string, ref types.SheetRef, fn func(*sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	start := time.Now()
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return b.persistSheet(ctx, tx, ref.Sheet)
	})
	return b.done(op, ref, start, err)
}

func (b *Backend) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// persistSheet writes sheet's content as seen by q to its file.
func (b *Backend) persistSheet(ctx context.Context, q querier, sheet string) error {
	header, err := readHeader(ctx, q, sheet)
	if err != nil {
		return err
	}
	rows, err := readCells(ctx, q, sheet)
	if err != nil {
		return err
	}
	if err := writeJSONL(sheetFile(b.config.DataDir, sheet), header, rows); err != nil {
		return fmt.Errorf("persisting %s: %w", sheet, err)
	}
	return nil
}

// done records the request and wraps failures in *types.StoreError.
func (b *Backend) done(op string, ref types.SheetRef, start time.Time, err error) error {
	b.metrics.ObserveStore(backendName, op, start, err)
	if err == nil {
		return nil
	}
	b.logger.Debug("request failed", "op", op, "sheet", ref.Sheet, "error", err)
	return &types.StoreError{Op: op, Sheet: ref.Sheet, Err: err}
}

func readHeader(ctx context.Context, q querier, sheet string) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT columns FROM headers WHERE sheet = ?`, sheet).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return decodeCells(raw)
}

func requireHeader(ctx context.Context, q querier, sheet string) ([]string, error) {
	header, err := readHeader(ctx, q, sheet)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, types.ErrNoHeader
	}
	return header, nil
}

func readCells(ctx context.Context, q querier, sheet string) ([][]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT cells FROM rows WHERE sheet = ? ORDER BY seq`, sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// seqAt maps a sheet position to the row's seq key.
func seqAt(ctx context.Context, q querier, sheet string, position int) (int, error) {
	if position < types.FirstDataPosition {
		return 0, types.ErrInvalidPosition
	}
	var seq int
	err := q.QueryRowContext(ctx,
		`SELECT seq FROM rows WHERE sheet = ? ORDER BY seq LIMIT 1 OFFSET ?`,
		sheet, position-types.FirstDataPosition).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, types.ErrInvalidPosition
	}
	return seq, err
}

func project(header []string, values map[string]string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = values[col]
	}
	return out
}

func encodeCells(cells []string) string {
	b, _ := json.Marshal(cells)
	return string(b)
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decoding cells: %w", err)
	}
	return cells, nil
}
