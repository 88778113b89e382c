package types

import "context"

// SheetRef names one sheet inside one spreadsheet.
type SheetRef struct {
	Spreadsheet string
	Sheet       string
}

func (r SheetRef) String() string { return r.Spreadsheet + "::" + r.Sheet }

// Row is one data row read from a sheet. Position is the row's 1-based
// index in the sheet; the header occupies position 1, so the first data
// row is at FirstDataPosition. Values is keyed by header name.
type Row struct {
	Position int
	Values   map[string]string
}

// RowStore is the tabular backend contract. Rows are addressed only by
// position; deleting a row shifts every later row up by one.
type RowStore interface {
	// ListRows returns every data row. A sheet without a header row yields
	// an empty list.
	ListRows(ctx context.Context, ref SheetRef) ([]Row, error)

	// AppendRow projects values onto the sheet's header order (missing keys
	// become "") and appends the result after the last row.
	AppendRow(ctx context.Context, ref SheetRef, values map[string]string) error

	// UpdateRow overwrites the full row at position.
	UpdateRow(ctx context.Context, ref SheetRef, position int, values map[string]string) error

	// DeleteRow removes the row at position.
	DeleteRow(ctx context.Context, ref SheetRef, position int) error
}

// HeaderWriter is implemented by stores that can create a sheet's header row.
type HeaderWriter interface {
	EnsureHeaders(ctx context.Context, ref SheetRef, columns []string) error
}

// Record is satisfied by every entity type. T is the entity type itself so
// that AtPosition can return a typed copy.
type Record[T any] interface {
	RowPosition() int
	AtPosition(position int) T
}
