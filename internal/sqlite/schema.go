package sqlite

// Schema DDL. Rows of a sheet are ordered by seq; a row's position is its
// rank within the sheet plus one for the header row.
const (
	createHeaders = `CREATE TABLE headers (
    sheet TEXT PRIMARY KEY,
    columns TEXT NOT NULL
);`

	createRows = `CREATE TABLE rows (
    sheet TEXT NOT NULL,
    seq INTEGER NOT NULL,
    cells TEXT NOT NULL,
    PRIMARY KEY (sheet, seq)
);`
)

var schemaDDL = []string{
	createHeaders,
	createRows,
}
