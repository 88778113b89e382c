package sheets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var companiesRef = types.SheetRef{Spreadsheet: testSpreadsheet, Sheet: types.CompaniesSheet}

func TestListRows(t *testing.T) {
	tests := []struct {
		name  string
		grid  [][]string
		check func(t *testing.T, rows []types.Row)
	}{
		{
			name: "empty sheet yields no rows",
			grid: nil,
			check: func(t *testing.T, rows []types.Row) {
				assert.Empty(t, rows)
			},
		},
		{
			name: "header only yields no rows",
			grid: [][]string{{"company_id", "name"}},
			check: func(t *testing.T, rows []types.Row) {
				assert.Empty(t, rows)
			},
		},
		{
			name: "positions start after the header",
			grid: [][]string{{"company_id", "name"}, {"c1", "Acme"}, {"c2", "Globex"}},
			check: func(t *testing.T, rows []types.Row) {
				require.Len(t, rows, 2)
				assert.Equal(t, 2, rows[0].Position)
				assert.Equal(t, 3, rows[1].Position)
				assert.Equal(t, map[string]string{"company_id": "c2", "name": "Globex"}, rows[1].Values)
			},
		},
		{
			name: "short rows are padded",
			grid: [][]string{{"company_id", "name", "notes"}, {"c1"}},
			check: func(t *testing.T, rows []types.Row) {
				require.Len(t, rows, 1)
				assert.Equal(t, map[string]string{"company_id": "c1", "name": "", "notes": ""}, rows[0].Values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t, Options{})
			fake.addSheet(types.CompaniesSheet, 7, tt.grid...)

			rows, err := c.ListRows(context.Background(), companiesRef)
			require.NoError(t, err)
			tt.check(t, rows)
		})
	}
}

func TestAppendRowProjectsOntoHeader(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7, []string{"company_id", "name", "notes"})
	ctx := context.Background()

	require.NoError(t, c.AppendRow(ctx, companiesRef, map[string]string{"name": "Acme", "company_id": "c1", "extra": "x"}))
	require.NoError(t, c.AppendRow(ctx, companiesRef, map[string]string{"company_id": "c2"}))

	assert.Equal(t, [][]string{
		{"company_id", "name", "notes"},
		{"c1", "Acme", ""},
		{"c2", "", ""},
	}, fake.grid(types.CompaniesSheet))
	assert.Equal(t, 1, fake.count("header"), "header should be fetched once and cached")
}

func TestListRowsPrimesHeaderCache(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7, []string{"company_id", "name"}, []string{"c1", "Acme"})
	ctx := context.Background()

	_, err := c.ListRows(ctx, companiesRef)
	require.NoError(t, err)
	require.NoError(t, c.UpdateRow(ctx, companiesRef, 2, map[string]string{"company_id": "c1", "name": "Acme Corp"}))

	assert.Equal(t, 0, fake.count("header"))
	assert.Equal(t, []string{"c1", "Acme Corp"}, fake.grid(types.CompaniesSheet)[1])
}

func TestAppendRowWithoutHeader(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7)

	err := c.AppendRow(context.Background(), companiesRef, map[string]string{"name": "Acme"})
	assert.ErrorIs(t, err, types.ErrNoHeader)
}

func TestDeleteRowCachesSheetID(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 0,
		[]string{"company_id"}, []string{"c1"}, []string{"c2"}, []string{"c3"})
	fake.addSheet(types.FilesSheet, 9, []string{"file_id"})
	ctx := context.Background()

	require.NoError(t, c.DeleteRow(ctx, companiesRef, 3))
	require.NoError(t, c.DeleteRow(ctx, companiesRef, 2))

	assert.Equal(t, [][]string{{"company_id"}, {"c3"}}, fake.grid(types.CompaniesSheet))
	assert.Equal(t, 1, fake.count("metadata"))

	// The first lookup cached every sheet of the spreadsheet.
	require.NoError(t, c.DeleteRow(ctx, types.SheetRef{Spreadsheet: testSpreadsheet, Sheet: types.FilesSheet}, 2))
	assert.Equal(t, 1, fake.count("metadata"))
}

func TestDeleteRowUnknownSheet(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.FilesSheet, 9, []string{"file_id"})

	err := c.DeleteRow(context.Background(), companiesRef, 2)
	assert.ErrorIs(t, err, types.ErrSheetNotFound)
}

func TestInvalidPositions(t *testing.T) {
	c, _ := newTestClient(t, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, c.UpdateRow(ctx, companiesRef, 1, nil), types.ErrInvalidPosition)
	assert.ErrorIs(t, c.DeleteRow(ctx, companiesRef, 0), types.ErrInvalidPosition)
	assert.ErrorIs(t, c.DeleteRow(ctx, companiesRef, -3), types.ErrInvalidPosition)
}

func TestFailuresCarryStatusAndBody(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7, []string{"company_id"})
	fake.fail["get"] = http.StatusForbidden

	_, err := c.ListRows(context.Background(), companiesRef)
	require.Error(t, err)

	var storeErr *types.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusForbidden, storeErr.Status)
	assert.Equal(t, "list", storeErr.Op)
	assert.Equal(t, types.CompaniesSheet, storeErr.Sheet)
	assert.Contains(t, storeErr.Body, "injected failure")
	assert.Equal(t, 1, fake.count("get"), "failures are not retried")
}

func TestRequestTimeout(t *testing.T) {
	c, fake := newTestClient(t, Options{Timeout: 50 * time.Millisecond})
	fake.addSheet(types.CompaniesSheet, 7, []string{"company_id"})
	fake.block["get"] = true

	start := time.Now()
	_, err := c.ListRows(context.Background(), companiesRef)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEnsureHeaders(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7)
	fake.addSheet(types.FilesSheet, 8, []string{"file_id", "legacy"})
	ctx := context.Background()

	require.NoError(t, c.EnsureHeaders(ctx, companiesRef, []string{"company_id", "name"}))
	assert.Equal(t, [][]string{{"company_id", "name"}}, fake.grid(types.CompaniesSheet))

	filesRef := types.SheetRef{Spreadsheet: testSpreadsheet, Sheet: types.FilesSheet}
	require.NoError(t, c.EnsureHeaders(ctx, filesRef, []string{"file_id", "file_name"}))
	assert.Equal(t, [][]string{{"file_id", "legacy"}}, fake.grid(types.FilesSheet))

	// The written header is cached for later appends.
	require.NoError(t, c.AppendRow(ctx, companiesRef, map[string]string{"name": "Acme"}))
	assert.Equal(t, []string{"", "Acme"}, fake.grid(types.CompaniesSheet)[1])
}

func TestInvalidateCaches(t *testing.T) {
	c, fake := newTestClient(t, Options{})
	fake.addSheet(types.CompaniesSheet, 7, []string{"company_id"})
	ctx := context.Background()

	require.NoError(t, c.AppendRow(ctx, companiesRef, map[string]string{"company_id": "c1"}))
	c.InvalidateCaches()
	require.NoError(t, c.AppendRow(ctx, companiesRef, map[string]string{"company_id": "c2"}))
	assert.Equal(t, 2, fake.count("header"))
}
