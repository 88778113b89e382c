package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var companies = types.SheetRef{Sheet: types.CompaniesSheet}

// setupBackend attaches a Backend to a fresh data directory and detaches
// it when the test ends.
func setupBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

// seedCompanies writes a header and one row per name.
func seedCompanies(t *testing.T, b *Backend, names ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.EnsureHeaders(ctx, companies, []string{"company_id", "name"}))
	for _, n := range names {
		require.NoError(t, b.AppendRow(ctx, companies, map[string]string{"company_id": "id-" + n, "name": n}))
	}
}

func names(t *testing.T, b *Backend) []string {
	t.Helper()
	rows, err := b.ListRows(context.Background(), companies)
	require.NoError(t, err)
	var out []string
	for _, r := range rows {
		out = append(out, r.Values["name"])
	}
	return out
}

func TestAttachLifecycle(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "attach twice fails",
			check: func(t *testing.T) {
				b, dir := setupBackend(t)
				err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
				assert.ErrorIs(t, err, types.ErrAlreadyAttached)
			},
		},
		{
			name: "detach is idempotent",
			check: func(t *testing.T) {
				b, _ := setupBackend(t)
				assert.NoError(t, b.Detach())
				assert.NoError(t, b.Detach())
			},
		},
		{
			name: "operations after detach fail",
			check: func(t *testing.T) {
				b, _ := setupBackend(t)
				require.NoError(t, b.Detach())
				_, err := b.ListRows(context.Background(), companies)
				assert.ErrorIs(t, err, types.ErrStoreDetached)
				err = b.AppendRow(context.Background(), companies, nil)
				assert.ErrorIs(t, err, types.ErrStoreDetached)
			},
		},
		{
			name: "invalid config is rejected",
			check: func(t *testing.T) {
				b := NewBackend()
				assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSQLite}), types.ErrDataDirEmpty)
				assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSheets}), types.ErrBackendUnknown)
			},
		},
		{
			name: "second process is locked out",
			check: func(t *testing.T) {
				_, dir := setupBackend(t)
				other := NewBackend()
				err := other.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
				assert.ErrorIs(t, err, ErrLocked)
			},
		},
		{
			name: "lock is released on detach",
			check: func(t *testing.T) {
				b, dir := setupBackend(t)
				require.NoError(t, b.Detach())
				other := NewBackend()
				require.NoError(t, other.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
				assert.NoError(t, other.Detach())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.check)
	}
}

func TestListRowsEmpty(t *testing.T) {
	b, _ := setupBackend(t)
	rows, err := b.ListRows(context.Background(), companies)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAppendAndList(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b, "Acme", "Globex")

	rows, err := b.ListRows(context.Background(), companies)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, 3, rows[1].Position)
	assert.Equal(t, map[string]string{"company_id": "id-Globex", "name": "Globex"}, rows[1].Values)
}

func TestAppendProjectsOntoHeader(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b)
	ctx := context.Background()

	require.NoError(t, b.AppendRow(ctx, companies, map[string]string{"name": "Acme", "unknown": "x"}))
	rows, err := b.ListRows(ctx, companies)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"company_id": "", "name": "Acme"}, rows[0].Values)
}

func TestAppendWithoutHeader(t *testing.T) {
	b, _ := setupBackend(t)
	err := b.AppendRow(context.Background(), companies, map[string]string{"name": "Acme"})
	assert.ErrorIs(t, err, types.ErrNoHeader)
}

func TestUpdateRow(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b, "Acme", "Globex", "Initech")

	require.NoError(t, b.UpdateRow(context.Background(), companies, 3, map[string]string{"company_id": "id-Globex", "name": "Globex Corp"}))
	assert.Equal(t, []string{"Acme", "Globex Corp", "Initech"}, names(t, b))
}

func TestDeleteRowShiftsPositions(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b, "Acme", "Globex", "Initech")
	ctx := context.Background()

	require.NoError(t, b.DeleteRow(ctx, companies, 2))
	assert.Equal(t, []string{"Globex", "Initech"}, names(t, b))

	// Initech moved from position 4 to 3.
	rows, err := b.ListRows(ctx, companies)
	require.NoError(t, err)
	assert.Equal(t, 3, rows[1].Position)

	require.NoError(t, b.DeleteRow(ctx, companies, 3))
	assert.Equal(t, []string{"Globex"}, names(t, b))

	// Appends after deletes land at the end.
	require.NoError(t, b.AppendRow(ctx, companies, map[string]string{"name": "Hooli"}))
	assert.Equal(t, []string{"Globex", "Hooli"}, names(t, b))
}

func TestInvalidPositions(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b, "Acme")
	ctx := context.Background()

	for _, pos := range []int{-1, 0, 1, 3, 100} {
		assert.ErrorIs(t, b.UpdateRow(ctx, companies, pos, nil), types.ErrInvalidPosition, "update %d", pos)
		assert.ErrorIs(t, b.DeleteRow(ctx, companies, pos), types.ErrInvalidPosition, "delete %d", pos)
	}
	assert.Equal(t, []string{"Acme"}, names(t, b))
}

func TestEnsureHeadersKeepsExisting(t *testing.T) {
	b, _ := setupBackend(t)
	seedCompanies(t, b, "Acme")
	ctx := context.Background()

	require.NoError(t, b.EnsureHeaders(ctx, companies, []string{"other"}))
	rows, err := b.ListRows(ctx, companies)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rows[0].Values["name"])
}

func TestPersistenceAcrossAttach(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	seedCompanies(t, b, "Acme", "Globex")
	require.NoError(t, b.DeleteRow(context.Background(), companies, 2))
	require.NoError(t, b.Detach())

	data, err := os.ReadFile(filepath.Join(dir, types.CompaniesSheet+".jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{`["company_id","name"]`, `["id-Globex","Globex"]`}, lines)

	reopened := NewBackend()
	require.NoError(t, reopened.Attach(cfg))
	t.Cleanup(func() { reopened.Detach() })
	assert.Equal(t, []string{"Globex"}, names(t, reopened))
}

func TestFailedFileWriteRollsBackRow(t *testing.T) {
	b, dir := setupBackend(t)
	seedCompanies(t, b, "Acme", "Globex")
	ctx := context.Background()

	// A non-empty directory at the sheet path makes the rename fail.
	path := filepath.Join(dir, types.CompaniesSheet+".jsonl")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocked"), 0o755))

	var serr *types.StoreError
	err := b.AppendRow(ctx, companies, map[string]string{"company_id": "id-Initech", "name": "Initech"})
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "append", serr.Op)
	assert.Error(t, b.DeleteRow(ctx, companies, 2))
	assert.Error(t, b.UpdateRow(ctx, companies, 3, map[string]string{"name": "Globex Corp"}))

	assert.Equal(t, []string{"Acme", "Globex"}, names(t, b))
}
