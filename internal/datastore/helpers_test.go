package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/internal/sqlite"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var errRemote = errors.New("remote store unavailable")

// faultyStore wraps a RowStore so tests can fail or hold individual
// calls. Ops are "list", "append", "update" and "delete".
type faultyStore struct {
	types.RowStore

	mu      sync.Mutex
	fail    map[string]error
	gate    chan struct{}
	started chan string
	calls   map[string]int

	listGate  chan struct{}
	listsLeft int
	listsRead chan struct{}
}

func (f *faultyStore) failNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

// hold makes every write block until the returned release is called. Each
// blocked write is announced on started.
func (f *faultyStore) hold() (started <-chan string, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan string, 8)
	gate := f.gate
	return f.started, func() { close(gate) }
}

// holdLists blocks the next n list calls after they have read their rows,
// so their results are stale by the time release is called. Each held call
// is announced on read.
func (f *faultyStore) holdLists(n int) (read <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listGate = make(chan struct{})
	f.listsLeft = n
	f.listsRead = make(chan struct{}, n)
	gate := f.listGate
	return f.listsRead, func() { close(gate) }
}

func (f *faultyStore) pauseList(ctx context.Context) error {
	f.mu.Lock()
	if f.listsLeft == 0 {
		f.mu.Unlock()
		return nil
	}
	f.listsLeft--
	gate, read := f.listGate, f.listsRead
	f.mu.Unlock()

	read <- struct{}{}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *faultyStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *faultyStore) check(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	delete(f.fail, op)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if op != "list" && gate != nil {
		started <- op
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *faultyStore) ListRows(ctx context.Context, ref types.SheetRef) ([]types.Row, error) {
	if err := f.check(ctx, "list"); err != nil {
		return nil, err
	}
	rows, err := f.RowStore.ListRows(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := f.pauseList(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (f *faultyStore) AppendRow(ctx context.Context, ref types.SheetRef, values map[string]string) error {
	if err := f.check(ctx, "append"); err != nil {
		return err
	}
	return f.RowStore.AppendRow(ctx, ref, values)
}

func (f *faultyStore) UpdateRow(ctx context.Context, ref types.SheetRef, position int, values map[string]string) error {
	if err := f.check(ctx, "update"); err != nil {
		return err
	}
	return f.RowStore.UpdateRow(ctx, ref, position, values)
}

func (f *faultyStore) DeleteRow(ctx context.Context, ref types.SheetRef, position int) error {
	if err := f.check(ctx, "delete"); err != nil {
		return err
	}
	return f.RowStore.DeleteRow(ctx, ref, position)
}

// recorder collects notices.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) levels() []Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Level, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Level)
	}
	return out
}

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *Store
	remote   *faultyStore
	backend  *sqlite.Backend
	sc       service.Context
	notices  *recorder
	services *service.Services
}

// setupStore builds a loaded Store for the mikolaj profile over a fresh
// local backend.
func setupStore(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	ctx := context.Background()
	svcs := service.NewServices()
	require.NoError(t, svcs.EnsureSheets(ctx, service.Context{Store: b, DefaultSpreadsheet: "local"}))

	remote := &faultyStore{RowStore: b, fail: map[string]error{}, calls: map[string]int{}}
	sc := service.Context{
		Store:              remote,
		ProfileID:          types.ProfileMikolaj,
		Config:             types.RemoteConfig{},
		DefaultSpreadsheet: "local",
	}
	notices := &recorder{}
	var seq int
	var seqMu sync.Mutex
	base := []Option{
		WithNotifier(notices),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}
	s := New(sc, append(base, opts...)...)
	require.NoError(t, s.LoadAll(ctx))
	return &fixture{store: s, remote: remote, backend: b, sc: sc, notices: notices, services: svcs}
}

// seedApplication creates a company and an application for it.
func (f *fixture) seedApplication(t *testing.T, title string) types.Application {
	t.Helper()
	ctx := context.Background()
	c, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme " + title, Address: "Prosta 1, Warszawa"})
	require.NoError(t, err)
	a, err := f.store.CreateApplication(ctx, types.Application{CompanyID: c.CompanyID, PositionTitle: title})
	require.NoError(t, err)
	got, ok := f.store.Snapshot().Application(a.AppID)
	require.True(t, ok)
	return got
}
