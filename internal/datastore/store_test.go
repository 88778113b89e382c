package datastore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func TestCreateApplicationComputesRate(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	c, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.store.CreateApplication(ctx, types.Application{
		CompanyID:     c.CompanyID,
		PositionTitle: "Engineer",
		MonthlySalary: types.Float(12000),
	})
	require.NoError(t, err)

	apps := f.store.Snapshot().Applications
	require.Len(t, apps, 1)
	assert.Equal(t, "Engineer", apps[0].PositionTitle)
	require.NotNil(t, apps[0].HourlyRate)
	assert.Equal(t, 75.0, *apps[0].HourlyRate)
	assert.Equal(t, types.FirstDataPosition, apps[0].Position)
	assert.Equal(t, types.StatusSent, apps[0].Status)
	assert.Equal(t, types.PriorityNormal, apps[0].Priority)
	assert.Equal(t, types.ProfileMikolaj, apps[0].ProfileID)
	assert.Equal(t, testNow.Format(time.RFC3339), apps[0].CreatedAt)

	listed, err := f.services.Applications.List(ctx, f.sc)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 75.0, *listed[0].HourlyRate)
}

func TestDeletedApplicationDropsSteps(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	app := f.seedApplication(t, "Engineer")

	_, err := f.store.CreateAppStep(ctx, types.AppStep{AppID: app.AppID, StepType: types.StepTechnical, StepDate: "2025-03-20"})
	require.NoError(t, err)
	require.Len(t, f.store.Snapshot().AppSteps, 1)

	require.NoError(t, f.store.DeleteApplication(ctx, app.Position))
	require.NoError(t, f.store.LoadAll(ctx))

	snap := f.store.Snapshot()
	assert.Empty(t, snap.Applications)
	assert.Empty(t, snap.AppSteps)

	// The step row itself is still stored.
	steps, err := f.services.AppSteps.List(ctx, f.sc)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestFailedStatusUpdateRollsBack(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	app := f.seedApplication(t, "Engineer")
	require.Equal(t, types.StatusSent, app.Status)

	f.remote.failNext("update", errRemote)
	changed := app
	changed.Status = types.StatusInterview
	err := f.store.UpdateApplication(ctx, changed)

	require.Error(t, err)
	assert.ErrorIs(t, err, errRemote)
	var merr *MutationError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, opUpdate, merr.Op)

	got, ok := f.store.Snapshot().Application(app.AppID)
	require.True(t, ok)
	assert.Equal(t, types.StatusSent, got.Status)
	assert.Equal(t, []Level{LevelError}, f.notices.levels())
}

func TestRollbackRestoresExactState(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		mutate func(f *fixture, app types.Application) error
	}{
		{
			name: "create",
			op:   "append",
			mutate: func(f *fixture, _ types.Application) error {
				_, err := f.store.CreateRecruiter(context.Background(), types.Recruiter{FirstName: "Ada"})
				return err
			},
		},
		{
			name: "update",
			op:   "update",
			mutate: func(f *fixture, app types.Application) error {
				app.Notes = "changed"
				app.MonthlySalary = types.Float(9000)
				return f.store.UpdateApplication(context.Background(), app)
			},
		},
		{
			name: "delete",
			op:   "delete",
			mutate: func(f *fixture, app types.Application) error {
				return f.store.DeleteApplication(context.Background(), app.Position)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupStore(t)
			app := f.seedApplication(t, "Engineer")
			f.seedApplication(t, "Manager")
			before := f.store.Snapshot()

			f.remote.failNext(tt.op, errRemote)
			require.ErrorIs(t, tt.mutate(f, app), errRemote)

			assert.Equal(t, before, f.store.Snapshot())
		})
	}
}

func TestOptimisticChangeVisibleWhilePending(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	app := f.seedApplication(t, "Engineer")

	started, release := f.remote.hold()
	changed := app
	changed.Status = types.StatusInterview
	done := make(chan error, 1)
	go func() { done <- f.store.UpdateApplication(ctx, changed) }()

	assert.Equal(t, "update", <-started)
	got, _ := f.store.Snapshot().Application(app.AppID)
	assert.Equal(t, types.StatusInterview, got.Status)

	release()
	require.NoError(t, <-done)
	got, _ = f.store.Snapshot().Application(app.AppID)
	assert.Equal(t, types.StatusInterview, got.Status)
}

func TestPendingCreateUsesTemporaryPosition(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	started, release := f.remote.hold()
	done := make(chan error, 1)
	go func() {
		_, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme"})
		done <- err
	}()

	<-started
	pending := f.store.Snapshot().Companies
	require.Len(t, pending, 1)
	assert.Negative(t, pending[0].Position)

	release()
	require.NoError(t, <-done)
	loaded := f.store.Snapshot().Companies
	require.Len(t, loaded, 1)
	assert.Equal(t, types.FirstDataPosition, loaded[0].Position)
}

func TestValidationFailsBeforeRemoteCall(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	before := f.store.Snapshot()

	_, err := f.store.CreateCompany(ctx, types.Company{Name: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidData)
	_, err = f.store.CreateCalendarEvent(ctx, types.CalendarEvent{Title: "Call", EventDate: "14/03/2025"})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	assert.Zero(t, f.remote.count("append"))
	assert.Equal(t, before, f.store.Snapshot())
	assert.Empty(t, f.notices.levels())
}

func TestUpdateAndDeleteAddressing(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	err := f.store.UpdateCompany(ctx, types.Company{Position: 1, Name: "Header"})
	assert.ErrorIs(t, err, types.ErrInvalidPosition)
	err = f.store.DeleteCompany(ctx, 0)
	assert.ErrorIs(t, err, types.ErrInvalidPosition)

	err = f.store.UpdateCompany(ctx, types.Company{Position: 7, Name: "Ghost", ProfileID: types.ProfileMikolaj})
	assert.ErrorIs(t, err, types.ErrNotFound)
	err = f.store.DeleteCompany(ctx, 7)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Zero(t, f.remote.count("update"))
	assert.Zero(t, f.remote.count("delete"))
}

func TestLoadAllFiltersDanglingLinks(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	app := f.seedApplication(t, "Engineer")

	for _, l := range []types.AppFile{
		{AppID: app.AppID, FileID: "f1"},
		{AppID: "missing", FileID: "f2"},
	} {
		require.NoError(t, f.services.AppFiles.Create(ctx, f.sc, l))
	}
	require.NoError(t, f.services.AppRecruiters.Create(ctx, f.sc, types.AppRecruiter{AppID: "missing", RecruiterID: "r1"}))
	require.NoError(t, f.store.LoadAll(ctx))

	snap := f.store.Snapshot()
	require.Len(t, snap.AppFiles, 1)
	assert.Equal(t, "f1", snap.AppFiles[0].FileID)
	assert.Empty(t, snap.AppRecruiters)
}

func TestLoadAllIsolatesProfiles(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	for _, c := range []types.Company{
		{CompanyID: "c1", ProfileID: types.ProfileMikolaj, Name: "Acme"},
		{CompanyID: "c2", ProfileID: types.ProfileEmilka, Name: "Globex"},
	} {
		require.NoError(t, f.services.Companies.Create(ctx, f.sc, c))
	}
	require.NoError(t, f.services.CalendarEvents.Create(ctx, f.sc, types.CalendarEvent{
		EventID: "e1", ProfileID: types.ProfileEmilka, Title: "Call", EventDate: "2025-03-20",
	}))
	require.NoError(t, f.store.LoadAll(ctx))

	snap := f.store.Snapshot()
	require.Len(t, snap.Companies, 1)
	assert.Equal(t, "Acme", snap.Companies[0].Name)
	assert.Empty(t, snap.CalendarEvents)
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	f := setupStore(t)
	f.seedApplication(t, "Engineer")
	before := f.store.Snapshot()

	f.remote.failNext("list", errRemote)
	err := f.store.LoadAll(context.Background())

	assert.ErrorIs(t, err, errRemote)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, []Level{LevelError}, f.notices.levels())
}

func TestRefreshAllNotifies(t *testing.T) {
	f := setupStore(t)
	require.NoError(t, f.store.RefreshAll(context.Background()))

	st := f.store.Status()
	assert.False(t, st.Loading)
	assert.False(t, st.Refreshing)
	assert.Equal(t, testNow, st.LastSyncAt)
	assert.Equal(t, []Level{LevelSuccess}, f.notices.levels())
}

func TestClosedStoreRejectsWork(t *testing.T) {
	f := setupStore(t)
	f.store.Close()
	ctx := context.Background()

	_, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme"})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, f.store.LoadAll(ctx), types.ErrStoreDetached)
	assert.Empty(t, f.store.Snapshot().Companies)
}

func TestSameRecordUpdatesAreSerialized(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	app := f.seedApplication(t, "Engineer")

	started, release := f.remote.hold()
	first, second := app, app
	first.Notes = "first"
	second.Notes = "second"

	done := make(chan error, 2)
	go func() { done <- f.store.UpdateApplication(ctx, first) }()
	<-started
	go func() { done <- f.store.UpdateApplication(ctx, second) }()

	// The second update waits for the first to finish.
	select {
	case <-started:
		t.Fatal("second update reached the store while the first was pending")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	got, _ := f.store.Snapshot().Application(app.AppID)
	assert.Equal(t, "second", got.Notes)
}

func TestRunReloadsUntilCancelled(t *testing.T) {
	f := setupStore(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.store.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.remote.count("list") >= 16 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

// startStaleLoad begins a LoadAll whose eight list calls have all read
// their rows and are held until release is called.
func startStaleLoad(t *testing.T, f *fixture) (<-chan error, func()) {
	t.Helper()
	read, release := f.remote.holdLists(8)
	release = sync.OnceFunc(release)
	t.Cleanup(release)
	errc := make(chan error, 1)
	go func() { errc <- f.store.LoadAll(context.Background()) }()
	for range 8 {
		select {
		case <-read:
		case <-time.After(time.Second):
			t.Fatal("load did not start")
		}
	}
	return errc, release
}

func TestCreateReloadIgnoresLoadStartedBefore(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	c, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme"})
	require.NoError(t, err)

	done, release := startStaleLoad(t, f)
	app, err := f.store.CreateApplication(ctx, types.Application{CompanyID: c.CompanyID, PositionTitle: "Engineer"})
	require.NoError(t, err)
	_, ok := f.store.Snapshot().Application(app.AppID)
	assert.True(t, ok, "created application missing after reload")

	release()
	require.NoError(t, <-done)
	got, ok := f.store.Snapshot().Application(app.AppID)
	require.True(t, ok, "older load replaced the reloaded snapshot")
	assert.Equal(t, types.FirstDataPosition, got.Position)
}

func TestDeleteReloadIgnoresLoadStartedBefore(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	_, err := f.store.CreateCompany(ctx, types.Company{Name: "Acme"})
	require.NoError(t, err)
	_, err = f.store.CreateCompany(ctx, types.Company{Name: "Globex"})
	require.NoError(t, err)

	companyNames := func() []string {
		var out []string
		for _, c := range f.store.Snapshot().Companies {
			out = append(out, c.Name)
		}
		return out
	}

	done, release := startStaleLoad(t, f)
	require.NoError(t, f.store.DeleteCompany(ctx, types.FirstDataPosition))
	assert.Equal(t, []string{"Globex"}, companyNames())

	release()
	require.NoError(t, <-done)
	left := f.store.Snapshot().Companies
	require.Len(t, left, 1)
	assert.Equal(t, "Globex", left[0].Name)
	assert.Equal(t, types.FirstDataPosition, left[0].Position)

	// Positions still address the intended row.
	require.NoError(t, f.store.DeleteCompany(ctx, left[0].Position))
	assert.Empty(t, companyNames())
	stored, err := f.services.Companies.List(ctx, f.sc)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
