package datastore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const (
	syncLoad    = "load"
	syncRefresh = "refresh"
)

// driveUnverified is reported when the folder structure check itself fails.
const driveUnverified = "could not verify drive folder structure"

// LoadAll fetches every collection in parallel and replaces the snapshot.
// On failure the previous snapshot is kept. Concurrent calls share one
// fetch unless a create or delete finished in between.
func (s *Store) LoadAll(ctx context.Context) error {
	return s.load(ctx, syncLoad)
}

// RefreshAll is LoadAll for user-triggered syncs. It sets the refreshing
// flag instead of the loading flag and sends a success notice.
func (s *Store) RefreshAll(ctx context.Context) error {
	if err := s.load(ctx, syncRefresh); err != nil {
		return err
	}
	s.notifier.Notify(Notice{Level: LevelSuccess, Message: "Data refreshed"})
	return nil
}

// Run calls LoadAll every interval until ctx ends. Failed loads are
// logged and noticed; the loop keeps going.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.LoadAll(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("periodic load failed", "err", err)
			}
		}
	}
}

func (s *Store) load(ctx context.Context, kind string) error {
	if !s.setLoading(kind, true) {
		return types.ErrStoreDetached
	}
	defer s.setLoading(kind, false)

	// Loads that start after a create or delete must not join a fetch that
	// may have read the sheets before it.
	writes := s.writes.Load()
	v, err, _ := s.loads.Do(syncLoad+":"+strconv.FormatUint(writes, 10), func() (any, error) {
		return s.fetch(ctx)
	})
	at := s.now()
	s.metrics.Sync(kind, err, at)
	if err != nil {
		s.logger.Error("load failed", "kind", kind, "err", err)
		s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to load data: %v", err)})
		return fmt.Errorf("loading data: %w", err)
	}

	snap := v.(Snapshot)
	snap.LastSyncAt = at

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreDetached
	}
	if writes < s.snapWrites {
		s.logger.Debug("discarded stale snapshot", "writes", writes, "current", s.snapWrites)
		return nil
	}
	s.snap = snap
	s.snapWrites = writes
	s.generation++
	s.logger.Debug("snapshot replaced",
		"applications", len(snap.Applications),
		"companies", len(snap.Companies),
		"generation", s.generation)
	return nil
}

func (s *Store) setLoading(kind string, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed && on {
		return false
	}
	if kind == syncRefresh {
		s.refreshing = on
	} else {
		s.loading = on
	}
	return true
}

// fetch reads all eight collections and, when a blob store root is
// configured, validates its folder structure.
func (s *Store) fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.Files, err = s.svc.Files.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.Companies, err = s.svc.Companies.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.Recruiters, err = s.svc.Recruiters.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.Applications, err = s.svc.Applications.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.AppFiles, err = s.svc.AppFiles.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.AppRecruiters, err = s.svc.AppRecruiters.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.AppSteps, err = s.svc.AppSteps.List(gctx, s.sc); return })
	g.Go(func() (err error) { snap.CalendarEvents, err = s.svc.CalendarEvents.List(gctx, s.sc); return })
	if root := s.sc.Config.DriveFolderID(); root != "" && s.drive != nil {
		g.Go(func() error {
			v, err := s.drive.ValidateStructure(gctx, root)
			if err != nil {
				s.logger.Warn("drive validation failed", "err", err)
				v = types.DriveValidation{Missing: []string{driveUnverified}}
			}
			snap.Drive = &v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	apps := make(map[string]struct{}, len(snap.Applications))
	for _, a := range snap.Applications {
		apps[a.AppID] = struct{}{}
	}
	snap.AppFiles = linkedTo(apps, snap.AppFiles)
	snap.AppRecruiters = linkedTo(apps, snap.AppRecruiters)
	snap.AppSteps = linkedTo(apps, snap.AppSteps)
	return snap, nil
}

// linkedTo drops records whose application is not in apps.
func linkedTo[T types.AppLinked](apps map[string]struct{}, recs []T) []T {
	out := recs[:0]
	for _, r := range recs {
		if _, ok := apps[r.ApplicationID()]; ok {
			out = append(out, r)
		}
	}
	return out
}
