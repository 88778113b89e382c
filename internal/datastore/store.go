// Package datastore holds the in-memory snapshot of every tracker
// collection and coordinates optimistic mutations against the backing
// store.
//
// A mutation applies its change to the snapshot before the remote call
// starts and undoes exactly that change if the call fails. Successful
// creates and deletes reload the whole snapshot, because only the backing
// store knows the resulting row positions; positions of sibling records
// are never renumbered locally. A reload replaces the snapshot wholesale;
// rollbacks that find the snapshot already replaced are skipped because
// the reloaded state is authoritative.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/cvtracker/internal/metrics"
	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Integration errors.
var (
	ErrDriveNotConfigured    = errors.New("blob store is not configured")
	ErrCalendarNotConfigured = errors.New("calendar is not configured")
)

// MutationError is returned when a remote mutation fails. The optimistic
// change has been rolled back and a notice was sent.
type MutationError struct {
	Entity string
	Op     string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Files          []types.File
	Companies      []types.Company
	Recruiters     []types.Recruiter
	Applications   []types.Application
	AppFiles       []types.AppFile
	AppRecruiters  []types.AppRecruiter
	AppSteps       []types.AppStep
	CalendarEvents []types.CalendarEvent
	Drive          *types.DriveValidation
	LastSyncAt     time.Time
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Files = slices.Clone(s.Files)
	out.Companies = slices.Clone(s.Companies)
	out.Recruiters = slices.Clone(s.Recruiters)
	out.Applications = slices.Clone(s.Applications)
	out.AppFiles = slices.Clone(s.AppFiles)
	out.AppRecruiters = slices.Clone(s.AppRecruiters)
	out.AppSteps = slices.Clone(s.AppSteps)
	out.CalendarEvents = slices.Clone(s.CalendarEvents)
	if s.Drive != nil {
		d := *s.Drive
		d.Missing = slices.Clone(s.Drive.Missing)
		out.Drive = &d
	}
	return out
}

// Status reports the load flags and the last successful sync.
type Status struct {
	Loading    bool
	Refreshing bool
	LastSyncAt time.Time
}

// DriveClient is the blob store the store validates and uploads to.
type DriveClient interface {
	ValidateStructure(ctx context.Context, rootID string) (types.DriveValidation, error)
	ResolveUploadFolder(ctx context.Context, rootID string, profile types.ProfileID, fileType types.FileType) (string, error)
	Upload(ctx context.Context, name, mimeType string, content io.Reader, folderID string) (types.Blob, error)
	Delete(ctx context.Context, blobID string) error
}

// CalendarClient creates events in the external calendar.
type CalendarClient interface {
	InsertEvent(ctx context.Context, entry types.CalendarEntry) (string, error)
}

// Geocoder resolves addresses and commute times.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.GeoPoint, error)
	Distance(ctx context.Context, origin, destination string) (types.Commute, error)
}

// Store owns the snapshot. Create one per session and Close it at logout.
type Store struct {
	mu         sync.RWMutex
	snap       Snapshot
	generation uint64
	snapWrites uint64
	loading    bool
	refreshing bool
	closed     bool

	svc      *service.Services
	sc       service.Context
	drive    DriveClient
	calendar CalendarClient
	geo      Geocoder
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	locks   keyedMutex
	tempSeq atomic.Int64
	writes  atomic.Uint64
	loads   singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithDrive enables folder validation during loads and file uploads.
func WithDrive(d DriveClient) Option { return func(s *Store) { s.drive = d } }

// WithCalendar enables calendar export.
func WithCalendar(c CalendarClient) Option { return func(s *Store) { s.calendar = c } }

// WithGeocoder enables company enrichment.
func WithGeocoder(g Geocoder) Option { return func(s *Store) { s.geo = g } }

// WithNotifier sets the receiver of user-facing notices.
func WithNotifier(n Notifier) Option { return func(s *Store) { s.notifier = n } }

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithMetrics sets the mutation and sync collector.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Store) { s.metrics = m } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

// New creates an empty store for the session described by sc. Call
// LoadAll to populate it.
func New(sc service.Context, opts ...Option) *Store {
	s := &Store{
		svc:      service.NewServices(),
		sc:       sc,
		notifier: NopNotifier{},
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		newID:    generateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "datastore", "profile", sc.ProfileID)
	return s
}

// generateID returns a UUID v7, falling back to v4.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Profile returns the profile the store serves.
func (s *Store) Profile() types.ProfileID { return s.sc.ProfileID }

// Config returns the remote configuration of the session.
func (s *Store) Config() types.RemoteConfig { return s.sc.Config }

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Status returns the load flags.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{Loading: s.loading, Refreshing: s.refreshing, LastSyncAt: s.snap.LastSyncAt}
}

// Close tears the store down. Later mutations and loads return
// types.ErrStoreDetached.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.snap = Snapshot{}
	s.generation++
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
