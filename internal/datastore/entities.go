package datastore

import (
	"context"

	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

var (
	files = collection[types.File]{
		name: "file",
		svc:  func(s *service.Services) *service.Service[types.File] { return s.Files },
		slot: func(s *Snapshot) *[]types.File { return &s.Files },
	}
	companies = collection[types.Company]{
		name: "company",
		svc:  func(s *service.Services) *service.Service[types.Company] { return s.Companies },
		slot: func(s *Snapshot) *[]types.Company { return &s.Companies },
	}
	recruiters = collection[types.Recruiter]{
		name: "recruiter",
		svc:  func(s *service.Services) *service.Service[types.Recruiter] { return s.Recruiters },
		slot: func(s *Snapshot) *[]types.Recruiter { return &s.Recruiters },
	}
	applications = collection[types.Application]{
		name: "application",
		svc:  func(s *service.Services) *service.Service[types.Application] { return s.Applications },
		slot: func(s *Snapshot) *[]types.Application { return &s.Applications },
	}
	appFiles = collection[types.AppFile]{
		name: "application file",
		svc:  func(s *service.Services) *service.Service[types.AppFile] { return s.AppFiles },
		slot: func(s *Snapshot) *[]types.AppFile { return &s.AppFiles },
	}
	appRecruiters = collection[types.AppRecruiter]{
		name: "application recruiter",
		svc:  func(s *service.Services) *service.Service[types.AppRecruiter] { return s.AppRecruiters },
		slot: func(s *Snapshot) *[]types.AppRecruiter { return &s.AppRecruiters },
	}
	appSteps = collection[types.AppStep]{
		name: "step",
		svc:  func(s *service.Services) *service.Service[types.AppStep] { return s.AppSteps },
		slot: func(s *Snapshot) *[]types.AppStep { return &s.AppSteps },
	}
	calendarEvents = collection[types.CalendarEvent]{
		name: "event",
		svc:  func(s *service.Services) *service.Service[types.CalendarEvent] { return s.CalendarEvents },
		slot: func(s *Snapshot) *[]types.CalendarEvent { return &s.CalendarEvents },
	}
)

func orDefault[E ~string](v E, sheet, column string) E {
	if v == "" {
		return E(types.DefaultValue(sheet, column))
	}
	return v
}

func (s *Store) id(current string) string {
	if current != "" {
		return current
	}
	return s.newID()
}

func (s *Store) stamp(current string) string {
	if current != "" {
		return current
	}
	return s.timestamp()
}

// CreateFile stores a new file record for the active profile and returns
// it with its identifier filled in.
func (s *Store) CreateFile(ctx context.Context, f types.File) (types.File, error) {
	f.FileID = s.id(f.FileID)
	f.ProfileID = s.Profile()
	f.FileType = orDefault(f.FileType, types.FilesSheet, "file_type")
	f.CreatedAt = s.stamp(f.CreatedAt)
	return f, create(ctx, s, files, f)
}

// UpdateFile overwrites the file at f.Position.
func (s *Store) UpdateFile(ctx context.Context, f types.File) error {
	return update(ctx, s, files, f)
}

// DeleteFile removes the file record at position. The blob is kept; see
// DeleteFileWithBlob.
func (s *Store) DeleteFile(ctx context.Context, position int) error {
	return remove(ctx, s, files, position)
}

// CreateCompany stores a new company for the active profile.
func (s *Store) CreateCompany(ctx context.Context, c types.Company) (types.Company, error) {
	c.CompanyID = s.id(c.CompanyID)
	c.ProfileID = s.Profile()
	c.CreatedAt = s.stamp(c.CreatedAt)
	return c, create(ctx, s, companies, c)
}

// UpdateCompany overwrites the company at c.Position.
func (s *Store) UpdateCompany(ctx context.Context, c types.Company) error {
	return update(ctx, s, companies, c)
}

// DeleteCompany removes the company at position.
func (s *Store) DeleteCompany(ctx context.Context, position int) error {
	return remove(ctx, s, companies, position)
}

// CreateRecruiter stores a new recruiter for the active profile.
func (s *Store) CreateRecruiter(ctx context.Context, r types.Recruiter) (types.Recruiter, error) {
	r.RecruiterID = s.id(r.RecruiterID)
	r.ProfileID = s.Profile()
	r.CreatedAt = s.stamp(r.CreatedAt)
	return r, create(ctx, s, recruiters, r)
}

// UpdateRecruiter overwrites the recruiter at r.Position.
func (s *Store) UpdateRecruiter(ctx context.Context, r types.Recruiter) error {
	return update(ctx, s, recruiters, r)
}

// DeleteRecruiter removes the recruiter at position.
func (s *Store) DeleteRecruiter(ctx context.Context, position int) error {
	return remove(ctx, s, recruiters, position)
}

// CreateApplication stores a new application for the active profile.
// Blank status and priority take their defaults and the hourly rate is
// derived from the monthly salary.
func (s *Store) CreateApplication(ctx context.Context, a types.Application) (types.Application, error) {
	a.AppID = s.id(a.AppID)
	a.ProfileID = s.Profile()
	a.Status = orDefault(a.Status, types.ApplicationsSheet, "status")
	a.Priority = orDefault(a.Priority, types.ApplicationsSheet, "priority")
	a.Recompute()
	a.CreatedAt = s.stamp(a.CreatedAt)
	a.UpdatedAt = s.timestamp()
	return a, create(ctx, s, applications, a)
}

// UpdateApplication overwrites the application at a.Position, refreshing
// the hourly rate and updated_at.
func (s *Store) UpdateApplication(ctx context.Context, a types.Application) error {
	a.Recompute()
	a.UpdatedAt = s.timestamp()
	return update(ctx, s, applications, a)
}

// DeleteApplication removes the application at position. Its links and
// steps stay in the backing store and disappear from the snapshot on the
// following reload.
func (s *Store) DeleteApplication(ctx context.Context, position int) error {
	return remove(ctx, s, applications, position)
}

// CreateAppFile attaches a file to an application.
func (s *Store) CreateAppFile(ctx context.Context, l types.AppFile) (types.AppFile, error) {
	l.AttachedAt = s.stamp(l.AttachedAt)
	return l, create(ctx, s, appFiles, l)
}

// UpdateAppFile overwrites the link at l.Position.
func (s *Store) UpdateAppFile(ctx context.Context, l types.AppFile) error {
	return update(ctx, s, appFiles, l)
}

// DeleteAppFile detaches the link at position.
func (s *Store) DeleteAppFile(ctx context.Context, position int) error {
	return remove(ctx, s, appFiles, position)
}

// CreateAppRecruiter links a recruiter to an application.
func (s *Store) CreateAppRecruiter(ctx context.Context, l types.AppRecruiter) (types.AppRecruiter, error) {
	return l, create(ctx, s, appRecruiters, l)
}

// UpdateAppRecruiter overwrites the link at l.Position.
func (s *Store) UpdateAppRecruiter(ctx context.Context, l types.AppRecruiter) error {
	return update(ctx, s, appRecruiters, l)
}

// DeleteAppRecruiter removes the link at position.
func (s *Store) DeleteAppRecruiter(ctx context.Context, position int) error {
	return remove(ctx, s, appRecruiters, position)
}

// CreateAppStep adds a recruitment step.
func (s *Store) CreateAppStep(ctx context.Context, st types.AppStep) (types.AppStep, error) {
	st.StepID = s.id(st.StepID)
	st.StepType = orDefault(st.StepType, types.AppStepsSheet, "step_type")
	st.CreatedAt = s.stamp(st.CreatedAt)
	return st, create(ctx, s, appSteps, st)
}

// UpdateAppStep overwrites the step at st.Position.
func (s *Store) UpdateAppStep(ctx context.Context, st types.AppStep) error {
	return update(ctx, s, appSteps, st)
}

// DeleteAppStep removes the step at position.
func (s *Store) DeleteAppStep(ctx context.Context, position int) error {
	return remove(ctx, s, appSteps, position)
}

// CreateCalendarEvent adds an event for the active profile.
func (s *Store) CreateCalendarEvent(ctx context.Context, e types.CalendarEvent) (types.CalendarEvent, error) {
	e.EventID = s.id(e.EventID)
	e.ProfileID = s.Profile()
	e.EventType = orDefault(e.EventType, types.CalendarEventsSheet, "event_type")
	if e.DurationMinutes <= 0 {
		e.DurationMinutes = types.DefaultDurationMinutes
	}
	e.CreatedAt = s.stamp(e.CreatedAt)
	return e, create(ctx, s, calendarEvents, e)
}

// UpdateCalendarEvent overwrites the event at e.Position.
func (s *Store) UpdateCalendarEvent(ctx context.Context, e types.CalendarEvent) error {
	return update(ctx, s, calendarEvents, e)
}

// DeleteCalendarEvent removes the event at position.
func (s *Store) DeleteCalendarEvent(ctx context.Context, position int) error {
	return remove(ctx, s, calendarEvents, position)
}
