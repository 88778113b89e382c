package datastore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // calendar zone must resolve on hosts without zoneinfo

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// CalendarZone is the zone calendar exports are scheduled in.
const CalendarZone = "Europe/Warsaw"

// fallbackCompanyName is used in step titles when the company is unknown.
const fallbackCompanyName = "Company"

// Upload describes a document to store in the blob store.
type Upload struct {
	Name         string
	MimeType     string
	Content      io.Reader
	FileType     types.FileType
	Description  string
	VersionLabel string
}

// UploadFile uploads a document into the active profile's folder and
// records it. If the record cannot be created the blob is deleted again.
func (s *Store) UploadFile(ctx context.Context, up Upload) (types.File, error) {
	root := s.sc.Config.DriveFolderID()
	if s.drive == nil || root == "" {
		return types.File{}, ErrDriveNotConfigured
	}
	draft := types.File{
		ProfileID:    s.Profile(),
		FileName:     up.Name,
		FileType:     orDefault(up.FileType, types.FilesSheet, "file_type"),
		Description:  up.Description,
		VersionLabel: up.VersionLabel,
	}
	if err := draft.Validate(); err != nil {
		return types.File{}, fmt.Errorf("upload file: %w", err)
	}

	folder, err := s.drive.ResolveUploadFolder(ctx, root, draft.ProfileID, draft.FileType)
	if err != nil {
		s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to resolve upload folder: %v", err)})
		return types.File{}, fmt.Errorf("resolving upload folder: %w", err)
	}
	blob, err := s.drive.Upload(ctx, up.Name, up.MimeType, up.Content, folder)
	if err != nil {
		s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to upload %s: %v", up.Name, err)})
		return types.File{}, fmt.Errorf("uploading %s: %w", up.Name, err)
	}
	draft.DriveFileID = blob.ID
	draft.DriveURL = blob.URL

	f, err := s.CreateFile(ctx, draft)
	if err != nil {
		if derr := s.drive.Delete(ctx, blob.ID); derr != nil {
			s.logger.Warn("orphaned blob", "blob", blob.ID, "err", derr)
		}
		return types.File{}, err
	}
	s.notifier.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Uploaded %s", up.Name)})
	return f, nil
}

// DeleteFileWithBlob removes the file record at position and then its
// blob. A failed blob delete only produces a warning.
func (s *Store) DeleteFileWithBlob(ctx context.Context, position int) error {
	f, ok := find(s.Snapshot().Files, func(f types.File) bool { return f.Position == position })
	if !ok {
		return fmt.Errorf("delete file at row %d: %w", position, types.ErrNotFound)
	}
	if err := s.DeleteFile(ctx, position); err != nil {
		return err
	}
	if f.DriveFileID == "" || s.drive == nil {
		return nil
	}
	if err := s.drive.Delete(ctx, f.DriveFileID); err != nil {
		s.logger.Warn("blob delete failed", "blob", f.DriveFileID, "err", err)
		s.notifier.Notify(Notice{Level: LevelWarning, Message: fmt.Sprintf("File record removed but the stored copy could not be deleted: %v", err)})
	}
	return nil
}

// ExportEventToCalendar inserts the event at position into the external
// calendar and stores the returned identifier on the event.
func (s *Store) ExportEventToCalendar(ctx context.Context, position int) (string, error) {
	if s.calendar == nil {
		return "", ErrCalendarNotConfigured
	}
	e, ok := find(s.Snapshot().CalendarEvents, func(e types.CalendarEvent) bool { return e.Position == position })
	if !ok {
		return "", fmt.Errorf("export event at row %d: %w", position, types.ErrNotFound)
	}
	loc, err := time.LoadLocation(CalendarZone)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", CalendarZone, err)
	}
	start, err := e.Start(loc)
	if err != nil {
		return "", fmt.Errorf("export event: %w", err)
	}
	duration := e.DurationMinutes
	if duration <= 0 {
		duration = types.DefaultDurationMinutes
	}
	id, err := s.insertEvent(ctx, types.CalendarEntry{
		Title:       e.Title,
		Description: e.Notes,
		Start:       start,
		End:         start.Add(time.Duration(duration) * time.Minute),
		TimeZone:    CalendarZone,
	})
	if err != nil {
		return "", err
	}
	e.CalendarEventID = id
	if err := s.UpdateCalendarEvent(ctx, e); err != nil {
		return id, err
	}
	return id, nil
}

// ExportStepToCalendar inserts the step at position into the external
// calendar, titled after the step, company and position, and stores the
// returned identifier on the step.
func (s *Store) ExportStepToCalendar(ctx context.Context, position int) (string, error) {
	if s.calendar == nil {
		return "", ErrCalendarNotConfigured
	}
	snap := s.Snapshot()
	st, ok := find(snap.AppSteps, func(st types.AppStep) bool { return st.Position == position })
	if !ok {
		return "", fmt.Errorf("export step at row %d: %w", position, types.ErrNotFound)
	}
	loc, err := time.LoadLocation(CalendarZone)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", CalendarZone, err)
	}
	start, err := types.ParseLocal(st.StepDate, st.StepTime, types.DefaultStepTime, loc)
	if err != nil {
		return "", fmt.Errorf("export step: %w", err)
	}
	app, _ := snap.Application(st.AppID)
	company, _ := snap.Company(app.CompanyID)
	id, err := s.insertEvent(ctx, types.CalendarEntry{
		Title:       stepTitle(st.StepName, company.Name, app.PositionTitle),
		Description: st.StepNotes,
		Location:    company.Address,
		Start:       start,
		End:         start.Add(types.StepDurationMinutes * time.Minute),
		TimeZone:    CalendarZone,
	})
	if err != nil {
		return "", err
	}
	st.CalendarEventID = id
	if err := s.UpdateAppStep(ctx, st); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Store) insertEvent(ctx context.Context, entry types.CalendarEntry) (string, error) {
	id, err := s.calendar.InsertEvent(ctx, entry)
	if err != nil {
		s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Calendar export failed: %v", err)})
		return "", fmt.Errorf("inserting calendar event: %w", err)
	}
	s.notifier.Notify(Notice{Level: LevelSuccess, Message: "Exported to calendar"})
	return id, nil
}

// ScheduleStep creates a step and, when it has a date, a matching tracker
// event. Steps of type other produce an event of type other, every other
// step an interview.
func (s *Store) ScheduleStep(ctx context.Context, st types.AppStep) (types.AppStep, *types.CalendarEvent, error) {
	st, err := s.CreateAppStep(ctx, st)
	if err != nil || st.StepDate == "" {
		return st, nil, err
	}
	snap := s.Snapshot()
	app, _ := snap.Application(st.AppID)
	company, _ := snap.Company(app.CompanyID)
	name := st.StepName
	if strings.TrimSpace(name) == "" {
		name = string(st.StepType)
	}
	eventType := types.EventInterview
	if st.StepType == types.StepOther {
		eventType = types.EventOther
	}
	ev, err := s.CreateCalendarEvent(ctx, types.CalendarEvent{
		AppID:           st.AppID,
		Title:           stepTitle(name, company.Name, app.PositionTitle),
		EventDate:       st.StepDate,
		EventTime:       st.StepTime,
		DurationMinutes: types.StepDurationMinutes,
		EventType:       eventType,
		Notes:           st.StepNotes,
	})
	if err != nil {
		return st, nil, err
	}
	return st, &ev, nil
}

func stepTitle(step, company, position string) string {
	if company == "" {
		company = fallbackCompanyName
	}
	return fmt.Sprintf("%s - %s - %s", step, company, position)
}

// EnrichCompany fills coordinates and the commute from the active
// profile's home address. The four location fields are cleared first, so
// without a geocoder or an address, or after a failed lookup, they are
// all nil.
func (s *Store) EnrichCompany(ctx context.Context, c types.Company) types.Company {
	c.Lat, c.Lng, c.DistanceKm, c.TravelTimeMin = nil, nil, nil, nil
	address := strings.TrimSpace(c.Address)
	if s.geo == nil || address == "" {
		return c
	}
	pt, err := s.geo.Geocode(ctx, address)
	if err != nil {
		s.enrichFailed(err)
		return c
	}
	home := s.sc.Config.HomeAddress(s.Profile())
	if home == "" {
		c.Lat, c.Lng = types.Float(pt.Lat), types.Float(pt.Lng)
		return c
	}
	commute, err := s.geo.Distance(ctx, home, address)
	if err != nil {
		s.enrichFailed(err)
		return c
	}
	c.Lat, c.Lng = types.Float(pt.Lat), types.Float(pt.Lng)
	c.DistanceKm, c.TravelTimeMin = types.Float(commute.DistanceKm), types.Float(commute.TravelTimeMin)
	return c
}

func (s *Store) enrichFailed(err error) {
	s.logger.Warn("company enrichment failed", "err", err)
	s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Could not compute company distance: %v", err)})
}
