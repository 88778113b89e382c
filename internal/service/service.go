// Package service combines a record codec with a RowStore to give typed
// list, create, update and delete operations for one sheet.
package service

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/cvtracker/internal/codec"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Context carries what every service call needs: the store, the active
// profile and the remote configuration that selects the spreadsheet.
type Context struct {
	Store     types.RowStore
	ProfileID types.ProfileID
	Config    types.RemoteConfig
	// DefaultSpreadsheet is used when Config names no SPREADSHEET_ID. It is
	// also the spreadsheet holding the configuration sheet.
	DefaultSpreadsheet string
}

// Spreadsheet returns the spreadsheet holding the entity sheets.
func (c Context) Spreadsheet() string {
	if id := c.Config.SpreadsheetID(); id != "" {
		return id
	}
	return c.DefaultSpreadsheet
}

// Ref addresses sheet inside the entity spreadsheet.
func (c Context) Ref(sheet string) types.SheetRef {
	return types.SheetRef{Spreadsheet: c.Spreadsheet(), Sheet: sheet}
}

// Service gives typed access to one sheet. Records implementing
// types.Scoped are filtered by the caller's profile on List.
type Service[T types.Record[T]] struct {
	codec  codec.Codec[T]
	scoped bool
}

// New creates a service for the codec's sheet.
func New[T types.Record[T]](c codec.Codec[T]) *Service[T] {
	var zero T
	_, scoped := any(zero).(types.Scoped)
	return &Service[T]{codec: c, scoped: scoped}
}

// Sheet returns the sheet name.
func (s *Service[T]) Sheet() string { return s.codec.Sheet() }

// Columns returns the sheet's header row.
func (s *Service[T]) Columns() []string { return s.codec.Columns() }

// Scoped reports whether List filters by profile.
func (s *Service[T]) Scoped() bool { return s.scoped }

// List decodes every row, attaches its position and drops records of
// other profiles.
func (s *Service[T]) List(ctx context.Context, sc Context) ([]T, error) {
	rows, err := sc.Store.ListRows(ctx, sc.Ref(s.Sheet()))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Sheet(), err)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec := s.codec.Decode(row.Values).AtPosition(row.Position)
		if s.scoped && any(rec).(types.Scoped).Profile() != sc.ProfileID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Create appends rec.
func (s *Service[T]) Create(ctx context.Context, sc Context, rec T) error {
	if err := sc.Store.AppendRow(ctx, sc.Ref(s.Sheet()), s.codec.Encode(rec)); err != nil {
		return fmt.Errorf("creating %s row: %w", s.Sheet(), err)
	}
	return nil
}

// Update overwrites the row at position with rec.
func (s *Service[T]) Update(ctx context.Context, sc Context, position int, rec T) error {
	if err := sc.Store.UpdateRow(ctx, sc.Ref(s.Sheet()), position, s.codec.Encode(rec)); err != nil {
		return fmt.Errorf("updating %s row %d: %w", s.Sheet(), position, err)
	}
	return nil
}

// Delete removes the row at position.
func (s *Service[T]) Delete(ctx context.Context, sc Context, position int) error {
	if err := sc.Store.DeleteRow(ctx, sc.Ref(s.Sheet()), position); err != nil {
		return fmt.Errorf("deleting %s row %d: %w", s.Sheet(), position, err)
	}
	return nil
}

// Services bundles one service per entity sheet.
type Services struct {
	Files          *Service[types.File]
	Companies      *Service[types.Company]
	Recruiters     *Service[types.Recruiter]
	Applications   *Service[types.Application]
	AppFiles       *Service[types.AppFile]
	AppRecruiters  *Service[types.AppRecruiter]
	AppSteps       *Service[types.AppStep]
	CalendarEvents *Service[types.CalendarEvent]
}

// NewServices builds the eight entity services.
func NewServices() *Services {
	return &Services{
		Files:          New(codec.Files),
		Companies:      New(codec.Companies),
		Recruiters:     New(codec.Recruiters),
		Applications:   New(codec.Applications),
		AppFiles:       New(codec.AppFiles),
		AppRecruiters:  New(codec.AppRecruiters),
		AppSteps:       New(codec.AppSteps),
		CalendarEvents: New(codec.CalendarEvents),
	}
}

// Schema is a sheet name with its header row.
type Schema struct {
	Sheet   string
	Columns []string
}

// Schemas lists every entity sheet and its columns, in load order.
func (s *Services) Schemas() []Schema {
	return []Schema{
		{s.Files.Sheet(), s.Files.Columns()},
		{s.Companies.Sheet(), s.Companies.Columns()},
		{s.Recruiters.Sheet(), s.Recruiters.Columns()},
		{s.Applications.Sheet(), s.Applications.Columns()},
		{s.AppFiles.Sheet(), s.AppFiles.Columns()},
		{s.AppRecruiters.Sheet(), s.AppRecruiters.Columns()},
		{s.AppSteps.Sheet(), s.AppSteps.Columns()},
		{s.CalendarEvents.Sheet(), s.CalendarEvents.Columns()},
	}
}

// EnsureSheets writes missing header rows for every entity sheet and the
// configuration sheet. Stores that cannot write headers are left alone.
func (s *Services) EnsureSheets(ctx context.Context, sc Context) error {
	hw, ok := sc.Store.(types.HeaderWriter)
	if !ok {
		return nil
	}
	cfgRef := types.SheetRef{Spreadsheet: sc.DefaultSpreadsheet, Sheet: types.ConfigSheet}
	if err := hw.EnsureHeaders(ctx, cfgRef, configColumns); err != nil {
		return fmt.Errorf("preparing %s: %w", types.ConfigSheet, err)
	}
	for _, schema := range s.Schemas() {
		if err := hw.EnsureHeaders(ctx, sc.Ref(schema.Sheet), schema.Columns); err != nil {
			return fmt.Errorf("preparing %s: %w", schema.Sheet, err)
		}
	}
	return nil
}
