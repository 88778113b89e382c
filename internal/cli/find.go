package cli

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// match returns the record whose identifier equals ref or, failing that,
// the only one starting with ref.
func match[T any](kind string, recs []T, id func(T) string, ref string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, userErrorf("%s id is required", kind)
	}
	var found []T
	for _, r := range recs {
		switch {
		case id(r) == ref:
			return r, nil
		case strings.HasPrefix(id(r), ref):
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return zero, fmt.Errorf("%s %q: %w", kind, ref, types.ErrNotFound)
	case 1:
		return found[0], nil
	}
	return zero, userErrorf("%s id %q is ambiguous (%d matches)", kind, ref, len(found))
}

func findApplication(s datastore.Snapshot, ref string) (types.Application, error) {
	return match("application", s.Applications, func(a types.Application) string { return a.AppID }, ref)
}

func findEvent(s datastore.Snapshot, ref string) (types.CalendarEvent, error) {
	return match("event", s.CalendarEvents, func(e types.CalendarEvent) string { return e.EventID }, ref)
}

func findFile(s datastore.Snapshot, ref string) (types.File, error) {
	return match("file", s.Files, func(f types.File) string { return f.FileID }, ref)
}

func findStep(s datastore.Snapshot, ref string) (types.AppStep, error) {
	return match("step", s.AppSteps, func(st types.AppStep) string { return st.StepID }, ref)
}

// findCompany accepts an identifier or an exact, case-insensitive name.
func findCompany(s datastore.Snapshot, ref string) (types.Company, error) {
	for _, c := range s.Companies {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			return c, nil
		}
	}
	return match("company", s.Companies, func(c types.Company) string { return c.CompanyID }, ref)
}
