package datastore

import (
	"slices"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func find[T any](recs []T, match func(T) bool) (T, bool) {
	for _, r := range recs {
		if match(r) {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Company returns the company with id.
func (s Snapshot) Company(id string) (types.Company, bool) {
	return find(s.Companies, func(c types.Company) bool { return c.CompanyID == id })
}

// Application returns the application with id.
func (s Snapshot) Application(id string) (types.Application, bool) {
	return find(s.Applications, func(a types.Application) bool { return a.AppID == id })
}

// File returns the file with id.
func (s Snapshot) File(id string) (types.File, bool) {
	return find(s.Files, func(f types.File) bool { return f.FileID == id })
}

// Recruiter returns the recruiter with id.
func (s Snapshot) Recruiter(id string) (types.Recruiter, bool) {
	return find(s.Recruiters, func(r types.Recruiter) bool { return r.RecruiterID == id })
}

// Step returns the step with id.
func (s Snapshot) Step(id string) (types.AppStep, bool) {
	return find(s.AppSteps, func(st types.AppStep) bool { return st.StepID == id })
}

// Event returns the calendar event with id.
func (s Snapshot) Event(id string) (types.CalendarEvent, bool) {
	return find(s.CalendarEvents, func(e types.CalendarEvent) bool { return e.EventID == id })
}

// StepsFor returns the steps of an application in date order.
func (s Snapshot) StepsFor(appID string) []types.AppStep {
	var out []types.AppStep
	for _, st := range s.AppSteps {
		if st.AppID == appID {
			out = append(out, st)
		}
	}
	slices.SortStableFunc(out, types.CompareSteps)
	return out
}
