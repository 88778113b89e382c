package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
)

// Entity names accepted by list and reported by status.
var entityNames = []string{"applications", "companies", "files", "recruiters", "steps", "events"}

func counts(s datastore.Snapshot) map[string]int {
	return map[string]int{
		"applications": len(s.Applications),
		"companies":    len(s.Companies),
		"files":        len(s.Files),
		"recruiters":   len(s.Recruiters),
		"steps":        len(s.AppSteps),
		"events":       len(s.CalendarEvents),
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload every sheet from the backing store",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.RefreshAll(cmd.Context()); err != nil {
				return err
			}
			c := counts(s.Snapshot())
			return a.emit(c, func() {
				for _, name := range entityNames {
					fmt.Fprintf(a.out, "%-14s %d\n", name, c[name])
				}
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var appID string
	cmd := &cobra.Command{
		Use:       "list <entity>",
		Short:     "List records of one kind",
		ValidArgs: entityNames,
		Args:      userArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		Example: `  cvtracker list applications
  cvtracker list steps --app 0195a3c4
  cvtracker list companies --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			snap := s.Snapshot()
			if appID != "" {
				app, err := findApplication(snap, appID)
				if err != nil {
					return err
				}
				appID = app.AppID
			}
			return a.list(snap, args[0], appID)
		},
	}
	cmd.Flags().StringVar(&appID, "app", "", "only steps or events of this application")
	return cmd
}

func (a *app) list(snap datastore.Snapshot, entity, appID string) error {
	switch entity {
	case "applications":
		return a.emit(snap.Applications, func() {
			var rows [][]string
			for _, x := range snap.Applications {
				company := x.CompanyID
				if c, ok := snap.Company(x.CompanyID); ok {
					company = c.Name
				}
				rows = append(rows, []string{shortID(x.AppID), truncate(company, 24), truncate(x.PositionTitle, 32),
					string(x.Status), string(x.Priority), num(x.MonthlySalary), num(x.HourlyRate), x.AppliedDate})
			}
			a.table("No applications found.", []string{"ID", "COMPANY", "POSITION", "STATUS", "PRIORITY", "MONTHLY", "HOURLY", "APPLIED"}, rows)
		})
	case "companies":
		return a.emit(snap.Companies, func() {
			var rows [][]string
			for _, x := range snap.Companies {
				rows = append(rows, []string{shortID(x.CompanyID), truncate(x.Name, 32), truncate(x.Industry, 20),
					truncate(x.Address, 32), num(x.DistanceKm), num(x.TravelTimeMin)})
			}
			a.table("No companies found.", []string{"ID", "NAME", "INDUSTRY", "ADDRESS", "KM", "MIN"}, rows)
		})
	case "files":
		return a.emit(snap.Files, func() {
			var rows [][]string
			for _, x := range snap.Files {
				rows = append(rows, []string{shortID(x.FileID), truncate(x.FileName, 32), string(x.FileType), x.VersionLabel, x.DriveURL})
			}
			a.table("No files found.", []string{"ID", "NAME", "TYPE", "VERSION", "URL"}, rows)
		})
	case "recruiters":
		return a.emit(snap.Recruiters, func() {
			var rows [][]string
			for _, x := range snap.Recruiters {
				rows = append(rows, []string{shortID(x.RecruiterID), truncate(x.FullName(), 28), x.Email, x.Phone})
			}
			a.table("No recruiters found.", []string{"ID", "NAME", "EMAIL", "PHONE"}, rows)
		})
	case "steps":
		steps := snap.AppSteps
		if appID != "" {
			steps = snap.StepsFor(appID)
		}
		return a.emit(steps, func() {
			var rows [][]string
			for _, x := range steps {
				rows = append(rows, []string{shortID(x.StepID), shortID(x.AppID), string(x.StepType), truncate(x.StepName, 28),
					x.StepDate, x.StepTime, exported(x.CalendarEventID)})
			}
			a.table("No steps found.", []string{"ID", "APP", "TYPE", "NAME", "DATE", "TIME", "CALENDAR"}, rows)
		})
	case "events":
		events := snap.CalendarEvents
		if appID != "" {
			events = nil
			for _, e := range snap.CalendarEvents {
				if e.AppID == appID {
					events = append(events, e)
				}
			}
		}
		return a.emit(events, func() {
			var rows [][]string
			for _, x := range events {
				rows = append(rows, []string{shortID(x.EventID), truncate(x.Title, 32), string(x.EventType), x.EventDate, x.EventTime,
					strconv.Itoa(x.DurationMinutes), exported(x.CalendarEventID)})
			}
			a.table("No events found.", []string{"ID", "TITLE", "TYPE", "DATE", "TIME", "MIN", "CALENDAR"}, rows)
		})
	}
	return userErrorf("unknown entity %q", entity)
}

func exported(id string) string {
	if id == "" {
		return "-"
	}
	return "yes"
}
