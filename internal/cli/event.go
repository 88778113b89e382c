package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newEventCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage calendar events",
	}
	cmd.AddCommand(newEventAddCmd(a), newEventExportCmd(a))
	return cmd
}

func newEventAddCmd(a *app) *cobra.Command {
	var (
		e         types.CalendarEvent
		eventType string
		appRef    string
		export    bool
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a calendar event",
		Example: `  cvtracker event add --title "Send follow-up" --date 2025-03-21 --type follow_up --app 0195a3c4`,
		Args:    userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if appRef != "" {
				x, err := findApplication(s.Snapshot(), appRef)
				if err != nil {
					return err
				}
				e.AppID = x.AppID
			}
			e.EventType = types.EventType(eventType)
			created, err := s.CreateCalendarEvent(ctx, e)
			if err != nil {
				return err
			}
			if export {
				ev, err := findEvent(s.Snapshot(), created.EventID)
				if err != nil {
					return err
				}
				if created.CalendarEventID, err = s.ExportEventToCalendar(ctx, ev.Position); err != nil {
					return err
				}
			}
			return a.emit(created, func() {
				fmt.Fprintf(a.out, "Added event %s on %s\n", shortID(created.EventID), created.EventDate)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&e.Title, "title", "", "title (required)")
	f.StringVar(&e.EventDate, "date", "", "date YYYY-MM-DD (required)")
	f.StringVar(&e.EventTime, "time", "", "time HH:MM")
	f.IntVar(&e.DurationMinutes, "duration", types.DefaultDurationMinutes, "duration in minutes")
	f.StringVar(&eventType, "type", "", "event type: interview, preparation, follow_up, deadline, other")
	f.StringVar(&appRef, "app", "", "application id")
	f.StringVar(&e.Notes, "notes", "", "notes")
	f.BoolVar(&export, "export", false, "also add the event to the Google calendar")
	return cmd
}

func newEventExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <event>",
		Short: "Add an event to the Google calendar",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			e, err := findEvent(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			id, err := s.ExportEventToCalendar(cmd.Context(), e.Position)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported event %s as %s\n", shortID(e.EventID), id)
			return nil
		},
	}
}
