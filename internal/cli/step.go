package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newStepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage recruitment steps",
	}
	cmd.AddCommand(newStepAddCmd(a), newStepExportCmd(a))
	return cmd
}

func newStepAddCmd(a *app) *cobra.Command {
	var (
		st       types.AppStep
		stepType string
		export   bool
	)
	cmd := &cobra.Command{
		Use:   "add <app>",
		Short: "Add a step to an application",
		Long: `Add a recruitment step. A dated step also gets a tracker calendar event;
--export additionally sends the step to the Google calendar.`,
		Example: `  cvtracker step add 0195a3c4 --type technical --date 2025-03-20 --time 14:00 --export`,
		Args:    userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			x, err := findApplication(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			st.AppID = x.AppID
			st.StepType = types.StepType(stepType)

			created, event, err := s.ScheduleStep(ctx, st)
			if err != nil {
				return err
			}
			if export {
				step, err := findStep(s.Snapshot(), created.StepID)
				if err != nil {
					return err
				}
				if created.CalendarEventID, err = s.ExportStepToCalendar(ctx, step.Position); err != nil {
					return err
				}
			}
			return a.emit(created, func() {
				fmt.Fprintf(a.out, "Added %s step %s\n", created.StepType, shortID(created.StepID))
				if event != nil {
					fmt.Fprintf(a.out, "Scheduled event %s on %s\n", shortID(event.EventID), event.EventDate)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&stepType, "type", "", "step type: screening, phone_interview, technical, onsite, hr_interview, task, offer, other")
	f.StringVar(&st.StepName, "name", "", "step name")
	f.StringVar(&st.StepDate, "date", "", "date YYYY-MM-DD")
	f.StringVar(&st.StepTime, "time", "", "time HH:MM")
	f.StringVar(&st.StepNotes, "notes", "", "notes")
	f.BoolVar(&export, "export", false, "also add the step to the Google calendar")
	return cmd
}

func newStepExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <step>",
		Short: "Add a step to the Google calendar",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			st, err := findStep(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			id, err := s.ExportStepToCalendar(cmd.Context(), st.Position)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported step %s as %s\n", shortID(st.StepID), id)
			return nil
		},
	}
}
