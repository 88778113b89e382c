package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newAppCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "app",
		Aliases: []string{"application"},
		Short:   "Manage job applications",
	}
	cmd.AddCommand(newAppAddCmd(a), newAppStatusCmd(a), newAppRmCmd(a))
	return cmd
}

func newAppAddCmd(a *app) *cobra.Command {
	var (
		x                      types.Application
		company                string
		status, priority       string
		rating, salary, fileID string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an application",
		Example: `  cvtracker app add --company Acme --title "Go Engineer" --salary 20000
  cvtracker app add --company 0195a3c4 --title SRE --priority high --applied 2025-03-01`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if x.ExcitementRating, err = optFloat("rating", rating); err != nil {
				return err
			}
			if x.MonthlySalary, err = optFloat("salary", salary); err != nil {
				return err
			}
			x.Status = types.ApplicationStatus(status)
			x.Priority = types.Priority(priority)

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			snap := s.Snapshot()
			c, err := findCompany(snap, company)
			if err != nil {
				return err
			}
			x.CompanyID = c.CompanyID
			if fileID != "" {
				f, err := findFile(snap, fileID)
				if err != nil {
					return err
				}
				x.JobOfferFileID = f.FileID
			}
			created, err := s.CreateApplication(ctx, x)
			if err != nil {
				return err
			}
			return a.emit(created, func() {
				fmt.Fprintf(a.out, "Added application %s: %s at %s (%s)\n",
					shortID(created.AppID), created.PositionTitle, c.Name, created.Status)
				if created.HourlyRate != nil {
					fmt.Fprintf(a.out, "Hourly rate: %s\n", num(created.HourlyRate))
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&company, "company", "", "company id or name (required)")
	f.StringVar(&x.PositionTitle, "title", "", "position title (required)")
	f.StringVar(&x.PositionURL, "url", "", "job posting URL")
	f.StringVar(&status, "status", "", "status: sent, interview, waiting, offer, rejected (default sent)")
	f.StringVar(&priority, "priority", "", "priority: normal, high, promising (default normal)")
	f.StringVar(&rating, "rating", "", "excitement rating 1-5")
	f.StringVar(&salary, "salary", "", "monthly salary")
	f.StringVar(&fileID, "offer-file", "", "file id of the saved job offer")
	f.StringVar(&x.AppliedDate, "applied", "", "applied date YYYY-MM-DD")
	f.StringVar(&x.RoleDescription, "description", "", "role description")
	f.StringVar(&x.Notes, "notes", "", "free-form notes")
	return cmd
}

func newAppStatusCmd(a *app) *cobra.Command {
	var responseDate string
	cmd := &cobra.Command{
		Use:   "status <app> <status>",
		Short: "Change the status of an application",
		Example: `  cvtracker app status 0195a3c4 interview --response-date 2025-03-10`,
		Args: userArgs(cobra.ExactArgs(2)),
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
			x.Status = types.ApplicationStatus(args[1])
			if responseDate != "" {
				x.ResponseDate = responseDate
			}
			if err := s.UpdateApplication(ctx, x); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Application %s is now %s\n", shortID(x.AppID), x.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&responseDate, "response-date", "", "date the company answered, YYYY-MM-DD")
	return cmd
}

func newAppRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <app>",
		Short: "Delete an application",
		Long:  "Delete an application. Its steps, file and recruiter links stop being shown.",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			x, err := findApplication(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteApplication(cmd.Context(), x.Position); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted application %s\n", shortID(x.AppID))
			return nil
		},
	}
}
