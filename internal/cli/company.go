package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newCompanyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies",
	}
	cmd.AddCommand(newCompanyAddCmd(a), newCompanyRmCmd(a))
	return cmd
}

func newCompanyAddCmd(a *app) *cobra.Command {
	var (
		c        types.Company
		noEnrich bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a company",
		Long: `Add a company to the active profile.

When the tracker configuration holds a Maps API key and the company has an
address, its coordinates and the commute from the profile's home address are
filled in before saving.`,
		Example: `  cvtracker company add --name "Acme" --address "Prosta 1, Warszawa"`,
		Args:    userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if !noEnrich {
				c = s.EnrichCompany(ctx, c)
			}
			created, err := s.CreateCompany(ctx, c)
			if err != nil {
				return err
			}
			return a.emit(created, func() {
				fmt.Fprintf(a.out, "Added company %s (%s)\n", created.Name, shortID(created.CompanyID))
				if created.DistanceKm != nil {
					fmt.Fprintf(a.out, "Commute: %s km, %s min\n", num(created.DistanceKm), num(created.TravelTimeMin))
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Name, "name", "", "company name (required)")
	f.StringVar(&c.Industry, "industry", "", "industry")
	f.StringVar(&c.Website, "website", "", "website URL")
	f.StringVar(&c.CareersURL, "careers-url", "", "careers page URL")
	f.StringVar(&c.LinkedInURL, "linkedin-url", "", "LinkedIn page URL")
	f.StringVar(&c.Address, "address", "", "office address")
	f.StringVar(&c.Notes, "notes", "", "free-form notes")
	f.BoolVar(&noEnrich, "no-enrich", false, "skip geocoding and commute lookup")
	return cmd
}

func newCompanyRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <company>",
		Short: "Delete a company by id or name",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			c, err := findCompany(s.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteCompany(cmd.Context(), c.Position); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted company %s\n", c.Name)
			return nil
		},
	}
}
