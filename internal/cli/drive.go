package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
)

func newDriveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Inspect the Google Drive folder tree",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Report missing profile and category folders",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			v := s.Snapshot().Drive
			if v == nil {
				return datastore.ErrDriveNotConfigured
			}
			return a.emit(v, func() {
				if !v.RootExists {
					fmt.Fprintln(a.out, "Root folder not found")
				}
				if len(v.Missing) == 0 {
					fmt.Fprintln(a.out, "Folder structure is complete")
					return
				}
				fmt.Fprintln(a.out, "Missing folders:")
				for _, m := range v.Missing {
					fmt.Fprintf(a.out, "  %s\n", m)
				}
			})
		},
	})
	return cmd
}
