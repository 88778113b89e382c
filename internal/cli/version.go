package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the cvtracker release, overridden at link time.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/cvtracker"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cvtracker version",
		Annotations: map[string]string{
			annotationNoSetup: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "cvtracker v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
