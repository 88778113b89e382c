// Package cli implements the cvtracker command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/datastore"
	"github.com/mesh-intelligence/cvtracker/internal/session"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// exitError carries the exit code chosen for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by the user's input.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUserError, err: err}
}

// userErrorf formats a user error.
func userErrorf(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}

var userSentinels = []error{
	types.ErrInvalidData,
	types.ErrNotFound,
	types.ErrInvalidPosition,
	types.ErrUnknownProfile,
	session.ErrEmailNotAllowed,
	session.ErrNotAuthenticated,
	session.ErrSessionExpired,
	session.ErrInvalidTransition,
	datastore.ErrDriveNotConfigured,
	datastore.ErrCalendarNotConfigured,
}

// exitCode maps err to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	for _, s := range userSentinels {
		if errors.Is(err, s) {
			return exitUserError
		}
	}
	return exitSysError
}

// userArgs wraps a cobra argument validator so its failures exit 1.
func userArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return userError(v(cmd, args))
	}
}

// newRoot creates the top-level "cvtracker" command with global flags and
// all subcommands registered, sharing one app.
func newRoot() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "cvtracker",
		Short: "Track job applications in a Google spreadsheet",
		Long: "cvtracker keeps companies, applications, recruitment steps, documents and\n" +
			"calendar events in a spreadsheet shared between two profiles.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return userError(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory for the sqlite backend")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newProfileCmd(a),
		newSyncCmd(a),
		newListCmd(a),
		newCompanyCmd(a),
		newAppCmd(a),
		newStepCmd(a),
		newEventCmd(a),
		newFileCmd(a),
		newDriveCmd(a),
		newStatsCmd(a),
		newWatchCmd(a),
	)
	return root, a
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the exit code. The store and
// backend are released whether or not the command failed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, a := newRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}
