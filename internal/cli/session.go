package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/session"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Google account",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.ClientID == "" {
				return userErrorf("%s is not configured", cfgKeyClientID)
			}
			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			if m.State() == session.StateAuthenticated {
				fmt.Fprintf(a.out, "Already signed in as %s\n", m.Info().User.Email)
				return nil
			}
			if err := m.Login(cmd.Context()); err != nil {
				return err
			}
			info := m.Info()
			fmt.Fprintf(a.out, "Signed in as %s (profile %s)\n", info.User.Email, info.Profile)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}
			if m.State() != session.StateAuthenticated {
				if err := a.vault.ClearOverride(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Not signed in")
				return nil
			}
			if err := m.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

// statusView is the status command output.
type statusView struct {
	Backend      string                 `json:"backend"`
	State        string                 `json:"state"`
	Email        string                 `json:"email,omitempty"`
	ExpiresAt    *time.Time             `json:"expires_at,omitempty"`
	Profile      types.ProfileID        `json:"profile"`
	UsedFallback bool                   `json:"used_fallback"`
	LastSyncAt   *time.Time             `json:"last_sync_at,omitempty"`
	Counts       map[string]int         `json:"counts,omitempty"`
	Drive        *types.DriveValidation `json:"drive,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and a summary of the loaded data",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view := statusView{Backend: a.cfg.Backend}
			if a.local() {
				view.State = "local"
				view.Profile = a.localProfile()
			} else {
				m, err := a.restore(ctx)
				if err != nil {
					return err
				}
				info := m.Info()
				view.State = info.State.String()
				view.Email = info.User.Email
				view.Profile = info.Profile
				view.UsedFallback = info.UsedFallback
				if info.State == session.StateAuthenticated {
					view.ExpiresAt = &info.ExpiresAt
				}
			}
			if view.State == "local" || view.State == session.StateAuthenticated.String() {
				s, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				snap := s.Snapshot()
				view.Profile = s.Profile()
				view.LastSyncAt = &snap.LastSyncAt
				view.Counts = counts(snap)
				view.Drive = snap.Drive
			}
			return a.emit(view, func() { a.printStatus(view) })
		},
	}
}

func (a *app) printStatus(v statusView) {
	fmt.Fprintf(a.out, "Backend:  %s\n", v.Backend)
	fmt.Fprintf(a.out, "Session:  %s\n", v.State)
	if v.Email != "" {
		fmt.Fprintf(a.out, "Account:  %s\n", v.Email)
	}
	if v.ExpiresAt != nil {
		fmt.Fprintf(a.out, "Expires:  %s\n", v.ExpiresAt.Local().Format(time.DateTime))
	}
	profile := string(v.Profile)
	if v.UsedFallback {
		profile += " (no email match, default)"
	}
	fmt.Fprintf(a.out, "Profile:  %s\n", profile)
	if v.LastSyncAt != nil {
		fmt.Fprintf(a.out, "Synced:   %s\n", v.LastSyncAt.Local().Format(time.DateTime))
		for _, name := range entityNames {
			fmt.Fprintf(a.out, "  %-14s %d\n", name, v.Counts[name])
		}
	}
	if v.Drive != nil && len(v.Drive.Missing) > 0 {
		fmt.Fprintf(a.out, "Drive:    %d folder(s) missing; run \"cvtracker drive validate\"\n", len(v.Drive.Missing))
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the active profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "use <profile>",
		Short:     "Switch the active profile",
		Args:      userArgs(cobra.ExactArgs(1)),
		ValidArgs: profileNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.ParseProfile(args[0])
			if err != nil {
				return userErrorf("%w: %q (want one of %v)", err, args[0], profileNames())
			}
			if a.local() {
				if err := a.vault.SaveOverride(p); err != nil {
					return err
				}
			} else {
				m, err := a.restore(cmd.Context())
				if err != nil {
					return err
				}
				if err := m.SetActiveProfile(p); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Active profile: %s\n", p)
			return nil
		},
	})
	return cmd
}

func profileNames() []string {
	out := make([]string, len(types.Profiles))
	for i, p := range types.Profiles {
		out[i] = string(p)
	}
	return out
}
