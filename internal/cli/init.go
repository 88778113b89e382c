package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cvtracker/internal/paths"
	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize cvtracker configuration and sheets",
		Long: `Create the configuration directory and config.yaml, then write the header
row of every tracker sheet that has none.

With the sheets backend the headers are written only when signed in.`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend != "" {
				if err := (types.Config{Backend: backend, DataDir: a.cfg.DataDir}).Validate(); err != nil {
					return userErrorf("--backend: %w", err)
				}
				a.cfg.Backend = backend
			}
			return runInit(cmd, a)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "backend to configure: sheets or sqlite")
	return cmd
}

func runInit(cmd *cobra.Command, a *app) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	file := defaultConfigFile(a.flags.dataDir)
	file.Backend = a.cfg.Backend
	path := filepath.Join(a.configDir, paths.ConfigFileName)
	wrote, err := writeConfigIfMissing(path, file)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if wrote {
		fmt.Fprintf(a.out, "Wrote %s\n", path)
	}

	ctx := cmd.Context()
	var sc service.Context
	if a.local() {
		store, err := a.rowStore(ctx, "")
		if err != nil {
			return err
		}
		sc = service.Context{Store: store, DefaultSpreadsheet: a.cfg.SpreadsheetID}
	} else {
		if a.cfg.SpreadsheetID == "" {
			fmt.Fprintf(a.out, "Set %s in %s, then run init again to prepare the sheets.\n", cfgKeySpreadsheetID, path)
			return nil
		}
		m, err := a.restore(ctx)
		if err != nil {
			return err
		}
		token, err := m.Token()
		if err != nil {
			fmt.Fprintln(a.out, "Sign in with \"cvtracker login\", then run init again to prepare the sheets.")
			return nil
		}
		store, err := a.rowStore(ctx, token)
		if err != nil {
			return err
		}
		sc = service.Context{Store: store, Config: m.Info().Config, DefaultSpreadsheet: a.cfg.SpreadsheetID}
	}

	if err := service.NewServices().EnsureSheets(ctx, sc); err != nil {
		return fmt.Errorf("prepare sheets: %w", err)
	}
	fmt.Fprintln(a.out, "cvtracker initialized successfully")
	return nil
}
