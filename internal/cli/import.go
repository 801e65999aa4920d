package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthaccess/config"
	"github.com/jonwraymond/healthaccess/internal/fixture"
)

// ErrEphemeralStore indicates an import into a store that does not outlive
// the process.
var ErrEphemeralStore = errors.New("cli: import requires the sqlite store driver")

func newImportCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Load a fixture into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverSQLite {
				return ErrEphemeralStore
			}
			loc, err := cfg.Store.TimeLocation()
			if err != nil {
				return err
			}

			fx, err := fixture.Load(args[0])
			if err != nil {
				return err
			}

			store, err := cfg.Store.Open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := fx.Apply(cmd.Context(), store, time.Now().In(loc)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d samples into %s\n", len(fx.Samples), cfg.Store.Path)
			return nil
		},
	}
}
