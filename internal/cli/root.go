// Package cli implements the healthaccess command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthaccess/config"
)

// Options holds CLI-level configuration.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// DefaultOptions reads HEALTHACCESS_CONFIG, falling back to
// healthaccess.yaml in the working directory.
func DefaultOptions() Options {
	path := os.Getenv("HEALTHACCESS_CONFIG")
	if path == "" {
		path = "healthaccess.yaml"
	}
	return Options{ConfigPath: path, EnvFile: ".env"}
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "healthaccess",
		Short: "Request access to health metrics and read them",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnv(opts.EnvFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Config file")
	root.PersistentFlags().StringVar(&opts.EnvFile, "env-file", opts.EnvFile, "Environment file loaded before the config")

	root.AddCommand(newMetricsCommand())
	root.AddCommand(newImportCommand(&opts))
	root.AddCommand(newFetchCommand(&opts))
	return root
}
