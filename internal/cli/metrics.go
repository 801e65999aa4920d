package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthaccess/metric"
)

func newMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the metrics that can be requested",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tKIND\tUNIT\tREADS")
			for _, m := range metric.All() {
				unit := string(m.Unit())
				if unit == "" {
					unit = "-"
				}
				reads := "-"
				if m.IsAlias() {
					reads = m.Canonical().String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m, m.Label(), m.Kind(), unit, reads)
			}
			return w.Flush()
		},
	}
}
