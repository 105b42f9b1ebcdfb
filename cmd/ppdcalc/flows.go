package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/rating-engine/generic"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the registered body-part flows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tSCHEDULES\tNODES")
		for _, f := range generic.ListFlows() {
			schedules := strings.Join(f.Schedules, ",")
			if schedules == "" {
				schedules = "all"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", f.ID, f.Label, schedules, len(f.Nodes))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
}
