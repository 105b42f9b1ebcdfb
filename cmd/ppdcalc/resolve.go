package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/schedule"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the rule version and benefit table for an injury date",
	Long: `Resolve an injury date (YYYY-MM-DD) to the impairment schedule set and
the PPD benefit table in force on that date.

Examples:
  ppdcalc resolve --date 2024-03-15
  ppdcalc resolve --date 1990-06-01`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("date", "", "injury date, YYYY-MM-DD")
	_ = resolveCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	d, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	ctx := schedule.Context(d)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Injury date:    %s\n", d.Short())
	fmt.Fprintf(out, "Schedule:       %s\n", ctx.Schedule.Label)
	if t, ok := schedule.Table(ctx.BenefitTableID); ok {
		fmt.Fprintf(out, "Benefit table:  %s\n", t.Label)
	} else {
		fmt.Fprintf(out, "Benefit table:  none (%s)\n", generic.ReasonNoTable)
	}
	return nil
}

func dateFlag(cmd *cobra.Command) (generic.InjuryDate, error) {
	raw, _ := cmd.Flags().GetString("date")
	d := generic.ParseInjuryDate(raw)
	if d.IsZero() {
		return generic.InjuryDate{}, fmt.Errorf("%w: %q", generic.ErrInvalidInjuryDate, raw)
	}
	return d, nil
}
