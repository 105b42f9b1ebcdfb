package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/generic/store"
	"github.com/warp/rating-engine/rating"
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Replay a rating script and print the results",
	Long: `Walk one or more flows from a YAML script, accept each result, and
print the ratings with the combined whole-body percent and benefit.

Script format:
  injury_date: "2024-03-15"
  ratings:
    - flow: knee
      steps:
        - choose: left
        - choose: exclusive
        - choose: patellar_shaving

Examples:
  ppdcalc rate --script knee.yaml`,
	RunE: runRate,
}

func init() {
	rateCmd.Flags().String("script", "", "rating script (YAML)")
	_ = rateCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("script")
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read script %s", path)
	}
	script, err := factory.ParseRatingScript(data)
	if err != nil {
		return err
	}

	svc := rating.NewService(store.NewMemory(), rating.WithLogger(zap.L()))
	ctx := cmd.Context()
	sess, err := svc.Replay(ctx, script)
	if err != nil {
		return err
	}
	sum, err := svc.Summary(ctx, sess.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Injury date:    %s\n", sess.InjuryDate.Short())
	fmt.Fprintf(out, "Schedule:       %s\n", sess.Schedule.Label)
	for i, r := range sess.Ratings {
		fmt.Fprintln(out)
		printRating(cmd, i+1, r)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Ratings:        %d (%d contributing)\n", sum.Count, sum.Contributing)
	fmt.Fprintf(out, "Whole body:     %.1f%%\n", sum.CombinedDisplay)
	printBenefit(cmd, sum.Benefit)
	return nil
}

func printRating(cmd *cobra.Command, n int, r generic.AcceptedRating) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%d %s: %s\n", n, r.FlowLabel, r.Result.Title)
	for _, b := range r.Result.Breakdown {
		fmt.Fprintf(out, "   %-60s %5.1f%%  %s\n", b.Label, b.Percent, b.Citation)
	}
	if r.Result.Capped() {
		fmt.Fprintf(out, "   pre-cap %.1f%%, capped to %.1f%%\n", r.Result.PreCapPercent, r.Result.PostCapPercent)
	}
	fmt.Fprintf(out, "   = %.1f%%\n", r.Result.Percent)
	for _, note := range r.Result.Notes {
		fmt.Fprintf(out, "   note: %s\n", note)
	}
}
