package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/schedule"
)

var benefitCmd = &cobra.Command{
	Use:   "benefit",
	Short: "Estimate the PPD benefit for a whole-body percent",
	Long: `Look up the benefit bracket for a whole-body impairment percent and
compute the dollar estimate under the table for the injury date.

Examples:
  ppdcalc benefit --date 2024-03-15 --percent 5.5
  ppdcalc benefit --date 1996-01-01 --percent 25.6`,
	RunE: runBenefit,
}

func init() {
	f := benefitCmd.Flags()
	f.String("date", "", "injury date, YYYY-MM-DD")
	f.Float64("percent", 0, "whole-body impairment percent")
	_ = benefitCmd.MarkFlagRequired("date")
	_ = benefitCmd.MarkFlagRequired("percent")
	rootCmd.AddCommand(benefitCmd)
}

func runBenefit(cmd *cobra.Command, _ []string) error {
	d, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	pct, _ := cmd.Flags().GetFloat64("percent")

	printBenefit(cmd, schedule.Benefit(d, pct))
	return nil
}

func printBenefit(cmd *cobra.Command, est generic.BenefitEstimate) {
	out := cmd.OutOrStdout()
	if !est.Supported {
		fmt.Fprintf(out, "Benefit:        not available (%s)\n", est.Reason)
		return
	}
	fmt.Fprintf(out, "Table:          %s\n", est.TableLabel)
	fmt.Fprintf(out, "Bracket:        %s (selected at %g%%)\n", est.BracketLabel, est.SelectionPercent)
	fmt.Fprintf(out, "Base amount:    %s\n", schedule.FormatMoney(est.BaseAmount))
	fmt.Fprintf(out, "Benefit:        %s\n", schedule.FormatMoney(est.Dollars))
}
