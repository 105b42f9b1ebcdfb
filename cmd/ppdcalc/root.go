package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/rating-engine/config"

	// Flows register themselves.
	_ "github.com/warp/rating-engine/knee"
	_ "github.com/warp/rating-engine/lumbar"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ppdcalc",
	Short: "Minnesota PPD rating calculator",
	Long:  "Resolves rule versions for an injury date, estimates PPD benefits, and replays rating scripts through the knee and lumbar flows.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		logger, err := config.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default: $PPD_CONFIG)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
