package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "bengal",
	Short:         "An incremental, parallel static site generator",
	Long:          "Bengal turns markdown content, assets, and templates into a static site,\nwith sub-second incremental rebuilds on large sites.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "bengal.toml", "path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the CLI logger. BENGAL_NO_COLOR=1 forces the plain
// production encoder.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if os.Getenv("BENGAL_NO_COLOR") == "1" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
