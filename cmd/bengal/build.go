package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bengal-ssg/bengal/internal/build"
	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/health"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site",
	Long:  "Build runs the full pipeline: discovery, cascade, indexing, rendering,\nassets, post-processing, cache persistence, and health checks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Root().PersistentFlags().GetString("config")
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		strict, _ := cmd.Flags().GetBool("strict")
		profile, _ := cmd.Flags().GetString("profile")
		cfg.WithOverrides(map[string]any{
			"strict_mode": strict || cfg.StrictMode,
			"profile":     profile,
		})

		incremental, _ := cmd.Flags().GetBool("incremental")
		parallel, _ := cmd.Flags().GetBool("parallel")
		drafts, _ := cmd.Flags().GetBool("drafts")
		destination, _ := cmd.Flags().GetString("destination")

		projectRoot, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}

		log := newLogger(verbose)
		defer func() { _ = log.Sync() }()

		builder := build.New(cfg, build.Options{
			Incremental: incremental,
			Parallel:    parallel,
			Strict:      strict,
			Drafts:      drafts,
			Profile:     cfg.Health.Profile,
			OutputDir:   destination,
			ProjectRoot: projectRoot,
		}, log)

		stats, err := builder.Build()
		printSummary(cmd, stats)
		if err != nil {
			return err
		}

		if cfg.Health.Strict && health.HasErrors(stats.Health) {
			return &build.StrictError{Err: fmt.Errorf("health check reported errors")}
		}
		return nil
	},
}

// printSummary writes the human-readable build report: counts, timings, and
// the per-page error table.
func printSummary(cmd *cobra.Command, stats *build.Stats) {
	if stats == nil {
		return
	}
	out := cmd.OutOrStdout()

	if stats.Skipped {
		fmt.Fprintln(out, "No changes detected.")
		return
	}

	fmt.Fprintf(out, "Build complete: %d pages rendered, %d assets processed, %d files written in %s\n",
		stats.PagesRendered.Load(),
		stats.AssetsProcessed.Load(),
		stats.FilesWritten,
		stats.Duration.Round(1_000_000),
	)

	for _, w := range stats.Warnings() {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if errs := stats.Errors(); len(errs) > 0 {
		fmt.Fprintf(out, "%d page(s) failed:\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
	for _, r := range stats.Health {
		if r.Severity == health.SeverityInfo {
			continue
		}
		fmt.Fprintf(out, "  health %s [%s]: %s\n", r.Severity, r.Category, r.Message)
		if r.Suggestion != "" {
			fmt.Fprintf(out, "    suggestion: %s\n", r.Suggestion)
		}
	}
}

func init() {
	buildCmd.Flags().Bool("incremental", false, "reuse the build cache and re-render only changed pages")
	buildCmd.Flags().Bool("parallel", true, "render pages on a worker pool")
	buildCmd.Flags().Bool("strict", false, "abort on the first render error")
	buildCmd.Flags().String("profile", "", "health check profile (writer, theme-dev, dev)")
	buildCmd.Flags().Bool("drafts", false, "include draft content")
	buildCmd.Flags().StringP("destination", "d", "", "output directory override")

	rootCmd.AddCommand(buildCmd)
}
