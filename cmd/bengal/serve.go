package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bengal-ssg/bengal/internal/build"
	"github.com/bengal-ssg/bengal/internal/config"
	"github.com/bengal-ssg/bengal/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site locally, rebuilding on change",
	Long:  "Serve runs a local file server over the output directory and drives an\nincremental build whenever content, layouts, data, or assets change.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Root().PersistentFlags().GetString("config")
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		drafts, _ := cmd.Flags().GetBool("drafts")
		noReload, _ := cmd.Flags().GetBool("no-livereload")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		projectRoot, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}

		log := newLogger(verbose)
		defer func() { _ = log.Sync() }()

		rebuild := func() error {
			builder := build.New(cfg, build.Options{
				Incremental: true,
				Parallel:    true,
				Drafts:      drafts,
				ProjectRoot: projectRoot,
			}, log)
			_, err := builder.Build()
			return err
		}

		// Initial full build so there is something to serve.
		if err := rebuild(); err != nil {
			return err
		}

		srv := server.New(server.Options{
			Host:      host,
			Port:      port,
			OutputDir: filepath.Join(projectRoot, cfg.OutputDir),
			WatchDirs: []string{
				filepath.Join(projectRoot, cfg.ContentDir),
				filepath.Join(projectRoot, cfg.AssetsDir),
				filepath.Join(projectRoot, cfg.DataDir),
				filepath.Join(projectRoot, "layouts"),
				filepath.Join(projectRoot, "themes", cfg.Theme),
			},
			NoLiveReload: noReload,
		}, rebuild, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "bind address")
	serveCmd.Flags().Int("port", 1313, "port to listen on")
	serveCmd.Flags().Bool("drafts", false, "include draft content")
	serveCmd.Flags().Bool("no-livereload", false, "disable live reload injection")

	rootCmd.AddCommand(serveCmd)
}
