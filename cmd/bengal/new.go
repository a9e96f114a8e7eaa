package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bengal-ssg/bengal/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new site or content file",
}

var newSiteCmd = &cobra.Command{
	Use:   "site <directory>",
	Short: "Scaffold a new site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = args[0]
		}
		if err := scaffold.NewSite(args[0], title); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created new site in %s\n", args[0])
		return nil
	},
}

var newPostCmd = &cobra.Command{
	Use:   "post <title>",
	Short: "Create a new draft post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		rel, err := scaffold.NewPost(root, section, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", rel)
		return nil
	},
}

func init() {
	newSiteCmd.Flags().String("title", "", "site title (defaults to the directory name)")
	newPostCmd.Flags().String("section", "blog", "content section for the post")

	newCmd.AddCommand(newSiteCmd)
	newCmd.AddCommand(newPostCmd)
	rootCmd.AddCommand(newCmd)
}
