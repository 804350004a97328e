package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "socagg",
		Short: "Aggregate, score and republish social media content",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(syncCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(hashtagsCmd())
	root.AddCommand(schedulersCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func syncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch all configured platforms and publish the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the platform caches")
	return cmd
}

func fetchCmd() *cobra.Command {
	var (
		platforms     []string
		maxPosts      int
		minEngagement int
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <keyword>",
		Short: "Search platforms for a keyword and rank the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(args[0], platforms, maxPosts, minEngagement, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "platforms to search (default: all)")
	cmd.Flags().IntVar(&maxPosts, "max", 10, "max posts to return")
	cmd.Flags().IntVar(&minEngagement, "min-engagement", 0, "minimum engagement score")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func hashtagsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "hashtags",
		Short: "Show the top hashtags by average engagement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashtags(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "max hashtags to show")
	return cmd
}

func schedulersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedulers",
		Short: "Run the keyword schedulers that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedulers()
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "server port")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "server port")
	return cmd
}
