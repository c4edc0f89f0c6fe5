package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "configs/popcorn.yaml"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "popcorn",
		Short: "Browse movies from TMDb",
		Long: "popcorn is a movie discovery tool backed by The Movie Database.\n" +
			"Run it without a subcommand to open the interactive browser.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newPopularCmd(),
		newSearchCmd(),
		newDiscoverCmd(),
		newMovieCmd(),
		newGenresCmd(),
		newConfigCmd(),
		newMCPServeCmd(),
		newBotCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "popcorn v%s\n", version)
		},
	}
}
