package main

import (
	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Personal book tracker with LLM-powered recommendations",
	Long: `Lectern is a personal book tracking service. Each user keeps a rated
library of the books they have read, and a language model fills in the gaps:

  - Genre classification for new books
  - Reading recommendations generated from your library
  - Search suggestions while you type

State lives in DefraDB, which lectern runs for you in a Docker container.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.lectern/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "lectern home directory (default: ~/.lectern)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
