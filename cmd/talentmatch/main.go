package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/talentmatch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "talentmatch",
	Short: "Candidate and job posting matching service",
	Long: `talentmatch indexes candidate and posting texts as embeddings, scores
candidate/posting pairs and generates grounded feedback over retrieved context.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "talentmatch", version.String())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, lossCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
