package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var storageFlag string

var rootCmd = &cobra.Command{
	Use:   "blogd",
	Short: "PeaceSync community blog service",
	Long: `blogd serves the moderated community blog: posts with a pending/approved/rejected
moderation workflow, likes, comments and the filtered feed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage type (in-memory, postgres or sqlite); overrides STORAGE")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(feedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
