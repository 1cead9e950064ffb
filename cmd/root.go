package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chanstats",
	Short: "chanstats - weekly message statistics for Teams channels",
	Long: `chanstats collects per-sender message counts (root messages and thread
replies) from configured Microsoft Teams channels over the most recent
complete Monday-Sunday week, writes a CSV report and emails it.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(historyCmd)
}
