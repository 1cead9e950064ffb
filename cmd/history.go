package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ca-srg/chanstats/internal/runlog"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent report runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runlog.NewStore()
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer func() { _ = store.Close() }()

		records, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no report runs recorded yet")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FINISHED\tWINDOW\tCHANNELS\tSENDERS\tMESSAGES\tREPORT")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s - %s\t%d\t%d\t%d\t%s\n",
				rec.FinishedAt.Format("2006-01-02 15:04"),
				rec.WindowStart.Format("2006-01-02"),
				rec.WindowEnd.Format("2006-01-02"),
				rec.Channels,
				rec.Senders,
				rec.TotalMessages,
				rec.ReportPath,
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of runs to show")
}
