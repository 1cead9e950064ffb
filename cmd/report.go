package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	appcfg "github.com/ca-srg/chanstats/internal/config"
	"github.com/ca-srg/chanstats/internal/csvreport"
	"github.com/ca-srg/chanstats/internal/mailer"
	"github.com/ca-srg/chanstats/internal/msgraph"
	"github.com/ca-srg/chanstats/internal/runlog"
	"github.com/ca-srg/chanstats/internal/stats"
)

var (
	reportOutputDir string
	reportTargets   string
	reportDryRun    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate last week's message statistics, write the CSV and mail it",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		logger := log.New(os.Stdout, "chanstats ", log.LstdFlags)

		cfg, err := appcfg.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if reportOutputDir != "" {
			cfg.OutputDir = reportOutputDir
		}
		if reportTargets != "" {
			cfg.TargetTeamsFile = reportTargets
			cfg.TargetTeams = nil
		}
		if !reportDryRun {
			if err := cfg.ValidateMail(); err != nil {
				return fmt.Errorf("mail configuration invalid: %w", err)
			}
		}

		targets, err := cfg.LoadTargets()
		if err != nil {
			return err
		}

		tokens := msgraph.NewClientCredentials(cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
		// Acquire a token before any fetching so bad credentials abort the
		// run up front.
		if _, err := tokens.Token(ctx); err != nil {
			return fmt.Errorf("credential check failed: %w", err)
		}

		graph := msgraph.NewClient(tokens,
			msgraph.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			msgraph.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)),
			msgraph.WithMaxRetries(cfg.MaxRetries),
			msgraph.WithLogger(logger),
		)

		svc := stats.NewService(graph, logger)
		report, err := svc.BuildReport(ctx, targets)
		if err != nil {
			return err
		}
		if report == nil {
			// Nothing collected; the service already logged why.
			return nil
		}

		path, err := csvreport.Write(report, cfg.OutputDir)
		if err != nil {
			return err
		}
		logger.Printf("report written to %s", path)

		if reportDryRun {
			logger.Printf("dry-run: skipping mail and run history")
			return nil
		}

		subject := fmt.Sprintf("Channel Message Statistics %s", report.Window.Label())
		if err := mailer.New(cfg).Send(ctx, subject, reportBody(report), []string{path}); err != nil {
			return err
		}
		logger.Printf("report mailed to %d recipients", len(cfg.MailTo)+len(cfg.MailCc))

		recordRun(logger, report, path)
		return nil
	},
}

// reportBody renders the HTML mail body.
func reportBody(report *stats.Report) string {
	return fmt.Sprintf(
		"<p>Weekly channel message statistics for <b>%s</b>.</p>"+
			"<p>%d senders across %d channels, %d messages in total. Details attached.</p>",
		report.Window.Label(),
		len(report.Matrix.Rows()),
		len(report.Matrix.ChannelKeys()),
		totalMessages(report),
	)
}

func totalMessages(report *stats.Report) int {
	total := 0
	for _, row := range report.Matrix.Rows() {
		total += row.Total
	}
	return total
}

// recordRun appends the run to the local history ledger. History is best
// effort: failures are logged, never fatal to a run that already delivered
// its report.
func recordRun(logger *log.Logger, report *stats.Report, path string) {
	store, err := runlog.NewStore()
	if err != nil {
		logger.Printf("WARNING: run history unavailable: %v", err)
		return
	}
	defer func() { _ = store.Close() }()

	_, err = store.Append(runlog.Record{
		WindowStart:   report.Window.Start,
		WindowEnd:     report.Window.End,
		Channels:      report.ChannelsScanned,
		Senders:       len(report.Matrix.Rows()),
		TotalMessages: totalMessages(report),
		ReportPath:    path,
		FinishedAt:    report.GeneratedAt,
	})
	if err != nil {
		logger.Printf("WARNING: failed to record run history: %v", err)
	}
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutputDir, "output", "o", "", "directory for the CSV report (default: OUTPUT_DIR)")
	reportCmd.Flags().StringVar(&reportTargets, "targets", "", "YAML file listing target team names (default: TARGET_TEAMS_FILE)")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "write the CSV but skip mail and run history")
}
