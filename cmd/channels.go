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
	"github.com/ca-srg/chanstats/internal/msgraph"
	"github.com/ca-srg/chanstats/internal/stats"
)

var channelsTargets string

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Resolve and list the target channels without fetching messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		logger := log.New(os.Stdout, "chanstats ", log.LstdFlags)

		cfg, err := appcfg.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if channelsTargets != "" {
			cfg.TargetTeamsFile = channelsTargets
			cfg.TargetTeams = nil
		}
		targets, err := cfg.LoadTargets()
		if err != nil {
			return err
		}

		tokens := msgraph.NewClientCredentials(cfg.TenantID, cfg.ClientID, cfg.ClientSecret)
		if _, err := tokens.Token(ctx); err != nil {
			return fmt.Errorf("credential check failed: %w", err)
		}

		graph := msgraph.NewClient(tokens,
			msgraph.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			msgraph.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)),
			msgraph.WithMaxRetries(cfg.MaxRetries),
			msgraph.WithLogger(logger),
		)

		refs, err := stats.NewService(graph, logger).ResolveChannels(ctx, targets)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			logger.Printf("WARNING: no channels matched the %d configured target names", len(targets))
			return nil
		}

		for _, ref := range refs {
			fmt.Printf("%s\tteam=%s channel=%s\n", ref.Key(), ref.TeamID, ref.ChannelID)
		}
		return nil
	},
}

func init() {
	channelsCmd.Flags().StringVar(&channelsTargets, "targets", "", "YAML file listing target team names (default: TARGET_TEAMS_FILE)")
}
