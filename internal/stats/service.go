package stats

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ca-srg/chanstats/internal/msgraph"
)

// Service drives one full report cycle: window computation, channel
// resolution, sequential per-channel aggregation and matrix merging.
type Service struct {
	graph      GraphAPI
	aggregator *Aggregator
	logger     *log.Logger

	// Clock is replaceable in tests.
	Clock func() time.Time
}

// NewService constructs a Service. A nil logger falls back to a default
// stdout logger.
func NewService(graph GraphAPI, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "chanstats ", log.LstdFlags)
	}
	return &Service{
		graph:      graph,
		aggregator: NewAggregator(graph, logger),
		logger:     logger,
		Clock:      time.Now,
	}
}

// ResolveChannels lists every available team, keeps the ones whose display
// name matches a configured target name, and expands them into channel
// descriptors. Names are compared after NFKC normalization and trimming, so
// stray surrounding whitespace in either side never breaks a match.
func (s *Service) ResolveChannels(ctx context.Context, targetNames []string) ([]msgraph.ChannelRef, error) {
	teams, err := s.graph.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve teams: %w", err)
	}

	wanted := make(map[string]bool, len(targetNames))
	for _, name := range targetNames {
		wanted[normalizeName(name)] = true
	}

	var refs []msgraph.ChannelRef
	for _, team := range teams {
		if !wanted[normalizeName(team.DisplayName)] {
			continue
		}
		channels, err := s.graph.ListChannels(ctx, team.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve channels for team %q: %w", team.DisplayName, err)
		}
		for _, ch := range channels {
			refs = append(refs, msgraph.ChannelRef{
				TeamID:      team.ID,
				ChannelID:   ch.ID,
				TeamName:    team.DisplayName,
				ChannelName: ch.DisplayName,
			})
		}
	}
	return refs, nil
}

// BuildReport runs the full aggregation cycle for the most recent complete
// week. It returns nil (and no error) when no messages were collected; the
// caller must skip report serialization and mail in that case.
func (s *Service) BuildReport(ctx context.Context, targetNames []string) (*Report, error) {
	window := LastWeek(s.Clock())
	s.logger.Printf("reporting window: %s", window.Label())

	refs, err := s.ResolveChannels(ctx, targetNames)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		s.logger.Printf("WARNING: no channels matched the %d configured target names", len(targetNames))
		return nil, nil
	}

	matrix := NewMatrix()
	for _, ref := range refs {
		s.logger.Printf("processing: %s", ref.Key())
		tally, err := s.aggregator.Aggregate(ctx, ref, window.Start)
		if err != nil {
			return nil, fmt.Errorf("aggregate %q: %w", ref.Key(), err)
		}
		matrix.Merge(ref.Key(), tally)
	}

	if matrix.Empty() {
		s.logger.Printf("WARNING: no messages collected in window %s, skipping report", window.Label())
		return nil, nil
	}

	return &Report{
		Window:          window,
		Matrix:          matrix,
		GeneratedAt:     s.Clock().UTC(),
		ChannelsScanned: len(refs),
	}, nil
}

// normalizeName prepares a display name for matching: NFKC folds full-width
// spacing and compatibility forms, then surrounding whitespace is stripped.
func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFKC.String(name))
}
