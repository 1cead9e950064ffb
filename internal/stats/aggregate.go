package stats

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/ca-srg/chanstats/internal/msgraph"
)

// GraphAPI is the subset of the Graph client used by the statistics pipeline.
type GraphAPI interface {
	ListTeams(ctx context.Context) ([]msgraph.Team, error)
	ListChannels(ctx context.Context, teamID string) ([]msgraph.Channel, error)
	ListMessages(ctx context.Context, teamID, channelID, nextLink string) (msgraph.MessagePage, error)
	ListReplies(ctx context.Context, teamID, channelID, messageID, nextLink string) (msgraph.MessagePage, error)
}

// Tally maps sender identity to message count within one channel.
type Tally map[string]int

// Aggregator walks a channel's message listing and counts messages per
// sender.
//
// Precondition: the listing API returns messages in descending chronological
// order. The cutoff early-exit relies on that ordering; if it is violated,
// in-range messages past the first out-of-range one are not counted.
type Aggregator struct {
	graph  GraphAPI
	logger *log.Logger
}

// NewAggregator constructs an Aggregator. A nil logger falls back to a
// default stdout logger.
func NewAggregator(graph GraphAPI, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(os.Stdout, "aggregate ", log.LstdFlags)
	}
	return &Aggregator{graph: graph, logger: logger}
}

// Aggregate counts root messages and thread replies created at or after
// cutoff, credited to their senders. Root messages and replies count equally.
// A channel with no in-range messages yields an empty tally.
//
// When a fetch fails after the full retry budget the listing ends early with
// a truncation warning; the tally collected so far is still returned.
func (a *Aggregator) Aggregate(ctx context.Context, ch msgraph.ChannelRef, cutoff time.Time) (Tally, error) {
	tally := Tally{}

	nextLink := ""
	for {
		page, err := a.graph.ListMessages(ctx, ch.TeamID, ch.ChannelID, nextLink)
		if err != nil {
			if errors.Is(err, msgraph.ErrRetriesExhausted) {
				a.logger.Printf("WARNING: message listing truncated, results for %q are incomplete: %v", ch.Key(), err)
				return tally, nil
			}
			return nil, err
		}

		for _, msg := range page.Messages {
			if !a.inRange(msg, ch, cutoff) {
				// Listing is newest-first: everything from here on is
				// older than the cutoff.
				return tally, nil
			}
			tally[msg.Sender()]++

			if msg.ID != "" {
				if err := a.aggregateReplies(ctx, ch, msg.ID, cutoff, tally); err != nil {
					return nil, err
				}
			}
		}

		if page.NextLink == "" {
			return tally, nil
		}
		nextLink = page.NextLink
	}
}

// aggregateReplies credits every in-range reply of one root message into
// tally, with the same newest-first early exit as the root listing.
func (a *Aggregator) aggregateReplies(ctx context.Context, ch msgraph.ChannelRef, messageID string, cutoff time.Time, tally Tally) error {
	nextLink := ""
	for {
		page, err := a.graph.ListReplies(ctx, ch.TeamID, ch.ChannelID, messageID, nextLink)
		if err != nil {
			if errors.Is(err, msgraph.ErrRetriesExhausted) {
				a.logger.Printf("WARNING: reply listing truncated for message %s in %q: %v", messageID, ch.Key(), err)
				return nil
			}
			return err
		}

		for _, reply := range page.Messages {
			if !a.inRange(reply, ch, cutoff) {
				return nil
			}
			tally[reply.Sender()]++
		}

		if page.NextLink == "" {
			return nil
		}
		nextLink = page.NextLink
	}
}

// inRange reports whether the message was created at or after cutoff. An
// unparseable timestamp is treated as out of range so that bad data stops
// pagination instead of triggering an unbounded scan.
func (a *Aggregator) inRange(msg msgraph.ChatMessage, ch msgraph.ChannelRef, cutoff time.Time) bool {
	created, ok := msg.CreatedAt()
	if !ok {
		a.logger.Printf("WARNING: unparseable createdDateTime %q in %q, stopping pagination", msg.CreatedDateTime, ch.Key())
		return false
	}
	return !created.Before(cutoff)
}
