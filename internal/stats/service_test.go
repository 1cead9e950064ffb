package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/chanstats/internal/msgraph"
)

func TestResolveChannelsMatchesTrimmedNames(t *testing.T) {
	graph := &mockGraph{
		listTeamsFunc: func(context.Context) ([]msgraph.Team, error) {
			return []msgraph.Team{
				{ID: "t1", DisplayName: "  Support North  "},
				{ID: "t2", DisplayName: "Engineering"},
				{ID: "t3", DisplayName: "Support South"},
			}, nil
		},
		listChannelsFunc: func(_ context.Context, teamID string) ([]msgraph.Channel, error) {
			return []msgraph.Channel{{ID: teamID + "-c1", DisplayName: "General"}}, nil
		},
	}

	svc := NewService(graph, discardLogger())
	refs, err := svc.ResolveChannels(context.Background(), []string{"Support North ", "Ops"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "t1", refs[0].TeamID)
	assert.Equal(t, "  Support North  ", refs[0].TeamName)
	assert.Equal(t, "General", refs[0].ChannelName)
}

func TestNormalizeNameFoldsIdeographicSpace(t *testing.T) {
	// Names pasted from Teams often carry U+3000 around CJK text.
	assert.Equal(t, normalizeName("HZL013客服群"), normalizeName("　HZL013客服群　"))
}

func TestBuildReportEndToEnd(t *testing.T) {
	// Channel A: 2 root messages, each with 1 reply. Channel B: 1 root
	// message, no replies. All in range. Total credits: 5.
	graph := &mockGraph{
		listTeamsFunc: func(context.Context) ([]msgraph.Team, error) {
			return []msgraph.Team{
				{ID: "ta", DisplayName: "Team A"},
				{ID: "tb", DisplayName: "Team B"},
			}, nil
		},
		listChannelsFunc: func(_ context.Context, teamID string) ([]msgraph.Channel, error) {
			return []msgraph.Channel{{ID: teamID + "-c", DisplayName: "General"}}, nil
		},
		listMessagesFunc: func(_ context.Context, teamID, _, _ string) (msgraph.MessagePage, error) {
			if teamID == "ta" {
				return msgraph.MessagePage{Messages: []msgraph.ChatMessage{
					msgAt("a1", "Alice", "2024-01-12T10:00:00Z"),
					msgAt("a2", "Bob", "2024-01-11T10:00:00Z"),
				}}, nil
			}
			return msgraph.MessagePage{Messages: []msgraph.ChatMessage{
				msgAt("b1", "Alice", "2024-01-10T10:00:00Z"),
			}}, nil
		},
		listRepliesFunc: func(_ context.Context, teamID, _, messageID, _ string) (msgraph.MessagePage, error) {
			if teamID == "ta" {
				return msgraph.MessagePage{Messages: []msgraph.ChatMessage{
					msgAt(messageID+"-r", "Carol", "2024-01-12T11:00:00Z"),
				}}, nil
			}
			return msgraph.MessagePage{}, nil
		},
	}

	svc := NewService(graph, discardLogger())
	svc.Clock = func() time.Time {
		return time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC) // window 01-08..01-14
	}

	report, err := svc.BuildReport(context.Background(), []string{"Team A", "Team B"})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 2, report.ChannelsScanned)
	keys := report.Matrix.ChannelKeys()
	assert.Equal(t, []string{"Team A - General", "Team B - General"}, keys)

	total := 0
	for _, row := range report.Matrix.Rows() {
		assert.Positive(t, row.Total)
		total += row.Total
	}
	assert.Equal(t, 5, total)

	assert.Equal(t, 2, report.Matrix.Total("Alice"))
	assert.Equal(t, 1, report.Matrix.Total("Bob"))
	assert.Equal(t, 2, report.Matrix.Total("Carol"))
}

func TestBuildReportNoMatchingChannels(t *testing.T) {
	graph := &mockGraph{
		listTeamsFunc: func(context.Context) ([]msgraph.Team, error) {
			return []msgraph.Team{{ID: "t1", DisplayName: "Engineering"}}, nil
		},
	}

	svc := NewService(graph, discardLogger())
	report, err := svc.BuildReport(context.Background(), []string{"Support"})
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestBuildReportNoMessagesInWindow(t *testing.T) {
	graph := &mockGraph{
		listTeamsFunc: func(context.Context) ([]msgraph.Team, error) {
			return []msgraph.Team{{ID: "t1", DisplayName: "Support"}}, nil
		},
		listChannelsFunc: func(_ context.Context, teamID string) ([]msgraph.Channel, error) {
			return []msgraph.Channel{{ID: "c1", DisplayName: "General"}}, nil
		},
		listMessagesFunc: func(context.Context, string, string, string) (msgraph.MessagePage, error) {
			return msgraph.MessagePage{Messages: []msgraph.ChatMessage{
				msgAt("m1", "Alice", "2020-01-01T00:00:00Z"), // long before any window
			}}, nil
		},
	}

	svc := NewService(graph, discardLogger())
	report, err := svc.BuildReport(context.Background(), []string{"Support"})
	require.NoError(t, err)
	assert.Nil(t, report)
}
