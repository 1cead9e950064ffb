package msgraph

import (
	"fmt"
	"time"
)

// Team is a Microsoft 365 group that has been provisioned as a Team.
type Team struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Channel is a single channel inside a Team.
type Channel struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ChannelRef identifies a channel together with the display names used to
// build its report column key. It is resolved once and read-only afterwards.
type ChannelRef struct {
	TeamID      string
	ChannelID   string
	TeamName    string
	ChannelName string
}

// Key returns the composite report-column key for this channel.
func (c ChannelRef) Key() string {
	return fmt.Sprintf("%s - %s", c.TeamName, c.ChannelName)
}

// User is the user sub-object of a message "from" field.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// From identifies the author of a message. User is nil for application and
// system messages.
type From struct {
	User *User `json:"user"`
}

// ChatMessage is a channel message or a thread reply as returned by the
// Graph chatMessage resource. Only the fields the statistics pipeline needs
// are decoded; bodies are never retained.
type ChatMessage struct {
	ID              string `json:"id"`
	CreatedDateTime string `json:"createdDateTime"`
	From            *From  `json:"from"`
}

// UnknownSender is credited when a message carries no identifiable sender
// (system events, deleted users, application posts without a user identity).
const UnknownSender = "Unknown"

// Sender resolves the display identity of the message author. It prefers the
// user display name, falls back to the user id, and finally to UnknownSender.
// It never fails.
func (m ChatMessage) Sender() string {
	if m.From == nil || m.From.User == nil {
		return UnknownSender
	}
	if m.From.User.DisplayName != "" {
		return m.From.User.DisplayName
	}
	if m.From.User.ID != "" {
		return m.From.User.ID
	}
	return UnknownSender
}

// Graph emits createdDateTime either with a fractional-seconds component or
// as whole seconds. Both are UTC; no other formats are accepted.
var createdAtLayouts = []string{
	"2006-01-02T15:04:05.999999999Z",
	"2006-01-02T15:04:05Z",
}

// CreatedAt parses the message creation timestamp. The second return value is
// false when the timestamp is missing or matches neither accepted format.
func (m ChatMessage) CreatedAt() (time.Time, bool) {
	if m.CreatedDateTime == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, m.CreatedDateTime); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// MessagePage is one page of a message or reply listing. An empty NextLink
// means the listing is exhausted.
type MessagePage struct {
	Messages []ChatMessage
	NextLink string
}

// listEnvelope is the Graph collection envelope shared by every paged
// listing endpoint.
type listEnvelope[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}
