package msgraph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultScope = "https://graph.microsoft.com/.default"

// ClientCredentials acquires application tokens for the Graph API using the
// OAuth2 client-credentials flow. The underlying oauth2 source caches the
// token and refreshes it when it expires.
type ClientCredentials struct {
	config *clientcredentials.Config

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewClientCredentials builds a token source for the given tenant and
// application registration.
func NewClientCredentials(tenantID, clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID),
			Scopes:       []string{defaultScope},
		},
	}
}

// Token returns a bearer credential usable as an Authorization header value.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.source == nil {
		c.source = c.config.TokenSource(ctx)
	}
	source := c.source
	c.mu.Unlock()

	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("client credentials grant: %w", err)
	}
	return tok.AccessToken, nil
}

var _ TokenSource = (*ClientCredentials)(nil)
