package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// teamsFilter restricts the groups listing to groups provisioned as Teams.
const teamsFilter = "resourceProvisioningOptions/Any(x:x eq 'Team')"

// ErrRetriesExhausted is returned when a request kept failing after the full
// retry budget. Callers must treat it as a truncated listing, not as a clean
// end of data.
var ErrRetriesExhausted = errors.New("retry budget exhausted")

// TokenSource supplies the bearer credential attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the Microsoft Graph REST API with rate limiting and
// retry-with-backoff. All listing operations follow the @odata.nextLink
// pagination contract.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokens      TokenSource
	limiter     *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	logger      *log.Logger

	// sleep is swapped out in tests to observe suspension without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the Graph endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithRateLimiter overrides the default rate limiter.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithMaxRetries overrides the default retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoffBase overrides the initial backoff duration for retries.
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a Client with sensible defaults.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		tokens:      tokens,
		limiter:     rate.NewLimiter(rate.Limit(4), 1),
		maxRetries:  3,
		backoffBase: time.Second,
		logger:      log.New(os.Stdout, "msgraph ", log.LstdFlags),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTeams returns every group provisioned as a Team, following pagination
// to the end.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	u := fmt.Sprintf("%s/groups?$filter=%s", c.baseURL, url.QueryEscape(teamsFilter))

	var teams []Team
	for u != "" {
		var page listEnvelope[Team]
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
		teams = append(teams, page.Value...)
		u = page.NextLink
	}
	return teams, nil
}

// ListChannels returns all channels of the given team.
func (c *Client) ListChannels(ctx context.Context, teamID string) ([]Channel, error) {
	u := fmt.Sprintf("%s/teams/%s/channels", c.baseURL, url.PathEscape(teamID))

	var channels []Channel
	for u != "" {
		var page listEnvelope[Channel]
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("list channels team=%s: %w", teamID, err)
		}
		channels = append(channels, page.Value...)
		u = page.NextLink
	}
	return channels, nil
}

// ListMessages fetches one page of the channel's root-message listing. Pass
// an empty nextLink for the first page; Graph returns messages newest first.
func (c *Client) ListMessages(ctx context.Context, teamID, channelID, nextLink string) (MessagePage, error) {
	u := nextLink
	if u == "" {
		u = fmt.Sprintf("%s/teams/%s/channels/%s/messages",
			c.baseURL, url.PathEscape(teamID), url.PathEscape(channelID))
	}
	var page listEnvelope[ChatMessage]
	if err := c.getJSON(ctx, u, &page); err != nil {
		return MessagePage{}, fmt.Errorf("list messages channel=%s: %w", channelID, err)
	}
	return MessagePage{Messages: page.Value, NextLink: page.NextLink}, nil
}

// ListReplies fetches one page of a root message's reply thread.
func (c *Client) ListReplies(ctx context.Context, teamID, channelID, messageID, nextLink string) (MessagePage, error) {
	u := nextLink
	if u == "" {
		u = fmt.Sprintf("%s/teams/%s/channels/%s/messages/%s/replies",
			c.baseURL, url.PathEscape(teamID), url.PathEscape(channelID), url.PathEscape(messageID))
	}
	var page listEnvelope[ChatMessage]
	if err := c.getJSON(ctx, u, &page); err != nil {
		return MessagePage{}, fmt.Errorf("list replies message=%s: %w", messageID, err)
	}
	return MessagePage{Messages: page.Value, NextLink: page.NextLink}, nil
}

// getJSON issues an authorized GET and decodes the response. HTTP 429 waits
// for the server-specified Retry-After and re-issues the request without
// consuming the retry budget; other failures retry with exponential backoff
// until maxRetries attempts have failed, then ErrRetriesExhausted surfaces.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doOnce(ctx, u, out)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var throttled *rateLimitedError
		if errors.As(err, &throttled) {
			// Honor the server's pause and retry the same request;
			// throttling never counts as a failed attempt.
			c.logger.Printf("throttled url=%s retry_after=%s", u, throttled.retryAfter)
			if serr := c.sleep(ctx, throttled.retryAfter); serr != nil {
				return serr
			}
			continue
		}

		lastErr = err
		attempt++
		c.logger.Printf("request failed url=%s attempt=%d/%d err=%v", u, attempt, attempts, err)
		if attempt >= attempts {
			break
		}
		backoff := c.backoffBase * time.Duration(1<<(attempt-1))
		if serr := c.sleep(ctx, backoff); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}

// rateLimitedError marks an HTTP 429 response together with the pause the
// server asked for.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
}

// doOnce performs a single request.
func (c *Client) doOnce(ctx context.Context, u string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &rateLimitedError{retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseRetryAfter reads an integer-seconds Retry-After value, defaulting to
// 5 seconds when absent or malformed.
func parseRetryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 5 * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
