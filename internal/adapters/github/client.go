package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
	requestTimeout = 30 * time.Second
)

// Client talks to the GitHub REST v3 API. It implements ports.Source.
type Client struct {
	baseURL string
	http    *http.Client
}

// Verify interface compliance at compile time
var _ ports.Source = (*Client)(nil)

// New creates a Client. An empty token means unauthenticated access, which
// works for public repositories but gets a much lower rate-limit budget.
func New(token string) *Client {
	return NewWithBaseURL(token, defaultBaseURL)
}

// NewWithBaseURL creates a Client against a custom API endpoint (GitHub
// Enterprise, or a test server).
func NewWithBaseURL(token, baseURL string) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = requestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// getJSON performs one GET against url, decodes the body into out, and
// returns the URL of the next page from the Link header ("" when there is
// none). Non-2xx responses are mapped to tagged sync errors.
func (c *Client) getJSON(ctx context.Context, url string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", transientErrf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	logging.Logger.Debug("GitHub API request", "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transientErrf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transientErrf("read response from %s: %w", url, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return "", transientErrf("parse response from %s: %w", url, err)
	}

	return nextPageURL(resp.Header.Get("Link")), nil
}

// getAllPages follows the Link header until the collection is exhausted,
// appending every page into collect.
func getAllPages[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var all []T
	for url != "" {
		var page []T
		next, err := c.getJSON(ctx, url, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		url = next
	}
	return all, nil
}

// nextPageURL extracts the rel="next" target from a Link header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		target := strings.TrimSpace(section[0])
		return strings.Trim(target, "<>")
	}
	return ""
}

func (c *Client) repoURL(owner, name, suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", c.baseURL, owner, name, suffix)
}
