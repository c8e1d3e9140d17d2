package github

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/ports"
)

// ListIssues returns a lazy stream over the repository's issues, state "all",
// sorted by update time. Pull requests are a subset of issues on GitHub, so
// this is also the pull-request discovery stream.
func (c *Client) ListIssues(ctx context.Context, owner, name string, opts ports.ListIssuesOptions) ports.IssueStream {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("sort", "updated")
	q.Set("per_page", fmt.Sprintf("%d", perPage))
	if opts.NewestFirst {
		q.Set("direction", "desc")
	} else {
		q.Set("direction", "asc")
	}
	if opts.Since != nil {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}

	return &issueStream{
		client:  c,
		nextURL: c.repoURL(owner, name, "/issues?"+q.Encode()),
	}
}

// issueStream pages through /issues lazily, one HTTP request per page,
// holding at most one page in memory.
type issueStream struct {
	buf     []ghIssue
	client  *Client
	nextURL string
}

func (s *issueStream) Next(ctx context.Context) (*domain.IssueRecord, error) {
	for len(s.buf) == 0 {
		if s.nextURL == "" {
			return nil, ports.ErrEndOfStream
		}
		var page []ghIssue
		next, err := s.client.getJSON(ctx, s.nextURL, &page)
		if err != nil {
			return nil, err
		}
		s.buf = page
		s.nextURL = next
	}

	issue := s.buf[0]
	s.buf = s.buf[1:]
	return issue.toRecord(), nil
}

// ListIssueEvents fetches the complete lifecycle event list of one issue.
func (c *Client) ListIssueEvents(ctx context.Context, owner, name string, number int) ([]domain.Event, error) {
	url := c.repoURL(owner, name, fmt.Sprintf("/issues/%d/events?per_page=%d", number, perPage))
	raw, err := getAllPages[ghEvent](ctx, c, url)
	if err != nil {
		return nil, err
	}
	events := make([]domain.Event, len(raw))
	for i := range raw {
		events[i] = raw[i].toDomain()
	}
	return events, nil
}
