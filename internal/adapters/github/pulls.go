package github

import (
	"context"
	"fmt"

	"github.com/pombredanne/pullpo/internal/domain"
)

// GetPullRequest fetches the pull-request counterpart of an issue. It
// returns (nil, nil) when the number does not resolve to a pull request,
// mirroring how a plain issue simply has no PR sub-resource.
func (c *Client) GetPullRequest(ctx context.Context, owner, name string, number int) (*domain.PullRequest, error) {
	var raw ghPullRequest
	url := c.repoURL(owner, name, fmt.Sprintf("/pulls/%d", number))
	if _, err := c.getJSON(ctx, url, &raw); err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return raw.toDomain(), nil
}

// ListIssueComments fetches all issue comments of a pull request.
func (c *Client) ListIssueComments(ctx context.Context, owner, name string, number int) ([]domain.Comment, error) {
	url := c.repoURL(owner, name, fmt.Sprintf("/issues/%d/comments?per_page=%d", number, perPage))
	raw, err := getAllPages[ghComment](ctx, c, url)
	if err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, len(raw))
	for i := range raw {
		comments[i] = raw[i].toDomain()
	}
	return comments, nil
}

// ListReviewComments fetches all code review comments of a pull request.
func (c *Client) ListReviewComments(ctx context.Context, owner, name string, number int) ([]domain.ReviewComment, error) {
	url := c.repoURL(owner, name, fmt.Sprintf("/pulls/%d/comments?per_page=%d", number, perPage))
	raw, err := getAllPages[ghReviewComment](ctx, c, url)
	if err != nil {
		return nil, err
	}
	comments := make([]domain.ReviewComment, len(raw))
	for i := range raw {
		comments[i] = raw[i].toDomain()
	}
	return comments, nil
}

// ListCommits fetches all commits of a pull request.
func (c *Client) ListCommits(ctx context.Context, owner, name string, number int) ([]domain.Commit, error) {
	url := c.repoURL(owner, name, fmt.Sprintf("/pulls/%d/commits?per_page=%d", number, perPage))
	raw, err := getAllPages[ghCommit](ctx, c, url)
	if err != nil {
		return nil, err
	}
	commits := make([]domain.Commit, len(raw))
	for i := range raw {
		commits[i] = raw[i].toDomain()
	}
	return commits, nil
}
