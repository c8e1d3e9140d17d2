package services

import (
	"context"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

// PullRequestAssembler turns one issue record into a full pull-request
// aggregate: the pull request itself plus its comments, review comments,
// commits, and lifecycle events, with every user reference canonicalized
// through the run's IdentityCache.
type PullRequestAssembler struct {
	cache  *IdentityCache
	source ports.Source
	state  ports.SyncStateReader
}

// NewPullRequestAssembler creates a new PullRequestAssembler
func NewPullRequestAssembler(source ports.Source, state ports.SyncStateReader, cache *IdentityCache) *PullRequestAssembler {
	return &PullRequestAssembler{
		cache:  cache,
		source: source,
		state:  state,
	}
}

// Assemble fetches and assembles the aggregate for one issue record.
// It returns (nil, nil) when the record is a plain issue with no pull-request
// counterpart. When the stored version marker already covers the issue's
// update timestamp the sub-resource fetches are skipped and the bare pull
// request is returned; flushing it is a no-op on the store side.
func (a *PullRequestAssembler) Assemble(ctx context.Context, owner, name string, issue *domain.IssueRecord) (*domain.PullRequest, error) {
	if !issue.HasPullRequest {
		logging.Logger.Debug("Skipping plain issue", "owner", owner, "repo", name, "number", issue.Number)
		return nil, nil
	}

	pr, err := a.source.GetPullRequest(ctx, owner, name, issue.Number)
	if err != nil {
		return nil, domain.Annotate(err, owner, name, issue.Number)
	}
	if pr == nil {
		// The issue claims a pull-request link but the remote side has none
		logging.Logger.Warn("Issue has no pull request counterpart",
			"owner", owner, "repo", name, "number", issue.Number)
		return nil, nil
	}

	// The issue update timestamp is the version marker for the whole
	// aggregate: label and assignment changes move it while the pull-request
	// object's own updated_at stays behind.
	pr.UpdatedAt = issue.UpdatedAt

	pr.Author = a.cache.Resolve(pr.Author)
	pr.Assignee = a.cache.Resolve(pr.Assignee)
	pr.MergedBy = a.cache.Resolve(pr.MergedBy)

	stored, err := a.state.PullRequestVersion(ctx, pr.GithubID)
	if err != nil {
		return nil, domain.Annotate(err, owner, name, issue.Number)
	}
	if stored != nil && !issue.UpdatedAt.After(stored.UpdatedAt) {
		logging.Logger.Debug("Pull request unchanged, skipping sub-resources",
			"owner", owner, "repo", name, "number", issue.Number,
			"updated_at", issue.UpdatedAt)
		return pr, nil
	}

	if err := a.fetchSubResources(ctx, owner, name, pr); err != nil {
		return nil, domain.Annotate(err, owner, name, issue.Number)
	}

	logging.Logger.Debug("Assembled pull request",
		"owner", owner, "repo", name, "number", pr.Number,
		"comments", len(pr.Comments),
		"review_comments", len(pr.ReviewComments),
		"commits", len(pr.Commits),
		"events", len(pr.Events))
	return pr, nil
}

func (a *PullRequestAssembler) fetchSubResources(ctx context.Context, owner, name string, pr *domain.PullRequest) error {
	comments, err := a.source.ListIssueComments(ctx, owner, name, pr.Number)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].User = a.cache.Resolve(comments[i].User)
	}
	pr.Comments = comments

	reviewComments, err := a.source.ListReviewComments(ctx, owner, name, pr.Number)
	if err != nil {
		return err
	}
	for i := range reviewComments {
		reviewComments[i].User = a.cache.Resolve(reviewComments[i].User)
	}
	pr.ReviewComments = reviewComments

	commits, err := a.source.ListCommits(ctx, owner, name, pr.Number)
	if err != nil {
		return err
	}
	for i := range commits {
		cm := &commits[i]
		cm.Author = a.cache.Resolve(cm.Author)
		cm.Committer = a.cache.Resolve(cm.Committer)
		if cm.Author != nil {
			a.cache.Enrich(cm.Author.Login, cm.AuthorName, cm.AuthorEmail)
		}
		if cm.Committer != nil {
			a.cache.Enrich(cm.Committer.Login, cm.CommitterName, cm.CommitterEmail)
		}
	}
	pr.Commits = commits

	events, err := a.source.ListIssueEvents(ctx, owner, name, pr.Number)
	if err != nil {
		return err
	}
	for i := range events {
		events[i].Actor = a.cache.Resolve(events[i].Actor)
	}
	pr.Events = events

	return nil
}
