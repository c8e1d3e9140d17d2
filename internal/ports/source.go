package ports

import (
	"context"
	"errors"
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
)

// ErrEndOfStream is returned by IssueStream.Next when the remote collection
// is exhausted.
var ErrEndOfStream = errors.New("end of issue stream")

// IssueStream is a lazy, ordered sequence of issue records. It is not
// seekable; restart only via a fresh since cursor.
type IssueStream interface {
	Next(ctx context.Context) (*domain.IssueRecord, error)
}

// ListIssuesOptions filters and orders an issue stream. Since is inclusive:
// only issues updated at or after it are yielded. NewestFirst flips the
// update-time ordering to descending, used to prioritize fresh activity on a
// time-boxed run.
type ListIssuesOptions struct {
	NewestFirst bool
	Since       *time.Time
}

// AccountReader resolves owners and their repositories before scanning.
type AccountReader interface {
	FindAccount(ctx context.Context, login string) (*domain.Account, error)
	GetRepository(ctx context.Context, owner, name string) (*domain.RepositoryRef, error)
	ListRepositories(ctx context.Context, owner string) ([]domain.RepositoryRef, error)
}

// IssueReader streams issue-like records and their lifecycle events.
type IssueReader interface {
	ListIssues(ctx context.Context, owner, name string, opts ListIssuesOptions) IssueStream
	ListIssueEvents(ctx context.Context, owner, name string, number int) ([]domain.Event, error)
}

// PullRequestReader fetches one pull request and its sub-resources.
// GetPullRequest returns (nil, nil) when the issue has no pull-request
// counterpart on the remote side.
type PullRequestReader interface {
	GetPullRequest(ctx context.Context, owner, name string, number int) (*domain.PullRequest, error)
	ListIssueComments(ctx context.Context, owner, name string, number int) ([]domain.Comment, error)
	ListReviewComments(ctx context.Context, owner, name string, number int) ([]domain.ReviewComment, error)
	ListCommits(ctx context.Context, owner, name string, number int) ([]domain.Commit, error)
}

// Source is the remote collaborator consumed by the sync engine. Adapters
// must normalize every timestamp to a UTC instant before returning it.
type Source interface {
	AccountReader
	IssueReader
	PullRequestReader
}
