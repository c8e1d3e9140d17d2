package ports

import (
	"context"
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
)

// RepositoryReader reads previously ingested repositories.
type RepositoryReader interface {
	// FindRepository returns (nil, nil) when the repository was never synced.
	FindRepository(ctx context.Context, owner, name string) (*domain.Repository, error)
	Repositories(ctx context.Context) ([]domain.RepositorySummary, error)
}

// SyncStateReader supplies the incremental cursor and version markers the
// assembler consults while deciding what to refresh.
type SyncStateReader interface {
	// LatestSyncedAt returns the max stored pull-request update timestamp for
	// a repository, or nil when nothing was synced yet.
	LatestSyncedAt(ctx context.Context, owner, name string) (*time.Time, error)
	// PullRequestVersion returns (nil, nil) when the pull request is unknown.
	PullRequestVersion(ctx context.Context, githubID int64) (*domain.PullRequestVersion, error)
	// UserByLogin returns (nil, nil) when the login is unknown.
	UserByLogin(ctx context.Context, login string) (*domain.User, error)
}

// BatchWriter persists one checkpoint batch. A batch is an independent commit
// unit: either every entity in it is durably recorded or none are.
type BatchWriter interface {
	SaveBatch(ctx context.Context, repo *domain.Repository, prs []domain.PullRequest) error
}

// SyncStore is the composite persistence collaborator.
type SyncStore interface {
	RepositoryReader
	SyncStateReader
	BatchWriter
	Close() error
}
