package services

import (
	"context"
	"fmt"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

// RepositoryEnumerator resolves the set of repositories a run will scan.
// Resolution happens before any scanning, so a misspelled owner or
// repository name fails fast as a configuration error instead of surfacing
// as a mid-scan not-found.
type RepositoryEnumerator struct {
	source ports.AccountReader
}

// NewRepositoryEnumerator creates a new RepositoryEnumerator
func NewRepositoryEnumerator(source ports.AccountReader) *RepositoryEnumerator {
	return &RepositoryEnumerator{source: source}
}

// Enumerate returns the repositories to scan for owner. When repo is
// non-empty only that repository is resolved; otherwise every repository the
// owner has is listed. A remote not-found at this stage is reported as a
// configuration failure.
func (e *RepositoryEnumerator) Enumerate(ctx context.Context, owner, repo string) ([]domain.RepositoryRef, error) {
	account, err := e.source.FindAccount(ctx, owner)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.Annotate(
				domain.NewSyncError(domain.FailureConfiguration, fmt.Errorf("unknown owner %q", owner)),
				owner, repo, 0)
		}
		return nil, domain.Annotate(err, owner, repo, 0)
	}

	if repo != "" {
		ref, err := e.source.GetRepository(ctx, owner, repo)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.Annotate(
					domain.NewSyncError(domain.FailureConfiguration, fmt.Errorf("unknown repository %s/%s", owner, repo)),
					owner, repo, 0)
			}
			return nil, domain.Annotate(err, owner, repo, 0)
		}
		return []domain.RepositoryRef{*ref}, nil
	}

	refs, err := e.source.ListRepositories(ctx, owner)
	if err != nil {
		return nil, domain.Annotate(err, owner, "", 0)
	}

	logging.Logger.Info("Enumerated repositories",
		"owner", account.Login, "type", account.Type, "count", len(refs))
	return refs, nil
}
