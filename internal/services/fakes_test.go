package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/ports"
)

// sliceStream yields pre-built issue records, optionally failing at a given
// position.
type sliceStream struct {
	failAt  int
	failErr error
	issues  []domain.IssueRecord
	pos     int
}

func (s *sliceStream) Next(ctx context.Context) (*domain.IssueRecord, error) {
	if s.failErr != nil && s.pos == s.failAt {
		return nil, s.failErr
	}
	if s.pos >= len(s.issues) {
		return nil, ports.ErrEndOfStream
	}
	issue := s.issues[s.pos]
	s.pos++
	return &issue, nil
}

// fakeSource is an in-memory ports.Source backed by maps keyed by pull
// request number.
type fakeSource struct {
	account      *domain.Account
	accountErr   error
	comments     map[int][]domain.Comment
	commits      map[int][]domain.Commit
	events       map[int][]domain.Event
	issues       []domain.IssueRecord
	prErr        map[int]error
	prs          map[int]*domain.PullRequest
	repos        []domain.RepositoryRef
	reposErr     error
	reviews      map[int][]domain.ReviewComment
	streamErr    error
	streamFailAt int

	getPullRequestCalls int
	listCommentsCalls   int
	listOpts            ports.ListIssuesOptions
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		account:  &domain.Account{Login: "octo", Type: "User"},
		comments: make(map[int][]domain.Comment),
		commits:  make(map[int][]domain.Commit),
		events:   make(map[int][]domain.Event),
		prErr:    make(map[int]error),
		prs:      make(map[int]*domain.PullRequest),
		reviews:  make(map[int][]domain.ReviewComment),
	}
}

func (f *fakeSource) FindAccount(ctx context.Context, login string) (*domain.Account, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.account, nil
}

func (f *fakeSource) GetRepository(ctx context.Context, owner, name string) (*domain.RepositoryRef, error) {
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	for _, ref := range f.repos {
		if ref.Owner == owner && ref.Name == name {
			return &ref, nil
		}
	}
	return nil, domain.NewSyncError(domain.FailureNotFound, fmt.Errorf("no repository %s/%s", owner, name))
}

func (f *fakeSource) ListRepositories(ctx context.Context, owner string) ([]domain.RepositoryRef, error) {
	if f.reposErr != nil {
		return nil, f.reposErr
	}
	return f.repos, nil
}

func (f *fakeSource) ListIssues(ctx context.Context, owner, name string, opts ports.ListIssuesOptions) ports.IssueStream {
	f.listOpts = opts
	return &sliceStream{issues: f.issues, failAt: f.streamFailAt, failErr: f.streamErr}
}

func (f *fakeSource) ListIssueEvents(ctx context.Context, owner, name string, number int) ([]domain.Event, error) {
	return f.events[number], nil
}

func (f *fakeSource) GetPullRequest(ctx context.Context, owner, name string, number int) (*domain.PullRequest, error) {
	f.getPullRequestCalls++
	if err, ok := f.prErr[number]; ok {
		return nil, err
	}
	pr, ok := f.prs[number]
	if !ok {
		return nil, nil
	}
	clone := *pr
	return &clone, nil
}

func (f *fakeSource) ListIssueComments(ctx context.Context, owner, name string, number int) ([]domain.Comment, error) {
	f.listCommentsCalls++
	return f.comments[number], nil
}

func (f *fakeSource) ListReviewComments(ctx context.Context, owner, name string, number int) ([]domain.ReviewComment, error) {
	return f.reviews[number], nil
}

func (f *fakeSource) ListCommits(ctx context.Context, owner, name string, number int) ([]domain.Commit, error) {
	return f.commits[number], nil
}

var _ ports.Source = (*fakeSource)(nil)

// fakeStore is an in-memory ports.SyncStore that records every flushed batch.
type fakeStore struct {
	batches  [][]domain.PullRequest
	latest   map[string]*time.Time
	saveErr  error
	versions map[int64]*domain.PullRequestVersion
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		latest:   make(map[string]*time.Time),
		versions: make(map[int64]*domain.PullRequestVersion),
	}
}

func (f *fakeStore) FindRepository(ctx context.Context, owner, name string) (*domain.Repository, error) {
	return nil, nil
}

func (f *fakeStore) Repositories(ctx context.Context) ([]domain.RepositorySummary, error) {
	return nil, nil
}

func (f *fakeStore) LatestSyncedAt(ctx context.Context, owner, name string) (*time.Time, error) {
	return f.latest[owner+"/"+name], nil
}

func (f *fakeStore) PullRequestVersion(ctx context.Context, githubID int64) (*domain.PullRequestVersion, error) {
	return f.versions[githubID], nil
}

func (f *fakeStore) UserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return nil, nil
}

func (f *fakeStore) SaveBatch(ctx context.Context, repo *domain.Repository, prs []domain.PullRequest) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	batch := make([]domain.PullRequest, len(prs))
	copy(batch, prs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) Close() error { return nil }

var _ ports.SyncStore = (*fakeStore)(nil)

func (f *fakeStore) savedCount() int {
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}
