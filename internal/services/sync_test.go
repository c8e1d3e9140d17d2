package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/pullpo/internal/domain"
)

func syncFixture() (*fakeSource, *fakeStore, *SyncService) {
	source := newFakeSource()
	source.repos = []domain.RepositoryRef{
		{FullName: "octo/widgets", Name: "widgets", Owner: "octo"},
	}
	store := newFakeStore()
	return source, store, NewSyncService(source, store)
}

func addPullRequestIssue(source *fakeSource, number int, githubID int64, updatedAt time.Time) {
	source.issues = append(source.issues, domain.IssueRecord{
		HasPullRequest: true,
		Number:         number,
		UpdatedAt:      updatedAt,
	})
	source.prs[number] = &domain.PullRequest{GithubID: githubID, Number: number}
}

func TestSync_ChecksPointsInBatches(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	for i := 1; i <= 5; i++ {
		addPullRequestIssue(source, i, int64(100+i), now)
	}

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, 5, report.Synced)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Repositories, 1)
	assert.Equal(t, 3, report.Repositories[0].Batches)
	assert.Equal(t, 5, store.savedCount())
}

func TestSync_PlainIssuesAreNotCounted(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	addPullRequestIssue(source, 1, 101, now)
	source.issues = append(source.issues, domain.IssueRecord{Number: 2, UpdatedAt: now})

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, store.savedCount())
}

func TestSync_TransientItemFailureIsSkipped(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	addPullRequestIssue(source, 1, 101, now)
	addPullRequestIssue(source, 2, 102, now)
	addPullRequestIssue(source, 3, 103, now)
	source.prErr[2] = domain.NewSyncError(domain.FailureTransientItem, errors.New("502"))

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, store.savedCount())
	assert.False(t, report.Repositories[0].Aborted)
}

func TestSync_NotFoundAbortsRepositoryButNotRun(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	addPullRequestIssue(source, 1, 101, now)
	addPullRequestIssue(source, 2, 102, now)
	addPullRequestIssue(source, 3, 103, now)
	source.prErr[2] = domain.NewSyncError(domain.FailureNotFound, errors.New("gone"))

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.NoError(t, err)
	require.Len(t, report.Repositories, 1)
	assert.True(t, report.Repositories[0].Aborted)

	// The aggregate assembled before the failure was flushed
	assert.Equal(t, 1, store.savedCount())
	assert.Equal(t, 1, report.Synced)
}

func TestSync_AuthenticationFailureAbortsRunAfterFlushing(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	addPullRequestIssue(source, 1, 101, now)
	addPullRequestIssue(source, 2, 102, now)
	source.prErr[2] = domain.NewSyncError(domain.FailureAuthentication, errors.New("bad credentials"))

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsAuthentication(err))
	assert.Equal(t, 1, store.savedCount())
	assert.Equal(t, 1, report.Synced)
}

func TestSync_SinceCursorComesFromStore(t *testing.T) {
	source, store, svc := syncFixture()
	cursor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store.latest["octo/widgets"] = &cursor

	_, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.NoError(t, err)
	require.NotNil(t, source.listOpts.Since)
	assert.Equal(t, cursor, *source.listOpts.Since)
}

func TestSync_ExplicitSinceOverridesStore(t *testing.T) {
	source, store, svc := syncFixture()
	stored := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	override := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store.latest["octo/widgets"] = &stored

	_, err := svc.Sync(context.Background(), "octo", SyncOptions{Since: &override})

	require.NoError(t, err)
	require.NotNil(t, source.listOpts.Since)
	assert.Equal(t, override, *source.listOpts.Since)
}

func TestSync_NewestFirstIsForwarded(t *testing.T) {
	source, _, svc := syncFixture()

	_, err := svc.Sync(context.Background(), "octo", SyncOptions{NewestFirst: true})

	require.NoError(t, err)
	assert.True(t, source.listOpts.NewestFirst)
}

func TestSync_UnknownOwnerIsConfigurationFailure(t *testing.T) {
	source, _, svc := syncFixture()
	source.accountErr = domain.NewSyncError(domain.FailureNotFound, errors.New("404"))

	_, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
}

func TestSync_UnknownRepositoryIsConfigurationFailure(t *testing.T) {
	_, _, svc := syncFixture()

	_, err := svc.Sync(context.Background(), "octo", SyncOptions{Repo: "no-such-repo"})

	require.Error(t, err)
	assert.True(t, domain.IsConfiguration(err))
}

func TestSync_SingleRepositoryScope(t *testing.T) {
	source, _, svc := syncFixture()
	source.repos = append(source.repos, domain.RepositoryRef{
		FullName: "octo/gadgets", Name: "gadgets", Owner: "octo",
	})
	addPullRequestIssue(source, 1, 101, time.Now().UTC())

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{Repo: "gadgets"})

	require.NoError(t, err)
	require.Len(t, report.Repositories, 1)
	assert.Equal(t, "octo/gadgets", report.Repositories[0].FullName)
}

func TestSync_StreamFailureFlushesPendingBatch(t *testing.T) {
	source, store, svc := syncFixture()
	now := time.Now().UTC()
	addPullRequestIssue(source, 1, 101, now)
	addPullRequestIssue(source, 2, 102, now)
	source.streamFailAt = 1
	source.streamErr = domain.NewSyncError(domain.FailureRateLimit, errors.New("rate limit exceeded"))

	report, err := svc.Sync(context.Background(), "octo", SyncOptions{})

	require.Error(t, err)
	assert.True(t, domain.IsRateLimit(err))
	assert.Equal(t, 1, store.savedCount())
	assert.Equal(t, 1, report.Synced)
}
