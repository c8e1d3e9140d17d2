package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pombredanne/pullpo/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "pullpo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func widgetsRepo() *domain.Repository {
	return &domain.Repository{
		FullName: "octo/widgets",
		Name:     "widgets",
		Owner:    "octo",
		URL:      "https://github.com/octo/widgets",
	}
}

func samplePullRequest(githubID int64, number int, updatedAt time.Time) domain.PullRequest {
	return domain.PullRequest{
		Author:    &domain.User{Login: "alice"},
		Body:      "a change",
		CreatedAt: updatedAt.Add(-24 * time.Hour),
		GithubID:  githubID,
		Number:    number,
		State:     "open",
		Title:     "add widgets",
		UpdatedAt: updatedAt,
	}
}

func TestSaveBatch_CreatesAggregates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	pr := samplePullRequest(500, 5, now)
	pr.Comments = []domain.Comment{{
		Body:      "lgtm",
		CreatedAt: now,
		UpdatedAt: now,
		User:      &domain.User{Login: "bob"},
	}}
	pr.Commits = []domain.Commit{{
		Author:     &domain.User{Login: "alice"},
		AuthorDate: now,
		CommitDate: now,
		Committer:  &domain.User{Login: "alice"},
		SHA:        "abc123",
	}}
	pr.Events = []domain.Event{{
		Actor:     &domain.User{Login: "bob"},
		CreatedAt: now,
		EventID:   9001,
		Extra:     "bug",
		Kind:      "labeled",
	}}

	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{pr}))

	found, err := repo.FindRepository(ctx, "octo", "widgets")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "octo/widgets", found.FullName)

	version, err := repo.PullRequestVersion(ctx, 500)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.True(t, version.UpdatedAt.Equal(now))
}

func TestSaveBatch_Idempotent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	batch := []domain.PullRequest{samplePullRequest(500, 5, now)}
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), batch))
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), batch))

	var prCount, userCount, repoCount int64
	repo.db.Model(&PullRequestModel{}).Count(&prCount)
	repo.db.Model(&UserModel{}).Count(&userCount)
	repo.db.Model(&RepositoryModel{}).Count(&repoCount)

	assert.Equal(t, int64(1), prCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), repoCount)
}

func TestSaveBatch_VersionMarkerNeverRegresses(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	newer := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	newPR := samplePullRequest(500, 5, newer)
	newPR.Title = "new title"
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{newPR}))

	stale := samplePullRequest(500, 5, older)
	stale.Title = "stale title"
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{stale}))

	version, err := repo.PullRequestVersion(ctx, 500)
	require.NoError(t, err)
	assert.True(t, version.UpdatedAt.Equal(newer))

	var m PullRequestModel
	require.NoError(t, repo.db.Where("github_id = ?", 500).First(&m).Error)
	assert.Equal(t, "new title", m.Title)
}

func TestSaveBatch_NewerVersionUpdatesMutableFields(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	pr := samplePullRequest(500, 5, first)
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{pr}))

	updated := samplePullRequest(500, 5, first.Add(time.Hour))
	updated.State = "closed"
	updated.Title = "add widgets v2"
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{updated}))

	var m PullRequestModel
	require.NoError(t, repo.db.Where("github_id = ?", 500).First(&m).Error)
	assert.Equal(t, "closed", m.State)
	assert.Equal(t, "add widgets v2", m.Title)

	var count int64
	repo.db.Model(&PullRequestModel{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSaveBatch_UserEnrichmentIsWriteOnce(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	bare := samplePullRequest(500, 5, now)
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{bare}))

	enriched := samplePullRequest(500, 5, now.Add(time.Hour))
	enriched.Author = &domain.User{Email: "alice@example.com", Login: "alice", Name: "Alice Doe"}
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{enriched}))

	user, err := repo.UserByLogin(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice Doe", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)

	// A later sighting with different details must not overwrite
	conflicting := samplePullRequest(500, 5, now.Add(2*time.Hour))
	conflicting.Author = &domain.User{Email: "other@example.com", Login: "alice", Name: "Other Name"}
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{conflicting}))

	user, err = repo.UserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestSaveBatch_CommentNaturalKey(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	pr := samplePullRequest(500, 5, now)
	pr.Comments = []domain.Comment{{
		Body:      "first version",
		CreatedAt: now,
		UpdatedAt: now,
		User:      &domain.User{Login: "bob"},
	}}
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{pr}))

	// Same (pr, user, created_at) with a newer updated_at refreshes in place
	pr.UpdatedAt = now.Add(time.Hour)
	pr.Comments[0].Body = "edited"
	pr.Comments[0].UpdatedAt = now.Add(time.Hour)
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{pr}))

	var comments []CommentModel
	require.NoError(t, repo.db.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited", comments[0].Body)
}

func TestLatestSyncedAt(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	latest, err := repo.LatestSyncedAt(ctx, "octo", "widgets")
	require.NoError(t, err)
	assert.Nil(t, latest)

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{
		samplePullRequest(500, 5, t2),
		samplePullRequest(501, 6, t1),
	}))

	latest, err = repo.LatestSyncedAt(ctx, "octo", "widgets")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(t2))

	// Other repositories do not bleed into the cursor
	other, err := repo.LatestSyncedAt(ctx, "octo", "gadgets")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestRepositories(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{
		samplePullRequest(500, 5, now),
		samplePullRequest(501, 6, now.Add(time.Hour)),
	}))

	summaries, err := repo.Repositories(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "octo/widgets", summaries[0].FullName)
	assert.Equal(t, 2, summaries[0].PullRequests)
	require.NotNil(t, summaries[0].LastSyncedAt)
	assert.True(t, summaries[0].LastSyncedAt.Equal(now.Add(time.Hour)))
}

func TestFindRepository_NilWhenAbsent(t *testing.T) {
	repo := openTestRepo(t)

	found, err := repo.FindRepository(context.Background(), "octo", "nope")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPullRequestVersion_NilWhenUnknown(t *testing.T) {
	repo := openTestRepo(t)

	version, err := repo.PullRequestVersion(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, version)
}

func TestSaveBatch_DeletedAccountLeavesNullUser(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	pr := samplePullRequest(500, 5, now)
	pr.Author = nil // account deleted on the remote side
	require.NoError(t, repo.SaveBatch(ctx, widgetsRepo(), []domain.PullRequest{pr}))

	var m PullRequestModel
	require.NoError(t, repo.db.Where("github_id = ?", 500).First(&m).Error)
	assert.Nil(t, m.UserID)
}
