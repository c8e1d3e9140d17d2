package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pombredanne/pullpo/internal/domain"
)

// resolveOrCreate is the single get-or-create-or-update primitive behind
// every entity kind. key is the kind's natural-key filter, fresh builds a
// new row from the observed fields, and merge applies the kind's mutable
// fields onto an existing row, reporting whether anything actually changed.
// Re-running against identical remote state therefore produces zero writes
// beyond the lookups.
func resolveOrCreate[M any](tx *gorm.DB, key map[string]any, fresh func() *M, merge func(*M) bool) (*M, bool, error) {
	var existing M
	err := tx.Where(key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m := fresh()
		if err := tx.Create(m).Error; err != nil {
			return nil, false, err
		}
		return m, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if merge != nil && merge(&existing) {
		if err := tx.Save(&existing).Error; err != nil {
			return nil, false, err
		}
	}
	return &existing, false, nil
}

// resolveUser gets or creates a person row by login, memoized per
// transaction. Name and email are write-once enrichments: commit metadata
// can fill them in later runs, but an already stored value is never
// overwritten. Returns nil for an absent identity (deleted account).
func resolveUser(tx *gorm.DB, memo map[string]*UserModel, u *domain.User) (*uint, error) {
	if u == nil || u.Login == "" {
		return nil, nil
	}
	if m, ok := memo[u.Login]; ok {
		return &m.ID, nil
	}

	m, _, err := resolveOrCreate(tx,
		map[string]any{"login": u.Login},
		func() *UserModel {
			return &UserModel{
				AvatarURL: u.AvatarURL,
				Email:     u.Email,
				Login:     u.Login,
				Name:      u.Name,
				Type:      u.Type,
				URL:       u.URL,
			}
		},
		func(m *UserModel) bool {
			changed := false
			if u.Name != "" && m.Name == "" {
				m.Name = u.Name
				changed = true
			}
			if u.Email != "" && m.Email == "" {
				m.Email = u.Email
				changed = true
			}
			return changed
		})
	if err != nil {
		return nil, err
	}
	memo[u.Login] = m
	return &m.ID, nil
}

// resolvePullRequest gets or creates a pull request by github_id. Number and
// github_created_at are seeded once and never change; the mutable set is
// only rewritten when the observed marker is strictly newer, so the stored
// github_updated_at never regresses.
func resolvePullRequest(tx *gorm.DB, repoID uint, pr *domain.PullRequest, userID, assigneeID, mergedByID *uint) (*PullRequestModel, error) {
	apply := func(m *PullRequestModel) {
		m.Additions = pr.Additions
		m.AssigneeID = assigneeID
		m.Body = pr.Body
		m.ChangedFiles = pr.ChangedFiles
		m.ClosedAt = pr.ClosedAt
		m.Deletions = pr.Deletions
		m.GithubUpdatedAt = pr.UpdatedAt
		m.MergeCommitSHA = pr.MergeCommitSHA
		m.MergeableState = pr.MergeableState
		m.Merged = pr.Merged
		m.MergedAt = pr.MergedAt
		m.MergedByID = mergedByID
		m.State = pr.State
		m.Title = pr.Title
		m.UserID = userID
	}

	m, _, err := resolveOrCreate(tx,
		map[string]any{"github_id": pr.GithubID},
		func() *PullRequestModel {
			m := &PullRequestModel{
				GithubCreatedAt: pr.CreatedAt,
				GithubID:        pr.GithubID,
				Number:          pr.Number,
				RepoID:          repoID,
			}
			apply(m)
			return m
		},
		func(m *PullRequestModel) bool {
			if !pr.UpdatedAt.After(m.GithubUpdatedAt) {
				return false
			}
			apply(m)
			return true
		})
	return m, err
}

// resolveComment keys on (pull_request_id, user_id, github_created_at) and
// refreshes body and URL when the remote updated_at moved forward.
func resolveComment(tx *gorm.DB, prID uint, c *domain.Comment, userID *uint) error {
	_, _, err := resolveOrCreate(tx,
		map[string]any{
			"github_created_at": c.CreatedAt,
			"pull_request_id":   prID,
			"user_id":           uintPtrKey(userID),
		},
		func() *CommentModel {
			return &CommentModel{
				Body:            c.Body,
				GithubCreatedAt: c.CreatedAt,
				GithubUpdatedAt: c.UpdatedAt,
				PullRequestID:   prID,
				URL:             c.URL,
				UserID:          userID,
			}
		},
		func(m *CommentModel) bool {
			if !c.UpdatedAt.After(m.GithubUpdatedAt) {
				return false
			}
			m.Body = c.Body
			m.GithubUpdatedAt = c.UpdatedAt
			m.URL = c.URL
			return true
		})
	return err
}

// resolveReviewComment keys on (pull_request_id, commit_id, user_id,
// github_created_at).
func resolveReviewComment(tx *gorm.DB, prID uint, rc *domain.ReviewComment, userID *uint) error {
	_, _, err := resolveOrCreate(tx,
		map[string]any{
			"commit_id":         rc.CommitID,
			"github_created_at": rc.CreatedAt,
			"pull_request_id":   prID,
			"user_id":           uintPtrKey(userID),
		},
		func() *ReviewCommentModel {
			return &ReviewCommentModel{
				Body:             rc.Body,
				CommitID:         rc.CommitID,
				GithubCreatedAt:  rc.CreatedAt,
				GithubUpdatedAt:  rc.UpdatedAt,
				OriginalCommitID: rc.OriginalCommitID,
				PullRequestID:    prID,
				URL:              rc.URL,
				UserID:           userID,
			}
		},
		func(m *ReviewCommentModel) bool {
			if !rc.UpdatedAt.After(m.GithubUpdatedAt) {
				return false
			}
			m.Body = rc.Body
			m.GithubUpdatedAt = rc.UpdatedAt
			m.OriginalCommitID = rc.OriginalCommitID
			m.URL = rc.URL
			return true
		})
	return err
}

// resolveCommit keys on (pull_request_id, sha). Commits have no version
// marker; the identity links and dates are enrichment-only fields, refreshed
// when they differ.
func resolveCommit(tx *gorm.DB, prID uint, cm *domain.Commit, authorID, committerID *uint) error {
	_, _, err := resolveOrCreate(tx,
		map[string]any{
			"pull_request_id": prID,
			"sha":             cm.SHA,
		},
		func() *CommitModel {
			return &CommitModel{
				AuthorDate:    cm.AuthorDate,
				AuthorID:      authorID,
				CommitDate:    cm.CommitDate,
				CommitterID:   committerID,
				PullRequestID: prID,
				SHA:           cm.SHA,
			}
		},
		func(m *CommitModel) bool {
			changed := false
			if !m.AuthorDate.Equal(cm.AuthorDate) {
				m.AuthorDate = cm.AuthorDate
				changed = true
			}
			if !m.CommitDate.Equal(cm.CommitDate) {
				m.CommitDate = cm.CommitDate
				changed = true
			}
			if !uintPtrEqual(m.AuthorID, authorID) {
				m.AuthorID = authorID
				changed = true
			}
			if !uintPtrEqual(m.CommitterID, committerID) {
				m.CommitterID = committerID
				changed = true
			}
			return changed
		})
	return err
}

// resolveEvent keys on the remote-assigned event id.
func resolveEvent(tx *gorm.DB, prID uint, ev *domain.Event, actorID *uint) error {
	_, _, err := resolveOrCreate(tx,
		map[string]any{"event_id": ev.EventID},
		func() *EventModel {
			return &EventModel{
				ActorID:         actorID,
				CommitID:        ev.CommitID,
				EventID:         ev.EventID,
				Extra:           ev.Extra,
				GithubCreatedAt: ev.CreatedAt,
				Kind:            ev.Kind,
				PullRequestID:   prID,
			}
		},
		func(m *EventModel) bool {
			changed := false
			if m.Extra != ev.Extra {
				m.Extra = ev.Extra
				changed = true
			}
			if m.CommitID != ev.CommitID {
				m.CommitID = ev.CommitID
				changed = true
			}
			if !uintPtrEqual(m.ActorID, actorID) {
				m.ActorID = actorID
				changed = true
			}
			return changed
		})
	return err
}

// uintPtrKey converts a nullable foreign key to a natural-key condition
// value. A typed nil pointer must become an untyped nil so the query renders
// IS NULL instead of = NULL.
func uintPtrKey(p *uint) any {
	if p == nil {
		return nil
	}
	return *p
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
