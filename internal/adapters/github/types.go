package github

import (
	"time"

	"github.com/pombredanne/pullpo/internal/domain"
)

// Wire representations of the REST v3 payloads. Every timestamp is
// normalized to UTC before leaving this package; the API mixes zoned and
// zulu representations and stored markers must compare equal across runs.

type ghUser struct {
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
}

func (u *ghUser) toDomain() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		AvatarURL: u.AvatarURL,
		Email:     u.Email,
		Login:     u.Login,
		Name:      u.Name,
		Type:      u.Type,
		URL:       u.URL,
	}
}

type ghAccount struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type ghRepository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Name     string `json:"name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
}

func (r *ghRepository) toRef() domain.RepositoryRef {
	return domain.RepositoryRef{
		FullName: r.FullName,
		Name:     r.Name,
		Owner:    r.Owner.Login,
		URL:      r.HTMLURL,
	}
}

type ghIssue struct {
	Number      int        `json:"number"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *ghIssue) toRecord() *domain.IssueRecord {
	return &domain.IssueRecord{
		HasPullRequest: i.PullRequest != nil,
		Number:         i.Number,
		Title:          i.Title,
		UpdatedAt:      i.UpdatedAt.UTC(),
	}
}

type ghPullRequest struct {
	Additions      int        `json:"additions"`
	Assignee       *ghUser    `json:"assignee"`
	Body           string     `json:"body"`
	ChangedFiles   int        `json:"changed_files"`
	ClosedAt       *time.Time `json:"closed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	Deletions      int        `json:"deletions"`
	ID             int64      `json:"id"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	MergeableState string     `json:"mergeable_state"`
	Merged         bool       `json:"merged"`
	MergedAt       *time.Time `json:"merged_at"`
	MergedBy       *ghUser    `json:"merged_by"`
	Number         int        `json:"number"`
	State          string     `json:"state"`
	Title          string     `json:"title"`
	UpdatedAt      time.Time  `json:"updated_at"`
	User           *ghUser    `json:"user"`
}

func (p *ghPullRequest) toDomain() *domain.PullRequest {
	pr := &domain.PullRequest{
		Assignee:       p.Assignee.toDomain(),
		Author:         p.User.toDomain(),
		Body:           p.Body,
		ClosedAt:       utcPtr(p.ClosedAt),
		CreatedAt:      p.CreatedAt.UTC(),
		GithubID:       p.ID,
		MergeableState: p.MergeableState,
		Merged:         p.Merged,
		MergedAt:       utcPtr(p.MergedAt),
		MergedBy:       p.MergedBy.toDomain(),
		Number:         p.Number,
		State:          p.State,
		Title:          p.Title,
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
	// The API only populates the merge statistics once the PR is merged
	if p.Merged {
		pr.Additions = p.Additions
		pr.ChangedFiles = p.ChangedFiles
		pr.Deletions = p.Deletions
		pr.MergeCommitSHA = p.MergeCommitSHA
	}
	return pr
}

type ghComment struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
	User      *ghUser   `json:"user"`
}

func (c *ghComment) toDomain() domain.Comment {
	return domain.Comment{
		Body:      c.Body,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
		URL:       c.URL,
		User:      c.User.toDomain(),
	}
}

type ghReviewComment struct {
	Body             string    `json:"body"`
	CommitID         string    `json:"commit_id"`
	CreatedAt        time.Time `json:"created_at"`
	OriginalCommitID string    `json:"original_commit_id"`
	UpdatedAt        time.Time `json:"updated_at"`
	URL              string    `json:"url"`
	User             *ghUser   `json:"user"`
}

func (c *ghReviewComment) toDomain() domain.ReviewComment {
	return domain.ReviewComment{
		Body:             c.Body,
		CommitID:         c.CommitID,
		CreatedAt:        c.CreatedAt.UTC(),
		OriginalCommitID: c.OriginalCommitID,
		UpdatedAt:        c.UpdatedAt.UTC(),
		URL:              c.URL,
		User:             c.User.toDomain(),
	}
}

type ghCommit struct {
	Author *ghUser `json:"author"`
	Commit struct {
		Author struct {
			Date  time.Time `json:"date"`
			Email string    `json:"email"`
			Name  string    `json:"name"`
		} `json:"author"`
		Committer struct {
			Date  time.Time `json:"date"`
			Email string    `json:"email"`
			Name  string    `json:"name"`
		} `json:"committer"`
	} `json:"commit"`
	Committer *ghUser `json:"committer"`
	SHA       string  `json:"sha"`
}

func (c *ghCommit) toDomain() domain.Commit {
	return domain.Commit{
		Author:         c.Author.toDomain(),
		AuthorDate:     c.Commit.Author.Date.UTC(),
		AuthorEmail:    c.Commit.Author.Email,
		AuthorName:     c.Commit.Author.Name,
		CommitDate:     c.Commit.Committer.Date.UTC(),
		Committer:      c.Committer.toDomain(),
		CommitterEmail: c.Commit.Committer.Email,
		CommitterName:  c.Commit.Committer.Name,
		SHA:            c.SHA,
	}
}

type ghEvent struct {
	Actor     *ghUser   `json:"actor"`
	CommitID  string    `json:"commit_id"`
	CreatedAt time.Time `json:"created_at"`
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Label     *struct {
		Name string `json:"name"`
	} `json:"label"`
}

func (e *ghEvent) toDomain() domain.Event {
	ev := domain.Event{
		Actor:     e.Actor.toDomain(),
		CommitID:  e.CommitID,
		CreatedAt: e.CreatedAt.UTC(),
		EventID:   e.ID,
		Kind:      e.Event,
	}
	// Only label transitions carry a payload worth keeping
	if (e.Event == "labeled" || e.Event == "unlabeled") && e.Label != nil {
		ev.Extra = e.Label.Name
	}
	return ev
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
