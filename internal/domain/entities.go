package domain

import "time"

// Repository is an ingested repository and its ordered pull requests.
// (Owner, Name) is the natural key.
type Repository struct {
	FullName     string
	Name         string
	Owner        string
	PullRequests []PullRequest
	URL          string
}

// PullRequest is one pull-request aggregate as observed on the remote side.
// GithubID is the natural key. UpdatedAt carries the *issue* update timestamp,
// which is the version marker for the whole aggregate (the pull-request
// object's own updated_at drifts independently and misses label and
// assignment changes).
type PullRequest struct {
	Additions      int
	Assignee       *User
	Author         *User
	Body           string
	ChangedFiles   int
	ClosedAt       *time.Time
	Comments       []Comment
	Commits        []Commit
	CreatedAt      time.Time
	Deletions      int
	Events         []Event
	GithubID       int64
	MergeCommitSHA string
	MergeableState string
	Merged         bool
	MergedAt       *time.Time
	MergedBy       *User
	Number         int
	ReviewComments []ReviewComment
	State          string
	Title          string
	UpdatedAt      time.Time
}

// User is a remote account. Login is the natural key. Name and Email may be
// enriched later from commit metadata when the account profile lacks them.
type User struct {
	AvatarURL string
	Email     string
	Login     string
	Name      string
	Type      string
	URL       string
}

// Comment is an issue comment on a pull request. The API-independent natural
// key is (pull request, user, created_at).
type Comment struct {
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	URL       string
	User      *User
}

// ReviewComment is a code review comment. Natural key is
// (pull request, commit, user, created_at).
type ReviewComment struct {
	Body             string
	CommitID         string
	CreatedAt        time.Time
	OriginalCommitID string
	UpdatedAt        time.Time
	URL              string
	User             *User
}

// Commit belongs to a pull request; the natural key is (pull request, sha).
// AuthorName/AuthorEmail/CommitterName/CommitterEmail carry the identity
// embedded in the commit metadata. They are not persisted on the commit
// itself; the assembler uses them to enrich the resolved User records.
type Commit struct {
	Author         *User
	AuthorDate     time.Time
	AuthorEmail    string
	AuthorName     string
	CommitDate     time.Time
	Committer      *User
	CommitterEmail string
	CommitterName  string
	SHA            string
}

// Event is an issue lifecycle event. EventID is the remote-assigned natural
// key. Extra holds the label name for "labeled"/"unlabeled" kinds.
type Event struct {
	Actor     *User
	CommitID  string
	CreatedAt time.Time
	EventID   int64
	Extra     string
	Kind      string
}

// Account identifies the owner of one or more repositories.
type Account struct {
	Login string
	Type  string
}

// RepositoryRef names a repository on the remote side before any ingestion.
type RepositoryRef struct {
	FullName string
	Name     string
	Owner    string
	URL      string
}

// IssueRecord is one entry of the issue stream. Pull requests are a subset of
// issues; records without a pull-request link are plain issues and are
// skipped by the assembler.
type IssueRecord struct {
	HasPullRequest bool
	Number         int
	Title          string
	UpdatedAt      time.Time
}

// PullRequestVersion is the stored version marker for a pull request,
// consulted before deciding whether to refetch its sub-resources.
type PullRequestVersion struct {
	Merged    bool
	UpdatedAt time.Time
}

// RepositorySummary is the per-repository sync status shown by `pullpo repos`.
type RepositorySummary struct {
	FullName     string
	LastSyncedAt *time.Time
	Name         string
	Owner        string
	PullRequests int
	URL          string
}
