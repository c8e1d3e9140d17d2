package storage

import "time"

// GORM models. Remote timestamps live in github_* columns so GORM's
// auto-managed CreatedAt/UpdatedAt audit fields never touch them; the
// github_updated_at columns are the version markers for incremental sync.

// RepositoryModel is the GORM model for the repositories table
type RepositoryModel struct {
	CreatedAt time.Time
	FullName  string `gorm:"not null;default:''"`
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex:idx_repositories_owner_name"`
	Owner     string `gorm:"not null;uniqueIndex:idx_repositories_owner_name"`
	UpdatedAt time.Time
	URL       string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (RepositoryModel) TableName() string { return "repositories" }

// UserModel is the GORM model for the people table
type UserModel struct {
	AvatarURL string `gorm:"not null;default:''"`
	CreatedAt time.Time
	Email     string `gorm:"not null;default:''"`
	ID        uint   `gorm:"primaryKey"`
	Login     string `gorm:"not null;uniqueIndex"`
	Name      string `gorm:"not null;default:''"`
	Type      string `gorm:"not null;default:''"`
	UpdatedAt time.Time
	URL       string `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string { return "people" }

// PullRequestModel is the GORM model for the pull_requests table
type PullRequestModel struct {
	Additions       int    `gorm:"not null;default:0"`
	AssigneeID      *uint  `gorm:"index"`
	Body            string `gorm:"type:text;not null;default:''"`
	ChangedFiles    int    `gorm:"not null;default:0"`
	ClosedAt        *time.Time
	CreatedAt       time.Time
	Deletions       int       `gorm:"not null;default:0"`
	GithubCreatedAt time.Time `gorm:"not null"`
	GithubID        int64     `gorm:"not null;uniqueIndex"`
	GithubUpdatedAt time.Time `gorm:"not null;index"`
	ID              uint      `gorm:"primaryKey"`
	MergeCommitSHA  string    `gorm:"not null;default:''"`
	MergeableState  string    `gorm:"not null;default:''"`
	Merged          bool      `gorm:"not null;default:false"`
	MergedAt        *time.Time
	MergedByID      *uint  `gorm:"index"`
	Number          int    `gorm:"not null"`
	RepoID          uint   `gorm:"not null;index"`
	State           string `gorm:"not null;default:''"`
	Title           string `gorm:"not null;default:''"`
	UpdatedAt       time.Time
	UserID          *uint `gorm:"index"`
}

// TableName specifies the table name for GORM
func (PullRequestModel) TableName() string { return "pull_requests" }

// CommentModel is the GORM model for the comments table. The natural key is
// (pull_request_id, user_id, github_created_at); the API-assigned id is not
// part of the stored identity.
type CommentModel struct {
	Body            string `gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time
	GithubCreatedAt time.Time `gorm:"not null;uniqueIndex:idx_comments_key"`
	GithubUpdatedAt time.Time `gorm:"not null"`
	ID              uint      `gorm:"primaryKey"`
	PullRequestID   uint      `gorm:"not null;uniqueIndex:idx_comments_key"`
	UpdatedAt       time.Time
	URL             string `gorm:"not null;default:''"`
	UserID          *uint  `gorm:"uniqueIndex:idx_comments_key"`
}

// TableName specifies the table name for GORM
func (CommentModel) TableName() string { return "comments" }

// ReviewCommentModel is the GORM model for the review_comments table
type ReviewCommentModel struct {
	Body             string `gorm:"type:text;not null;default:''"`
	CommitID         string `gorm:"not null;uniqueIndex:idx_review_comments_key"`
	CreatedAt        time.Time
	GithubCreatedAt  time.Time `gorm:"not null;uniqueIndex:idx_review_comments_key"`
	GithubUpdatedAt  time.Time `gorm:"not null"`
	ID               uint      `gorm:"primaryKey"`
	OriginalCommitID string    `gorm:"not null;default:''"`
	PullRequestID    uint      `gorm:"not null;uniqueIndex:idx_review_comments_key"`
	UpdatedAt        time.Time
	URL              string `gorm:"not null;default:''"`
	UserID           *uint  `gorm:"uniqueIndex:idx_review_comments_key"`
}

// TableName specifies the table name for GORM
func (ReviewCommentModel) TableName() string { return "review_comments" }

// CommitModel is the GORM model for the commits table
type CommitModel struct {
	AuthorDate    time.Time `gorm:"not null"`
	AuthorID      *uint     `gorm:"index"`
	CommitDate    time.Time `gorm:"not null"`
	CommitterID   *uint     `gorm:"index"`
	CreatedAt     time.Time
	ID            uint   `gorm:"primaryKey"`
	PullRequestID uint   `gorm:"not null;uniqueIndex:idx_commits_key"`
	SHA           string `gorm:"not null;uniqueIndex:idx_commits_key"`
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (CommitModel) TableName() string { return "commits" }

// EventModel is the GORM model for the events table
type EventModel struct {
	ActorID         *uint  `gorm:"index"`
	CommitID        string `gorm:"not null;default:''"`
	CreatedAt       time.Time
	EventID         int64     `gorm:"not null;uniqueIndex"`
	Extra           string    `gorm:"not null;default:''"`
	GithubCreatedAt time.Time `gorm:"not null"`
	ID              uint      `gorm:"primaryKey"`
	Kind            string    `gorm:"column:event;not null;default:''"`
	PullRequestID   uint      `gorm:"not null;index"`
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (EventModel) TableName() string { return "events" }
