package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

// SQLiteRepository implements ports.SyncStore using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.SyncStore = (*SQLiteRepository)(nil)

// gormLogger wraps the pullpo logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("PULLPO_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository creates a new SQLiteRepository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode so a daemon sync and a manual inspection can coexist
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(
		&RepositoryModel{},
		&UserModel{},
		&PullRequestModel{},
		&CommentModel{},
		&ReviewCommentModel{},
		&CommitModel{},
		&EventModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindRepository implements RepositoryReader.FindRepository
func (r *SQLiteRepository) FindRepository(ctx context.Context, owner, name string) (*domain.Repository, error) {
	var m RepositoryModel
	err := r.db.WithContext(ctx).Where("owner = ? AND name = ?", owner, name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr(err)
	}
	repo := repositoryModelToDomain(m)
	return &repo, nil
}

// Repositories implements RepositoryReader.Repositories
func (r *SQLiteRepository) Repositories(ctx context.Context) ([]domain.RepositorySummary, error) {
	var rows []struct {
		FullName     string
		LastSyncedAt *time.Time
		Name         string
		Owner        string
		PullRequests int
		URL          string
	}

	err := r.db.WithContext(ctx).
		Model(&RepositoryModel{}).
		Select("repositories.owner AS owner, repositories.name AS name, " +
			"repositories.full_name AS full_name, repositories.url AS url, " +
			"COUNT(pull_requests.id) AS pull_requests, " +
			"MAX(pull_requests.github_updated_at) AS last_synced_at").
		Joins("LEFT JOIN pull_requests ON pull_requests.repo_id = repositories.id").
		Group("repositories.id").
		Order("repositories.owner ASC, repositories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, persistErr(err)
	}

	summaries := make([]domain.RepositorySummary, len(rows))
	for i, row := range rows {
		summaries[i] = domain.RepositorySummary{
			FullName:     row.FullName,
			LastSyncedAt: row.LastSyncedAt,
			Name:         row.Name,
			Owner:        row.Owner,
			PullRequests: row.PullRequests,
			URL:          row.URL,
		}
	}
	return summaries, nil
}

// LatestSyncedAt implements SyncStateReader.LatestSyncedAt. It returns the
// max stored pull-request update timestamp, which is the since cursor for
// the next incremental run.
func (r *SQLiteRepository) LatestSyncedAt(ctx context.Context, owner, name string) (*time.Time, error) {
	var row struct {
		Last *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&PullRequestModel{}).
		Select("MAX(pull_requests.github_updated_at) AS last").
		Joins("JOIN repositories ON repositories.id = pull_requests.repo_id").
		Where("repositories.owner = ? AND repositories.name = ?", owner, name).
		Scan(&row).Error
	if err != nil {
		return nil, persistErr(err)
	}
	return row.Last, nil
}

// PullRequestVersion implements SyncStateReader.PullRequestVersion
func (r *SQLiteRepository) PullRequestVersion(ctx context.Context, githubID int64) (*domain.PullRequestVersion, error) {
	var m PullRequestModel
	err := r.db.WithContext(ctx).
		Select("github_updated_at", "merged").
		Where("github_id = ?", githubID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr(err)
	}
	return &domain.PullRequestVersion{
		Merged:    m.Merged,
		UpdatedAt: m.GithubUpdatedAt,
	}, nil
}

// UserByLogin implements SyncStateReader.UserByLogin
func (r *SQLiteRepository) UserByLogin(ctx context.Context, login string) (*domain.User, error) {
	var m UserModel
	err := r.db.WithContext(ctx).Where("login = ?", login).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr(err)
	}
	user := userModelToDomain(m)
	return &user, nil
}

// SaveBatch implements BatchWriter.SaveBatch. The whole batch is one
// transaction: either every aggregate in it is durably recorded or none are.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, repo *domain.Repository, prs []domain.PullRequest) error {
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repoModel, _, err := resolveRepository(tx, repo)
			if err != nil {
				return fmt.Errorf("failed to resolve repository %s/%s: %w", repo.Owner, repo.Name, err)
			}

			// People are memoized per transaction so a login referenced by
			// many pull requests is looked up once per flush
			users := make(map[string]*UserModel)

			for i := range prs {
				if err := saveAggregate(tx, repoModel.ID, &prs[i], users); err != nil {
					return fmt.Errorf("failed to save pull request #%d: %w", prs[i].Number, err)
				}
			}
			return nil
		})
	}, 3)
	if err != nil {
		return persistErr(err)
	}
	return nil
}

// resolveRepository gets or creates the repository row, refreshing the
// display fields when they moved.
func resolveRepository(tx *gorm.DB, repo *domain.Repository) (*RepositoryModel, bool, error) {
	return resolveOrCreate(tx,
		map[string]any{"owner": repo.Owner, "name": repo.Name},
		func() *RepositoryModel {
			return &RepositoryModel{
				FullName: repo.FullName,
				Name:     repo.Name,
				Owner:    repo.Owner,
				URL:      repo.URL,
			}
		},
		func(m *RepositoryModel) bool {
			changed := false
			if repo.FullName != "" && m.FullName != repo.FullName {
				m.FullName = repo.FullName
				changed = true
			}
			if repo.URL != "" && m.URL != repo.URL {
				m.URL = repo.URL
				changed = true
			}
			return changed
		})
}

// saveAggregate resolves one pull-request aggregate and all its nested
// entities inside the batch transaction.
func saveAggregate(tx *gorm.DB, repoID uint, pr *domain.PullRequest, users map[string]*UserModel) error {
	userID, err := resolveUser(tx, users, pr.Author)
	if err != nil {
		return err
	}
	assigneeID, err := resolveUser(tx, users, pr.Assignee)
	if err != nil {
		return err
	}
	mergedByID, err := resolveUser(tx, users, pr.MergedBy)
	if err != nil {
		return err
	}

	prModel, err := resolvePullRequest(tx, repoID, pr, userID, assigneeID, mergedByID)
	if err != nil {
		return err
	}

	for i := range pr.Comments {
		c := &pr.Comments[i]
		uid, err := resolveUser(tx, users, c.User)
		if err != nil {
			return err
		}
		if err := resolveComment(tx, prModel.ID, c, uid); err != nil {
			return err
		}
	}

	for i := range pr.ReviewComments {
		rc := &pr.ReviewComments[i]
		uid, err := resolveUser(tx, users, rc.User)
		if err != nil {
			return err
		}
		if err := resolveReviewComment(tx, prModel.ID, rc, uid); err != nil {
			return err
		}
	}

	for i := range pr.Commits {
		cm := &pr.Commits[i]
		authorID, err := resolveUser(tx, users, cm.Author)
		if err != nil {
			return err
		}
		committerID, err := resolveUser(tx, users, cm.Committer)
		if err != nil {
			return err
		}
		if err := resolveCommit(tx, prModel.ID, cm, authorID, committerID); err != nil {
			return err
		}
	}

	for i := range pr.Events {
		ev := &pr.Events[i]
		actorID, err := resolveUser(tx, users, ev.Actor)
		if err != nil {
			return err
		}
		if err := resolveEvent(tx, prModel.ID, ev, actorID); err != nil {
			return err
		}
	}

	return nil
}

func persistErr(err error) error {
	return domain.NewSyncError(domain.FailurePersistence, err)
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
