package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

// SyncOptions configures one sync run.
type SyncOptions struct {
	// BatchSize is the checkpoint flush size; zero means DefaultBatchSize.
	BatchSize int
	// NewestFirst scans most recently updated pull requests first, useful
	// when a run is expected to be cut short.
	NewestFirst bool
	// Repo restricts the run to a single repository of the owner.
	Repo string
	// Since overrides the stored cursor. When nil the cursor is the max
	// stored update timestamp per repository.
	Since *time.Time
}

// RepoReport is the per-repository outcome of a run.
type RepoReport struct {
	Aborted  bool
	Batches  int
	FullName string
	Skipped  int
	Synced   int
}

// Report is the aggregate outcome of one sync run.
type Report struct {
	Repositories []RepoReport
	Skipped      int
	Synced       int
	Users        int
}

// SyncService orchestrates a sync run: enumerate repositories, stream their
// updated issues, assemble pull-request aggregates, and flush them in
// checkpointed batches.
type SyncService struct {
	enumerator *RepositoryEnumerator
	source     ports.Source
	store      ports.SyncStore
}

// NewSyncService creates a new SyncService
func NewSyncService(source ports.Source, store ports.SyncStore) *SyncService {
	return &SyncService{
		enumerator: NewRepositoryEnumerator(source),
		source:     source,
		store:      store,
	}
}

// Sync runs one ingestion pass for owner. It returns the report of what was
// durably recorded alongside any run-fatal error; the report is valid even
// when the run aborted partway.
func (s *SyncService) Sync(ctx context.Context, owner string, opts SyncOptions) (*Report, error) {
	started := time.Now()
	runID := uuid.New().String()
	logging.Logger.Info("Sync run starting", "run_id", runID, "owner", owner, "repo", opts.Repo)

	refs, err := s.enumerator.Enumerate(ctx, owner, opts.Repo)
	if err != nil {
		return &Report{}, err
	}

	// One identity cache per run so a login seen in several repositories
	// resolves to the same canonical record.
	cache := NewIdentityCache()
	assembler := NewPullRequestAssembler(s.source, s.store, cache)
	report := &Report{}

	for i := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		repoReport, err := s.syncRepository(ctx, assembler, &refs[i], opts)
		report.Repositories = append(report.Repositories, *repoReport)
		report.Skipped += repoReport.Skipped
		report.Synced += repoReport.Synced
		report.Users = cache.Len()

		if err != nil {
			logging.Logger.Error("Sync run aborted",
				"owner", owner, "repo", refs[i].Name, "error", err)
			return report, err
		}
	}

	report.Users = cache.Len()
	logging.Logger.Info("Sync run finished",
		"run_id", runID,
		"owner", owner,
		"repositories", len(report.Repositories),
		"synced", report.Synced,
		"skipped", report.Skipped,
		"users", report.Users,
		"duration", time.Since(started))
	return report, nil
}

// syncRepository scans one repository. A nil error with Aborted set means the
// repository scan stopped early but the run continues.
func (s *SyncService) syncRepository(ctx context.Context, assembler *PullRequestAssembler, ref *domain.RepositoryRef, opts SyncOptions) (*RepoReport, error) {
	report := &RepoReport{FullName: ref.FullName}

	since := opts.Since
	if since == nil {
		latest, err := s.store.LatestSyncedAt(ctx, ref.Owner, ref.Name)
		if err != nil {
			return report, domain.Annotate(err, ref.Owner, ref.Name, 0)
		}
		since = latest
	}

	logging.Logger.Info("Scanning repository",
		"repo", ref.FullName, "since", since, "newest_first", opts.NewestFirst)

	repo := &domain.Repository{
		FullName: ref.FullName,
		Name:     ref.Name,
		Owner:    ref.Owner,
		URL:      ref.URL,
	}
	checkpointer := NewBatchCheckpointer(s.store, repo, opts.BatchSize)
	stream := s.source.ListIssues(ctx, ref.Owner, ref.Name, ports.ListIssuesOptions{
		NewestFirst: opts.NewestFirst,
		Since:       since,
	})

	for {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, checkpointer, report, err)
		}

		issue, err := stream.Next(ctx)
		if errors.Is(err, ports.ErrEndOfStream) {
			break
		}
		if err != nil {
			err = domain.Annotate(err, ref.Owner, ref.Name, 0)
			return s.finish(ctx, checkpointer, report, err)
		}

		pr, err := assembler.Assemble(ctx, ref.Owner, ref.Name, issue)
		if err != nil {
			switch ClassifyFailure(err) {
			case SkipItem:
				report.Skipped++
				logging.Logger.Warn("Skipping pull request",
					"repo", ref.FullName, "number", issue.Number, "error", err)
				continue
			default:
				return s.finish(ctx, checkpointer, report, err)
			}
		}
		if pr == nil {
			continue
		}

		if err := checkpointer.Add(ctx, *pr); err != nil {
			report.Batches = checkpointer.Flushed()
			report.Synced = checkpointer.Total() - checkpointer.Pending()
			return report, err
		}
	}

	if err := checkpointer.Flush(ctx); err != nil {
		report.Batches = checkpointer.Flushed()
		return report, err
	}

	report.Batches = checkpointer.Flushed()
	report.Synced = checkpointer.Total()
	logging.Logger.Info("Repository scan finished",
		"repo", ref.FullName,
		"pull_requests", report.Synced,
		"batches", report.Batches,
		"skipped", report.Skipped)
	return report, nil
}

// finish flushes the pending batch before the scan stops early, so
// everything assembled up to the failure stays durable. A repository-scoped
// failure downgrades to a clean abort; anything else propagates.
func (s *SyncService) finish(ctx context.Context, checkpointer *BatchCheckpointer, report *RepoReport, cause error) (*RepoReport, error) {
	if err := checkpointer.Flush(ctx); err != nil {
		logging.Logger.Error("Failed to flush pending batch on abort", "error", err)
		report.Aborted = true
		return report, err
	}
	report.Batches = checkpointer.Flushed()
	report.Synced = checkpointer.Total()

	report.Aborted = true
	if ClassifyFailure(cause) == AbortRepository {
		logging.Logger.Warn("Aborting repository scan", "repo", report.FullName, "error", cause)
		return report, nil
	}
	return report, cause
}
