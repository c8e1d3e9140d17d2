package services

import (
	"context"

	"github.com/pombredanne/pullpo/internal/domain"
	"github.com/pombredanne/pullpo/internal/logging"
	"github.com/pombredanne/pullpo/internal/ports"
)

// DefaultBatchSize is the number of pull-request aggregates collected before
// a checkpoint flush when no explicit batch size is configured.
const DefaultBatchSize = 10

// BatchCheckpointer accumulates assembled pull requests and flushes them to
// the store in fixed-size batches. Each flush is one atomic commit, so an
// interrupted run loses at most the unflushed tail and the since cursor only
// ever reflects durable state.
type BatchCheckpointer struct {
	flushed int
	pending []domain.PullRequest
	repo    *domain.Repository
	size    int
	store   ports.BatchWriter
	total   int
}

// NewBatchCheckpointer creates a checkpointer for one repository scan.
// A size of zero or less falls back to DefaultBatchSize.
func NewBatchCheckpointer(store ports.BatchWriter, repo *domain.Repository, size int) *BatchCheckpointer {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchCheckpointer{
		pending: make([]domain.PullRequest, 0, size),
		repo:    repo,
		size:    size,
		store:   store,
	}
}

// Add queues one aggregate and flushes when the batch is full
func (b *BatchCheckpointer) Add(ctx context.Context, pr domain.PullRequest) error {
	b.pending = append(b.pending, pr)
	b.total++
	if len(b.pending) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush persists the pending batch. Flushing an empty checkpointer is a
// no-op, so the final flush after an exactly-divisible scan costs nothing.
func (b *BatchCheckpointer) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	count := len(b.pending)
	if err := b.store.SaveBatch(ctx, b.repo, b.pending); err != nil {
		return domain.Annotate(err, b.repo.Owner, b.repo.Name, 0)
	}
	b.flushed++
	b.pending = b.pending[:0]

	logging.Logger.Info("Flushed batch",
		"owner", b.repo.Owner, "repo", b.repo.Name,
		"pull_requests", count, "batch", b.flushed)
	return nil
}

// Flushed returns the number of batches committed so far
func (b *BatchCheckpointer) Flushed() int {
	return b.flushed
}

// Pending returns the number of aggregates waiting for the next flush
func (b *BatchCheckpointer) Pending() int {
	return len(b.pending)
}

// Total returns the number of aggregates added since creation
func (b *BatchCheckpointer) Total() int {
	return b.total
}
