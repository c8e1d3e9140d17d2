package services

import (
	"github.com/pombredanne/pullpo/internal/domain"
)

// Outcome is the scan-control decision for a classified failure.
type Outcome int

const (
	// SkipItem records the failure and moves to the next pull request.
	SkipItem Outcome = iota
	// AbortRepository stops the current repository scan and moves to the
	// next repository.
	AbortRepository
	// AbortRun stops the whole run after flushing what is already assembled.
	AbortRun
)

// String returns the outcome name for logging
func (o Outcome) String() string {
	switch o {
	case SkipItem:
		return "skip_item"
	case AbortRepository:
		return "abort_repository"
	case AbortRun:
		return "abort_run"
	default:
		return "unknown"
	}
}

// ClassifyFailure maps a sync failure to its scan-control outcome.
//
// Transient item failures affect a single pull request and are skipped; the
// skipped item is naturally retried on the next run only if its remote
// update timestamp moves past the since cursor again. A not-found during an
// active scan means the repository disappeared mid-run, so the rest of that
// scan is pointless but other repositories are fine. Credential failures,
// rate limits, persistence failures, and anything unrecognized end the run.
func ClassifyFailure(err error) Outcome {
	switch domain.KindOf(err) {
	case domain.FailureTransientItem:
		return SkipItem
	case domain.FailureNotFound:
		return AbortRepository
	default:
		return AbortRun
	}
}
