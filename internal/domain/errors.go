package domain

import (
	"errors"
	"fmt"
)

// FailureKind discriminates sync failures so callers can decide between
// skipping an item, aborting a repository scan, or aborting the whole run.
type FailureKind string

const (
	FailureAuthentication FailureKind = "authentication"
	FailureConfiguration  FailureKind = "configuration"
	FailureNotFound       FailureKind = "not_found"
	FailurePersistence    FailureKind = "persistence"
	FailureRateLimit      FailureKind = "rate_limit"
	FailureTransientItem  FailureKind = "transient_item"
	FailureUnknown        FailureKind = "unknown"
)

// SyncError is a failure tagged with its kind and the scope it happened in.
// Owner/Repo/Number are filled as the error propagates outward; Number is
// zero unless the failure is scoped to a single pull request.
type SyncError struct {
	Kind   FailureKind
	Owner  string
	Repo   string
	Number int
	Err    error
}

func (e *SyncError) Error() string {
	scope := ""
	switch {
	case e.Owner != "" && e.Repo != "" && e.Number > 0:
		scope = fmt.Sprintf(" (%s/%s#%d)", e.Owner, e.Repo, e.Number)
	case e.Owner != "" && e.Repo != "":
		scope = fmt.Sprintf(" (%s/%s)", e.Owner, e.Repo)
	case e.Owner != "":
		scope = fmt.Sprintf(" (%s)", e.Owner)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s%s: %v", e.Kind, scope, e.Err)
	}
	return fmt.Sprintf("%s%s", e.Kind, scope)
}

func (e *SyncError) Unwrap() error { return e.Err }

// NewSyncError tags err with kind.
func NewSyncError(kind FailureKind, err error) *SyncError {
	return &SyncError{Kind: kind, Err: err}
}

// Annotate fills the scope fields of err when it is a SyncError, without
// overwriting fields already set closer to the failure. Other errors are
// wrapped as FailureUnknown.
func Annotate(err error, owner, repo string, number int) error {
	if err == nil {
		return nil
	}
	var se *SyncError
	if !errors.As(err, &se) {
		se = &SyncError{Kind: FailureUnknown, Err: err}
		err = se
	}
	if se.Owner == "" {
		se.Owner = owner
	}
	if se.Repo == "" {
		se.Repo = repo
	}
	if se.Number == 0 {
		se.Number = number
	}
	return err
}

// KindOf returns the failure kind of err, or FailureUnknown for untagged
// errors.
func KindOf(err error) FailureKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return FailureUnknown
}

// IsAuthentication reports whether err is a fatal credential failure.
func IsAuthentication(err error) bool { return KindOf(err) == FailureAuthentication }

// IsRateLimit reports whether err is a rate-limit abort. Rate limits are
// fatal for the current run but resumable from the last flushed cursor.
func IsRateLimit(err error) bool { return KindOf(err) == FailureRateLimit }

// IsTransientItem reports whether err affects a single pull request only.
func IsTransientItem(err error) bool { return KindOf(err) == FailureTransientItem }

// IsNotFound reports whether the remote side does not know the owner,
// repository, or resource.
func IsNotFound(err error) bool { return KindOf(err) == FailureNotFound }

// IsConfiguration reports whether err is a pre-scan configuration failure.
func IsConfiguration(err error) bool { return KindOf(err) == FailureConfiguration }

// IsPersistence reports whether err came from the local store.
func IsPersistence(err error) bool { return KindOf(err) == FailurePersistence }
