package github

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pombredanne/pullpo/internal/domain"
)

// errorFromResponse maps an API error response to a tagged sync error:
// 401 aborts the run, 403/429 is the distinct rate-limit signal so callers
// can resume later from the last cursor, 404 is not-found, anything
// server-side is transient and scoped to the current item.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	cause := fmt.Errorf("%s %s: %s (%s)",
		resp.Request.Method, resp.Request.URL.Path, resp.Status, trimmed(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.NewSyncError(domain.FailureAuthentication, cause)
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// GitHub reports an exhausted quota as 403 with a zeroed remaining
		// header, but any forbidden response here means the token cannot
		// continue this run
		return domain.NewSyncError(domain.FailureRateLimit, cause)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return domain.NewSyncError(domain.FailureNotFound, cause)
	default:
		return domain.NewSyncError(domain.FailureTransientItem, cause)
	}
}

func transientErrf(format string, args ...any) error {
	return domain.NewSyncError(domain.FailureTransientItem, fmt.Errorf(format, args...))
}

func trimmed(body []byte) string {
	if len(body) > 200 {
		return string(body[:200]) + "..."
	}
	return string(body)
}
