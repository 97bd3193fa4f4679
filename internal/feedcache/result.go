package feedcache

import "net/http"

// Run statuses recorded in the history.
const (
	StatusSuccess = "success" // both API calls returned 200 and every asset is cached
	StatusPartial = "partial" // API calls succeeded but some downloads were skipped
	StatusError   = "error"   // at least one API call failed
	StatusFailed  = "failed"  // the run aborted before the manifests were written
)

// RunResult summarizes one reconciliation.
type RunResult struct {
	FeedStatus        int
	LikedStatus       int
	Items             int
	Users             int
	PhotosDownloaded  int
	AvatarsDownloaded int
	DownloadFailures  int
	Deleted           []string
}

// APIOK reports whether both feed calls returned 200.
func (r *RunResult) APIOK() bool {
	return r != nil && r.FeedStatus == http.StatusOK && r.LikedStatus == http.StatusOK
}

// Status classifies the run for the history.
//
// A partial run keeps items whose downloads failed in the manifests, so they
// reference assets that are not cached yet. The next run retries them.
func (r *RunResult) Status() string {
	switch {
	case r == nil:
		return StatusFailed
	case !r.APIOK():
		return StatusError
	case r.DownloadFailures > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// APIStatusResponse is the payload reported to non-interactive callers.
// Value is the integer 200 when both API calls succeeded, otherwise "error".
type APIStatusResponse struct {
	Value any `json:"instagram_api_status_response"`
}

// NewAPIStatusResponse builds the status payload for r. A nil result, as
// returned by an aborted run, reports "error".
func NewAPIStatusResponse(r *RunResult) APIStatusResponse {
	if r.APIOK() {
		return APIStatusResponse{Value: http.StatusOK}
	}
	return APIStatusResponse{Value: "error"}
}
