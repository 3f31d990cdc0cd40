package domain

import "errors"

var (
	// ErrCancelled is returned when an in-flight invocation was cancelled by
	// the caller. It is never presented as a failure message.
	ErrCancelled = errors.New("operation cancelled")

	// ErrToolMissing is returned when the extraction tool cannot be executed
	// at all. Not retried.
	ErrToolMissing = errors.New("extraction tool not found")

	// ErrLoginRequired wraps terminal failures where the output matched the
	// login-required heuristic and no credential candidate succeeded.
	ErrLoginRequired = errors.New("login required")

	// ErrOperationInFlight is returned when a fetch or download is requested
	// while another operation is still running for the session manager.
	ErrOperationInFlight = errors.New("another operation is in progress")

	// ErrUnsupportedURL is returned for URLs outside the supported host.
	ErrUnsupportedURL = errors.New("not a vimeo URL")
)

// DownloadFailedError is a terminal download failure carrying the trailing
// tool output so callers can persist it alongside the message.
type DownloadFailedError struct {
	Tail string
}

func (e *DownloadFailedError) Error() string {
	if e.Tail == "" {
		return "failed to download the video"
	}
	return "failed to download the video:\n\n" + e.Tail
}
