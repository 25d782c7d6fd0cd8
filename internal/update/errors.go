package update

import "errors"

var (
	// ErrUpdateInProgress is returned when a fetch is already running.
	ErrUpdateInProgress = errors.New("update: fetch already in progress")

	// ErrInvalidFilename is returned for names that are empty or escape
	// the staging directory.
	ErrInvalidFilename = errors.New("update: invalid image filename")

	// ErrNoBaseURL is returned when no image server is configured.
	ErrNoBaseURL = errors.New("update: no base url configured")

	// ErrDownloadFailed wraps a non-success HTTP status.
	ErrDownloadFailed = errors.New("update: download failed")
)
