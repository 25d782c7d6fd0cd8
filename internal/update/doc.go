// Package update stages firmware images and confirms the running one.
//
// FetchAndApply downloads <base_url>/<file> into the staging directory on
// a background goroutine, posting UpdateProgress events as bytes arrive.
// A completed download is renamed into place and recorded in the
// "pending" file, which the boot loader picks up on the next restart.
//
// CancelSelfRollback writes the confirmation marker. Until it exists the
// boot loader reverts to the previous image on the next restart.
//
// ReportProgress publishes transfer progress on the otaupdate/status
// topic. It is called by the coordinator for each progress event.
package update
