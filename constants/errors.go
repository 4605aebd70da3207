package constants

import "errors"

var (
	// ErrConfig marks missing or invalid configuration; raised before any connection is opened.
	ErrConfig = errors.New("invalid configuration")
	// ErrConnection marks a source or target connection that could not be obtained.
	ErrConnection = errors.New("connection failed")
	// ErrExtraction marks a failing select query.
	ErrExtraction = errors.New("extraction failed")
	// ErrSync marks a merge or commit failure mid-stream.
	ErrSync = errors.New("sync failed")
	// ErrBackup marks a failed table backup. It always blocks the truncate.
	ErrBackup = errors.New("backup failed")
	// ErrTruncate marks a failed truncate statement.
	ErrTruncate = errors.New("truncate failed")
	// ErrTruncateNotConfirmed is returned when the operator (or truncate.confirm) did not approve the truncate.
	ErrTruncateNotConfirmed = errors.New("truncate not confirmed")
	// ErrStreamConsumed is returned when a row stream is traversed a second time.
	ErrStreamConsumed = errors.New("row stream already consumed")
	// ErrCycleInProgress is returned when a firing is skipped because another one is still running.
	ErrCycleInProgress = errors.New("sync cycle already in progress")
)
