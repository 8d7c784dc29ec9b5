// Package constants provides shared constants used throughout the cdmforge
// codebase: artifact naming conventions, file permissions, and matcher
// retry/timeout values that should stay consistent across the application.
package constants

import "time"

// Artifact naming constants. All persisted artifacts embed a timestamp in
// this fixed-width layout, which makes "latest file wins" comparisons safe
// as plain lexicographic string comparisons.
const (
	// TimestampLayout is the layout for timestamps embedded in filenames.
	TimestampLayout = "20060102_150405"

	// RationalizedPrefix is the filename prefix for rationalized source files.
	RationalizedPrefix = "rationalized"

	// MatchFilePrefix is the filename prefix for persisted match files.
	MatchFilePrefix = "match"

	// DispositionPrefix is the filename prefix for application reports.
	DispositionPrefix = "disposition"

	// GapsPrefix is the filename prefix for gap reports.
	GapsPrefix = "gaps"

	// ArtifactExt is the extension for all persisted JSON artifacts.
	ArtifactExt = ".json"
)

// File permission constants define standard Unix file permissions.
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Matcher adapter constants. Retry and timeout policy lives entirely in the
// matcher adapters; the reconciliation core never retries.
const (
	// MatcherTimeout is the timeout for a single matcher round trip.
	MatcherTimeout = 2 * time.Minute

	// MaxMatcherRetries is the maximum number of retry attempts for a
	// failed matcher call before the entity is recorded as a failure.
	MaxMatcherRetries = 3

	// RetryBackoff is the base backoff duration between matcher retries.
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration between matcher retries.
	MaxRetryBackoff = 30 * time.Second
)

// Catalog compaction limits bound the size of what is sent to a matcher.
// They never affect the stored canonical record.
const (
	// MaxEntityDescription is the truncation length for entity
	// descriptions in the compact catalog.
	MaxEntityDescription = 200

	// MaxAttributeDescription is the truncation length for attribute
	// descriptions in the compact catalog.
	MaxAttributeDescription = 150
)
