package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name exactly what is wrong.
//
// Design decision: package-level sentinel errors rather than fresh error
// instances in Validate(). Callers can use errors.Is() for programmatic
// handling while the messages stay human-readable.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	// The seed URL is the single required positional argument.
	ErrNoSeed = errors.New("no seed URL specified: provide a URL as the first argument")

	// ErrInvalidMaxRequests is returned when the request cap is negative.
	// Use 0 for an unlimited number of requests.
	ErrInvalidMaxRequests = errors.New("invalid max requests: must be non-negative")

	// ErrInvalidMaxFiles is returned when the stored-file cap is negative.
	// Use 0 for an unlimited number of stored files.
	ErrInvalidMaxFiles = errors.New("invalid max files: must be non-negative")

	// ErrInvalidDelay is returned when the inter-request delay is negative.
	// Use 0 to disable throttling.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingSummaryFormats is returned when both --json and
	// --markdown are specified. Only one summary format can be used.
	ErrConflictingSummaryFormats = errors.New("conflicting summary formats: --json and --markdown cannot be used together")
)
