// Package provider fetches finished matches from external statistics sources.
package provider

import "errors"

var (
	// ErrBlocked is returned when the provider refuses the client (HTTP 403).
	ErrBlocked = errors.New("provider blocked the request")
	// ErrRateLimited is returned after retries are exhausted on HTTP 429.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrNotFound is returned for HTTP 404 and missing export files.
	ErrNotFound = errors.New("not found at provider")
)
