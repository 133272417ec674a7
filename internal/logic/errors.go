package logic

import "fmt"

// MalformedRecordError marks one raw match as unusable. Callers skip the match.
type MalformedRecordError struct {
	MatchID string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	if e.MatchID == "" {
		return fmt.Sprintf("malformed match record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed match record %s: %s", e.MatchID, e.Reason)
}

// InsufficientDataError describes a window with no usable matches.
type InsufficientDataError struct {
	TeamID  string
	Fetched int
	Skipped int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for team %s: %d fetched, %d skipped as malformed", e.TeamID, e.Fetched, e.Skipped)
}

// ExternalFetchError wraps a data-source failure.
type ExternalFetchError struct {
	Source string
	TeamID string
	Err    error
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("fetch from %s for team %s: %v", e.Source, e.TeamID, e.Err)
}

func (e *ExternalFetchError) Unwrap() error { return e.Err }

// ConfigurationError rejects an invalid tuning constant or rules table at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
