package store

import "errors"

// Store persists finished match results.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return ErrNotFound (wrapped in a *NotFoundError) for a missing result
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveResult atomically writes the record for jobID, replacing any
	// previous record.
	SaveResult(jobID string, record *Record) error

	// LoadResult returns the record for jobID.
	LoadResult(jobID string) (*Record, error)

	// ListResults returns summaries of all stored records. Unreadable
	// records are skipped.
	ListResults() ([]RecordInfo, error)

	// DeleteResult removes the record and every artifact stored next to it
	// (result.json, overlay.png, trace.jsonl).
	DeleteResult(jobID string) error

	// JobDir is the directory holding the artifacts of jobID. IDs that
	// would resolve outside the store fail with ErrInvalidJobID.
	JobDir(jobID string) (string, error)
}

// ErrInvalidJobID is returned for empty job IDs and IDs containing path
// elements.
var ErrInvalidJobID = errors.New("invalid job ID")

// ErrNotFound is returned when a requested result does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing result.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "result not found: " + e.JobID
	}
	return "result not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
