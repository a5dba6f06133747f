package store

import (
	"time"

	"github.com/cwbudde/subimgmatch/internal/match"
)

// JobConfig describes one match job. It lives here, not in the server
// package, so records can carry it without an import cycle.
type JobConfig struct {
	ReferencePath    string         `json:"referencePath"`
	TemplatePath     string         `json:"templatePath"`
	Strategy         match.Strategy `json:"strategy"`
	Workers          int            `json:"workers,omitempty"`
	SlidingHistogram bool           `json:"slidingHistogram,omitempty"`
}

// Size is a buffer geometry.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Record is the persisted outcome of a finished match job.
type Record struct {
	// JobID is the unique identifier of the job that produced the record
	JobID string `json:"jobId"`

	// Config is the job configuration the search ran with
	Config JobConfig `json:"config"`

	// Result holds the best offset and its score
	Result match.Result `json:"result"`

	Reference Size `json:"reference"`
	Template  Size `json:"template"`

	// Elapsed is the wall time of the search alone, excluding decoding
	Elapsed time.Duration `json:"elapsed"`

	// Timestamp records when the record was created
	Timestamp time.Time `json:"timestamp"`
}

// RecordInfo is the listing summary of a Record.
type RecordInfo struct {
	JobID     string         `json:"jobId"`
	Strategy  match.Strategy `json:"strategy"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Score     float64        `json:"score"`
	Timestamp time.Time      `json:"timestamp"`
	Reference string         `json:"referencePath"`
	Template  string         `json:"templatePath"`
}

// NewRecord creates a record stamped with the current time.
func NewRecord(jobID string, config JobConfig, result match.Result, ref, tpl Size, elapsed time.Duration) *Record {
	return &Record{
		JobID:     jobID,
		Config:    config,
		Result:    result,
		Reference: ref,
		Template:  tpl,
		Elapsed:   elapsed,
		Timestamp: time.Now(),
	}
}

// ToInfo converts a full Record to its listing summary.
func (r *Record) ToInfo() RecordInfo {
	return RecordInfo{
		JobID:     r.JobID,
		Strategy:  r.Result.Strategy,
		X:         r.Result.X,
		Y:         r.Result.Y,
		Score:     r.Result.Score,
		Timestamp: r.Timestamp,
		Reference: r.Config.ReferencePath,
		Template:  r.Config.TemplatePath,
	}
}

// Validate checks that the record is internally consistent.
func (r *Record) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Config.ReferencePath == "" {
		return &ValidationError{Field: "Config.ReferencePath", Reason: "cannot be empty"}
	}
	if r.Config.TemplatePath == "" {
		return &ValidationError{Field: "Config.TemplatePath", Reason: "cannot be empty"}
	}
	if r.Result.Strategy != r.Config.Strategy {
		return &ValidationError{Field: "Result.Strategy", Reason: "does not match Config.Strategy"}
	}
	if r.Template.Width > r.Reference.Width || r.Template.Height > r.Reference.Height {
		return &ValidationError{Field: "Template", Reason: "larger than reference"}
	}
	if r.Result.X < 0 || r.Result.X > r.Reference.Width-r.Template.Width {
		return &ValidationError{Field: "Result.X", Reason: "outside the offset range"}
	}
	if r.Result.Y < 0 || r.Result.Y > r.Reference.Height-r.Template.Height {
		return &ValidationError{Field: "Result.Y", Reason: "outside the offset range"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
