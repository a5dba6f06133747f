package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FSStore implements Store on the filesystem. Each job gets its own
// directory: <baseDir>/results/<jobID>/.
//
// Writes go through a temp file and rename, so concurrent readers never see
// a partial result.json.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem store rooted at baseDir, creating the
// directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir is the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// JobDir returns the directory path for a given job ID.
func (fs *FSStore) JobDir(jobID string) (string, error) {
	if err := checkJobID(jobID); err != nil {
		return "", err
	}
	return fs.dir(jobID), nil
}

func (fs *FSStore) dir(jobID string) string {
	return filepath.Join(fs.baseDir, "results", jobID)
}

// checkJobID rejects IDs that would escape the results directory.
func checkJobID(jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidJobID)
	}
	if jobID == "." || jobID == ".." || strings.ContainsAny(jobID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return nil
}

func (fs *FSStore) resultPath(jobID string) string {
	return filepath.Join(fs.dir(jobID), "result.json")
}

// SaveResult atomically saves the record for the given job.
func (fs *FSStore) SaveResult(jobID string, record *Record) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("refusing to save record: %w", err)
	}

	jobDir := fs.dir(jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	tempPath := fs.resultPath(jobID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp result file: %w", err)
	}

	finalPath := fs.resultPath(jobID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename result file: %w", err)
	}

	slog.Debug("Result saved", "jobID", jobID, "path", finalPath)
	return nil
}

// LoadResult retrieves the record for the given job.
func (fs *FSStore) LoadResult(jobID string) (*Record, error) {
	if err := checkJobID(jobID); err != nil {
		return nil, err
	}

	path := fs.resultPath(jobID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}

	slog.Debug("Result loaded", "jobID", jobID, "path", path)
	return &record, nil
}

// ListResults returns summaries for all stored records.
func (fs *FSStore) ListResults() ([]RecordInfo, error) {
	resultsDir := filepath.Join(fs.baseDir, "results")

	entries, err := os.ReadDir(resultsDir)
	if os.IsNotExist(err) {
		return []RecordInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	infos := []RecordInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		jobID := entry.Name()
		if _, err := os.Stat(fs.resultPath(jobID)); os.IsNotExist(err) {
			continue
		}

		record, err := fs.LoadResult(jobID)
		if err != nil {
			slog.Warn("Failed to load result for listing", "jobID", jobID, "error", err)
			continue
		}

		infos = append(infos, record.ToInfo())
	}

	slog.Debug("Listed results", "count", len(infos))
	return infos, nil
}

// DeleteResult removes the job directory and everything in it.
func (fs *FSStore) DeleteResult(jobID string) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}

	jobDir := fs.dir(jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return &NotFoundError{JobID: jobID}
	} else if err != nil {
		return fmt.Errorf("failed to stat job directory: %w", err)
	}

	if err := os.RemoveAll(jobDir); err != nil {
		return fmt.Errorf("failed to remove job directory: %w", err)
	}

	slog.Debug("Result deleted", "jobID", jobID, "path", jobDir)
	return nil
}
