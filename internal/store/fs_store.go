package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements Store on the filesystem. Checkpoints live in
// <baseDir>/runs/<runID>/checkpoint.json and are written with a temp file
// plus rename, so a crash never leaves a truncated checkpoint behind.
type FSStore struct {
	baseDir string
	logger  *slog.Logger
}

// NewFSStore creates a store rooted at baseDir, creating it if needed. A nil
// logger discards logs.
func NewFSStore(baseDir string, logger *slog.Logger) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &FSStore{baseDir: baseDir, logger: logger}, nil
}

func (fs *FSStore) runDir(runID string) string {
	return filepath.Join(fs.baseDir, "runs", runID)
}

func (fs *FSStore) checkpointPath(runID string) string {
	return filepath.Join(fs.runDir(runID), "checkpoint.json")
}

// SaveCheckpoint implements Store.
func (fs *FSStore) SaveCheckpoint(runID string, checkpoint *Checkpoint) error {
	if runID == "" {
		return errors.New("runID cannot be empty")
	}

	if checkpoint == nil {
		return errors.New("checkpoint cannot be nil")
	}

	if err := os.MkdirAll(fs.runDir(runID), 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	finalPath := fs.checkpointPath(runID)
	tempPath := finalPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)

		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}

	fs.logger.Debug("Checkpoint saved", "runID", runID, "path", finalPath)

	return nil
}

// LoadCheckpoint implements Store.
func (fs *FSStore) LoadCheckpoint(runID string) (*Checkpoint, error) {
	if runID == "" {
		return nil, errors.New("runID cannot be empty")
	}

	path := fs.checkpointPath(runID)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}

	fs.logger.Debug("Checkpoint loaded", "runID", runID, "path", path)

	return &checkpoint, nil
}

// ListCheckpoints implements Store. Entries are sorted by timestamp, newest
// first. Unreadable checkpoints are skipped with a warning.
func (fs *FSStore) ListCheckpoints() ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(filepath.Join(fs.baseDir, "runs"))
	if errors.Is(err, os.ErrNotExist) {
		return []CheckpointInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	infos := []CheckpointInfo{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		checkpoint, err := fs.LoadCheckpoint(entry.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			fs.logger.Warn("Failed to load checkpoint for listing", "runID", entry.Name(), "error", err)

			continue
		}

		infos = append(infos, checkpoint.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Timestamp.After(infos[j].Timestamp) })

	fs.logger.Debug("Listed checkpoints", "count", len(infos))

	return infos, nil
}

// DeleteCheckpoint implements Store.
func (fs *FSStore) DeleteCheckpoint(runID string) error {
	if runID == "" {
		return errors.New("runID cannot be empty")
	}

	runDir := fs.runDir(runID)

	if _, err := os.Stat(runDir); errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	fs.logger.Debug("Checkpoint deleted", "runID", runID, "path", runDir)

	return nil
}
