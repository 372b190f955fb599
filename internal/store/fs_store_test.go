package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/smbo"
)

// setupTestStore returns an FSStore rooted in a temporary directory.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir, nil)
	require.NoError(t, err)

	return store, tempDir
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(runID string) *Checkpoint {
	return NewCheckpoint(runID, smbo.Domain{{Min: 0, Max: 5}}, &smbo.Snapshot{
		X:         [][]float64{{1.5}, {3.5}, {2.5}},
		Y:         []float64{0.25, 0.75, 0.1},
		P:         []float64{1.9},
		Q:         []float64{0.8},
		Iteration: 4,
		State:     smbo.Sampling,
	}, RunConfig{Function: "sinusoparaboloid", Dims: 1, Iterations: 20, Seed: 42})
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	checkpoint := createTestCheckpoint("run-1")
	require.NoError(t, store.SaveCheckpoint("run-1", checkpoint))

	_, err := os.Stat(filepath.Join(tempDir, "runs", "run-1", "checkpoint.json"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tempDir, "runs", "run-1", "checkpoint.json.tmp"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "temp file must be renamed away")

	loaded, err := store.LoadCheckpoint("run-1")
	require.NoError(t, err)

	assert.Equal(t, checkpoint.Snapshot, loaded.Snapshot)
	assert.Equal(t, checkpoint.Domain, loaded.Domain)
	assert.Equal(t, []float64{2.5}, loaded.BestX)
	assert.Equal(t, 0.1, loaded.BestY)
	assert.Equal(t, smbo.Sampling, loaded.Snapshot.State)
	assert.True(t, checkpoint.Timestamp.Equal(loaded.Timestamp))
	assert.NoError(t, loaded.Validate())
}

func TestSaveCheckpointOverwrites(t *testing.T) {
	store, _ := setupTestStore(t)

	first := createTestCheckpoint("run-1")
	require.NoError(t, store.SaveCheckpoint("run-1", first))

	second := createTestCheckpoint("run-1")
	second.Snapshot.Iteration = 9
	require.NoError(t, store.SaveCheckpoint("run-1", second))

	loaded, err := store.LoadCheckpoint("run-1")
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Snapshot.Iteration)
}

func TestSaveCheckpointRejectsBadInput(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Error(t, store.SaveCheckpoint("", createTestCheckpoint("x")))
	assert.Error(t, store.SaveCheckpoint("x", nil))
}

func TestLoadCheckpointNotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.RunID)
}

func TestLoadCheckpointCorrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	dir := filepath.Join(tempDir, "runs", "bad")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte("{not json"), 0o644))

	_, err := store.LoadCheckpoint("bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestListCheckpoints(t *testing.T) {
	store, tempDir := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	require.NoError(t, err)
	assert.Empty(t, infos)

	older := createTestCheckpoint("older")
	older.Timestamp = time.Now().Add(-time.Hour)
	require.NoError(t, store.SaveCheckpoint("older", older))
	require.NoError(t, store.SaveCheckpoint("newer", createTestCheckpoint("newer")))

	// Directories without a checkpoint and corrupted files are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "runs", "empty"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "runs", "bad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "runs", "bad", "checkpoint.json"), []byte("]"), 0o644))

	infos, err = store.ListCheckpoints()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "newer", infos[0].RunID)
	assert.Equal(t, "older", infos[1].RunID)
	assert.Equal(t, 3, infos[0].Samples)
	assert.Equal(t, 4, infos[0].Iteration)
	assert.Equal(t, "sinusoparaboloid", infos[0].Function)
}

func TestDeleteCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	require.NoError(t, store.SaveCheckpoint("run-1", createTestCheckpoint("run-1")))
	require.NoError(t, store.DeleteCheckpoint("run-1"))

	_, err := os.Stat(filepath.Join(tempDir, "runs", "run-1"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.True(t, errors.Is(store.DeleteCheckpoint("run-1"), ErrNotFound))
	assert.Error(t, store.DeleteCheckpoint(""))
}

func TestRunCheckpointerSavesSnapshots(t *testing.T) {
	store, _ := setupTestStore(t)

	cp := &RunCheckpointer{
		Store:  store,
		RunID:  "run-1",
		Domain: smbo.Domain{{Min: 0, Max: 5}},
		Config: RunConfig{Function: "branin", Dims: 1},
	}

	var _ smbo.Checkpointer = cp

	snapshot := &smbo.Snapshot{
		X:     [][]float64{{1}, {2}},
		Y:     []float64{3, -1},
		P:     []float64{2},
		Q:     []float64{1},
		State: smbo.Converged,
	}

	require.NoError(t, cp.SaveSnapshot(snapshot))

	loaded, err := store.LoadCheckpoint("run-1")
	require.NoError(t, err)
	assert.Equal(t, smbo.Converged, loaded.Snapshot.State)
	assert.Equal(t, []float64{2}, loaded.BestX)
	assert.Equal(t, -1.0, loaded.BestY)
}
