package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thalesfsp/smbo/internal/store"
)

func ids(infos []store.CheckpointInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.RunID
	}

	return out
}

func TestSelectCheckpointsForDeletion(t *testing.T) {
	now := time.Now()

	// Newest first.
	infos := []store.CheckpointInfo{
		{RunID: "run3", Timestamp: now.AddDate(0, 0, -1)},
		{RunID: "run2", Timestamp: now.AddDate(0, 0, -5)},
		{RunID: "run1", Timestamp: now.AddDate(0, 0, -10)},
		{RunID: "run4", Timestamp: now.AddDate(0, 0, -30)},
	}

	assert.Equal(t, []string{"run1", "run4"}, ids(selectCheckpointsForDeletion(infos, 0, 7, now)))
	assert.Equal(t, []string{"run1", "run4"}, ids(selectCheckpointsForDeletion(infos, 2, 0, now)))
	assert.Equal(t, []string{"run2", "run1", "run4"}, ids(selectCheckpointsForDeletion(infos, 1, 7, now)))
	assert.Empty(t, selectCheckpointsForDeletion(infos, 10, 0, now))
}

func TestAcquisitionByName(t *testing.T) {
	for _, name := range []string{"multistart", "local", "mayfly", "grid", "GRID"} {
		acq, err := acquisitionByName(name, 1)
		assert.NoError(t, err, name)
		assert.NotNil(t, acq, name)
	}

	_, err := acquisitionByName("annealing", 1)
	assert.Error(t, err)
}
