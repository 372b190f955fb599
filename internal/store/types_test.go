package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/smbo"
)

func TestCheckpointValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Checkpoint)
		field  string
	}{
		{"valid", func(*Checkpoint) {}, ""},
		{"empty run id", func(c *Checkpoint) { c.RunID = "" }, "RunID"},
		{"bad domain", func(c *Checkpoint) { c.Domain = smbo.Domain{{Min: 1, Max: 1}} }, "Domain"},
		{"too few samples", func(c *Checkpoint) {
			c.Snapshot.X = c.Snapshot.X[:1]
			c.Snapshot.Y = c.Snapshot.Y[:1]
		}, "Snapshot.X"},
		{"ragged y", func(c *Checkpoint) { c.Snapshot.Y = c.Snapshot.Y[:2] }, "Snapshot.Y"},
		{"wrong sample dims", func(c *Checkpoint) { c.Snapshot.X[1] = []float64{1, 2} }, "Snapshot.X"},
		{"wrong hyperparameter dims", func(c *Checkpoint) { c.Snapshot.Q = nil }, "Snapshot.P/Q"},
		{"negative iteration", func(c *Checkpoint) { c.Snapshot.Iteration = -1 }, "Snapshot.Iteration"},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }, "Timestamp"},
		{"no function", func(c *Checkpoint) { c.Config.Function = "" }, "Config.Function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestCheckpoint("run")
			tt.mutate(c)

			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)

				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	c := createTestCheckpoint("run")

	assert.NoError(t, c.IsCompatible(RunConfig{Function: "sinusoparaboloid", Dims: 1, Iterations: 50}))

	var ce *CompatibilityError
	require.ErrorAs(t, c.IsCompatible(RunConfig{Function: "branin", Dims: 1}), &ce)
	assert.Equal(t, "Function", ce.Field)

	require.ErrorAs(t, c.IsCompatible(RunConfig{Function: "sinusoparaboloid", Dims: 3}), &ce)
	assert.Equal(t, "Dims", ce.Field)
}

func TestCheckpointStateIsReadableJSON(t *testing.T) {
	data, err := json.Marshal(createTestCheckpoint("run"))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"state":"sampling"`)
}
