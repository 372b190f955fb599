package store

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/thalesfsp/smbo"
)

// RunConfig is the part of a run's configuration a resume must agree with.
type RunConfig struct {
	Function        string  `json:"function"`
	Dims            int     `json:"dims"`
	Iterations      int     `json:"iterations"`
	InitialSamples  int     `json:"initialSamples"`
	Seed            int64   `json:"seed"`
	StopImprovement float64 `json:"stopImprovement"`
	Acquisition     string  `json:"acquisition"`
}

// Checkpoint is a persisted optimization run.
//
// Unlike a metaheuristic population, the SMBO state is fully captured by the
// observations and the hyperparameters, so a resumed run continues exactly
// where it stopped.
type Checkpoint struct {
	RunID string `json:"runId"`

	// Domain is the search box of the run.
	Domain smbo.Domain `json:"domain"`

	// Snapshot holds the samples, hyperparameters and loop position.
	Snapshot smbo.Snapshot `json:"snapshot"`

	// BestX and BestY repeat the incumbent for listing without scanning Y.
	BestX []float64 `json:"bestX"`
	BestY float64   `json:"bestY"`

	Timestamp time.Time `json:"timestamp"`
	Config    RunConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the samples.
type CheckpointInfo struct {
	RunID     string     `json:"runId"`
	Function  string     `json:"function"`
	State     smbo.State `json:"state"`
	Iteration int        `json:"iteration"`
	Samples   int        `json:"samples"`
	BestY     float64    `json:"bestY"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewCheckpoint builds a checkpoint from a snapshot, filling in the
// incumbent.
func NewCheckpoint(runID string, domain smbo.Domain, snapshot *smbo.Snapshot, config RunConfig) *Checkpoint {
	c := &Checkpoint{
		RunID:     runID,
		Domain:    domain,
		Snapshot:  *snapshot,
		Timestamp: time.Now(),
		Config:    config,
	}

	if len(snapshot.Y) > 0 {
		best := floats.MinIdx(snapshot.Y)
		c.BestX = snapshot.X[best]
		c.BestY = snapshot.Y[best]
	}

	return c
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		RunID:     c.RunID,
		Function:  c.Config.Function,
		State:     c.Snapshot.State,
		Iteration: c.Snapshot.Iteration,
		Samples:   len(c.Snapshot.Y),
		BestY:     c.BestY,
		Timestamp: c.Timestamp,
	}
}

// Validate checks if the checkpoint has valid data.
func (c *Checkpoint) Validate() error {
	if c.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}

	if err := c.Domain.Validate(); err != nil {
		return &ValidationError{Field: "Domain", Reason: err.Error()}
	}

	k := c.Domain.Dim()
	s := c.Snapshot

	if len(s.X) < 2 {
		return &ValidationError{Field: "Snapshot.X", Reason: "needs at least 2 samples"}
	}

	if len(s.X) != len(s.Y) {
		return &ValidationError{
			Field:  "Snapshot.Y",
			Reason: fmt.Sprintf("length mismatch: %d values for %d samples", len(s.Y), len(s.X)),
		}
	}

	for i, x := range s.X {
		if len(x) != k {
			return &ValidationError{Field: "Snapshot.X", Reason: fmt.Sprintf("sample %d has %d dimensions, want %d", i, len(x), k)}
		}
	}

	if len(s.P) != k || len(s.Q) != k {
		return &ValidationError{Field: "Snapshot.P/Q", Reason: fmt.Sprintf("must have %d components", k)}
	}

	if s.Iteration < 0 {
		return &ValidationError{Field: "Snapshot.Iteration", Reason: "cannot be negative"}
	}

	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}

	if c.Config.Function == "" {
		return &ValidationError{Field: "Config.Function", Reason: "cannot be empty"}
	}

	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given config.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	if c.Config.Function != config.Function {
		return &CompatibilityError{Field: "Function", Expected: c.Config.Function, Actual: config.Function}
	}

	if c.Config.Dims != config.Dims {
		return &CompatibilityError{
			Field:    "Dims",
			Expected: fmt.Sprintf("%d", c.Config.Dims),
			Actual:   fmt.Sprintf("%d", config.Dims),
		}
	}

	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
