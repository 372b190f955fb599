package smbo

import (
	"log/slog"

	"golang.org/x/exp/constraints"
)

// ProgressUpdate represents the current state of the optimization process.
type ProgressUpdate struct {
	// State is the loop state the update was emitted from.
	State State

	// CurrentIteration is the current iteration number. Initial samples are
	// reported with iteration 0.
	CurrentIteration int

	// TotalIterations is the iteration budget of the run.
	TotalIterations int

	// CurrentX holds the point that was just evaluated.
	CurrentX []float64

	// CurrentY holds the objective value observed at CurrentX.
	CurrentY float64

	// BestX holds the incumbent input.
	BestX []float64

	// BestY holds the incumbent objective value.
	BestY float64

	// Acquisition is the acquisition value at CurrentX when it was chosen.
	// Zero for initial samples.
	Acquisition float64
}

// ParameterRange defines the valid range for one input dimension.
//
// Type Parameter:
//   - T: The numeric type for this parameter range (int64 or float64)
//
// Fields:
// - Min: The minimum (inclusive) value for this dimension
// - Max: The maximum (inclusive) value for this dimension
//
// Usage:
//
//	// Example 1: Buffer size range from 1KB to 1MB
//	bufferSizeRange := ParameterRange[int64]{
//	    Min: 1024,      // 1KB
//	    Max: 1048576,   // 1MB
//	}
//
//	// Example 2: Learning rate range from 0.0001 to 0.1
//	learningRateRange := ParameterRange[float64]{
//	    Min: 0.0001,
//	    Max: 0.1,
//	}
//
// Validation:
// - Min must be strictly less than Max
//
// Warning:
//   - The surrogate works on raw coordinates, so dimensions with wildly
//     different scales are weighted through Q alone.
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	// Min defines the lower bound (inclusive).
	Min T

	// Max defines the upper bound (inclusive).
	Max T
}

// Width returns Max - Min as a float64.
func (r ParameterRange[T]) Width() float64 {
	return float64(r.Max) - float64(r.Min)
}

// ObjectiveFunc is the expensive black-box function being minimized.
//
// Parameters:
//   - x: A point of the domain, one value per ParameterRange. The slice is a
//     copy and may be retained.
//
// Returns:
// - float64: The objective value (lower is better)
// - error: A non-nil error aborts the current iteration
//
// The model assumes a deterministic, noise-free objective: the surrogate
// interpolates every observed value exactly.
type ObjectiveFunc func(x []float64) (float64, error)

// SimpleObjective adapts an infallible function to ObjectiveFunc.
func SimpleObjective(f func(x []float64) float64) ObjectiveFunc {
	return func(x []float64) (float64, error) {
		return f(x), nil
	}
}

// AcquisitionFunc defines the signature for acquisition functions used to
// score candidate points from the surrogate's posterior.
//
// Parameters:
// - mean: The predicted objective value at a point (lower is better)
// - variance: The predicted variance at that point
// - params: Additional parameters needed by specific acquisition functions
//
// Returns:
//   - float64: Acquisition value, never negative. Higher values indicate more
//     promising points; zero means nothing is expected to be gained.
//
// Built-in acquisition functions:
// - ExpectedImprovement: Expected magnitude of improvement (default)
// - ProbabilityOfImprovement: Probability of finding a better value
//
// Implementation notes for custom acquisition functions:
// - Must handle zero variance without dividing by it
// - Should be deterministic
// - The loop stops once the best value found falls to Config.StopImprovement.
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds parameters used by acquisition functions.
type AcquisitionParams struct {
	// Xi (Greek letter ξ) is the minimum improvement a point must promise
	// before it is counted. Zero reproduces the textbook criterion.
	Xi float64

	// BestSoFar is the incumbent objective value. It is overwritten by the
	// optimizer before every acquisition search.
	BestSoFar float64
}

// Checkpointer persists snapshots of a running optimization.
type Checkpointer interface {
	SaveSnapshot(snapshot *Snapshot) error
}

// Snapshot is everything needed to resume an optimization: the observed
// data, the fitted hyperparameters and the loop position.
type Snapshot struct {
	X         [][]float64 `json:"x"`
	Y         []float64   `json:"y"`
	P         []float64   `json:"p"`
	Q         []float64   `json:"q"`
	Iteration int         `json:"iteration"`
	State     State       `json:"state"`
}

// Config holds all configuration parameters for the optimization loop.
//
// Usage example:
//
//	config := DefaultConfig()
//	config.Iterations = 50
//	config.Acquisition = &GridSearch{Resolution: 0.01}
//
// Note:
// - Create separate configs for parallel optimizations.
type Config struct {
	// Iterations is the number of acquisition/evaluation steps after the
	// initial design.
	Iterations int

	// InitialSamples is the size of the initial design. Zero selects the
	// conventional 2k+2, enough degrees of freedom to fit P and Q per
	// dimension.
	InitialSamples int

	// StopImprovement ends the run as Converged once the best acquisition
	// value found is at or below it.
	StopImprovement float64

	// RefitEvery re-maximizes the likelihood every N iterations. The cached
	// model is rebuilt after every new sample regardless.
	RefitEvery int

	// AcquisitionFunc scores candidates. See AcquisitionFunc.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function.
	AcqParams AcquisitionParams

	// Acquisition searches the domain for the best acquisition value.
	Acquisition AcquisitionOptimizer

	// Sampler produces the initial design. Nil selects a LatinHypercube
	// seeded with Seed.
	Sampler Sampler

	// Seed feeds the default sampler and any randomized acquisition search.
	Seed int64

	// SurrogateOptions are applied to every Dace the optimizer creates.
	SurrogateOptions []DaceOption

	// Logger receives structured progress logs. Nil discards them.
	Logger *slog.Logger

	// ProgressChan is used to send progress updates during optimization.
	// If nil, no updates will be sent. Sends never block.
	ProgressChan chan<- ProgressUpdate

	// Checkpointer, if set, receives a Snapshot after the initial fit and
	// after every iteration.
	Checkpointer Checkpointer
}

// Result describes a finished optimization.
type Result struct {
	// State is Converged or MaxIterReached.
	State State

	// Iterations is the number of completed acquisition steps.
	Iterations int

	// BestX and BestY are the incumbent.
	BestX []float64
	BestY float64

	// LastAcquisition is the acquisition value of the last selected
	// candidate.
	LastAcquisition float64

	// Samples holds every observation in insertion order.
	Samples []SamplePoint

	// P and Q are the final hyperparameters.
	P []float64
	Q []float64
}
