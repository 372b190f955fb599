package smbo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
)

//////
// State machine.
//////

// State is the position of an Optimizer in its loop.
//
//	Initializing → Sampling ⇄ Refitting → Converged | MaxIterReached
type State int

const (
	// Initializing evaluates the initial design and fits the first model.
	Initializing State = iota

	// Sampling maximizes the acquisition function for the next point.
	Sampling

	// Refitting evaluates the selected point and updates the model.
	Refitting

	// Converged means the best acquisition value fell to the stop threshold.
	Converged

	// MaxIterReached means the iteration budget was spent.
	MaxIterReached
)

var stateNames = [...]string{
	Initializing:   "initializing",
	Sampling:       "sampling",
	Refitting:      "refitting",
	Converged:      "converged",
	MaxIterReached: "max-iter-reached",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Terminal reports whether the loop has ended.
func (s State) Terminal() bool {
	return s == Converged || s == MaxIterReached
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}

	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)

			return nil
		}
	}

	return fmt.Errorf("unknown state %q", text)
}

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Iterations:      20,
		InitialSamples:  0, // 2k+2.
		StopImprovement: 1e-6,
		RefitEvery:      1,
		AcquisitionFunc: ExpectedImprovement,
		AcqParams:       AcquisitionParams{Xi: 0},
		Acquisition:     nil, // MultiStart seeded with Seed.
		Seed:            1,
		ProgressChan:    nil, // Default to no progress updates.
	}
}

// Optimizer minimizes an expensive objective over a Domain by alternating a
// DACE fit and an acquisition search (sequential model-based optimization).
//
// Usage example:
//
//	domain := Domain{{Min: 0, Max: 5}}
//
//	opt, err := New(domain, SimpleObjective(func(x []float64) float64 {
//	    return math.Sin(3*x[0]) + 0.1*x[0]*x[0]
//	}), DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	result, err := opt.Run(ctx)
//	fmt.Println(result.BestX, result.BestY)
//
// How it works:
//  1. Evaluates InitialSamples points from the Sampler and fits the model
//  2. For each iteration:
//     - Maximizes the acquisition function over the domain
//     - Stops as Converged if the best value is at most StopImprovement
//     - Evaluates the objective at the selected point
//     - Adds the observation and refits the hyperparameters
//  3. Returns the incumbent (the best observation)
//
// Important notes:
//   - Not safe for concurrent use. Run one Optimizer per goroutine.
//   - The objective is assumed deterministic; re-evaluating a point adds a
//     duplicate sample and makes the model singular.
type Optimizer struct {
	domain    Domain
	objective ObjectiveFunc
	config    Config
	logger    *slog.Logger

	surrogate *Dace
	state     State
	iteration int
	lastAcq   float64
}

// New creates an Optimizer. Zero-valued Config fields fall back to the
// DefaultConfig behaviour.
func New(domain Domain, objective ObjectiveFunc, config Config) (*Optimizer, error) {
	if err := domain.Validate(); err != nil {
		return nil, err
	}

	if objective == nil {
		return nil, errors.New("objective must not be nil")
	}

	if config.Iterations < 0 {
		return nil, fmt.Errorf("iterations must not be negative, got %d", config.Iterations)
	}

	if config.InitialSamples == 0 {
		config.InitialSamples = 2*domain.Dim() + 2
	}

	if config.InitialSamples < 2 {
		return nil, fmt.Errorf("%w: %d initial samples", ErrInsufficientData, config.InitialSamples)
	}

	if config.RefitEvery <= 0 {
		config.RefitEvery = 1
	}

	if config.AcquisitionFunc == nil {
		config.AcquisitionFunc = ExpectedImprovement
	}

	if config.Acquisition == nil {
		config.Acquisition = &MultiStart{Rand: rand.New(rand.NewSource(config.Seed))}
	}

	if config.Sampler == nil {
		config.Sampler = NewLatinHypercube(config.Seed + 1)
	}

	logger := orDiscard(config.Logger)

	opts := append([]DaceOption{WithLogger(logger)}, config.SurrogateOptions...)

	return &Optimizer{
		domain:    domain,
		objective: objective,
		config:    config,
		logger:    logger,
		surrogate: NewDace(opts...),
		state:     Initializing,
	}, nil
}

// State returns the current loop state.
func (o *Optimizer) State() State { return o.state }

// Iteration returns the number of completed acquisition steps.
func (o *Optimizer) Iteration() int { return o.iteration }

// Surrogate returns the model. It is only meaningful after initialization.
func (o *Optimizer) Surrogate() *Dace { return o.surrogate }

// Run steps the loop until it reaches a terminal state.
//
// The context is checked between iterations only; an objective evaluation in
// flight is never interrupted. On cancellation the partial Result is
// returned with the context's error.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return o.Result(), err
		}

		done, err := o.Step()
		if err != nil {
			return o.Result(), err
		}

		if done {
			return o.Result(), nil
		}
	}
}

// Step advances the loop by one state transition: the initial design, or one
// acquisition plus evaluation. It reports whether the loop has ended.
//
// A failed step returns an *IterationError and leaves the loop in the state
// it started from, so Step may be retried. When the refit after a new
// observation fails, the observation and the hyperparameter update are
// rolled back and the model is the one the step started from.
func (o *Optimizer) Step() (bool, error) {
	switch {
	case o.state == Initializing:
		return false, o.initialize()
	case o.state.Terminal():
		return true, nil
	case o.iteration >= o.config.Iterations:
		o.finish(MaxIterReached)

		return true, nil
	}

	return o.iterate()
}

// Resume loads a Snapshot taken from a previous run. The model is rebuilt
// from the snapshot's hyperparameters without searching them again.
func (o *Optimizer) Resume(s *Snapshot) error {
	if s == nil {
		return errors.New("resume: nil snapshot")
	}

	for i, x := range s.X {
		if len(x) != o.domain.Dim() {
			return fmt.Errorf("resume: sample %d: %w", i, &DimensionError{What: "x", Want: o.domain.Dim(), Got: len(x)})
		}
	}

	if err := o.surrogate.Restore(s.X, s.Y, s.P, s.Q); err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	o.iteration = s.Iteration
	o.state = s.State

	// A run that spent its budget continues when given a larger one.
	if o.state == Initializing || o.state == Refitting ||
		(o.state == MaxIterReached && o.iteration < o.config.Iterations) {
		o.state = Sampling
	}

	o.logger.Info("Resumed optimization",
		"samples", len(s.X),
		"iteration", o.iteration,
		"state", o.state,
	)

	return nil
}

// Snapshot captures the data, hyperparameters and loop position.
func (o *Optimizer) Snapshot() *Snapshot {
	return &Snapshot{
		X:         o.surrogate.samples.X(),
		Y:         o.surrogate.samples.Y(),
		P:         o.surrogate.P(),
		Q:         o.surrogate.Q(),
		Iteration: o.iteration,
		State:     o.state,
	}
}

// Result summarizes the run so far.
func (o *Optimizer) Result() Result {
	r := Result{
		State:           o.state,
		Iterations:      o.iteration,
		LastAcquisition: o.lastAcq,
		Samples:         o.surrogate.Samples(),
		P:               o.surrogate.P(),
		Q:               o.surrogate.Q(),
	}

	if best, ok := o.surrogate.Incumbent(); ok {
		r.BestX = best.X
		r.BestY = best.Y
	}

	return r
}

//////
// Loop internals.
//////

func (o *Optimizer) initialize() error {
	points, err := o.config.Sampler.Sample(o.config.InitialSamples, o.domain)
	if err != nil {
		return &IterationError{State: Initializing, Err: fmt.Errorf("initial design: %w", err)}
	}

	X := make([][]float64, 0, len(points))
	Y := make([]float64, 0, len(points))

	for _, x := range points {
		if !o.domain.Contains(x) {
			return &IterationError{State: Initializing, X: x, Err: ErrOutOfDomain}
		}

		y, err := o.objective(copyVec(x))
		if err != nil {
			return &IterationError{State: Initializing, X: x, Err: err}
		}

		X = append(X, x)
		Y = append(Y, y)

		o.logger.Debug("Initial sample evaluated", "x", x, "y", y)
	}

	if _, err := o.surrogate.Fit(X, Y); err != nil {
		return &IterationError{State: Initializing, Err: err}
	}

	o.state = Sampling

	for i := range X {
		o.sendProgress(X[i], Y[i], 0)
	}

	o.logger.Info("Initial design fitted",
		"samples", len(X),
		"p", o.surrogate.P(),
		"q", o.surrogate.Q(),
	)

	o.checkpoint()

	return nil
}

func (o *Optimizer) iterate() (bool, error) {
	next := o.iteration + 1

	best, _ := o.surrogate.Incumbent()

	params := o.config.AcqParams
	params.BestSoFar = best.Y

	candidate, err := o.config.Acquisition.Maximize(func(x []float64) (float64, error) {
		return acquisitionAt(x, o.surrogate, o.config.AcquisitionFunc, params)
	}, o.domain)
	if err != nil {
		return false, &IterationError{Iteration: next, State: Sampling, Err: err}
	}

	o.lastAcq = candidate.Value

	if !candidate.Converged {
		o.logger.Debug("Acquisition search stopped early", "iteration", next, "evaluations", candidate.Evaluations)
	}

	if candidate.Value <= o.config.StopImprovement {
		o.finish(Converged)

		return true, nil
	}

	y, err := o.objective(copyVec(candidate.X))
	if err != nil {
		return false, &IterationError{Iteration: next, State: Sampling, X: candidate.X, Err: err}
	}

	o.state = Refitting

	n, p, q := o.surrogate.Len(), o.surrogate.P(), o.surrogate.Q()

	if err := o.surrogate.AddSample(candidate.X, y); err != nil {
		return false, o.fail(next, candidate.X, err)
	}

	// A sample that leaves R singular for every (P, Q) would fail every
	// later step, so it is dropped again.
	if err := o.refit(next); err != nil {
		o.surrogate.rollback(n, p, q)

		return false, o.fail(next, candidate.X, fmt.Errorf("observation y=%g discarded: %w", y, err))
	}

	o.iteration = next

	o.logger.Debug("Iteration completed",
		"iteration", next,
		"x", candidate.X,
		"y", y,
		"acquisition", candidate.Value,
	)

	o.sendProgress(candidate.X, y, candidate.Value)

	o.state = Sampling
	o.checkpoint()

	if o.iteration >= o.config.Iterations {
		o.finish(MaxIterReached)

		return true, nil
	}

	return false, nil
}

// refit re-maximizes the likelihood every RefitEvery iterations and always
// rebuilds the cached model. A stale (P, Q) that makes the grown R singular
// forces a search.
func (o *Optimizer) refit(iteration int) error {
	if iteration%o.config.RefitEvery == 0 {
		_, err := o.surrogate.MaximizeLikelihood(nil)

		return err
	}

	_, err := o.surrogate.LogLikelihood()
	if isSingular(err) {
		o.logger.Debug("Stale hyperparameters are singular, refitting", "iteration", iteration)

		_, err = o.surrogate.MaximizeLikelihood(nil)
	}

	return err
}

// fail restores the Sampling state after a Refitting failure.
func (o *Optimizer) fail(iteration int, x []float64, err error) error {
	o.state = Sampling

	return &IterationError{Iteration: iteration, State: Refitting, X: x, Err: err}
}

func (o *Optimizer) finish(state State) {
	o.state = state

	best, _ := o.surrogate.Incumbent()

	o.logger.Info("Optimization finished",
		"state", state,
		"iterations", o.iteration,
		"bestX", best.X,
		"bestY", best.Y,
		"lastAcquisition", o.lastAcq,
	)

	o.checkpoint()
}

// checkpoint hands a Snapshot to the Checkpointer. Failures are logged and
// do not stop the run.
func (o *Optimizer) checkpoint() {
	if o.config.Checkpointer == nil {
		return
	}

	if err := o.config.Checkpointer.SaveSnapshot(o.Snapshot()); err != nil {
		o.logger.Warn("Checkpoint failed", "iteration", o.iteration, "error", err)
	}
}

func (o *Optimizer) sendProgress(x []float64, y, acquisition float64) {
	if o.config.ProgressChan == nil {
		return
	}

	best, _ := o.surrogate.Incumbent()

	update := ProgressUpdate{
		State:            o.state,
		CurrentIteration: o.iteration,
		TotalIterations:  o.config.Iterations,
		CurrentX:         copyVec(x),
		CurrentY:         y,
		BestX:            best.X,
		BestY:            best.Y,
		Acquisition:      acquisition,
	}

	select {
	case o.config.ProgressChan <- update:
	default:
		// Skip update if channel is full.
	}
}
