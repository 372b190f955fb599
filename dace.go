package smbo

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

const (
	// defaultHyperparameter is the starting value of every P and Q component.
	defaultHyperparameter = 1.5

	// defaultQFloor keeps Q away from zero, where distinct points become
	// perfectly correlated and R singular.
	defaultQFloor = 1e-5

	// defaultMaxCondition is the largest LU condition estimate accepted for R.
	defaultMaxCondition = 1e12

	// defaultDeterminantFloor replaces non-positive or underflowing |R| in the
	// likelihood.
	defaultDeterminantFloor = 1e-300

	// defaultVarianceFloor keeps log(σ̂²) finite in the likelihood for
	// constant data.
	defaultVarianceFloor = 1e-12
)

// Surrogate is the read side of a fitted model as used by acquisition
// functions.
type Surrogate interface {
	// Predict returns the model's estimate of the objective at x.
	Predict(x []float64) (float64, error)

	// PredictedVariance returns the model's uncertainty at x, never negative.
	PredictedVariance(x []float64) (float64, error)
}

// posterior is implemented by surrogates that can produce mean and variance
// from one correlation vector.
type posterior interface {
	Posterior(x []float64) (mean, variance float64, err error)
}

// Dace is a DACE (Design and Analysis of Computer Experiments) surrogate: a
// spatial-correlation regressor whose predictor interpolates every observed
// sample exactly and whose predicted variance vanishes there.
//
// Fields:
// - samples: The observed (X, Y) pairs
// - p, q: Hyperparameters of the correlation model, one per dimension
// - state: Every quantity derived from (X, Y, P, Q), built and dropped as a unit
//
// Invalidation:
//   - Any change of X, Y, P or Q sets state to nil. The next read rebuilds
//     R, R⁻¹, log|R|, μ̂, σ̂² and the intermediate vectors together; subsets
//     are never cached on their own because they are derived from each other.
//
// Thread safety:
//   - A Dace is owned by a single caller. It has no internal locking and must
//     not be used from several goroutines at once.
type Dace struct {
	samples *SampleSet

	p []float64
	q []float64

	state *daceState

	initial          float64
	qFloor           float64
	maxCondition     float64
	determinantFloor float64
	varianceFloor    float64
	restartScales    []float64
	maxEvaluations   int

	logger *slog.Logger
}

// daceState is the invalidation group. It is only ever produced whole by
// buildState.
type daceState struct {
	n int

	r      *mat.SymDense
	rInv   *mat.Dense
	logDet float64

	// detFloored records that logDet was replaced by log(determinantFloor).
	detFloored bool
	condition  float64

	rInvOnes     *mat.VecDense
	onesRInvOnes float64

	mu        float64
	resid     *mat.VecDense
	rInvResid *mat.VecDense
	sigma2    float64
}

// DaceOption configures a Dace.
type DaceOption func(*Dace)

// WithInitialHyperparameter sets the value every P and Q component starts
// from when Fit or Reset is called. Default 1.5.
func WithInitialHyperparameter(v float64) DaceOption {
	return func(d *Dace) { d.initial = v }
}

// WithQFloor sets ε, the lower bound of Q used by the default likelihood
// bounds. Default 1e-5.
func WithQFloor(eps float64) DaceOption {
	return func(d *Dace) { d.qFloor = eps }
}

// WithMaxCondition sets the largest condition estimate of R treated as
// invertible. Default 1e12.
func WithMaxCondition(c float64) DaceOption {
	return func(d *Dace) { d.maxCondition = c }
}

// WithDeterminantFloor sets the value |R| is floored to in the likelihood.
// Default 1e-300.
func WithDeterminantFloor(f float64) DaceOption {
	return func(d *Dace) { d.determinantFloor = f }
}

// WithVarianceFloor sets the value σ̂² is floored to in the likelihood.
// Default 1e-12.
func WithVarianceFloor(f float64) DaceOption {
	return func(d *Dace) { d.varianceFloor = f }
}

// WithLikelihoodRestarts sets the Q multipliers used as starting points of
// the likelihood search. The current (P, Q) is always tried first.
// Default 0.1 and 10.
func WithLikelihoodRestarts(scales ...float64) DaceOption {
	return func(d *Dace) { d.restartScales = append([]float64(nil), scales...) }
}

// WithLikelihoodEvaluations caps likelihood evaluations per search start.
func WithLikelihoodEvaluations(n int) DaceOption {
	return func(d *Dace) { d.maxEvaluations = n }
}

// WithLogger injects the logger used for fit diagnostics.
func WithLogger(l *slog.Logger) DaceOption {
	return func(d *Dace) { d.logger = l }
}

//////
// Factory.
//////

// NewDace creates an empty surrogate. Call Fit or Restore before predicting.
func NewDace(opts ...DaceOption) *Dace {
	d := &Dace{
		samples:          &SampleSet{incumbent: -1},
		initial:          defaultHyperparameter,
		qFloor:           defaultQFloor,
		maxCondition:     defaultMaxCondition,
		determinantFloor: defaultDeterminantFloor,
		varianceFloor:    defaultVarianceFloor,
		restartScales:    []float64{0.1, 10},
		maxEvaluations:   400,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.logger = orDiscard(d.logger)

	return d
}

// FitDace creates a surrogate and fits it to (X, Y).
//
// Usage example:
//
//	X := [][]float64{{1.5}, {3.5}, {2.5}, {3.0}, {0.5}}
//	Y := []float64{0.25, 0.75, 0.9, 0.8, 0.1}
//
//	d, err := FitDace(X, Y)
//	if err != nil {
//	    return err
//	}
//
//	y, _ := d.Predict([]float64{1.5}) // ≈ 0.25
func FitDace(X [][]float64, Y []float64, opts ...DaceOption) (*Dace, error) {
	d := NewDace(opts...)

	if _, err := d.Fit(X, Y); err != nil {
		return nil, err
	}

	return d, nil
}

//////
// Methods.
//////

// Fit replaces the data with (X, Y), resets P and Q to their initial value
// and maximizes the likelihood.
//
// Returns:
// - LikelihoodResult: The outcome of the hyperparameter search
//   - error: ErrInsufficientData for fewer than 2 samples, ErrDimensionMismatch
//     for ragged inputs, ErrSingularCorrelationMatrix when no hyperparameter
//     candidate produced an invertible R
func (d *Dace) Fit(X [][]float64, Y []float64) (LikelihoodResult, error) {
	if len(X) < 2 {
		return LikelihoodResult{}, ErrInsufficientData
	}

	samples, err := NewSampleSet(X, Y)
	if err != nil {
		return LikelihoodResult{}, err
	}

	d.samples = samples
	d.resetHyperparameters()

	d.logger.Debug("Fitting DACE model", "samples", samples.Len(), "dims", samples.Dim())

	return d.MaximizeLikelihood(nil)
}

// Restore loads data and hyperparameters without searching, e.g. to resume
// from a checkpoint.
func (d *Dace) Restore(X [][]float64, Y []float64, P, Q []float64) error {
	if len(X) < 2 {
		return ErrInsufficientData
	}

	samples, err := NewSampleSet(X, Y)
	if err != nil {
		return err
	}

	if err := validateHyperparameters(samples.Dim(), P, Q); err != nil {
		return err
	}

	d.samples = samples
	d.p = copyVec(P)
	d.q = copyVec(Q)
	d.invalidate()

	return nil
}

// AddSample appends one observation and invalidates the cached model. It
// does not refit P and Q; call MaximizeLikelihood for that.
func (d *Dace) AddSample(x []float64, y float64) error {
	if err := d.samples.Add(x, y); err != nil {
		return err
	}

	if d.p == nil {
		d.resetHyperparameters()
	}

	d.invalidate()

	return nil
}

// SetHyperparameters overwrites P and Q. Both must have length k and be
// strictly positive.
func (d *Dace) SetHyperparameters(P, Q []float64) error {
	if err := validateHyperparameters(d.samples.Dim(), P, Q); err != nil {
		return err
	}

	d.p = copyVec(P)
	d.q = copyVec(Q)
	d.invalidate()

	return nil
}

// Reset puts P and Q back to their initial value.
func (d *Dace) Reset() {
	d.resetHyperparameters()
}

// P returns a copy of the smoothness exponents.
func (d *Dace) P() []float64 { return copyVec(d.p) }

// Q returns a copy of the dimension weights.
func (d *Dace) Q() []float64 { return copyVec(d.q) }

// Len returns the number of samples.
func (d *Dace) Len() int { return d.samples.Len() }

// Dim returns k.
func (d *Dace) Dim() int { return d.samples.Dim() }

// Samples returns the observed data set.
func (d *Dace) Samples() []SamplePoint { return d.samples.Points() }

// Incumbent returns the best observation.
func (d *Dace) Incumbent() (SamplePoint, bool) { return d.samples.Incumbent() }

// MuHat returns μ̂, the generalized-least-squares estimate of the process
// mean.
func (d *Dace) MuHat() (float64, error) {
	st, err := d.ensureState()
	if err != nil {
		return 0, err
	}

	return st.mu, nil
}

// SigmaHat2 returns σ̂², the estimated process variance.
func (d *Dace) SigmaHat2() (float64, error) {
	st, err := d.ensureState()
	if err != nil {
		return 0, err
	}

	return st.sigma2, nil
}

// CorrelationMatrix returns a copy of R for the current samples and
// hyperparameters.
func (d *Dace) CorrelationMatrix() (*mat.SymDense, error) {
	st, err := d.ensureState()
	if err != nil {
		return nil, err
	}

	return mat.NewSymDense(st.n, append([]float64(nil), st.r.RawSymmetric().Data...)), nil
}

// Predict returns the best linear unbiased predictor at x:
//
//	ŷ(x) = μ̂ + rᵗ R⁻¹ (Y − 1μ̂)
//
// where r holds the correlations between x and every stored sample.
func (d *Dace) Predict(x []float64) (float64, error) {
	st, r, err := d.prepare(x)
	if err != nil {
		return 0, err
	}

	return st.mu + mat.Dot(r, st.rInvResid), nil
}

// PredictedVariance returns the mean squared error of the predictor at x:
//
//	s²(x) = σ̂² (1 − rᵗR⁻¹r + (1 − 1ᵗR⁻¹r)² / 1ᵗR⁻¹1)
//
// Floating point noise can push the expression slightly below zero; it is
// clamped at 0.
func (d *Dace) PredictedVariance(x []float64) (float64, error) {
	st, r, err := d.prepare(x)
	if err != nil {
		return 0, err
	}

	return st.variance(r), nil
}

// Posterior returns Predict and PredictedVariance from one correlation
// vector.
func (d *Dace) Posterior(x []float64) (mean, variance float64, err error) {
	st, r, err := d.prepare(x)
	if err != nil {
		return 0, 0, err
	}

	return st.mu + mat.Dot(r, st.rInvResid), st.variance(r), nil
}

// CheckInterpolation reports whether the predictor reproduces every observed
// value within eps.
func (d *Dace) CheckInterpolation(eps float64) (bool, error) {
	for _, p := range d.samples.Points() {
		y, err := d.Predict(p.X)
		if err != nil {
			return false, err
		}

		if math.Abs(y-p.Y) > eps {
			return false, nil
		}
	}

	return true, nil
}

//////
// Internals.
//////

func (d *Dace) invalidate() {
	d.state = nil
}

// rollback drops the samples past n and restores P and Q, undoing an
// AddSample whose refit failed.
func (d *Dace) rollback(n int, P, Q []float64) {
	d.samples.truncate(n)
	d.p = copyVec(P)
	d.q = copyVec(Q)
	d.invalidate()
}

func (d *Dace) resetHyperparameters() {
	k := d.samples.Dim()

	d.p = make([]float64, k)
	d.q = make([]float64, k)

	for i := 0; i < k; i++ {
		d.p[i] = d.initial
		d.q[i] = d.initial
	}

	d.invalidate()
}

// ensureState returns the cached invalidation group, rebuilding it when
// stale.
func (d *Dace) ensureState() (*daceState, error) {
	if d.state != nil {
		return d.state, nil
	}

	if d.samples.Len() < 2 {
		return nil, ErrInsufficientData
	}

	st, err := d.buildState(d.p, d.q)
	if err != nil {
		return nil, err
	}

	if st.detFloored {
		d.logger.Debug("Correlation determinant floored",
			"floor", d.determinantFloor,
			"condition", st.condition,
		)
	}

	d.state = st

	return st, nil
}

// prepare validates x and returns the state and its correlation vector.
func (d *Dace) prepare(x []float64) (*daceState, *mat.VecDense, error) {
	if k := d.samples.Dim(); len(x) != k {
		return nil, nil, &DimensionError{What: "x", Want: k, Got: len(x)}
	}

	st, err := d.ensureState()
	if err != nil {
		return nil, nil, err
	}

	return st, d.corrVector(x), nil
}

// corrVector is like a column of R for a new point.
func (d *Dace) corrVector(x []float64) *mat.VecDense {
	X := d.samples.rawX()

	r := mat.NewVecDense(len(X), nil)
	for i := range X {
		r.SetVec(i, correlation(X[i], x, d.p, d.q))
	}

	return r
}

// buildState computes the whole invalidation group for (P, Q) over the
// current samples.
func (d *Dace) buildState(P, Q []float64) (*daceState, error) {
	X := d.samples.rawX()
	n := len(X)

	r := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		r.SetSym(i, i, 1)

		for j := i + 1; j < n; j++ {
			r.SetSym(i, j, correlation(X[i], X[j], P, Q))
		}
	}

	var lu mat.LU
	lu.Factorize(r)

	cond := lu.Cond()
	if math.IsNaN(cond) || cond > d.maxCondition {
		return nil, &SingularMatrixError{Condition: cond, Reason: "condition number exceeds limit"}
	}

	rInv := mat.NewDense(n, n, nil)
	if err := rInv.Inverse(r); err != nil {
		return nil, &SingularMatrixError{Condition: cond, Reason: err.Error()}
	}

	st := &daceState{
		n:         n,
		r:         r,
		rInv:      rInv,
		condition: cond,
	}

	// |R| is floored rather than propagated when it is non-positive or
	// underflows. This is an approximation that keeps the likelihood finite;
	// it does not make R any less singular.
	logDet, sign := lu.LogDet()
	floor := math.Log(d.determinantFloor)

	if sign <= 0 || math.IsNaN(logDet) || logDet < floor {
		logDet = floor
		st.detFloored = true
	}

	st.logDet = logDet

	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}

	st.rInvOnes = mat.NewVecDense(n, nil)
	st.rInvOnes.MulVec(rInv, ones)

	st.onesRInvOnes = mat.Dot(ones, st.rInvOnes)
	if !(st.onesRInvOnes > 0) {
		return nil, &SingularMatrixError{Condition: cond, Reason: "1ᵗR⁻¹1 is not positive"}
	}

	y := mat.NewVecDense(n, d.samples.Y())

	st.mu = mat.Dot(st.rInvOnes, y) / st.onesRInvOnes

	st.resid = mat.NewVecDense(n, nil)
	st.resid.AddScaledVec(y, -st.mu, ones)

	st.rInvResid = mat.NewVecDense(n, nil)
	st.rInvResid.MulVec(rInv, st.resid)

	st.sigma2 = math.Max(0, mat.Dot(st.resid, st.rInvResid)/float64(n))

	return st, nil
}

// variance evaluates the predictor's mean squared error for correlation
// vector r.
func (st *daceState) variance(r *mat.VecDense) float64 {
	// r has a unit entry only at a stored sample, where the variance is
	// exactly 0; evaluating the formula there would leave roundoff.
	for _, c := range r.RawVector().Data {
		if c == 1 {
			return 0
		}
	}

	rInvR := mat.NewVecDense(st.n, nil)
	rInvR.MulVec(st.rInv, r)

	oneTerm := 1 - mat.Sum(rInvR)
	out := st.sigma2 * (1 - mat.Dot(r, rInvR) + oneTerm*oneTerm/st.onesRInvOnes)

	return math.Max(out, 0)
}

func validateHyperparameters(k int, P, Q []float64) error {
	if len(P) != k {
		return &DimensionError{What: "P", Want: k, Got: len(P)}
	}

	if len(Q) != k {
		return &DimensionError{What: "Q", Want: k, Got: len(Q)}
	}

	for i := 0; i < k; i++ {
		if !(P[i] > 0) || !(Q[i] > 0) || math.IsInf(P[i], 0) || math.IsInf(Q[i], 0) {
			return fmt.Errorf("%w: P[%d]=%v, Q[%d]=%v must be finite and strictly positive", ErrInvalidHyperparameters, i, P[i], i, Q[i])
		}
	}

	return nil
}
