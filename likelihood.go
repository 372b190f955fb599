package smbo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// rejectedPenalty is the negative log-likelihood reported for hyperparameters
// whose correlation matrix cannot be inverted. It steers the search away
// without aborting it.
const rejectedPenalty = 1e100

// HyperBounds is the box the likelihood is maximized over. Q ranges may use
// Max = +Inf.
type HyperBounds struct {
	P []ParameterRange[float64]
	Q []ParameterRange[float64]
}

// DefaultHyperBounds returns P ∈ [1, 2] and Q ∈ [qFloor, +Inf) for k
// dimensions. P in [1, 2] keeps the induced process continuous.
func DefaultHyperBounds(k int, qFloor float64) HyperBounds {
	b := HyperBounds{
		P: make([]ParameterRange[float64], k),
		Q: make([]ParameterRange[float64], k),
	}

	for i := 0; i < k; i++ {
		b.P[i] = ParameterRange[float64]{Min: 1, Max: 2}
		b.Q[i] = ParameterRange[float64]{Min: qFloor, Max: math.Inf(1)}
	}

	return b
}

func (b HyperBounds) validate(k int) error {
	if len(b.P) != k {
		return &DimensionError{What: "P bounds", Want: k, Got: len(b.P)}
	}

	if len(b.Q) != k {
		return &DimensionError{What: "Q bounds", Want: k, Got: len(b.Q)}
	}

	for i := 0; i < k; i++ {
		for _, r := range []ParameterRange[float64]{b.P[i], b.Q[i]} {
			if !(r.Min > 0) || math.IsInf(r.Min, 0) || !(r.Max > r.Min) {
				return fmt.Errorf("%w: bound [%v, %v] for dimension %d", ErrInvalidHyperparameters, r.Min, r.Max, i)
			}
		}
	}

	return nil
}

// LikelihoodResult is the outcome of MaximizeLikelihood.
type LikelihoodResult struct {
	// P and Q are the best hyperparameters found.
	P []float64
	Q []float64

	// LogLikelihood is the concentrated log-likelihood at (P, Q).
	LogLikelihood float64

	// Converged is false when the search producing the best point stopped
	// early, e.g. on its evaluation budget. The result is still usable.
	Converged bool

	// Status is the termination status of that search.
	Status string

	// Evaluations counts likelihood evaluations over all starts.
	Evaluations int

	// Rejected counts evaluations whose R was singular.
	Rejected int
}

// LogLikelihood returns the concentrated log-likelihood of the current
// hyperparameters:
//
//	log L = n/2 − (n/2)·log(2π σ̂²) − ½·log|R|
//
// It is the logarithm of L = exp(n/2) / ((2π σ̂²)^(n/2) · |R|^(1/2)), where μ̂
// and σ̂² are the generalized-least-squares estimates derived from R.
func (d *Dace) LogLikelihood() (float64, error) {
	st, err := d.ensureState()
	if err != nil {
		return 0, err
	}

	return d.logLikelihood(st), nil
}

// Likelihood returns exp(LogLikelihood()). It overflows to +Inf for nearly
// interpolating data; prefer LogLikelihood for comparisons.
func (d *Dace) Likelihood() (float64, error) {
	ll, err := d.LogLikelihood()
	if err != nil {
		return 0, err
	}

	return math.Exp(ll), nil
}

// ConcentratedLogLikelihood evaluates the log-likelihood of (P, Q) over the
// current samples without changing the model.
func (d *Dace) ConcentratedLogLikelihood(P, Q []float64) (float64, error) {
	if d.samples.Len() < 2 {
		return 0, ErrInsufficientData
	}

	if err := validateHyperparameters(d.samples.Dim(), P, Q); err != nil {
		return 0, err
	}

	st, err := d.buildState(P, Q)
	if err != nil {
		return 0, err
	}

	return d.logLikelihood(st), nil
}

func (d *Dace) logLikelihood(st *daceState) float64 {
	n := float64(st.n)
	sigma2 := math.Max(st.sigma2, d.varianceFloor)

	return n/2 - n/2*math.Log(2*math.Pi*sigma2) - 0.5*st.logDet
}

// MaximizeLikelihood searches (P, Q) for the maximum of the concentrated
// log-likelihood and stores the result.
//
// Parameters:
//   - bounds: The search box. Nil selects P ∈ [1, 2] and Q ∈ [ε, +Inf).
//
// How it works:
//   - The box is removed by a change of variables: closed ranges through a
//     logistic, half-open ones through an exponential
//   - Nelder-Mead (derivative-free) runs from the current (P, Q), then from
//     the current P with Q scaled by each restart multiplier
//   - Candidates whose R is singular score rejectedPenalty
//
// Returns:
//   - LikelihoodResult: The best point; Converged reports whether its search
//     terminated normally
//   - error: ErrSingularCorrelationMatrix if every candidate was rejected, in
//     which case P and Q are left unchanged
func (d *Dace) MaximizeLikelihood(bounds *HyperBounds) (LikelihoodResult, error) {
	if d.samples.Len() < 2 {
		return LikelihoodResult{}, ErrInsufficientData
	}

	k := d.samples.Dim()

	b := DefaultHyperBounds(k, d.qFloor)
	if bounds != nil {
		b = *bounds
	}

	if err := b.validate(k); err != nil {
		return LikelihoodResult{}, err
	}

	decode := func(z []float64) (P, Q []float64) {
		P = make([]float64, k)
		Q = make([]float64, k)

		for i := 0; i < k; i++ {
			P[i] = toBounded(z[i], b.P[i])
			Q[i] = toBounded(z[k+i], b.Q[i])
		}

		return P, Q
	}

	encode := func(P, Q []float64) []float64 {
		z := make([]float64, 2*k)

		for i := 0; i < k; i++ {
			z[i] = fromBounded(P[i], b.P[i])
			z[k+i] = fromBounded(Q[i], b.Q[i])
		}

		return z
	}

	var (
		res     = LikelihoodResult{LogLikelihood: math.Inf(-1)}
		run     int
		bestRun = -1
	)

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			res.Evaluations++

			P, Q := decode(z)

			st, err := d.buildState(P, Q)
			if err != nil {
				res.Rejected++

				return rejectedPenalty
			}

			ll := d.logLikelihood(st)
			if math.IsNaN(ll) {
				res.Rejected++

				return rejectedPenalty
			}

			if ll > res.LogLikelihood {
				res.LogLikelihood = ll
				res.P = P
				res.Q = Q
				bestRun = run
			}

			return -ll
		},
	}

	starts := [][]float64{encode(d.p, d.q)}

	for _, scale := range d.restartScales {
		Q := make([]float64, k)
		for i := range Q {
			Q[i] = d.q[i] * scale
		}

		starts = append(starts, encode(d.p, Q))
	}

	statuses := make([]optimize.Status, len(starts))
	early := make([]bool, len(starts))

	for run = range starts {
		settings := &optimize.Settings{
			FuncEvaluations: d.maxEvaluations,
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-9,
				Relative:   1e-9,
				Iterations: 40,
			},
		}

		result, err := optimize.Minimize(problem, starts[run], settings, &optimize.NelderMead{SimplexSize: 0.5})
		if result == nil {
			early[run] = true

			d.logger.Debug("Likelihood search failed", "start", run, "error", err)

			continue
		}

		statuses[run] = result.Status
		early[run] = err != nil || result.Status.Early()
	}

	if bestRun < 0 {
		return res, fmt.Errorf("maximize likelihood: %w", &SingularMatrixError{
			Reason: fmt.Sprintf("all %d candidates rejected", res.Rejected),
		})
	}

	res.Converged = !early[bestRun]
	res.Status = statuses[bestRun].String()

	d.p = copyVec(res.P)
	d.q = copyVec(res.Q)
	d.invalidate()

	d.logger.Debug("Likelihood maximized",
		"logLikelihood", res.LogLikelihood,
		"p", res.P,
		"q", res.Q,
		"converged", res.Converged,
		"evaluations", res.Evaluations,
		"rejected", res.Rejected,
	)

	return res, nil
}

// isSingular reports whether err stems from a non-invertible R.
func isSingular(err error) bool {
	return errors.Is(err, ErrSingularCorrelationMatrix)
}
