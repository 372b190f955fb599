package smbo

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Available acquisition functions.
// Each one scores how promising a point is from the surrogate's prediction
// there, balancing exploration (high variance) and exploitation (low mean).
//////

// ExpectedImprovement (EI) calculates the expected value of the improvement
// over the current best value, i.e. E[max(BestSoFar − Y(x), 0)] under the
// surrogate's Gaussian posterior at x.
//
// How it works:
// - Combines the probability of improvement with the magnitude of improvement
// - Returns 0 when the prediction is certain (zero variance), as at samples
//
// Parameters:
// - mean: Predicted objective value at this point
// - variance: Uncertainty in the prediction
// - params.BestSoFar: Best value observed so far
// - params.Xi: Minimum improvement desired (0 for the textbook criterion)
//
// Example:
//
//	params := AcquisitionParams{
//	    BestSoFar: 1.0,  // Current incumbent
//	}
//	expected := ExpectedImprovement(0.9, 0.2, params)
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, 0))

	// Certain prediction: nothing left to gain, and z below would divide by 0.
	if sigma == 0 {
		return 0
	}

	improvement := math.Max(params.BestSoFar-mean-params.Xi, 0)
	z := improvement / sigma

	return improvement*distuv.UnitNormal.CDF(z) + sigma*distuv.UnitNormal.Prob(z)
}

// ProbabilityOfImprovement (PI) calculates the probability that a point will
// improve upon the current best observed value by at least Xi.
//
// When to use:
// - When you want to be conservative in exploring new points
// - When being "probably better" matters more than "how much better"
//
// Example:
//
//	params := AcquisitionParams{
//	    BestSoFar: 1.0,
//	    Xi: 0.01,
//	}
//	prob := ProbabilityOfImprovement(0.9, 0.2, params)
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, 0))
	if sigma == 0 {
		return 0
	}

	z := (params.BestSoFar - mean - params.Xi) / sigma

	return distuv.UnitNormal.CDF(z)
}

// ExpectedImprovementAt evaluates ExpectedImprovement of surrogate s at x
// against incumbentY.
func ExpectedImprovementAt(x []float64, s Surrogate, incumbentY float64) (float64, error) {
	return acquisitionAt(x, s, ExpectedImprovement, AcquisitionParams{BestSoFar: incumbentY})
}

// acquisitionAt feeds the surrogate's posterior at x into fn.
func acquisitionAt(x []float64, s Surrogate, fn AcquisitionFunc, params AcquisitionParams) (float64, error) {
	mean, variance, err := posteriorOf(s, x)
	if err != nil {
		return 0, err
	}

	return fn(mean, variance, params), nil
}

func posteriorOf(s Surrogate, x []float64) (mean, variance float64, err error) {
	if p, ok := s.(posterior); ok {
		return p.Posterior(x)
	}

	mean, err = s.Predict(x)
	if err != nil {
		return 0, 0, err
	}

	variance, err = s.PredictedVariance(x)
	if err != nil {
		return 0, 0, err
	}

	return mean, variance, nil
}
