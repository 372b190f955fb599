// Package smbo minimizes expensive black-box functions over a bounded box with
// sequential model-based optimization. Each step fits a DACE surrogate to the
// observations made so far, picks the point of maximal expected improvement and
// evaluates the objective there.
//
// # Features
//
// The package includes the following key features:
//
//   - DACE Surrogate: An interpolating spatial-correlation model whose
//     hyperparameters are fitted by maximum likelihood
//   - Expected Improvement: Closed-form acquisition balancing exploration and
//     exploitation, plus Probability of Improvement
//   - Pluggable Acquisition Search: Multi-start Nelder-Mead (default), single
//     local search, the mayfly metaheuristic, or an exhaustive grid
//   - Initial Designs: Latin hypercube (default) and diagonal samplers
//   - Progress Monitoring: Non-blocking updates via channels
//   - Checkpointing: Snapshots that resume a run without refitting
//
// # Installation
//
// To install the package, use:
//
//	go get github.com/thalesfsp/smbo
//
// # Surrogate
//
// The correlation between two points is
//
//	c(x1, x2) = exp(−Σ Q[i]·|x1[i] − x2[i]|^P[i])
//
// Fit finds (P, Q) by maximizing the concentrated likelihood; Predict and
// PredictedVariance then give the model's estimate and its uncertainty:
//
//	d, err := FitDace(X, Y)
//	mean, _ := d.Predict(x)
//	variance, _ := d.PredictedVariance(x)
//
// The predictor reproduces every sample exactly and its variance is zero there.
//
// # Acquisition Functions
//
// 1. Expected Improvement (EI):
//
//   - Default, and the stopping criterion of the loop
//
//   - Zero at every sample and wherever the model is certain
//
//     config := DefaultConfig()
//     config.AcqParams.Xi = 0.01  // Demand a minimum improvement
//
// 2. Probability of Improvement (PI):
//
//   - Conservative exploration strategy
//
//     config := DefaultConfig()
//     config.AcquisitionFunc = ProbabilityOfImprovement
//
// # Configuration
//
// Recommended settings:
//   - Iterations: 10-100 (each one costs one objective evaluation)
//   - InitialSamples: 0 selects 2k+2 for k dimensions
//   - StopImprovement: The loop ends once no point promises more
//
// # Thread Safety
//
// Nothing here is synchronized. An Optimizer and its Dace belong to one
// goroutine; run independent optimizations in parallel with separate values.
package smbo
