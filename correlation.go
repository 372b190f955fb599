package smbo

import "math"

//////
// Correlation model.
//////

// Distance computes the DACE weighted distance between two inputs:
//
//	d(x1, x2) = Σ_i Q[i] * |x1[i] - x2[i]|^P[i]
//
// Parameters:
// - x1, x2: Input vectors of the same length k
// - P: Smoothness exponents, conventionally in [1, 2]
// - Q: Per-dimension weights, strictly positive
//
// Returns:
// - float64: The distance, always >= 0 and exactly 0 when x1 == x2
// - error: A *DimensionError if any length differs from len(x1)
func Distance(x1, x2, P, Q []float64) (float64, error) {
	if err := checkLengths(len(x1), x2, P, Q); err != nil {
		return 0, err
	}

	return distance(x1, x2, P, Q), nil
}

// Correlation returns exp(-Distance(x1, x2, P, Q)), a value in (0, 1] that
// equals 1 exactly for identical inputs.
//
// Q components at or near zero make every pair of distinct points look
// perfectly correlated, which drives the correlation matrix towards
// singularity.
func Correlation(x1, x2, P, Q []float64) (float64, error) {
	if err := checkLengths(len(x1), x2, P, Q); err != nil {
		return 0, err
	}

	return correlation(x1, x2, P, Q), nil
}

func checkLengths(k int, x2, P, Q []float64) error {
	switch {
	case len(x2) != k:
		return &DimensionError{What: "x2", Want: k, Got: len(x2)}
	case len(P) != k:
		return &DimensionError{What: "P", Want: k, Got: len(P)}
	case len(Q) != k:
		return &DimensionError{What: "Q", Want: k, Got: len(Q)}
	}

	return nil
}

// distance is the unchecked form used inside matrix loops.
func distance(x1, x2, P, Q []float64) float64 {
	var sum float64

	for i := range x1 {
		diff := math.Abs(x1[i] - x2[i])
		if diff == 0 {
			continue
		}

		sum += Q[i] * math.Pow(diff, P[i])
	}

	return sum
}

func correlation(x1, x2, P, Q []float64) float64 {
	return math.Exp(-distance(x1, x2, P, Q))
}
