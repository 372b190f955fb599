package smbo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedImprovementClosedForm(t *testing.T) {
	params := AcquisitionParams{BestSoFar: 1}

	// improvement 0.5, sigma 0.5, z = 1: 0.5·Φ(1) + 0.5·φ(1)
	assert.InDelta(t, 0.5*0.8413447460685429+0.5*0.24197072451914337, ExpectedImprovement(0.5, 0.25, params), 1e-12)

	// No expected gain at the incumbent value still leaves σ·φ(0).
	assert.InDelta(t, 0.3989422804014327, ExpectedImprovement(1, 1, params), 1e-12)
}

func TestExpectedImprovementNonNegative(t *testing.T) {
	for _, mean := range []float64{-10, -1, 0, 0.5, 1, 2, 100} {
		for _, variance := range []float64{0, 1e-300, 1e-12, 0.1, 1, 1e6, -1e-18} {
			for _, xi := range []float64{0, 0.01, 1} {
				ei := ExpectedImprovement(mean, variance, AcquisitionParams{BestSoFar: 1, Xi: xi})

				assert.GreaterOrEqual(t, ei, 0.0)
				assert.False(t, math.IsNaN(ei))
			}
		}
	}
}

func TestExpectedImprovementZeroVariance(t *testing.T) {
	params := AcquisitionParams{BestSoFar: 1}

	assert.Equal(t, 0.0, ExpectedImprovement(0, 0, params))
	assert.Equal(t, 0.0, ExpectedImprovement(2, 0, params))
	assert.Equal(t, 0.0, ExpectedImprovement(0, -1e-17, params))
}

func TestExpectedImprovementVanishesAtSamples(t *testing.T) {
	d := fitScenario(t)
	best, _ := d.Incumbent()

	for _, x := range scenarioX {
		ei, err := ExpectedImprovementAt(x, d, best.Y)
		require.NoError(t, err)
		assert.InDelta(t, 0, ei, 1e-6)
	}

	for x := 0.0; x <= 5; x += 0.05 {
		ei, err := ExpectedImprovementAt([]float64{x}, d, best.Y)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ei, 0.0)
	}

	// Between samples there is something to gain.
	ei, err := ExpectedImprovementAt([]float64{0.05}, d, best.Y)
	require.NoError(t, err)
	assert.Greater(t, ei, 0.0)
}

func TestProbabilityOfImprovement(t *testing.T) {
	params := AcquisitionParams{BestSoFar: 1}

	assert.InDelta(t, 0.5, ProbabilityOfImprovement(1, 1, params), 1e-12)
	assert.Equal(t, 0.0, ProbabilityOfImprovement(0, 0, params))
	assert.Greater(t, ProbabilityOfImprovement(0, 1, params), ProbabilityOfImprovement(2, 1, params))
}

// meanOnly is a Surrogate without the combined Posterior fast path.
type meanOnly struct{ mean, variance float64 }

func (m meanOnly) Predict([]float64) (float64, error)           { return m.mean, nil }
func (m meanOnly) PredictedVariance([]float64) (float64, error) { return m.variance, nil }

func TestExpectedImprovementAtPlainSurrogate(t *testing.T) {
	ei, err := ExpectedImprovementAt([]float64{0}, meanOnly{mean: 0.5, variance: 0.25}, 1)
	require.NoError(t, err)
	assert.InDelta(t, ExpectedImprovement(0.5, 0.25, AcquisitionParams{BestSoFar: 1}), ei, 1e-15)
}
