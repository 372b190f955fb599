package smbo

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategies() map[string]AcquisitionOptimizer {
	return map[string]AcquisitionOptimizer{
		"local":      &LocalSearch{},
		"multistart": &MultiStart{Rand: rand.New(rand.NewSource(7))},
		"mayfly":     &MayflySearch{Rand: rand.New(rand.NewSource(7))},
		"grid":       &GridSearch{Resolution: 0.01},
	}
}

// peakAt is a smooth acquisition with its maximum at c, failing the test
// if evaluated outside domain.
func peakAt(t *testing.T, domain Domain, c []float64) Scorer {
	return func(x []float64) (float64, error) {
		if !domain.Contains(x) {
			t.Errorf("scored outside the domain: %v", x)
		}

		var s float64
		for i := range x {
			s += (x[i] - c[i]) * (x[i] - c[i])
		}

		return math.Exp(-s), nil
	}
}

func TestStrategiesFindInteriorPeak(t *testing.T) {
	domain := Domain{{Min: 0, Max: 5}, {Min: -2, Max: 2}}
	peak := []float64{1.3, 0.4}

	for name, opt := range strategies() {
		t.Run(name, func(t *testing.T) {
			c, err := opt.Maximize(peakAt(t, domain, peak), domain)
			require.NoError(t, err)

			assert.True(t, domain.Contains(c.X))
			assert.InDelta(t, peak[0], c.X[0], 0.1)
			assert.InDelta(t, peak[1], c.X[1], 0.1)
			assert.Greater(t, c.Value, 0.98)
			assert.Greater(t, c.Evaluations, 0)
		})
	}
}

func TestStrategiesClampPeakOutsideDomain(t *testing.T) {
	domain := Domain{{Min: 0, Max: 5}}

	for name, opt := range strategies() {
		t.Run(name, func(t *testing.T) {
			c, err := opt.Maximize(peakAt(t, domain, []float64{7}), domain)
			require.NoError(t, err)

			assert.True(t, domain.Contains(c.X))
			assert.InDelta(t, 5, c.X[0], 0.1)
		})
	}
}

func TestStrategiesPropagateScoringErrors(t *testing.T) {
	domain := Domain{{Min: 0, Max: 1}}
	boom := errors.New("boom")

	for name, opt := range strategies() {
		t.Run(name, func(t *testing.T) {
			_, err := opt.Maximize(func([]float64) (float64, error) { return 0, boom }, domain)
			assert.True(t, errors.Is(err, boom))
		})
	}
}

func TestStrategiesRejectInvalidDomain(t *testing.T) {
	for name, opt := range strategies() {
		_, err := opt.Maximize(func([]float64) (float64, error) { return 0, nil }, Domain{{Min: 1, Max: 0}})
		assert.True(t, errors.Is(err, ErrInvalidDomain), name)
	}
}

func TestSelectNextOnFittedModel(t *testing.T) {
	d := fitScenario(t)
	best, _ := d.Incumbent()
	domain := Domain{{Min: 0, Max: 5}}

	oracle, err := SelectNext(&GridSearch{Resolution: 0.005}, d, domain, best.Y)
	require.NoError(t, err)
	require.Greater(t, oracle.Value, 0.0)

	for name, opt := range strategies() {
		t.Run(name, func(t *testing.T) {
			c, err := SelectNext(opt, d, domain, best.Y)
			require.NoError(t, err)

			assert.True(t, domain.Contains(c.X))

			ei, err := ExpectedImprovementAt(c.X, d, best.Y)
			require.NoError(t, err)
			assert.InDelta(t, ei, c.Value, 1e-12)

			if name != "local" {
				assert.GreaterOrEqual(t, c.Value, 0.5*oracle.Value)
			}
		})
	}
}

func TestGridSearchExactGrid(t *testing.T) {
	domain := Domain{{Min: 0, Max: 5}}

	c, err := (&GridSearch{Resolution: 0.1}).Maximize(peakAt(t, domain, []float64{1.3}), domain)
	require.NoError(t, err)

	assert.InDelta(t, 1.3, c.X[0], 1e-9)
	assert.True(t, c.Converged)
	assert.Equal(t, 51, c.Evaluations)

	_, err = (&GridSearch{Resolution: 1e-4, MaxPoints: 1000}).Maximize(peakAt(t, domain, []float64{1}), domain)
	assert.Error(t, err)
}
