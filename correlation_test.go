package smbo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationSymmetricAndBounded(t *testing.T) {
	P := []float64{1.5, 2}
	Q := []float64{0.7, 3}

	points := [][]float64{{0, 0}, {1, 2}, {-0.5, 0.25}, {3, -1}}

	for _, a := range points {
		self, err := Correlation(a, a, P, Q)
		require.NoError(t, err)
		assert.Equal(t, 1.0, self)

		for _, b := range points {
			ab, err := Correlation(a, b, P, Q)
			require.NoError(t, err)

			ba, err := Correlation(b, a, P, Q)
			require.NoError(t, err)

			assert.Equal(t, ab, ba)
			assert.Greater(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestDistance(t *testing.T) {
	d, err := Distance([]float64{1, 2}, []float64{3, 1}, []float64{2, 1}, []float64{0.5, 4})
	require.NoError(t, err)

	// 0.5*2² + 4*1¹
	assert.InDelta(t, 6.0, d, 1e-12)

	c, err := Correlation([]float64{1, 2}, []float64{3, 1}, []float64{2, 1}, []float64{0.5, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.0024787521766663585, c, 1e-15)
}

func TestCorrelationDimensionMismatch(t *testing.T) {
	one := []float64{1}

	tests := []struct {
		name     string
		x2, P, Q []float64
		wantWhat string
	}{
		{"x2", []float64{1, 2}, one, one, "x2"},
		{"P", one, []float64{1, 2}, one, "P"},
		{"Q", one, one, nil, "Q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Correlation(one, tt.x2, tt.P, tt.Q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDimensionMismatch))

			var de *DimensionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantWhat, de.What)
		})
	}
}
