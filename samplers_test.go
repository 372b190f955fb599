package smbo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatinHypercubeStratified(t *testing.T) {
	domain := Domain{{Min: 10, Max: 20}, {Min: -1, Max: 1}, {Min: 0, Max: 5}}
	n := 8

	points, err := NewLatinHypercube(3).Sample(n, domain)
	require.NoError(t, err)
	require.Len(t, points, n)

	for j, r := range domain {
		bins := make([]int, n)

		for _, p := range points {
			require.Len(t, p, domain.Dim())
			assert.GreaterOrEqual(t, p[j], r.Min)
			assert.LessOrEqual(t, p[j], r.Max)

			bin := int(math.Floor((p[j] - r.Min) / r.Width() * float64(n)))
			if bin == n {
				bin--
			}

			bins[bin]++
		}

		for b, count := range bins {
			assert.Equal(t, 1, count, "dimension %d bin %d", j, b)
		}
	}
}

func TestLatinHypercubeSeeded(t *testing.T) {
	domain := Domain{{Min: 0, Max: 1}}

	a, err := NewLatinHypercube(9).Sample(5, domain)
	require.NoError(t, err)

	b, err := NewLatinHypercube(9).Sample(5, domain)
	require.NoError(t, err)

	c, err := NewLatinHypercube(10).Sample(5, domain)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestLatinHypercubeNilSourceIsReproducible(t *testing.T) {
	domain := Domain{{Min: 0, Max: 5}, {Min: -2, Max: 3}}

	a, err := (&LatinHypercube{}).Sample(8, domain)
	require.NoError(t, err)

	b, err := NewLatinHypercube(1).Sample(8, domain)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDiagonal(t *testing.T) {
	domain := Domain{{Min: 0, Max: 4}, {Min: -2, Max: 2}}

	points, err := Diagonal{}.Sample(5, domain)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0, -2}, {1, -1}, {2, 0}, {3, 1}, {4, 2}}, points)

	single, err := Diagonal{}.Sample(1, domain)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 0}}, single)
}

func TestSamplersRejectBadInput(t *testing.T) {
	for _, s := range []Sampler{&LatinHypercube{}, Diagonal{}} {
		_, err := s.Sample(0, Domain{{Min: 0, Max: 1}})
		assert.Error(t, err)

		_, err = s.Sample(3, Domain{})
		assert.ErrorIs(t, err, ErrInvalidDomain)
	}
}

func TestSamplerFunc(t *testing.T) {
	var s Sampler = SamplerFunc(func(n int, domain Domain) ([][]float64, error) {
		return [][]float64{domain.Center()}, nil
	})

	points, err := s.Sample(1, Domain{{Min: 0, Max: 2}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, points)
}
