package smbo

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"
)

// Sampler produces the initial design of an optimization.
type Sampler interface {
	Sample(n int, domain Domain) ([][]float64, error)
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(n int, domain Domain) ([][]float64, error)

// Sample implements Sampler.
func (f SamplerFunc) Sample(n int, domain Domain) ([][]float64, error) {
	return f(n, domain)
}

// LatinHypercube draws n points so that, in every dimension, each of the n
// equal-width bins holds exactly one point. The design is a Latin hypercube
// over the uniform distribution on the domain.
//
// Usage example:
//
//	points, err := NewLatinHypercube(42).Sample(8, domain)
type LatinHypercube struct {
	// Src drives bin permutations and positions inside bins. Nil uses a
	// fixed seed.
	Src rand.Source
}

// NewLatinHypercube returns a LatinHypercube seeded with seed.
func NewLatinHypercube(seed int64) *LatinHypercube {
	return &LatinHypercube{Src: rand.NewSource(uint64(seed))}
}

// Sample implements Sampler.
func (l *LatinHypercube) Sample(n int, domain Domain) ([][]float64, error) {
	if err := checkDesign(n, domain); err != nil {
		return nil, err
	}

	if l.Src == nil {
		l.Src = rand.NewSource(1)
	}

	bounds := make([]r1.Interval, domain.Dim())
	for i, r := range domain {
		bounds[i] = r1.Interval{Min: r.Min, Max: r.Max}
	}

	batch := mat.NewDense(n, domain.Dim(), nil)

	samplemv.LatinHypercube{
		Q:   distmv.NewUniform(bounds, l.Src),
		Src: l.Src,
	}.Sample(batch)

	points := make([][]float64, n)
	for i := range points {
		// The quantile can round one ulp past Max.
		points[i] = domain.Clamp(mat.Row(nil, i, batch))
	}

	return points, nil
}

// Diagonal places n evenly spaced points on the main diagonal of the domain,
// from the lower corner to the upper one. It is deterministic, which makes
// runs reproducible without a seed, but it covers the domain poorly beyond
// one dimension.
type Diagonal struct{}

// Sample implements Sampler.
func (Diagonal) Sample(n int, domain Domain) ([][]float64, error) {
	if err := checkDesign(n, domain); err != nil {
		return nil, err
	}

	points := make([][]float64, n)

	for i := range points {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}

		u := make([]float64, domain.Dim())
		for j := range u {
			u[j] = t
		}

		points[i] = domain.FromUnit(u)
	}

	return points, nil
}

func checkDesign(n int, domain Domain) error {
	if n < 1 {
		return fmt.Errorf("initial design needs at least one point, got %d", n)
	}

	return domain.Validate()
}
