package smbo

import "gonum.org/v1/gonum/floats"

// SamplePoint is one observation: an input vector and the objective value
// seen there. It is copied on insertion and never modified afterwards.
type SamplePoint struct {
	X []float64 `json:"x"`
	Y float64   `json:"y"`
}

// SampleSet is the ordered collection of observations. Index i identifies
// the i-th observation; the set grows by Add and only shrinks when an
// Optimizer drops an observation it could not fit.
//
// Important notes:
// - All inputs share the dimensionality of the first one added
// - Duplicate inputs are not rejected, but they make R singular
// - The incumbent is computed lazily and invalidated by Add.
type SampleSet struct {
	points []SamplePoint

	// incumbent is the index of the minimal Y, or -1 when stale.
	incumbent int
}

// NewSampleSet builds a set from index-aligned X and Y.
func NewSampleSet(X [][]float64, Y []float64) (*SampleSet, error) {
	if len(X) != len(Y) {
		return nil, &DimensionError{What: "Y", Want: len(X), Got: len(Y)}
	}

	s := &SampleSet{incumbent: -1}
	for i := range X {
		if err := s.Add(X[i], Y[i]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Add appends a copy of (x, y).
func (s *SampleSet) Add(x []float64, y float64) error {
	if len(s.points) > 0 && len(x) != s.Dim() {
		return &DimensionError{What: "x", Want: s.Dim(), Got: len(x)}
	}

	if len(x) == 0 {
		return &DimensionError{What: "x", Want: 1, Got: 0}
	}

	s.points = append(s.points, SamplePoint{X: copyVec(x), Y: y})
	s.incumbent = -1

	return nil
}

// Len returns the number of observations.
func (s *SampleSet) Len() int { return len(s.points) }

// Dim returns k, or 0 for an empty set.
func (s *SampleSet) Dim() int {
	if len(s.points) == 0 {
		return 0
	}

	return len(s.points[0].X)
}

// At returns a copy of the i-th observation.
func (s *SampleSet) At(i int) SamplePoint {
	p := s.points[i]

	return SamplePoint{X: copyVec(p.X), Y: p.Y}
}

// X returns copies of every input vector.
func (s *SampleSet) X() [][]float64 {
	out := make([][]float64, len(s.points))
	for i, p := range s.points {
		out[i] = copyVec(p.X)
	}

	return out
}

// Y returns a copy of every observed value.
func (s *SampleSet) Y() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Y
	}

	return out
}

// Points returns a copy of every observation.
func (s *SampleSet) Points() []SamplePoint {
	out := make([]SamplePoint, len(s.points))
	for i := range s.points {
		out[i] = s.At(i)
	}

	return out
}

// Incumbent returns the observation with the lowest Y. The boolean is false
// for an empty set.
func (s *SampleSet) Incumbent() (SamplePoint, bool) {
	if len(s.points) == 0 {
		return SamplePoint{}, false
	}

	if s.incumbent < 0 {
		s.incumbent = floats.MinIdx(s.Y())
	}

	return s.At(s.incumbent), true
}

// truncate drops every observation from index n on.
func (s *SampleSet) truncate(n int) {
	s.points = s.points[:n]
	s.incumbent = -1
}

// rawX exposes the stored vectors without copying. Callers must not modify
// them.
func (s *SampleSet) rawX() [][]float64 {
	out := make([][]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.X
	}

	return out
}
