package smbo

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Domain is the admissible input rectangle: one ParameterRange per
// dimension. It is fixed for the lifetime of an Optimizer.
type Domain []ParameterRange[float64]

// DomainOf converts ranges of any numeric type into a Domain.
//
// Usage example:
//
//	domain := DomainOf(
//	    ParameterRange[int]{Min: 1, Max: 32},   // worker count
//	    ParameterRange[int]{Min: 64, Max: 512}, // batch size
//	)
func DomainOf[T constraints.Integer | constraints.Float](ranges ...ParameterRange[T]) Domain {
	domain := make(Domain, len(ranges))
	for i, r := range ranges {
		domain[i] = ParameterRange[float64]{Min: float64(r.Min), Max: float64(r.Max)}
	}

	return domain
}

// Dim returns k, the dimensionality of the domain.
func (d Domain) Dim() int { return len(d) }

// Validate checks that the domain is non-empty and every range is finite with
// Min < Max.
func (d Domain) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidDomain)
	}

	for i, r := range d {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
			return fmt.Errorf("%w: dimension %d is not finite: [%v, %v]", ErrInvalidDomain, i, r.Min, r.Max)
		}

		if r.Min >= r.Max {
			return fmt.Errorf("%w: dimension %d has min %v >= max %v", ErrInvalidDomain, i, r.Min, r.Max)
		}
	}

	return nil
}

// Contains reports whether x lies inside the rectangle, bounds included.
func (d Domain) Contains(x []float64) bool {
	if len(x) != len(d) {
		return false
	}

	for i, r := range d {
		if !(x[i] >= r.Min && x[i] <= r.Max) {
			return false
		}
	}

	return true
}

// Center returns the midpoint of the rectangle.
func (d Domain) Center() []float64 {
	c := make([]float64, len(d))
	for i, r := range d {
		c[i] = (r.Min + r.Max) / 2
	}

	return c
}

// Clamp returns a copy of x projected onto the rectangle.
func (d Domain) Clamp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = math.Max(d[i].Min, math.Min(x[i], d[i].Max))
	}

	return out
}

// FromUnit maps a point of the unit cube onto the rectangle.
func (d Domain) FromUnit(u []float64) []float64 {
	out := make([]float64, len(u))
	for i := range u {
		out[i] = d[i].Min + u[i]*d[i].Width()
	}

	return out
}

// ToUnit maps a point of the rectangle onto the unit cube.
func (d Domain) ToUnit(x []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - d[i].Min) / d[i].Width()
	}

	return out
}
