// Package bench provides test objectives for the optimizer, with known
// optima, from http://en.wikipedia.org/wiki/Test_functions_for_optimization
// and Jones et al.'s EGO paper.
package bench

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	sin = math.Sin
	cos = math.Cos
)

// Point is a location and the function value there.
type Point struct {
	X []float64
	Y float64
}

// Func is a benchmark objective.
type Func interface {
	Eval(x []float64) float64
	Bounds() (low, up []float64)
	Optima() []Point
	Name() string
}

// ByName returns the registered function called name with ndim dimensions.
// Fixed-dimension functions ignore ndim.
func ByName(name string, ndim int) (Func, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", ndim)
	}

	newFunc, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown function %q (available: %s)", name, strings.Join(Names(), ", "))
	}

	return newFunc(ndim), nil
}

// Names lists the registered functions.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var registry = map[string]func(ndim int) Func{
	"sinusoparaboloid": func(ndim int) Func {
		return Sinusoparaboloid{NDim: ndim, Period: 1, Minimum: 2.5, SinStrength: 1}
	},
	"branin":     func(int) Func { return Branin{} },
	"rosenbrock": func(ndim int) Func { return Rosenbrock{NDim: max(ndim, 2)} },
	"styblinski": func(ndim int) Func { return Styblinski{NDim: ndim} },
}

// InsideBounds reports whether p lies in fn's box.
func InsideBounds(p []float64, fn Func) bool {
	low, up := fn.Bounds()
	for i := range p {
		if p[i] < low[i] || p[i] > up[i] {
			return false
		}
	}

	return true
}

// Sinusoparaboloid is a parabola with its vertex at (Minimum, ..., Minimum)
// plus a sine wave that adds local minima:
//
//	f(x) = 1 + Σ (x[i] − Minimum)² + SinStrength·sin(2π·x[i]/Period)
//
// Its domain is [0, 2·Minimum] in every dimension.
type Sinusoparaboloid struct {
	NDim        int
	Period      float64
	Minimum     float64
	SinStrength float64
}

func (fn Sinusoparaboloid) Name() string { return fmt.Sprintf("Sinusoparaboloid_%vD", fn.NDim) }

func (fn Sinusoparaboloid) Eval(x []float64) float64 {
	height := 1.0
	for _, v := range x {
		height += (v-fn.Minimum)*(v-fn.Minimum) + fn.SinStrength*sin(v*2*math.Pi/fn.Period)
	}

	return height
}

func (fn Sinusoparaboloid) Bounds() (low, up []float64) {
	return fill(fn.NDim, 0), fill(fn.NDim, 2*fn.Minimum)
}

// Optima locates the minimum numerically: the sine shifts it away from
// Minimum by up to half a period.
func (fn Sinusoparaboloid) Optima() []Point {
	best := Point{Y: math.Inf(1)}

	const steps = 100000

	lo, hi := fn.Minimum-fn.Period/2, fn.Minimum+fn.Period/2
	for i := 0; i <= steps; i++ {
		v := lo + (hi-lo)*float64(i)/steps
		if y := fn.Eval([]float64{v}); y < best.Y {
			best = Point{X: []float64{v}, Y: y}
		}
	}

	x := fill(fn.NDim, best.X[0])

	return []Point{{X: x, Y: fn.Eval(x)}}
}

// Branin is the two-dimensional test function of Jones et al. It has three
// global minima.
type Branin struct{}

func (fn Branin) Name() string { return "Branin" }

func (fn Branin) Eval(v []float64) float64 {
	const (
		a = 1.0
		b = 5.1 / (4 * math.Pi * math.Pi)
		c = 5 / math.Pi
		r = 6.0
		s = 10.0
		t = 1 / (8 * math.Pi)
	)

	x, y := v[0], v[1]
	u := y - b*x*x + c*x - r

	return a*u*u + s*(1-t)*cos(x) + s
}

func (fn Branin) Bounds() (low, up []float64) {
	return []float64{-5, 0}, []float64{10, 15}
}

func (fn Branin) Optima() []Point {
	return []Point{
		{X: []float64{-math.Pi, 12.275}, Y: 0.397887},
		{X: []float64{math.Pi, 2.275}, Y: 0.397887},
		{X: []float64{9.42478, 2.475}, Y: 0.397887},
	}
}

type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}

	return tot / 2
}

func (fn Styblinski) Bounds() (low, up []float64) {
	return fill(fn.NDim, -5), fill(fn.NDim, 5)
}

func (fn Styblinski) Optima() []Point {
	return []Point{{X: fill(fn.NDim, -2.903534), Y: -39.166166 * float64(fn.NDim)}}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}

	return tot
}

// Bounds is narrower than the usual ±1000 so a few dozen evaluations can
// make progress.
func (fn Rosenbrock) Bounds() (low, up []float64) {
	return fill(fn.NDim, -2), fill(fn.NDim, 2)
}

func (fn Rosenbrock) Optima() []Point {
	return []Point{{X: fill(fn.NDim, 1), Y: 0}}
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}
