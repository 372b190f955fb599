package smbo

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/cwbudde/mayfly"
	"gonum.org/v1/gonum/optimize"
)

// outOfDomainPenalty replaces the negated acquisition value of any point
// outside the domain. Negated acquisition values are never positive, so any
// positive constant steers a minimizer back in bounds.
const outOfDomainPenalty = 100.0

// Scorer returns the acquisition value at x. Higher is better.
type Scorer func(x []float64) (float64, error)

// Candidate is the point an AcquisitionOptimizer settled on.
type Candidate struct {
	// X lies inside the domain.
	X []float64

	// Value is the acquisition value at X.
	Value float64

	// Converged is false when the underlying search stopped early. The
	// candidate is still the best point seen.
	Converged bool

	// Evaluations counts acquisition evaluations.
	Evaluations int
}

// AcquisitionOptimizer maximizes an acquisition function over a domain.
//
// Implementations must return a point inside the domain. Candidates outside
// it are scored with a penalty during the search instead of failing, so
// ErrOutOfDomain never escapes.
type AcquisitionOptimizer interface {
	Maximize(score Scorer, domain Domain) (Candidate, error)
}

// SelectNext returns the point of the domain maximizing the expected
// improvement of s over incumbentY.
func SelectNext(opt AcquisitionOptimizer, s Surrogate, domain Domain, incumbentY float64) (Candidate, error) {
	return opt.Maximize(func(x []float64) (float64, error) {
		return ExpectedImprovementAt(x, s, incumbentY)
	}, domain)
}

//////
// Penalized objective shared by the searches.
//////

// unitObjective exposes -score over the unit cube. The first scoring error
// is kept and every later call returns the penalty.
type unitObjective struct {
	score  Scorer
	domain Domain
	evals  int
	err    error
}

func (o *unitObjective) negated(u []float64) float64 {
	if o.err != nil {
		return outOfDomainPenalty
	}

	for _, v := range u {
		if !(v >= 0 && v <= 1) {
			return outOfDomainPenalty
		}
	}

	o.evals++

	v, err := o.score(o.domain.Clamp(o.domain.FromUnit(u)))
	if err != nil {
		o.err = err

		return outOfDomainPenalty
	}

	return -v
}

// finish clamps u into the cube, maps it to the domain and rescores it.
func (o *unitObjective) finish(u []float64, converged bool) (Candidate, error) {
	if o.err != nil {
		return Candidate{}, o.err
	}

	for i := range u {
		u[i] = math.Max(0, math.Min(1, u[i]))
	}

	x := o.domain.Clamp(o.domain.FromUnit(u))

	v, err := o.score(x)
	if err != nil {
		return Candidate{}, err
	}

	o.evals++

	return Candidate{X: x, Value: v, Converged: converged, Evaluations: o.evals}, nil
}

// localSearch runs Nelder-Mead on o from the unit-cube point start.
func localSearch(o *unitObjective, start []float64, maxEvals int, simplex float64) (u []float64, f float64, converged bool) {
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-9,
			Iterations: 30,
		},
	}

	result, err := optimize.Minimize(optimize.Problem{Func: o.negated}, start, settings, &optimize.NelderMead{SimplexSize: simplex})
	if result == nil {
		return copyVec(start), o.negated(start), false
	}

	return result.X, result.F, err == nil && !result.Status.Early()
}

//////
// Strategies.
//////

// LocalSearch minimizes the negated acquisition with Nelder-Mead from the
// centre of the domain. It is fast but stalls on the flat zero-EI plateaus
// far from the samples.
type LocalSearch struct {
	// MaxEvaluations bounds acquisition evaluations. Default 500.
	MaxEvaluations int

	// SimplexSize is the initial simplex edge as a fraction of each domain
	// width. Default 0.25.
	SimplexSize float64
}

// Maximize implements AcquisitionOptimizer.
func (l *LocalSearch) Maximize(score Scorer, domain Domain) (Candidate, error) {
	if err := domain.Validate(); err != nil {
		return Candidate{}, err
	}

	o := &unitObjective{score: score, domain: domain}

	start := make([]float64, domain.Dim())
	for i := range start {
		start[i] = 0.5
	}

	u, _, converged := localSearch(o, start, orInt(l.MaxEvaluations, 500), orFloat(l.SimplexSize, 0.25))

	return o.finish(u, converged)
}

// MultiStart screens random points of the domain, then runs a local
// Nelder-Mead search from the centre and from the best screened points and
// keeps the best result. It is the default: the restarts make it robust
// against the many flat regions of expected improvement.
type MultiStart struct {
	// Screen is the number of Latin-hypercube points scored before the local
	// searches. Default 32 per dimension.
	Screen int

	// Starts is the number of screened points used as local starts, in
	// addition to the centre. Default 4.
	Starts int

	// MaxEvaluations bounds acquisition evaluations per local search.
	// Default 300.
	MaxEvaluations int

	// Rand drives the screening design. Nil uses a fixed seed.
	Rand *rand.Rand
}

// Maximize implements AcquisitionOptimizer.
func (m *MultiStart) Maximize(score Scorer, domain Domain) (Candidate, error) {
	if err := domain.Validate(); err != nil {
		return Candidate{}, err
	}

	if m.Rand == nil {
		m.Rand = rand.New(rand.NewSource(1))
	}

	k := domain.Dim()
	o := &unitObjective{score: score, domain: domain}

	unit := make(Domain, k)
	for i := range unit {
		unit[i] = ParameterRange[float64]{Min: 0, Max: 1}
	}

	screen, err := NewLatinHypercube(m.Rand.Int63()).Sample(orInt(m.Screen, 32*k), unit)
	if err != nil {
		return Candidate{}, err
	}

	type scored struct {
		u []float64
		f float64
	}

	points := make([]scored, 0, len(screen))
	for _, u := range screen {
		points = append(points, scored{u: u, f: o.negated(u)})
	}

	if o.err != nil {
		return Candidate{}, o.err
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].f < points[j].f })

	center := make([]float64, k)
	for i := range center {
		center[i] = 0.5
	}

	starts := [][]float64{center}
	for i := 0; i < orInt(m.Starts, 4) && i < len(points); i++ {
		starts = append(starts, points[i].u)
	}

	var (
		bestU         []float64
		bestF         = math.Inf(1)
		bestConverged bool
	)

	// A screened point can beat every local search when all of them stall.
	if len(points) > 0 {
		bestU, bestF = copyVec(points[0].u), points[0].f
	}

	for _, start := range starts {
		u, f, converged := localSearch(o, start, orInt(m.MaxEvaluations, 300), 0.1)
		if o.err != nil {
			return Candidate{}, o.err
		}

		if f < bestF || bestU == nil {
			bestU, bestF, bestConverged = copyVec(u), f, converged
		}
	}

	return o.finish(bestU, bestConverged)
}

// MayflySearch maximizes the acquisition with the mayfly metaheuristic over
// the unit cube mapped onto the domain.
type MayflySearch struct {
	// MaxIterations of the swarm. Default 100.
	MaxIterations int

	// PopSize is the population size; the library needs at least 20.
	PopSize int

	// Rand seeds each run. Nil uses a fixed seed.
	Rand *rand.Rand
}

// Maximize implements AcquisitionOptimizer.
func (m *MayflySearch) Maximize(score Scorer, domain Domain) (Candidate, error) {
	if err := domain.Validate(); err != nil {
		return Candidate{}, err
	}

	if m.Rand == nil {
		m.Rand = rand.New(rand.NewSource(1))
	}

	o := &unitObjective{score: score, domain: domain}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = o.negated
	config.ProblemSize = domain.Dim()
	config.MaxIterations = orInt(m.MaxIterations, 100)
	config.NPop = max(orInt(m.PopSize, 20), 20)
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.Rand.Int63()))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return Candidate{}, fmt.Errorf("mayfly acquisition search: %w", err)
	}

	return o.finish(copyVec(result.GlobalBest.Position), true)
}

// GridSearch scores every point of a regular grid and returns the best. It
// is slow but exhaustive, which makes it a trustworthy oracle for the other
// strategies.
type GridSearch struct {
	// Resolution is the grid spacing in domain units. Default: 1/50 of each
	// dimension's width.
	Resolution float64

	// MaxPoints refuses grids larger than this. Default 1e6.
	MaxPoints int
}

// Maximize implements AcquisitionOptimizer.
func (g *GridSearch) Maximize(score Scorer, domain Domain) (Candidate, error) {
	if err := domain.Validate(); err != nil {
		return Candidate{}, err
	}

	limit := orInt(g.MaxPoints, 1_000_000)
	axes := make([][]float64, domain.Dim())
	total := 1

	for i, r := range domain {
		step := g.Resolution
		if step <= 0 {
			step = r.Width() / 50
		}

		steps := int(math.Floor(r.Width()/step + 1e-9))
		if steps >= limit {
			return Candidate{}, fmt.Errorf("grid search: more than %d points", limit)
		}

		for j := 0; j <= steps; j++ {
			axes[i] = append(axes[i], math.Min(r.Min+float64(j)*step, r.Max))
		}

		if axes[i][len(axes[i])-1] < r.Max {
			axes[i] = append(axes[i], r.Max)
		}

		total *= len(axes[i])

		if total > limit {
			return Candidate{}, fmt.Errorf("grid search: more than %d points", limit)
		}
	}

	var (
		best  Candidate
		found bool
		index = make([]int, len(axes))
	)

	for n := 0; n < total; n++ {
		x := make([]float64, len(axes))
		for i := range axes {
			x[i] = axes[i][index[i]]
		}

		v, err := score(x)
		if err != nil {
			return Candidate{}, err
		}

		if !found || v > best.Value {
			best = Candidate{X: x, Value: v}
			found = true
		}

		for i := range index {
			index[i]++
			if index[i] < len(axes[i]) {
				break
			}

			index[i] = 0
		}
	}

	best.Converged = true
	best.Evaluations = total

	return best, nil
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

func orFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}

	return v
}
