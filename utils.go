package smbo

import (
	"io"
	"log/slog"
	"math"
)

//////
// Helper functions.
//////

// copyVec returns an independent copy of v.
func copyVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)

	return out
}

// discardLogger is used wherever no logger was injected.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// orDiscard returns l, or a discarding logger when l is nil.
func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discardLogger()
	}

	return l
}

// logistic maps the real line onto (0, 1).
func logistic(u float64) float64 {
	return 1 / (1 + math.Exp(-u))
}

// logit is the inverse of logistic. The argument is clamped away from 0 and
// 1 so the result stays finite.
func logit(f float64) float64 {
	const edge = 1e-9

	f = math.Max(edge, math.Min(1-edge, f))

	return math.Log(f / (1 - f))
}

// toBounded maps an unconstrained value onto r. Half-open ranges
// (Max = +Inf) use an exponential, closed ranges a logistic.
func toBounded(u float64, r ParameterRange[float64]) float64 {
	if math.IsInf(r.Max, 1) {
		return r.Min + math.Exp(u)
	}

	return r.Min + r.Width()*logistic(u)
}

// fromBounded is the inverse of toBounded. Values on or outside the range
// are pulled just inside it.
func fromBounded(v float64, r ParameterRange[float64]) float64 {
	if math.IsInf(r.Max, 1) {
		return math.Log(math.Max(v-r.Min, 1e-12))
	}

	return logit((v - r.Min) / r.Width())
}
