package engine

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// Number is any value a reducer accepts.
type Number interface {
	constraints.Integer | constraints.Float
}

// Sum returns the total of values.
func Sum[T Number](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean of values, or NaN when empty.
func Mean[T Number](values []T) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	total := 0.0
	for _, v := range values {
		total += float64(v)
	}
	return total / float64(len(values))
}

// Reduce applies mode to values.
func Reduce[T Number](mode Mode, values []T) float64 {
	if mode == ModeSum {
		return float64(Sum(values))
	}
	return Mean(values)
}

// Summary is the five-number summary drawn by a box plot.
type Summary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Summarize computes the five-number summary of values using linear
// interpolation between closest ranks. values is not modified.
func Summarize[T Number](values []T) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	return Summary{
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Count:  len(sorted),
	}
}

// Quantile returns the q-th quantile of an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
