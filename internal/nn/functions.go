package nn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Sat clamps value to [min, max].
func Sat(value, max, min float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}

// ScaleValue maps value from [min, max] to [-1, 1].
func ScaleValue(value, max, min float64) float64 {
	if max == min {
		return 0
	}
	return (value*2 - (max + min)) / (max - min)
}

// Avg returns the arithmetic mean of values.
func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.Wrap(ErrEmptyDataset, "avg")
	}
	return floats.Sum(values) / float64(len(values)), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, mismatch("euclidean distance", len(b), len(a))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(a, b, 2), nil
}

// AvgAbsDistance returns the mean absolute per-term difference between a and b.
func AvgAbsDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, mismatch("average absolute distance", len(b), len(a))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return floats.Distance(a, b, 1) / float64(len(a)), nil
}

// Softmax scales raw so the result is non-negative and sums to 1. The max is
// subtracted before exponentiation to keep large inputs finite.
func Softmax(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	max := floats.Max(raw)
	scale := 0.0
	for i, v := range raw {
		out[i] = math.Exp(v - max)
		scale += out[i]
	}
	floats.Scale(1/scale, out)
	return out
}

// MaxIndex returns the index of the first largest value, or -1 for an empty slice.
func MaxIndex(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	return floats.MaxIdx(values)
}
