package rbf

import (
	"math"

	"github.com/pkg/errors"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
	"rbfswarm/internal/rng"
)

// Selection is the outcome of centroid selection.
type Selection struct {
	Indices   []int
	Centroids [][]float64
	Spread    float64
}

// SelectCentroids picks numHidden rows whose features are spread apart. It
// draws len(samples) random index sets and keeps the one whose adjacent
// members differ most on average. Only adjacent pairs of each draw are scored,
// which keeps one attempt linear in numHidden.
func SelectCentroids(samples []model.Sample, numHidden int, src rng.Source) (Selection, error) {
	if len(samples) == 0 {
		return Selection{}, errors.Wrap(ErrEmptyDataset, "select centroids")
	}
	if numHidden <= 0 || numHidden > len(samples) {
		return Selection{}, errors.Wrapf(ErrDimensionMismatch, "select centroids: cannot draw %d distinct rows from %d", numHidden, len(samples))
	}

	best := make([]int, numHidden)
	bestSpread := -math.MaxFloat64
	for attempt := 0; attempt < len(samples); attempt++ {
		candidate := DistinctIndices(numHidden, len(samples), src)
		spread, err := adjacentSpread(samples, candidate)
		if err != nil {
			return Selection{}, err
		}
		if spread > bestSpread {
			bestSpread = spread
			copy(best, candidate)
		}
	}

	centroids := make([][]float64, numHidden)
	for i, idx := range best {
		centroids[i] = append([]float64(nil), samples[idx].Features...)
	}
	return Selection{Indices: best, Centroids: centroids, Spread: bestSpread}, nil
}

func adjacentSpread(samples []model.Sample, indices []int) (float64, error) {
	if len(indices) < 2 {
		return 0, nil
	}
	sum := 0.0
	for j := 0; j < len(indices)-1; j++ {
		d, err := nn.AvgAbsDistance(samples[indices[j]].Features, samples[indices[j+1]].Features)
		if err != nil {
			return 0, errors.WithMessagef(err, "rows %d and %d", indices[j], indices[j+1])
		}
		sum += d
	}
	return sum / float64(len(indices)-1), nil
}

// DistinctIndices returns n distinct values from [0, limit) by reservoir
// sampling. It panics when n > limit; callers validate first.
func DistinctIndices(n, limit int, src rng.Source) []int {
	if n > limit {
		panic("rbf: distinct indices requested exceed range")
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for t := n; t < limit; t++ {
		if m := src.Intn(t + 1); m < n {
			out[m] = t
		}
	}
	return out
}
