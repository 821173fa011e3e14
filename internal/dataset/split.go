package dataset

import (
	"fmt"

	"rbfswarm/internal/model"
	"rbfswarm/internal/rng"
)

// Split holds out the tail of samples: the first int(trainFraction*len) rows
// train, the rest test. Order is preserved.
func Split(samples []model.Sample, trainFraction float64) (train, test []model.Sample, err error) {
	if trainFraction <= 0 || trainFraction > 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0, 1], got %f", trainFraction)
	}
	numTrain := int(trainFraction * float64(len(samples)))
	return samples[:numTrain:numTrain], samples[numTrain:], nil
}

// Shuffle reorders samples in place.
func Shuffle(samples []model.Sample, src rng.Source) {
	for i := range samples {
		r := rng.IntRange(src, i, len(samples))
		samples[i], samples[r] = samples[r], samples[i]
	}
}
