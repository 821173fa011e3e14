package rbf

import (
	"github.com/pkg/errors"

	"rbfswarm/internal/model"
	"rbfswarm/internal/swarm"
)

// TrainResult reports what each training stage settled on.
type TrainResult struct {
	Weights         []float64
	CentroidIndices []int
	Width           float64
	Particles       int
	Swarm           swarm.Result
}

// ParticleCount is the swarm size used for a training set of rows samples.
func ParticleCount(rows int) int {
	if count := rows / 3; count > 0 {
		return count
	}
	return 1
}

// Train fixes centroids and the shared width from samples, then searches
// weights and biases with a particle swarm and commits the best vector found.
// Stopping at the iteration cap is a normal outcome; the result reports why
// the search ended.
func (n *Network) Train(samples []model.Sample) (TrainResult, error) {
	for i, sample := range samples {
		if err := n.checkSample(sample); err != nil {
			return TrainResult{}, errors.WithMessagef(err, "train row %d", i)
		}
	}

	selection, err := SelectCentroids(samples, n.numHidden, n.rand)
	if err != nil {
		return TrainResult{}, err
	}
	if err := n.SetCentroids(selection.Centroids); err != nil {
		return TrainResult{}, err
	}

	width, err := CalibrateWidth(n.centroids)
	if err != nil {
		return TrainResult{}, err
	}
	if err := n.SetWidth(width); err != nil {
		return TrainResult{}, err
	}

	particles := ParticleCount(len(samples))
	cfg := swarm.Config{
		Dimensions:    n.WeightCount(),
		Particles:     particles,
		MaxIterations: n.maxIterations,
		Inertia:       n.swarm.Inertia,
		Cognitive:     n.swarm.Cognitive,
		Social:        n.swarm.Social,
		MinPosition:   n.swarm.MinPosition,
		MaxPosition:   n.swarm.MaxPosition,
		MaxVelocity:   n.swarm.MaxVelocity,
		ErrorGoal:     n.swarm.ErrorGoal,
		Rand:          n.rand,
	}
	if observe := n.swarm.OnIteration; observe != nil {
		cfg.OnIteration = func(stats swarm.IterationStats) {
			observe(stats.Iteration, stats.BestError)
		}
	}
	result, err := swarm.Optimize(cfg, func(position []float64) (float64, error) {
		return n.Evaluate(position, samples)
	})
	if err != nil {
		return TrainResult{}, errors.WithMessage(err, "search weights")
	}
	if err := n.SetWeights(result.Best); err != nil {
		return TrainResult{}, err
	}

	return TrainResult{
		Weights:         n.Weights(),
		CentroidIndices: selection.Indices,
		Width:           width,
		Particles:       particles,
		Swarm:           result,
	}, nil
}
