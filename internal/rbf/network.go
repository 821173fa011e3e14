package rbf

import (
	"math"

	"github.com/pkg/errors"

	"rbfswarm/internal/nn"
	"rbfswarm/internal/rng"
)

var (
	ErrDimensionMismatch = nn.ErrDimensionMismatch
	ErrEmptyDataset      = nn.ErrEmptyDataset
)

// DefaultSeed seeds the random source when Config.Rand is nil.
const DefaultSeed = 0

type Config struct {
	NumInput      int
	NumHidden     int
	NumOutput     int
	MaxIterations int
	// Rand drives centroid sampling and the swarm. Nil seeds a source with
	// DefaultSeed.
	Rand rng.Source
	// Swarm overrides swarm coefficients and bounds. Dimensions, Particles,
	// MaxIterations and Rand are always set by Train.
	Swarm SwarmOptions
}

// SwarmOptions mirrors the tunable part of swarm.Config. Zero values select
// the swarm defaults.
type SwarmOptions struct {
	Inertia     float64
	Cognitive   float64
	Social      float64
	MinPosition float64
	MaxPosition float64
	MaxVelocity float64
	ErrorGoal   float64
	OnIteration func(iteration int, bestError float64)
}

// Network is a radial basis function classifier: Gaussian hidden units around
// fixed centroids feeding a linear layer and a softmax.
type Network struct {
	numInput  int
	numHidden int
	numOutput int

	maxIterations int
	rand          rng.Source
	swarm         SwarmOptions

	centroids [][]float64
	width     float64
	hoWeights [][]float64
	oBiases   []float64
	outputs   []float64
}

func New(cfg Config) (*Network, error) {
	if cfg.NumInput <= 0 || cfg.NumHidden <= 0 || cfg.NumOutput <= 0 {
		return nil, errors.Wrapf(ErrDimensionMismatch, "network geometry must be positive: input=%d hidden=%d output=%d", cfg.NumInput, cfg.NumHidden, cfg.NumOutput)
	}
	if cfg.MaxIterations <= 0 {
		return nil, errors.Errorf("max iterations must be > 0, got %d", cfg.MaxIterations)
	}
	src := cfg.Rand
	if src == nil {
		src = rng.New(DefaultSeed)
	}
	return &Network{
		numInput:      cfg.NumInput,
		numHidden:     cfg.NumHidden,
		numOutput:     cfg.NumOutput,
		maxIterations: cfg.MaxIterations,
		rand:          src,
		swarm:         cfg.Swarm,
		centroids:     makeMatrix(cfg.NumHidden, cfg.NumInput),
		width:         1,
		hoWeights:     makeMatrix(cfg.NumHidden, cfg.NumOutput),
		oBiases:       make([]float64, cfg.NumOutput),
		outputs:       make([]float64, cfg.NumOutput),
	}, nil
}

func makeMatrix(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
	}
	return out
}

func (n *Network) NumInput() int  { return n.numInput }
func (n *Network) NumHidden() int { return n.numHidden }
func (n *Network) NumOutput() int { return n.numOutput }

// WeightCount is the length of every flattened weight/bias vector.
func (n *Network) WeightCount() int {
	return n.numHidden*n.numOutput + n.numOutput
}

// SetWeights installs hidden-to-output weights row by row followed by the
// output biases.
func (n *Network) SetWeights(weights []float64) error {
	if len(weights) != n.WeightCount() {
		return errors.Wrapf(ErrDimensionMismatch, "set weights: got length %d, want %d", len(weights), n.WeightCount())
	}
	k := 0
	for j := range n.hoWeights {
		k += copy(n.hoWeights[j], weights[k:k+n.numOutput])
	}
	copy(n.oBiases, weights[k:])
	return nil
}

func (n *Network) Weights() []float64 {
	out := make([]float64, 0, n.WeightCount())
	for _, row := range n.hoWeights {
		out = append(out, row...)
	}
	return append(out, n.oBiases...)
}

func (n *Network) SetCentroids(centroids [][]float64) error {
	if len(centroids) != n.numHidden {
		return errors.Wrapf(ErrDimensionMismatch, "set centroids: got %d centroids, want %d", len(centroids), n.numHidden)
	}
	for j, c := range centroids {
		if len(c) != n.numInput {
			return errors.Wrapf(ErrDimensionMismatch, "set centroids: centroid %d has length %d, want %d", j, len(c), n.numInput)
		}
	}
	for j, c := range centroids {
		copy(n.centroids[j], c)
	}
	return nil
}

func (n *Network) Centroids() [][]float64 {
	out := make([][]float64, len(n.centroids))
	for j, c := range n.centroids {
		out[j] = append([]float64(nil), c...)
	}
	return out
}

func (n *Network) SetWidth(width float64) error {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		return errors.Errorf("width must be a positive finite value, got %f", width)
	}
	n.width = width
	return nil
}

func (n *Network) Width() float64 { return n.width }

// Outputs returns a copy of the most recent ComputeOutputs result.
func (n *Network) Outputs() []float64 {
	return append([]float64(nil), n.outputs...)
}

// ComputeOutputs runs the forward pass with the committed weights.
func (n *Network) ComputeOutputs(features []float64) ([]float64, error) {
	out, err := n.forward(features, n.hoWeights, n.oBiases)
	if err != nil {
		return nil, err
	}
	copy(n.outputs, out)
	return out, nil
}

func (n *Network) forward(features []float64, hoWeights [][]float64, oBiases []float64) ([]float64, error) {
	if len(features) != n.numInput {
		return nil, errors.Wrapf(ErrDimensionMismatch, "compute outputs: got %d features, want %d", len(features), n.numInput)
	}

	denom := 2 * n.width * n.width
	raw := make([]float64, n.numOutput)
	for j, centroid := range n.centroids {
		d, err := nn.EuclideanDistance(features, centroid)
		if err != nil {
			return nil, err
		}
		g := math.Exp(-(d * d) / denom)
		for k, w := range hoWeights[j] {
			raw[k] += g * w
		}
	}
	// biases go in after the hidden sums
	for k, b := range oBiases {
		raw[k] += b
	}
	return nn.Softmax(raw), nil
}

// unflatten splits a weight vector into matrix and bias views without
// touching the committed parameters.
func (n *Network) unflatten(weights []float64) ([][]float64, []float64, error) {
	if len(weights) != n.WeightCount() {
		return nil, nil, errors.Wrapf(ErrDimensionMismatch, "weights: got length %d, want %d", len(weights), n.WeightCount())
	}
	hoWeights := make([][]float64, n.numHidden)
	for j := range hoWeights {
		hoWeights[j] = weights[j*n.numOutput : (j+1)*n.numOutput]
	}
	return hoWeights, weights[n.numHidden*n.numOutput:], nil
}
