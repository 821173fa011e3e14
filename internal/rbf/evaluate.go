package rbf

import (
	"github.com/pkg/errors"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
)

// Evaluate returns the mean squared error of a candidate weight vector over
// samples. The committed weights are left untouched.
func (n *Network) Evaluate(weights []float64, samples []model.Sample) (float64, error) {
	hoWeights, oBiases, err := n.unflatten(weights)
	if err != nil {
		return 0, err
	}
	return n.meanSquaredError(samples, hoWeights, oBiases)
}

// MeanSquaredError scores the committed weights.
func (n *Network) MeanSquaredError(samples []model.Sample) (float64, error) {
	return n.meanSquaredError(samples, n.hoWeights, n.oBiases)
}

// meanSquaredError sums squared output differences per row and averages over
// rows.
func (n *Network) meanSquaredError(samples []model.Sample, hoWeights [][]float64, oBiases []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, errors.Wrap(ErrEmptyDataset, "mean squared error")
	}
	sum := 0.0
	for i, sample := range samples {
		if err := n.checkSample(sample); err != nil {
			return 0, errors.WithMessagef(err, "row %d", i)
		}
		outputs, err := n.forward(sample.Features, hoWeights, oBiases)
		if err != nil {
			return 0, errors.WithMessagef(err, "row %d", i)
		}
		for k, y := range outputs {
			d := y - sample.Targets[k]
			sum += d * d
		}
	}
	return sum / float64(len(samples)), nil
}

// Accuracy is the fraction of samples whose largest output lands on the hot
// target.
func (n *Network) Accuracy(samples []model.Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, errors.Wrap(ErrEmptyDataset, "accuracy")
	}
	correct, wrong := 0, 0
	for i, sample := range samples {
		if err := n.checkSample(sample); err != nil {
			return 0, errors.WithMessagef(err, "row %d", i)
		}
		winner, _, err := n.Predict(sample.Features)
		if err != nil {
			return 0, errors.WithMessagef(err, "row %d", i)
		}
		if sample.Targets[winner] == 1 {
			correct++
		} else {
			wrong++
		}
	}
	return float64(correct) / float64(correct+wrong), nil
}

// Predict returns the winning class index along with the output probabilities.
func (n *Network) Predict(features []float64) (int, []float64, error) {
	outputs, err := n.ComputeOutputs(features)
	if err != nil {
		return -1, nil, err
	}
	return nn.MaxIndex(outputs), outputs, nil
}

func (n *Network) checkSample(sample model.Sample) error {
	if len(sample.Features) != n.numInput {
		return errors.Wrapf(ErrDimensionMismatch, "sample has %d features, want %d", len(sample.Features), n.numInput)
	}
	if len(sample.Targets) != n.numOutput {
		return errors.Wrapf(ErrDimensionMismatch, "sample has %d targets, want %d", len(sample.Targets), n.numOutput)
	}
	return nil
}
