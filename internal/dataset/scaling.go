package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
)

// Scaling maps each feature column from its observed [Min, Max] onto [-1, 1].
type Scaling struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitScaling records per-feature bounds over samples.
func FitScaling(samples []model.Sample) (Scaling, error) {
	if len(samples) == 0 {
		return Scaling{}, fmt.Errorf("fit scaling: %w", nn.ErrEmptyDataset)
	}
	width := len(samples[0].Features)
	scaling := Scaling{
		Min: append([]float64(nil), samples[0].Features...),
		Max: append([]float64(nil), samples[0].Features...),
	}
	column := make([]float64, len(samples))
	for c := 0; c < width; c++ {
		for i, sample := range samples {
			if len(sample.Features) != width {
				return Scaling{}, fmt.Errorf("fit scaling row %d has %d features, want %d: %w", i, len(sample.Features), width, nn.ErrDimensionMismatch)
			}
			column[i] = sample.Features[c]
		}
		scaling.Min[c] = floats.Min(column)
		scaling.Max[c] = floats.Max(column)
	}
	return scaling, nil
}

// Apply returns scaled copies of samples; the inputs are not modified.
func (s Scaling) Apply(samples []model.Sample) ([]model.Sample, error) {
	out := make([]model.Sample, len(samples))
	for i, sample := range samples {
		features, err := s.Features(sample.Features)
		if err != nil {
			return nil, fmt.Errorf("scale row %d: %w", i, err)
		}
		out[i] = model.Sample{Features: features, Targets: append([]float64(nil), sample.Targets...)}
	}
	return out, nil
}

// Features scales one feature vector. Columns that were constant map to 0.
func (s Scaling) Features(features []float64) ([]float64, error) {
	if len(features) != len(s.Min) {
		return nil, fmt.Errorf("scale features: got %d, want %d: %w", len(features), len(s.Min), nn.ErrDimensionMismatch)
	}
	out := make([]float64, len(features))
	for c, v := range features {
		out[c] = nn.ScaleValue(v, s.Max[c], s.Min[c])
	}
	return out, nil
}
