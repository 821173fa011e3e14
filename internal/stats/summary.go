package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rbfswarm/internal/nn"
)

type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize reports the mean, sample standard deviation and range of values.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("summarize: %w", nn.ErrEmptyDataset)
	}
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	return Summary{
		Count: len(values),
		Mean:  mean,
		Std:   std,
		Min:   floats.Min(values),
		Max:   floats.Max(values),
	}, nil
}

// AverageCurve averages histories index by index. Runs that stopped early drop
// out of the average once they have no more entries.
func AverageCurve(histories [][]float64) []float64 {
	curve := make([]float64, 0, 64)
	for i := 0; ; i++ {
		values := make([]float64, 0, len(histories))
		for _, history := range histories {
			if i < len(history) {
				values = append(values, history[i])
			}
		}
		if len(values) == 0 {
			return curve
		}
		curve = append(curve, floats.Sum(values)/float64(len(values)))
	}
}
