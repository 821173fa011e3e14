package rbf

import (
	"github.com/pkg/errors"

	"rbfswarm/internal/nn"
)

// FallbackWidth is used when centroids give no usable spread.
const FallbackWidth = 1.0

// CalibrateWidth returns the mean Euclidean distance over all unordered
// centroid pairs. Every hidden unit shares it.
func CalibrateWidth(centroids [][]float64) (float64, error) {
	if len(centroids) == 0 {
		return 0, errors.Wrap(ErrEmptyDataset, "calibrate width")
	}
	distances := make([]float64, 0, len(centroids)*(len(centroids)-1)/2)
	for i := 0; i < len(centroids)-1; i++ {
		for j := i + 1; j < len(centroids); j++ {
			d, err := nn.EuclideanDistance(centroids[i], centroids[j])
			if err != nil {
				return 0, errors.WithMessagef(err, "centroids %d and %d", i, j)
			}
			distances = append(distances, d)
		}
	}
	if len(distances) == 0 {
		return FallbackWidth, nil
	}
	width, err := nn.Avg(distances)
	if err != nil {
		return 0, err
	}
	if width == 0 {
		return FallbackWidth, nil
	}
	return width, nil
}
