package model

import (
	"github.com/pkg/errors"

	"rbfswarm/internal/nn"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Sample is one labeled training row: input features and a one-hot target.
type Sample struct {
	Features []float64 `json:"features"`
	Targets  []float64 `json:"targets"`
}

// SplitRow converts a raw row of features followed by one-hot targets into a Sample.
func SplitRow(row []float64, numInput, numOutput int) (Sample, error) {
	if len(row) != numInput+numOutput {
		return Sample{}, errors.Wrapf(nn.ErrDimensionMismatch, "row has %d values, want %d inputs + %d targets", len(row), numInput, numOutput)
	}
	return Sample{
		Features: append([]float64(nil), row[:numInput]...),
		Targets:  append([]float64(nil), row[numInput:]...),
	}, nil
}

// SplitRows applies SplitRow to every row of a matrix.
func SplitRows(rows [][]float64, numInput, numOutput int) ([]Sample, error) {
	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		sample, err := SplitRow(row, numInput, numOutput)
		if err != nil {
			return nil, errors.WithMessagef(err, "row %d", i)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

const (
	StopReasonErrorGoal     = "error_goal"
	StopReasonMaxIterations = "max_iterations"
)

// RunRecord summarizes one completed training run.
type RunRecord struct {
	VersionedRecord
	RunID           string  `json:"run_id"`
	CreatedAtUTC    string  `json:"created_at_utc"`
	DataPath        string  `json:"data_path,omitempty"`
	NumInput        int     `json:"num_input"`
	NumHidden       int     `json:"num_hidden"`
	NumOutput       int     `json:"num_output"`
	MaxIterations   int     `json:"max_iterations"`
	Seed            int64   `json:"seed"`
	TrainRows       int     `json:"train_rows"`
	TestRows        int     `json:"test_rows"`
	Particles       int     `json:"particles"`
	Iterations      int     `json:"iterations"`
	Evaluations     int     `json:"evaluations"`
	StopReason      string  `json:"stop_reason"`
	Width           float64 `json:"width"`
	CentroidIndices []int   `json:"centroid_indices"`
	TrainError      float64 `json:"train_error"`
	TrainAccuracy   float64 `json:"train_accuracy"`
	TestAccuracy    float64 `json:"test_accuracy"`
	DurationMillis  int64   `json:"duration_millis"`
}
