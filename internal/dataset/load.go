package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
)

type Options struct {
	NumInput  int
	NumOutput int
	// Comma is the field separator. Zero means ','.
	Comma rune
	// Header skips the first non-blank record and returns it as column names.
	Header bool
	// LabelColumn reads a single class index after the features and one-hot
	// encodes it into NumOutput targets instead of reading NumOutput columns.
	LabelColumn bool
}

func (o Options) validate() error {
	if o.NumInput <= 0 || o.NumOutput <= 0 {
		return fmt.Errorf("dataset geometry must be positive: inputs=%d outputs=%d: %w", o.NumInput, o.NumOutput, nn.ErrDimensionMismatch)
	}
	return nil
}

func (o Options) columns() int {
	if o.LabelColumn {
		return o.NumInput + 1
	}
	return o.NumInput + o.NumOutput
}

// Load reads numeric samples from CSV. Blank records are skipped.
func Load(in io.Reader, opts Options) ([]model.Sample, []string, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	var header []string
	samples := make([]model.Sample, 0, 256)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read dataset csv row %d: %w", line, err)
		}
		if blankRecord(record) {
			continue
		}
		if opts.Header && header == nil {
			header = trimAll(record)
			continue
		}
		sample, err := parseRecord(record, opts, line)
		if err != nil {
			return nil, nil, err
		}
		samples = append(samples, sample)
	}
	return samples, header, nil
}

func LoadFile(path string, opts Options) ([]model.Sample, []string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("dataset path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	return Load(file, opts)
}

func parseRecord(record []string, opts Options, line int) (model.Sample, error) {
	if len(record) != opts.columns() {
		return model.Sample{}, fmt.Errorf("dataset row %d has %d columns, want %d: %w", line, len(record), opts.columns(), nn.ErrDimensionMismatch)
	}
	values := make([]float64, len(record))
	for i, raw := range record {
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return model.Sample{}, fmt.Errorf("parse dataset row %d column %d: %w", line, i, err)
		}
		values[i] = value
	}
	if !opts.LabelColumn {
		return model.SplitRow(values, opts.NumInput, opts.NumOutput)
	}

	label := values[opts.NumInput]
	class := int(label)
	if float64(class) != label || class < 0 || class >= opts.NumOutput || math.IsNaN(label) {
		return model.Sample{}, fmt.Errorf("dataset row %d label %v is not a class in [0, %d)", line, label, opts.NumOutput)
	}
	targets := make([]float64, opts.NumOutput)
	targets[class] = 1
	return model.Sample{
		Features: values[:opts.NumInput:opts.NumInput],
		Targets:  targets,
	}, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, field := range record {
		out[i] = strings.TrimSpace(field)
	}
	return out
}
