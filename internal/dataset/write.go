package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rbfswarm/internal/model"
)

// WriteOutputs writes one record per sample: its features followed by the
// network outputs computed for it.
func WriteOutputs(out io.Writer, header []string, samples []model.Sample, outputs [][]float64, comma rune) error {
	if len(samples) != len(outputs) {
		return fmt.Errorf("write outputs: %d samples but %d output rows", len(samples), len(outputs))
	}
	writer := csv.NewWriter(out)
	if comma != 0 {
		writer.Comma = comma
	}
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	for i, sample := range samples {
		record := make([]string, 0, len(sample.Features)+len(outputs[i]))
		for _, v := range sample.Features {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, v := range outputs[i] {
			record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write outputs row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteOutputsFile(path string, header []string, samples []model.Sample, outputs [][]float64, comma rune) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteOutputs(file, header, samples, outputs, comma); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
