package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"rbfswarm/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the request side of a training run as written next to its
// results.
type RunConfig struct {
	RunID         string  `json:"run_id"`
	DataPath      string  `json:"data_path,omitempty"`
	NumInput      int     `json:"num_input"`
	NumHidden     int     `json:"num_hidden"`
	NumOutput     int     `json:"num_output"`
	MaxIterations int     `json:"max_iterations"`
	Seed          int64   `json:"seed"`
	TrainFraction float64 `json:"train_fraction"`
	Shuffle       bool    `json:"shuffle"`
	Normalize     bool    `json:"normalize"`
	LabelColumn   bool    `json:"label_column"`
	ErrorGoal     float64 `json:"error_goal,omitempty"`
}

type RunArtifacts struct {
	Config       RunConfig       `json:"config"`
	Run          model.RunRecord `json:"run"`
	ErrorHistory []float64       `json:"error_history"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Seed         int64   `json:"seed"`
	NumHidden    int     `json:"num_hidden"`
	Iterations   int     `json:"iterations"`
	StopReason   string  `json:"stop_reason"`
	TrainError   float64 `json:"train_error"`
	TestAccuracy float64 `json:"test_accuracy"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes config.json, summary.json and error_history.csv
// under baseDir/<run id> and returns that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeHistoryCSV(filepath.Join(runDir, "error_history.csv"), artifacts.ErrorHistory); err != nil {
		return "", err
	}
	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

// ReadRunArtifacts loads the summary and error history written by
// WriteRunArtifacts.
func ReadRunArtifacts(baseDir, runID string) (model.RunRecord, []float64, error) {
	runDir := filepath.Join(baseDir, runID)
	data, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, nil, fmt.Errorf("decode run summary: %w", err)
	}
	history, err := ReadErrorHistoryCSV(filepath.Join(runDir, "error_history.csv"))
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	return run, history, nil
}

func ReadErrorHistoryCSV(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	history := make([]float64, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("error history row %d has %d columns", i, len(record))
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse error history row %d: %w", i, err)
		}
		history = append(history, value)
	}
	return history, nil
}

func writeHistoryCSV(path string, history []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"iteration", "best_error"}); err != nil {
		_ = file.Close()
		return err
	}
	for i, value := range history {
		if err := writer.Write([]string{strconv.Itoa(i), strconv.FormatFloat(value, 'g', -1, 64)}); err != nil {
			_ = file.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
