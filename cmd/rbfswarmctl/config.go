package main

import (
	"encoding/json"
	"fmt"
	"os"

	"rbfswarm/pkg/rbfswarm"
)

func loadRequestFromConfig(path string) (rbfswarm.BenchmarkRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rbfswarm.BenchmarkRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return rbfswarm.BenchmarkRequest{}, err
	}

	var req rbfswarm.BenchmarkRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["data"]); ok {
		req.DataPath = v
	}
	if v, ok := asString(raw["comma"]); ok {
		comma, err := parseComma(v)
		if err != nil {
			return rbfswarm.BenchmarkRequest{}, err
		}
		req.Comma = comma
	}
	if v, ok := asBool(raw["header"]); ok {
		req.Header = v
	}
	if v, ok := asBool(raw["label_column"]); ok {
		req.LabelColumn = v
	}
	if v, ok := asInt(raw["inputs"]); ok {
		req.NumInput = v
	}
	if v, ok := asInt(raw["hidden"]); ok {
		req.NumHidden = v
	}
	if v, ok := asInt(raw["outputs"]); ok {
		req.NumOutput = v
	}
	if v, ok := asInt(raw["max_iterations"]); ok {
		req.MaxIterations = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asFloat64(raw["error_goal"]); ok {
		req.ErrorGoal = v
	}
	if v, ok := asFloat64(raw["train_fraction"]); ok {
		req.TrainFraction = v
	}
	if v, ok := asBool(raw["shuffle"]); ok {
		req.Shuffle = v
	}
	if v, ok := asBool(raw["normalize"]); ok {
		req.Normalize = v
	}
	if v, ok := asString(raw["out"]); ok {
		req.OutputsPath = v
	}
	if v, ok := asString(raw["plot"]); ok {
		req.PlotPath = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if items, ok := raw["seeds"].([]any); ok {
		for i, item := range items {
			seed, ok := asInt64(item)
			if !ok {
				return rbfswarm.BenchmarkRequest{}, fmt.Errorf("config seeds[%d] is not an integer", i)
			}
			req.Seeds = append(req.Seeds, seed)
		}
	}
	if v, ok := asInt(raw["runs"]); ok {
		req.Runs = v
	}
	return req, nil
}

func loadOrDefaultRequest(configPath string) (rbfswarm.BenchmarkRequest, error) {
	if configPath == "" {
		return rbfswarm.BenchmarkRequest{}, nil
	}
	req, err := loadRequestFromConfig(configPath)
	if err != nil {
		return rbfswarm.BenchmarkRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags copies every flag named in set onto req.
func overrideFromFlags(req *rbfswarm.BenchmarkRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "data":
			req.DataPath = v.(string)
		case "comma":
			comma, err := parseComma(v.(string))
			if err != nil {
				return err
			}
			req.Comma = comma
		case "header":
			req.Header = v.(bool)
		case "label-column":
			req.LabelColumn = v.(bool)
		case "inputs":
			req.NumInput = v.(int)
		case "hidden":
			req.NumHidden = v.(int)
		case "outputs":
			req.NumOutput = v.(int)
		case "max-iterations":
			req.MaxIterations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "error-goal":
			req.ErrorGoal = v.(float64)
		case "train-fraction":
			req.TrainFraction = v.(float64)
		case "shuffle":
			req.Shuffle = v.(bool)
		case "normalize":
			req.Normalize = v.(bool)
		case "out":
			req.OutputsPath = v.(string)
		case "plot":
			req.PlotPath = v.(string)
		case "workers":
			req.Workers = v.(int)
		}
	}

	// explicit seeds beat a run count; a run count counts up from req.Seed
	if text, _ := flagValue["seeds"].(string); set["seeds"] && text != "" {
		seeds, err := parseSeeds(text)
		if err != nil {
			return err
		}
		req.Seeds = seeds
		return nil
	}
	count, hasRuns := flagValue["runs"].(int)
	if !hasRuns {
		return nil
	}
	if set["runs"] {
		req.Seeds = nil
		req.Runs = count
		return nil
	}
	if len(req.Seeds) == 0 && req.Runs <= 0 {
		req.Runs = count
	}
	return nil
}
