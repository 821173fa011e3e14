package rbfswarm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rbfswarm/internal/stats"
	"rbfswarm/internal/storage"
)

const twoClusterCSV = `x,y,a,b
-1.0,-1.0,1,0
1.0,1.0,0,1
-0.8,-1.2,1,0
0.8,1.2,0,1
-1.2,-0.9,1,0
1.2,0.9,0,1
-0.9,-0.7,1,0
0.9,0.8,0,1
-1.1,-1.1,1,0
1.1,1.0,0,1
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clusters.csv")
	if err := os.WriteFile(path, []byte(twoClusterCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientTrainRecordsRun(t *testing.T) {
	base := t.TempDir()
	artifactsDir := filepath.Join(base, "runs")
	outputsPath := filepath.Join(base, "out", "res.csv")
	client := newTestClient(t, Options{StoreKind: "memory", ArtifactsDir: artifactsDir})

	var observed int
	summary, err := client.Train(context.Background(), TrainRequest{
		RunID:         "train-a",
		DataPath:      writeDataset(t),
		Header:        true,
		NumInput:      2,
		NumHidden:     3,
		NumOutput:     2,
		MaxIterations: 20,
		OutputsPath:   outputsPath,
		OnIteration:   func(int, float64) { observed++ },
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	run := summary.Run
	if run.RunID != "train-a" || run.TrainRows != 8 || run.TestRows != 2 {
		t.Fatalf("unexpected run record: %+v", run)
	}
	if len(summary.Weights) != 8 {
		t.Fatalf("unexpected weight count: got=%d want=8", len(summary.Weights))
	}
	if len(summary.ErrorHistory) != run.Iterations+1 {
		t.Fatalf("unexpected history length: got=%d want=%d", len(summary.ErrorHistory), run.Iterations+1)
	}
	if observed != run.Iterations {
		t.Fatalf("unexpected observer calls: got=%d want=%d", observed, run.Iterations)
	}
	if run.TrainAccuracy < 0 || run.TrainAccuracy > 1 || run.TestAccuracy < 0 || run.TestAccuracy > 1 {
		t.Fatalf("accuracy out of bounds: %+v", run)
	}
	if run.SchemaVersion != storage.CurrentSchemaVersion || run.CodecVersion != storage.CurrentCodecVersion {
		t.Fatalf("unexpected record versions: schema=%d codec=%d", run.SchemaVersion, run.CodecVersion)
	}

	detail, err := client.Run(context.Background(), "train-a")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if detail.Run.TrainError != run.TrainError || len(detail.ErrorHistory) != len(summary.ErrorHistory) {
		t.Fatalf("unexpected stored run: %+v", detail)
	}

	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "summary.json")); err != nil {
		t.Fatalf("expected summary artifact: %v", err)
	}
	index, err := stats.ListRunIndex(artifactsDir)
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(index) != 1 || index[0].RunID != "train-a" {
		t.Fatalf("unexpected run index: %+v", index)
	}

	data, err := os.ReadFile(outputsPath)
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 11 {
		t.Fatalf("unexpected outputs line count: got=%d want=11", len(lines))
	}

	if err := client.DeleteRun(context.Background(), "train-a"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, err := client.Run(context.Background(), "train-a"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected deleted run to be gone, got=%v", err)
	}
}

func TestClientTrainDeterministicForSeed(t *testing.T) {
	client := newTestClient(t, Options{StoreKind: "memory"})
	path := writeDataset(t)
	train := func(runID string) RunSummary {
		summary, err := client.Train(context.Background(), TrainRequest{
			RunID:         runID,
			DataPath:      path,
			Header:        true,
			NumInput:      2,
			NumHidden:     3,
			NumOutput:     2,
			MaxIterations: 10,
			Seed:          7,
			Shuffle:       true,
			Normalize:     true,
		})
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		return summary
	}
	a, b := train("a"), train("b")
	if a.Run.TrainError != b.Run.TrainError || a.Run.Width != b.Run.Width {
		t.Fatalf("runs differ for same seed: %+v vs %+v", a.Run, b.Run)
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("weights differ at %d", i)
		}
	}
}

func TestClientTrainErrors(t *testing.T) {
	client := newTestClient(t, Options{StoreKind: "memory"})
	if _, err := client.Train(context.Background(), TrainRequest{NumInput: 2, NumOutput: 2}); err == nil {
		t.Fatal("expected missing data error")
	}
	_, err := client.Train(context.Background(), TrainRequest{
		DataPath:  writeDataset(t),
		Header:    true,
		NumInput:  3,
		NumOutput: 2,
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got=%v", err)
	}
	if _, err := client.Run(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected run not found, got=%v", err)
	}
}

func TestClientBenchmark(t *testing.T) {
	base := t.TempDir()
	plotPath := filepath.Join(base, "benchmark.png")
	client := newTestClient(t, Options{StoreKind: "sqlite", DBPath: filepath.Join(base, "runs.db")})

	req := BenchmarkRequest{
		TrainRequest: TrainRequest{
			RunID:         "bench",
			DataPath:      writeDataset(t),
			Header:        true,
			NumInput:      2,
			NumHidden:     3,
			NumOutput:     2,
			MaxIterations: 8,
			PlotPath:      plotPath,
		},
		Seeds:   []int64{3, 1, 2},
		Workers: 2,
	}
	summary, err := client.Benchmark(context.Background(), req)
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(summary.Runs) != 3 {
		t.Fatalf("unexpected run count: got=%d want=3", len(summary.Runs))
	}
	for i, seed := range []int64{1, 2, 3} {
		if summary.Runs[i].Run.Seed != seed {
			t.Fatalf("unexpected seed order at %d: got=%d want=%d", i, summary.Runs[i].Run.Seed, seed)
		}
	}
	if summary.TrainError.Count != 3 || summary.TrainError.Min > summary.TrainError.Max {
		t.Fatalf("unexpected train error summary: %+v", summary.TrainError)
	}
	if len(summary.AverageCurve) == 0 {
		t.Fatal("expected average curve")
	}
	if _, err := os.Stat(plotPath); err != nil {
		t.Fatalf("expected plot: %v", err)
	}

	runs, err := client.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("unexpected stored runs: got=%d want=3", len(runs))
	}

	req.Seeds = []int64{1, 1}
	if _, err := client.Benchmark(context.Background(), req); err == nil {
		t.Fatal("expected duplicate seed error")
	}
}

func TestClientBenchmarkMatchesSingleRun(t *testing.T) {
	client := newTestClient(t, Options{StoreKind: "memory"})
	path := writeDataset(t)
	base := TrainRequest{DataPath: path, Header: true, NumInput: 2, NumHidden: 3, NumOutput: 2, MaxIterations: 6}

	single := base
	single.Seed = 4
	one, err := client.Train(context.Background(), single)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	bench, err := client.Benchmark(context.Background(), BenchmarkRequest{TrainRequest: base, Seeds: []int64{4, 5}})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if bench.Runs[0].Run.TrainError != one.Run.TrainError {
		t.Fatalf("parallel run differs from single run: got=%f want=%f", bench.Runs[0].Run.TrainError, one.Run.TrainError)
	}
}

func TestClientTrainFromRowsSQLite(t *testing.T) {
	client := newTestClient(t, Options{StoreKind: "sqlite", DBPath: filepath.Join(t.TempDir(), "runs.db")})
	rows := [][]float64{
		{-1.0, -1.0, 1, 0},
		{1.0, 1.0, 0, 1},
		{-0.8, -1.2, 1, 0},
		{0.8, 1.2, 0, 1},
		{-1.2, -0.9, 1, 0},
		{1.2, 0.9, 0, 1},
	}
	summary, err := client.Train(context.Background(), TrainRequest{
		RunID:         "rows",
		Rows:          rows,
		NumInput:      2,
		NumHidden:     2,
		NumOutput:     2,
		MaxIterations: 5,
		TrainFraction: 1,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.Run.TrainRows != 6 || summary.Run.TestRows != 0 {
		t.Fatalf("unexpected split: %+v", summary.Run)
	}
	detail, err := client.Run(context.Background(), "rows")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if detail.Run.TrainError != summary.Run.TrainError {
		t.Fatalf("unexpected stored error: got=%f want=%f", detail.Run.TrainError, summary.Run.TrainError)
	}

	_, err = client.Train(context.Background(), TrainRequest{Rows: [][]float64{{1, 2, 3}}, NumInput: 2, NumOutput: 2, MaxIterations: 1})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got=%v", err)
	}
}

func TestClientBenchmarkRunsCountFromSeed(t *testing.T) {
	client := newTestClient(t, Options{StoreKind: "memory"})
	summary, err := client.Benchmark(context.Background(), BenchmarkRequest{
		TrainRequest: TrainRequest{
			DataPath:      writeDataset(t),
			Header:        true,
			NumInput:      2,
			NumHidden:     3,
			NumOutput:     2,
			MaxIterations: 3,
			Seed:          7,
		},
		Runs: 2,
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if len(summary.Runs) != 2 || summary.Runs[0].Run.Seed != 7 || summary.Runs[1].Run.Seed != 8 {
		t.Fatalf("unexpected benchmark seeds: %+v", summary.Runs)
	}
	if _, err := client.Benchmark(context.Background(), BenchmarkRequest{TrainRequest: TrainRequest{DataPath: writeDataset(t), Header: true, NumInput: 2, NumOutput: 2}}); err == nil {
		t.Fatal("expected missing seeds error")
	}
}

func TestClientRunFallsBackToArtifacts(t *testing.T) {
	artifactsDir := filepath.Join(t.TempDir(), "runs")
	first := newTestClient(t, Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	summary, err := first.Train(context.Background(), TrainRequest{
		RunID:         "earlier",
		DataPath:      writeDataset(t),
		Header:        true,
		NumInput:      2,
		NumHidden:     3,
		NumOutput:     2,
		MaxIterations: 4,
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	second := newTestClient(t, Options{StoreKind: "memory", ArtifactsDir: artifactsDir})
	detail, err := second.Run(context.Background(), "earlier")
	if err != nil {
		t.Fatalf("get run from artifacts: %v", err)
	}
	if detail.Run.TrainError != summary.Run.TrainError || len(detail.ErrorHistory) != len(summary.ErrorHistory) {
		t.Fatalf("unexpected run from artifacts: %+v", detail)
	}
	if _, err := second.Run(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected run not found, got=%v", err)
	}
}
