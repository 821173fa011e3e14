package rbfswarm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"

	"rbfswarm/internal/dataset"
	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
	"rbfswarm/internal/rbf"
	"rbfswarm/internal/rng"
	"rbfswarm/internal/stats"
	"rbfswarm/internal/storage"
)

const (
	defaultDBPath        = "rbfswarm.db"
	defaultNumHidden     = 6
	defaultMaxIterations = 200
	defaultTrainFraction = 0.8
)

var (
	ErrDimensionMismatch = nn.ErrDimensionMismatch
	ErrEmptyDataset      = nn.ErrEmptyDataset
	ErrRunNotFound       = errors.New("run not found")
)

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir receives per-run config, summary and error history files.
	// Empty disables artifact output.
	ArtifactsDir string
}

type Client struct {
	store        storage.Store
	artifactsDir string
}

type TrainRequest struct {
	RunID string
	// DataPath is read when neither Samples nor Rows is set.
	DataPath string
	Samples  []model.Sample
	// Rows holds raw rows of NumInput features followed by NumOutput
	// one-hot targets.
	Rows        [][]float64
	Comma       rune
	Header      bool
	LabelColumn bool

	NumInput      int
	NumHidden     int
	NumOutput     int
	MaxIterations int
	Seed          int64
	ErrorGoal     float64

	TrainFraction float64
	Shuffle       bool
	Normalize     bool

	// OutputsPath, when set, receives every row's features followed by the
	// trained network's outputs.
	OutputsPath string
	// PlotPath, when set, receives a plot of the error history.
	PlotPath    string
	OnIteration func(iteration int, bestError float64)
}

type RunSummary struct {
	Run          model.RunRecord
	Weights      []float64
	ErrorHistory []float64
	ArtifactsDir string
}

type BenchmarkRequest struct {
	TrainRequest
	// Seeds lists one seed per run. When empty, Runs consecutive seeds
	// starting at Seed are used.
	Seeds   []int64
	Runs    int
	Workers int
}

type BenchmarkSummary struct {
	Runs          []RunSummary
	TrainError    stats.Summary
	TrainAccuracy stats.Summary
	TestAccuracy  stats.Summary
	AverageCurve  []float64
}

type RunDetail struct {
	Run          model.RunRecord
	ErrorHistory []float64
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Train loads the data, trains one network and records the run.
func (c *Client) Train(ctx context.Context, req TrainRequest) (RunSummary, error) {
	req = withDefaults(req)
	samples, header, err := loadSamples(req)
	if err != nil {
		return RunSummary{}, err
	}
	summary, err := trainOnce(ctx, req, samples, header)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.record(ctx, req, &summary); err != nil {
		return RunSummary{}, err
	}
	if req.PlotPath != "" {
		curve := stats.Curve{Label: summary.Run.RunID, Values: summary.ErrorHistory}
		if err := stats.WriteErrorPlot(req.PlotPath, "training error", []stats.Curve{curve}); err != nil {
			return RunSummary{}, fmt.Errorf("write plot: %w", err)
		}
	}
	return summary, nil
}

// Benchmark trains one independent network per seed on a bounded worker pool
// and summarizes the runs. Runs come back ordered by seed.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	base := withDefaults(req.TrainRequest)
	seeds := append([]int64(nil), req.Seeds...)
	if len(seeds) == 0 {
		seeds = consecutiveSeeds(base.Seed, req.Runs)
	}
	if len(seeds) == 0 {
		return BenchmarkSummary{}, errors.New("benchmark needs at least one seed")
	}
	workers := req.Workers
	if workers <= 0 {
		workers = 4
	}
	samples, header, err := loadSamples(base)
	if err != nil {
		return BenchmarkSummary{}, err
	}

	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	for i := 1; i < len(seeds); i++ {
		if seeds[i] == seeds[i-1] {
			return BenchmarkSummary{}, fmt.Errorf("duplicate benchmark seed %d", seeds[i])
		}
	}

	prefix := base.RunID
	if prefix == "" {
		prefix = uuid.NewString()
	}
	requests := make([]TrainRequest, len(seeds))
	for i, seed := range seeds {
		runReq := base
		runReq.Seed = seed
		runReq.RunID = fmt.Sprintf("%s-seed-%d", prefix, seed)
		runReq.OutputsPath = ""
		runReq.PlotPath = ""
		runReq.OnIteration = nil
		requests[i] = runReq
	}

	runs, err := trainMany(ctx, requests, samples, header, workers)
	if err != nil {
		return BenchmarkSummary{}, err
	}
	for i := range runs {
		if err := c.record(ctx, requests[i], &runs[i]); err != nil {
			return BenchmarkSummary{}, err
		}
	}

	out := BenchmarkSummary{Runs: runs}
	trainErrors := make([]float64, len(runs))
	trainAccuracies := make([]float64, len(runs))
	testAccuracies := make([]float64, 0, len(runs))
	histories := make([][]float64, len(runs))
	curves := make([]stats.Curve, len(runs))
	for i, run := range runs {
		trainErrors[i] = run.Run.TrainError
		trainAccuracies[i] = run.Run.TrainAccuracy
		if run.Run.TestRows > 0 {
			testAccuracies = append(testAccuracies, run.Run.TestAccuracy)
		}
		histories[i] = run.ErrorHistory
		curves[i] = stats.Curve{Label: fmt.Sprintf("seed %d", run.Run.Seed), Values: run.ErrorHistory}
	}
	if out.TrainError, err = stats.Summarize(trainErrors); err != nil {
		return BenchmarkSummary{}, err
	}
	if out.TrainAccuracy, err = stats.Summarize(trainAccuracies); err != nil {
		return BenchmarkSummary{}, err
	}
	if len(testAccuracies) > 0 {
		if out.TestAccuracy, err = stats.Summarize(testAccuracies); err != nil {
			return BenchmarkSummary{}, err
		}
	}
	out.AverageCurve = stats.AverageCurve(histories)

	if req.PlotPath != "" {
		curves = append(curves, stats.Curve{Label: "average", Values: out.AverageCurve})
		if err := stats.WriteErrorPlot(req.PlotPath, "benchmark training error", curves); err != nil {
			return BenchmarkSummary{}, fmt.Errorf("write plot: %w", err)
		}
	}
	return out, nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

func (c *Client) Run(ctx context.Context, runID string) (RunDetail, error) {
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		return c.runFromArtifacts(runID)
	}
	history, _, err := c.store.GetErrorHistory(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	return RunDetail{Run: run, ErrorHistory: history}, nil
}

// runFromArtifacts reads a run written by an earlier process, which is the
// only record left behind when the store is in memory.
func (c *Client) runFromArtifacts(runID string) (RunDetail, error) {
	if c.artifactsDir == "" || runID == "" {
		return RunDetail{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	run, history, err := stats.ReadRunArtifacts(c.artifactsDir, runID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RunDetail{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return RunDetail{}, fmt.Errorf("read run artifacts %s: %w", runID, err)
	}
	return RunDetail{Run: run, ErrorHistory: history}, nil
}

func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.store.DeleteRun(ctx, runID)
}

func (c *Client) record(ctx context.Context, req TrainRequest, summary *RunSummary) error {
	run := storage.Versioned(summary.Run)
	summary.Run = run
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	if err := c.store.SaveErrorHistory(ctx, run.RunID, summary.ErrorHistory); err != nil {
		return fmt.Errorf("save error history %s: %w", run.RunID, err)
	}
	if c.artifactsDir == "" {
		return nil
	}

	dir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:         run.RunID,
			DataPath:      req.DataPath,
			NumInput:      req.NumInput,
			NumHidden:     req.NumHidden,
			NumOutput:     req.NumOutput,
			MaxIterations: req.MaxIterations,
			Seed:          req.Seed,
			TrainFraction: req.TrainFraction,
			Shuffle:       req.Shuffle,
			Normalize:     req.Normalize,
			LabelColumn:   req.LabelColumn,
			ErrorGoal:     req.ErrorGoal,
		},
		Run:          run,
		ErrorHistory: summary.ErrorHistory,
	})
	if err != nil {
		return fmt.Errorf("write run artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        run.RunID,
		Seed:         run.Seed,
		NumHidden:    run.NumHidden,
		Iterations:   run.Iterations,
		StopReason:   run.StopReason,
		TrainError:   run.TrainError,
		TestAccuracy: run.TestAccuracy,
		CreatedAtUTC: run.CreatedAtUTC,
	}); err != nil {
		return fmt.Errorf("append run index: %w", err)
	}
	summary.ArtifactsDir = dir
	return nil
}

func withDefaults(req TrainRequest) TrainRequest {
	if req.NumHidden <= 0 {
		req.NumHidden = defaultNumHidden
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = defaultMaxIterations
	}
	if req.TrainFraction == 0 {
		req.TrainFraction = defaultTrainFraction
	}
	return req
}

func loadSamples(req TrainRequest) ([]model.Sample, []string, error) {
	if req.Samples != nil {
		return req.Samples, nil, nil
	}
	if req.Rows != nil {
		samples, err := model.SplitRows(req.Rows, req.NumInput, req.NumOutput)
		if err != nil {
			return nil, nil, err
		}
		return samples, nil, nil
	}
	if req.DataPath == "" {
		return nil, nil, errors.New("data path, samples or rows are required")
	}
	samples, header, err := dataset.LoadFile(req.DataPath, dataset.Options{
		NumInput:    req.NumInput,
		NumOutput:   req.NumOutput,
		Comma:       req.Comma,
		Header:      req.Header,
		LabelColumn: req.LabelColumn,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", req.DataPath, err)
	}
	return samples, header, nil
}

func consecutiveSeeds(first int64, count int) []int64 {
	seeds := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		seeds = append(seeds, first+int64(i))
	}
	return seeds
}

func sortBySeed(runs []RunSummary) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Run.Seed < runs[j].Run.Seed
	})
}

// trainOnce runs the whole pipeline for one seed. samples is not modified.
func trainOnce(ctx context.Context, req TrainRequest, samples []model.Sample, header []string) (RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return RunSummary{}, err
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	src := rng.New(req.Seed)

	rows := append([]model.Sample(nil), samples...)
	if req.Shuffle {
		dataset.Shuffle(rows, src)
	}
	train, test, err := dataset.Split(rows, req.TrainFraction)
	if err != nil {
		return RunSummary{}, err
	}
	if req.Normalize && len(train) > 0 {
		scaling, err := dataset.FitScaling(train)
		if err != nil {
			return RunSummary{}, err
		}
		if train, err = scaling.Apply(train); err != nil {
			return RunSummary{}, err
		}
		if test, err = scaling.Apply(test); err != nil {
			return RunSummary{}, err
		}
	}

	network, err := rbf.New(rbf.Config{
		NumInput:      req.NumInput,
		NumHidden:     req.NumHidden,
		NumOutput:     req.NumOutput,
		MaxIterations: req.MaxIterations,
		Rand:          src,
		Swarm: rbf.SwarmOptions{
			ErrorGoal:   req.ErrorGoal,
			OnIteration: req.OnIteration,
		},
	})
	if err != nil {
		return RunSummary{}, err
	}

	started := time.Now()
	result, err := network.Train(train)
	if err != nil {
		return RunSummary{}, fmt.Errorf("train run %s: %w", runID, err)
	}
	elapsed := time.Since(started)

	trainAccuracy, err := network.Accuracy(train)
	if err != nil {
		return RunSummary{}, err
	}
	testAccuracy := 0.0
	if len(test) > 0 {
		if testAccuracy, err = network.Accuracy(test); err != nil {
			return RunSummary{}, err
		}
	}

	if req.OutputsPath != "" {
		all := append(append([]model.Sample(nil), train...), test...)
		outputs := make([][]float64, len(all))
		for i, sample := range all {
			if outputs[i], err = network.ComputeOutputs(sample.Features); err != nil {
				return RunSummary{}, err
			}
		}
		if err := dataset.WriteOutputsFile(req.OutputsPath, header, all, outputs, req.Comma); err != nil {
			return RunSummary{}, fmt.Errorf("write outputs: %w", err)
		}
	}

	run := model.RunRecord{
		RunID:           runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
		DataPath:        req.DataPath,
		NumInput:        req.NumInput,
		NumHidden:       req.NumHidden,
		NumOutput:       req.NumOutput,
		MaxIterations:   req.MaxIterations,
		Seed:            req.Seed,
		TrainRows:       len(train),
		TestRows:        len(test),
		Particles:       result.Particles,
		Iterations:      result.Swarm.Iterations,
		Evaluations:     result.Swarm.Evaluations,
		StopReason:      result.Swarm.StopReason,
		Width:           result.Width,
		CentroidIndices: result.CentroidIndices,
		TrainError:      result.Swarm.BestError,
		TrainAccuracy:   trainAccuracy,
		TestAccuracy:    testAccuracy,
		DurationMillis:  elapsed.Milliseconds(),
	}
	return RunSummary{
		Run:          run,
		Weights:      result.Weights,
		ErrorHistory: result.Swarm.History,
	}, nil
}
