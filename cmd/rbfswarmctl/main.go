package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"rbfswarm/internal/storage"
	"rbfswarm/pkg/rbfswarm"
)

const (
	defaultDBPath       = "rbfswarm.db"
	defaultArtifactsDir = "runs"
	progressEvery       = 10
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := rbfswarm.NewClient(ctx, rbfswarm.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

type storeFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
}

func bindStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		storeKind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaultDBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaultArtifactsDir, "directory for per-run artifacts; empty disables them"),
	}
}

func (s storeFlags) client(ctx context.Context) (*rbfswarm.Client, error) {
	return rbfswarm.NewClient(ctx, rbfswarm.Options{
		StoreKind:    *s.storeKind,
		DBPath:       *s.dbPath,
		ArtifactsDir: *s.artifactsDir,
	})
}

// bindTrainFlags registers the flags shared by train and benchmark and returns
// the parsed values keyed by flag name.
func bindTrainFlags(fs *flag.FlagSet) map[string]any {
	values := map[string]any{
		"run-id":         fs.String("run-id", "", "run id; a uuid when empty"),
		"data":           fs.String("data", "", "training data csv path"),
		"comma":          fs.String("comma", ",", "csv field separator; 'tab' for tabs"),
		"header":         fs.Bool("header", false, "first csv record is a header"),
		"label-column":   fs.Bool("label-column", false, "last column holds a class index instead of one-hot targets"),
		"inputs":         fs.Int("inputs", 0, "number of input features"),
		"hidden":         fs.Int("hidden", 6, "number of hidden radial units"),
		"outputs":        fs.Int("outputs", 0, "number of output classes"),
		"max-iterations": fs.Int("max-iterations", 200, "swarm iteration cap"),
		"seed":           fs.Int64("seed", 0, "random seed"),
		"error-goal":     fs.Float64("error-goal", 0, "stop once the best error drops below this; 0 uses the default, negative disables"),
		"train-fraction": fs.Float64("train-fraction", 0.8, "fraction of rows used for training"),
		"shuffle":        fs.Bool("shuffle", false, "shuffle rows before the train/test split"),
		"normalize":      fs.Bool("normalize", false, "min-max scale features into [-1, 1] using the training rows"),
		"plot":           fs.String("plot", "", "write an error history plot to this path (.png, .svg, .pdf)"),
	}
	return values
}

func flagValues(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for name, ptr := range raw {
		switch v := ptr.(type) {
		case *string:
			out[name] = *v
		case *bool:
			out[name] = *v
		case *int:
			out[name] = *v
		case *int64:
			out[name] = *v
		case *float64:
			out[name] = *v
		}
	}
	return out
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func buildRequest(fs *flag.FlagSet, configPath string, raw map[string]any) (rbfswarm.BenchmarkRequest, error) {
	values := flagValues(raw)
	set := visitedFlags(fs)
	if configPath == "" {
		// every flag counts, defaults included
		set = make(map[string]bool, len(values))
		for name := range values {
			set[name] = true
		}
	}
	req, err := loadOrDefaultRequest(configPath)
	if err != nil {
		return rbfswarm.BenchmarkRequest{}, err
	}
	if err := overrideFromFlags(&req, set, values); err != nil {
		return rbfswarm.BenchmarkRequest{}, err
	}
	if req.NumInput <= 0 || req.NumOutput <= 0 {
		return rbfswarm.BenchmarkRequest{}, fmt.Errorf("inputs and outputs must be > 0, got inputs=%d outputs=%d", req.NumInput, req.NumOutput)
	}
	return req, nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "json run config; explicit flags override it")
	stores := bindStoreFlags(fs)
	raw := bindTrainFlags(fs)
	raw["out"] = fs.String("out", "", "write features and network outputs for every row to this csv path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := buildRequest(fs, *configPath, raw)
	if err != nil {
		return err
	}
	if progressEnabled() {
		req.OnIteration = printProgress
	}

	client, err := stores.client(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Train(ctx, req.TrainRequest)
	if err != nil {
		return err
	}
	printRun("trained", summary)
	if summary.ArtifactsDir != "" {
		fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	}
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	configPath := fs.String("config", "", "json run config; explicit flags override it")
	stores := bindStoreFlags(fs)
	raw := bindTrainFlags(fs)
	raw["seeds"] = fs.String("seeds", "", "comma separated seeds; overrides -seed and -runs")
	raw["runs"] = fs.Int("runs", 5, "number of runs with consecutive seeds starting at -seed")
	raw["workers"] = fs.Int("workers", 4, "concurrent training runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req, err := buildRequest(fs, *configPath, raw)
	if err != nil {
		return err
	}
	if len(req.Seeds) == 0 && req.Runs <= 0 {
		return fmt.Errorf("benchmark needs -seeds or -runs > 0")
	}

	client, err := stores.client(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	started := time.Now()
	summary, err := client.Benchmark(ctx, req)
	if err != nil {
		return err
	}
	for _, run := range summary.Runs {
		printRun("run", run)
	}
	fmt.Printf("benchmark runs=%d mse_mean=%.6f mse_std=%.6f mse_min=%.6f mse_max=%.6f train_accuracy_mean=%.4f test_accuracy_mean=%.4f elapsed=%s\n",
		len(summary.Runs),
		summary.TrainError.Mean,
		summary.TrainError.Std,
		summary.TrainError.Min,
		summary.TrainError.Max,
		summary.TrainAccuracy.Mean,
		summary.TestAccuracy.Mean,
		time.Since(started).Round(time.Millisecond),
	)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	stores := bindStoreFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list; 0 lists all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := stores.client(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("run_id=%s created=%s seed=%d hidden=%d iterations=%d stop=%s mse=%.6f test_accuracy=%.4f\n",
			run.RunID,
			relativeTime(run.CreatedAtUTC),
			run.Seed,
			run.NumHidden,
			run.Iterations,
			run.StopReason,
			run.TrainError,
			run.TestAccuracy,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	stores := bindStoreFlags(fs)
	runID := fs.String("run-id", "", "run id to show")
	history := fs.Bool("history", false, "print the per-iteration best error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("show requires -run-id")
	}

	client, err := stores.client(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	detail, err := client.Run(ctx, *runID)
	if err != nil {
		return err
	}
	run := detail.Run
	fmt.Printf("run_id=%s created=%s data=%s\n", run.RunID, relativeTime(run.CreatedAtUTC), run.DataPath)
	fmt.Printf("geometry inputs=%d hidden=%d outputs=%d width=%.6f centroids=%v\n", run.NumInput, run.NumHidden, run.NumOutput, run.Width, run.CentroidIndices)
	fmt.Printf("swarm particles=%d iterations=%d/%d evaluations=%s stop=%s seed=%d\n",
		run.Particles, run.Iterations, run.MaxIterations, humanize.Comma(int64(run.Evaluations)), run.StopReason, run.Seed)
	fmt.Printf("result train_rows=%d test_rows=%d mse=%.6f train_accuracy=%.4f test_accuracy=%.4f duration=%s\n",
		run.TrainRows, run.TestRows, run.TrainError, run.TrainAccuracy, run.TestAccuracy, time.Duration(run.DurationMillis)*time.Millisecond)
	if *history {
		for i, value := range detail.ErrorHistory {
			fmt.Printf("iteration=%d best_error=%.6f\n", i, value)
		}
	}
	return nil
}

func printRun(label string, summary rbfswarm.RunSummary) {
	run := summary.Run
	fmt.Printf("%s run_id=%s seed=%d iterations=%d stop=%s evaluations=%s mse=%.6f train_accuracy=%.4f test_accuracy=%.4f duration=%s\n",
		label,
		run.RunID,
		run.Seed,
		run.Iterations,
		run.StopReason,
		humanize.Comma(int64(run.Evaluations)),
		run.TrainError,
		run.TrainAccuracy,
		run.TestAccuracy,
		time.Duration(run.DurationMillis)*time.Millisecond,
	)
}

func progressEnabled() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printProgress(iteration int, bestError float64) {
	if iteration%progressEvery != 0 {
		return
	}
	fmt.Printf("iteration=%d best_error=%.6f\n", iteration, bestError)
}

func relativeTime(createdAtUTC string) string {
	ts, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.Time(ts)
}

func parseComma(value string) (rune, error) {
	switch value {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("csv separator must be a single character, got %q", value)
	}
	return runes[0], nil
}

func parseSeeds(value string) ([]int64, error) {
	parts := strings.Split(value, ",")
	seeds := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seed, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", part, err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: rbfswarmctl <init|train|benchmark|runs|show> [flags]", msg)
}
