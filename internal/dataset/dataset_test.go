package dataset

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
	"rbfswarm/internal/rng"
)

func TestLoadOneHotWithHeader(t *testing.T) {
	in := strings.NewReader("a;b;c0;c1\n0.5;1;1;0\n\n-1;2;0;1\n")
	samples, header, err := Load(in, Options{NumInput: 2, NumOutput: 2, Comma: ';', Header: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(header) != 4 || header[2] != "c0" {
		t.Fatalf("unexpected header: %v", header)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].Features[0] != -1 || samples[1].Targets[1] != 1 {
		t.Fatalf("unexpected sample: %+v", samples[1])
	}
}

func TestLoadLabelColumn(t *testing.T) {
	in := strings.NewReader("1,2,0\n3,4,2\n")
	samples, header, err := Load(in, Options{NumInput: 2, NumOutput: 3, LabelColumn: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if header != nil {
		t.Fatalf("unexpected header: %v", header)
	}
	if len(samples[1].Targets) != 3 || samples[1].Targets[2] != 1 {
		t.Fatalf("unexpected one-hot targets: %+v", samples[1])
	}
	if _, _, err := Load(strings.NewReader("1,2,3\n"), Options{NumInput: 2, NumOutput: 3, LabelColumn: true}); err == nil {
		t.Fatal("expected out of range label error")
	}
	if _, _, err := Load(strings.NewReader("1,2,0.5\n"), Options{NumInput: 2, NumOutput: 3, LabelColumn: true}); err == nil {
		t.Fatal("expected fractional label error")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
		is   error
	}{
		{name: "geometry", in: "1,0\n", opts: Options{NumInput: 0, NumOutput: 1}, is: nn.ErrDimensionMismatch},
		{name: "columns", in: "1,0,1\n", opts: Options{NumInput: 1, NumOutput: 1}, is: nn.ErrDimensionMismatch},
		{name: "number", in: "x,1\n", opts: Options{NumInput: 1, NumOutput: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load(strings.NewReader(tc.in), tc.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplitHoldsOutTail(t *testing.T) {
	samples := make([]model.Sample, 10)
	for i := range samples {
		samples[i] = model.Sample{Features: []float64{float64(i)}}
	}
	train, test, err := Split(samples, 0.8)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(train) != 8 || len(test) != 2 {
		t.Fatalf("unexpected split: train=%d test=%d", len(train), len(test))
	}
	if test[0].Features[0] != 8 {
		t.Fatalf("expected order preserved, got first test=%f", test[0].Features[0])
	}
	if _, _, err := Split(samples, 0); err == nil {
		t.Fatal("expected invalid fraction error")
	}
}

func TestShuffleDeterministic(t *testing.T) {
	build := func() []model.Sample {
		samples := make([]model.Sample, 6)
		for i := range samples {
			samples[i] = model.Sample{Features: []float64{float64(i)}}
		}
		Shuffle(samples, rng.New(3))
		return samples
	}
	a, b := build(), build()
	for i := range a {
		if a[i].Features[0] != b[i].Features[0] {
			t.Fatalf("shuffle differs at %d", i)
		}
	}
}

func TestScaling(t *testing.T) {
	samples := []model.Sample{
		{Features: []float64{0, 5}, Targets: []float64{1}},
		{Features: []float64{10, 5}, Targets: []float64{1}},
		{Features: []float64{5, 5}, Targets: []float64{1}},
	}
	scaling, err := FitScaling(samples)
	if err != nil {
		t.Fatalf("fit scaling: %v", err)
	}
	scaled, err := scaling.Apply(samples)
	if err != nil {
		t.Fatalf("apply scaling: %v", err)
	}
	want := [][]float64{{-1, 0}, {1, 0}, {0, 0}}
	for i := range want {
		for c := range want[i] {
			if math.Abs(scaled[i].Features[c]-want[i][c]) > 1e-12 {
				t.Fatalf("unexpected scaled value row=%d col=%d: got=%f want=%f", i, c, scaled[i].Features[c], want[i][c])
			}
		}
	}
	if samples[0].Features[0] != 0 {
		t.Fatal("expected apply to leave inputs untouched")
	}
	if _, err := FitScaling(nil); !errors.Is(err, nn.ErrEmptyDataset) {
		t.Fatalf("expected empty dataset error, got=%v", err)
	}
	if _, err := scaling.Features([]float64{1}); !errors.Is(err, nn.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got=%v", err)
	}
}

func TestWriteOutputs(t *testing.T) {
	samples := []model.Sample{{Features: []float64{1.5, 2}}}
	var buf bytes.Buffer
	if err := WriteOutputs(&buf, []string{"a", "b", "p0", "p1"}, samples, [][]float64{{0.25, 0.75}}, ';'); err != nil {
		t.Fatalf("write outputs: %v", err)
	}
	want := "a;b;p0;p1\n1.5;2;0.250000;0.750000\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv: got=%q want=%q", buf.String(), want)
	}
	if err := WriteOutputs(&buf, nil, samples, nil, 0); err == nil {
		t.Fatal("expected row count mismatch error")
	}
}

func TestWriteOutputsFileAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "res.csv")
	samples := []model.Sample{{Features: []float64{1}}, {Features: []float64{2}}}
	if err := WriteOutputsFile(path, nil, samples, [][]float64{{1, 0}, {0, 1}}, 0); err != nil {
		t.Fatalf("write outputs file: %v", err)
	}
	loaded, _, err := LoadFile(path, Options{NumInput: 1, NumOutput: 2})
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Targets[1] != 1 {
		t.Fatalf("unexpected loaded samples: %+v", loaded)
	}
}
