package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Curve is one labelled error series, indexed by iteration.
type Curve struct {
	Label  string
	Values []float64
}

// WriteErrorPlot renders curves as lines of best error against iteration. The
// image format follows the path extension (.png, .svg, .pdf).
func WriteErrorPlot(path, title string, curves []Curve) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("plot path is required")
	}
	if len(curves) == 0 {
		return fmt.Errorf("plot needs at least one curve")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "best mean squared error"

	for i, curve := range curves {
		if len(curve.Values) == 0 {
			continue
		}
		points := make(plotter.XYs, len(curve.Values))
		for j, v := range curve.Values {
			points[j] = plotter.XY{X: float64(j), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plot curve %q: %w", curve.Label, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		if curve.Label != "" {
			p.Legend.Add(curve.Label, line)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
