// Package report renders diagnostics of a training run.
package report

import (
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// PlotPredictions writes a predicted-vs-actual scatter with the identity line
// to path. The image format follows the extension (png, svg, pdf, ...).
func PlotPredictions(path string, yTrue, yPred []float64, title string) error {
	if len(yTrue) == 0 {
		return errors.NewValidationError("yTrue", "empty data", 0)
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError("PlotPredictions", len(yTrue), len(yPred), 0)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range yTrue {
		pts[i] = plotter.XY{X: yTrue[i], Y: yPred[i]}
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "build identity line")
	}
	identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), s, identity)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, format)
	if err != nil {
		return errors.NewValidationError("plot_file", "unsupported image format", format)
	}
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
