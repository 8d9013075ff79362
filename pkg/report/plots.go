package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"albumrank/pkg/album"
	"albumrank/pkg/dataprep"
	"albumrank/pkg/diagnostics"
	"albumrank/pkg/pipeline"
	"albumrank/pkg/regression"
	"albumrank/pkg/stats"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const histBins = 20

var (
	pointColor = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	lineColor  = color.RGBA{R: 255, A: 255}
)

// WritePlots renders every figure of the analysis into dir as PNG and
// returns the files written.
func WritePlots(dir string, s *pipeline.State) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	var files []string
	save := func(p *plot.Plot, name string) error {
		path := filepath.Join(dir, name)
		if err := p.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("report: save %s: %w", name, err)
		}
		files = append(files, path)
		return nil
	}

	for _, col := range album.Numeric {
		values := stats.DropNaN(dataprep.Floats(s.Prepared, col))
		if len(values) == 0 {
			continue
		}
		h, err := Histogram(col, values)
		if err != nil {
			return files, err
		}
		if err := save(h, "hist_"+col+".png"); err != nil {
			return files, err
		}
		b, err := BoxPlot(col, values)
		if err != nil {
			return files, err
		}
		if err := save(b, "box_"+col+".png"); err != nil {
			return files, err
		}
	}

	if s.Description != nil {
		if err := save(CorrelationHeatMap(s.Description), "correlation.png"); err != nil {
			return files, err
		}
	}

	rank := dataprep.Floats(s.Data, album.Rank2020)
	for _, t := range pipeline.SimpleTerms() {
		p, err := Trend(t.Name, dataprep.Floats(s.Data, t.Name), album.Rank2020, rank)
		if err != nil {
			return files, err
		}
		if err := save(p, "scatter_"+t.Name+".png"); err != nil {
			return files, err
		}
	}

	for _, name := range []string{pipeline.SimpleModel, pipeline.ComplexModel} {
		f, ok := s.Fits[name]
		if !ok {
			continue
		}
		rv, err := ResidualsVsFitted(name, f)
		if err != nil {
			return files, err
		}
		if err := save(rv, "residuals_"+name+".png"); err != nil {
			return files, err
		}
		qq, err := NormalQQ(name, f.Residuals)
		if err != nil {
			return files, err
		}
		if err := save(qq, "qq_"+name+".png"); err != nil {
			return files, err
		}
	}
	return files, nil
}

// Histogram bins the present values of one column.
func Histogram(name string, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Distribution of " + name
	p.X.Label.Text = name
	p.Y.Label.Text = "Count"
	h, err := plotter.NewHist(plotter.Values(values), histBins)
	if err != nil {
		return nil, fmt.Errorf("report: histogram %s: %w", name, err)
	}
	p.Add(h)
	return p, nil
}

// BoxPlot draws one box with Tukey whiskers.
func BoxPlot(name string, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Box plot of " + name
	p.Y.Label.Text = name
	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(values))
	if err != nil {
		return nil, fmt.Errorf("report: box plot %s: %w", name, err)
	}
	p.Add(b)
	p.NominalX(name)
	return p, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Undefined
// correlations are drawn as zero.
type corrGrid [][]float64

func (g corrGrid) Dims() (c, r int) { return len(g), len(g) }
func (g corrGrid) Z(c, r int) float64 {
	if math.IsNaN(g[r][c]) {
		return 0
	}
	return g[r][c]
}
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatMap colours the correlation matrix on a fixed [-1, 1] scale.
func CorrelationHeatMap(r *diagnostics.Report) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Pearson correlation"
	h := plotter.NewHeatMap(corrGrid(r.Correlation), palette.Heat(16, 1))
	h.Min, h.Max = -1, 1
	p.Add(h)
	p.NominalX(r.Columns...)
	p.NominalY(r.Columns...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	return p
}

// Trend scatters y against x over the complete pairs and overlays the
// least-squares line.
func Trend(xName string, x []float64, yName string, y []float64) (*plot.Plot, error) {
	xs, ys := stats.PairwiseComplete(x, y)
	p := plot.New()
	p.Title.Text = yName + " by " + xName
	p.X.Label.Text = xName
	p.Y.Label.Text = yName

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("report: scatter %s: %w", xName, err)
	}
	sc.Color = pointColor
	sc.Radius = vg.Points(2)
	p.Add(sc)

	if len(xs) >= 2 && stats.Variance(xs) > 0 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		line := plotter.NewFunction(func(v float64) float64 { return alpha + beta*v })
		line.Color = lineColor
		line.Width = vg.Points(2)
		p.Add(line)
	}
	return p, nil
}

// ResidualsVsFitted is the linearity check of a fit.
func ResidualsVsFitted(name string, f *regression.Fit) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Residuals vs fitted (" + name + ")"
	p.X.Label.Text = "Fitted"
	p.Y.Label.Text = "Residual"
	pts := make(plotter.XYs, f.N)
	for i := range pts {
		pts[i].X, pts[i].Y = f.Fitted[i], f.Residuals[i]
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("report: residual plot %s: %w", name, err)
	}
	sc.Color = pointColor
	sc.Radius = vg.Points(2)
	p.Add(sc)
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = lineColor
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)
	return p, nil
}

// NormalQQ plots standardised sorted residuals against normal quantiles at
// the Blom plotting positions (i - 3/8) / (n + 1/4).
func NormalQQ(name string, residuals []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Normal Q-Q (" + name + ")"
	p.X.Label.Text = "Theoretical quantile"
	p.Y.Label.Text = "Standardised residual"

	z := stats.Standardize(residuals)
	sort.Float64s(z)
	n := float64(len(z))
	pts := make(plotter.XYs, len(z))
	for i, v := range z {
		pts[i].X = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (n + 0.25))
		pts[i].Y = v
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("report: qq plot %s: %w", name, err)
	}
	sc.Color = pointColor
	sc.Radius = vg.Points(2)
	p.Add(sc)
	ref := plotter.NewFunction(func(v float64) float64 { return v })
	ref.Color = lineColor
	p.Add(ref)
	return p, nil
}
