package display

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"

	"xpolsim/evt"
	"xpolsim/lightcurve"
	"xpolsim/spectrum"
	"xpolsim/stokes"
)

var (
	blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	gray  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

var dashPattern = []vg.Length{vg.Points(6), vg.Points(4)}

// SpectrumPanel renders the accumulated energy spectrum on a log count scale
// with the selection band marked by dashed vertical lines.
func SpectrumPanel(hist *evt.EnergyHist, emin, emax float64, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	styleAxes(p)
	p.Title.Text = "Energy spectrum"
	p.X.Label.Text = "Energy [keV]"
	p.Y.Label.Text = "Counts"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.X.Tick.Marker = StepTicks{Step: 2.0, Format: "%.0f"}
	p.Add(plotter.NewGrid())

	// Step outline of the histogram. Empty bins are clamped to half a count
	// so the log scale stays finite.
	steps := make(plotter.XYs, 0, 2*len(hist.Counts))
	for i, c := range hist.Counts {
		y := math.Max(c, 0.5)
		steps = append(steps,
			plotter.XY{X: hist.Edges[i], Y: y},
			plotter.XY{X: hist.Edges[i+1], Y: y})
	}
	line, err := plotter.NewLine(steps)
	if err != nil {
		return nil, err
	}
	line.Color = blue
	p.Add(line)

	top := math.Max(2.0*floats.Max(hist.Counts), 10.0)
	for _, e := range []float64{emin, emax} {
		vline, err := plotter.NewLine(plotter.XYs{{X: e, Y: 0.5}, {X: e, Y: top}})
		if err != nil {
			return nil, err
		}
		vline.Dashes = dashPattern
		vline.Color = gray
		p.Add(vline)
	}
	p.X.Min = hist.Edges[0]
	p.X.Max = hist.Edges[len(hist.Edges)-1]
	p.Y.Min = 0.5
	p.Y.Max = top
	return renderImage(p, wPx, hPx), nil
}

// skyGridXYZ adapts a SkyGrid to the plotter heat-map interface.
type skyGridXYZ struct {
	grid *evt.SkyGrid
}

func (g skyGridXYZ) Dims() (c, r int) { return g.grid.Npix, g.grid.Npix }

func (g skyGridXYZ) Z(c, r int) float64 { return g.grid.Counts[r][c] }

func (g skyGridXYZ) X(c int) float64 {
	scale := g.grid.SideDeg / float64(g.grid.Npix)
	return g.grid.RARef + (float64(g.grid.Npix)/2.0-float64(c))*scale
}

func (g skyGridXYZ) Y(r int) float64 {
	scale := g.grid.SideDeg / float64(g.grid.Npix)
	return g.grid.DecRef + (float64(r)-float64(g.grid.Npix)/2.0)*scale
}

// CountMapPanel renders the accumulated sky count map as a heat map.
func CountMapPanel(grid *evt.SkyGrid, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	styleAxes(p)
	p.Title.Text = "Sky count map"
	p.X.Label.Text = "Right Ascension [deg]"
	p.Y.Label.Text = "Declination [deg]"

	heat := plotter.NewHeatMap(skyGridXYZ{grid}, moreland.Kindlmann().Palette(255))
	p.Add(heat)
	return renderImage(p, wPx, hPx), nil
}

// ellipseXYs returns a closed parametric ellipse centered on (x0, y0).
func ellipseXYs(x0, y0, semiX, semiY float64) plotter.XYs {
	const n = 100
	pts := make(plotter.XYs, n+1)
	for i := 0; i <= n; i++ {
		theta := 2.0 * math.Pi * float64(i) / n
		pts[i].X = x0 + semiX*math.Cos(theta)
		pts[i].Y = y0 + semiY*math.Sin(theta)
	}
	return pts
}

// StokesPanel renders the normalized Stokes plane with 1, 2 and 3 sigma
// confidence ellipses around each band estimate and circles of constant
// polarization degree for reference.
func StokesPanel(table []stokes.Result, side float64, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	styleAxes(p)
	p.Title.Text = "Normalized Stokes parameters"
	p.X.Label.Text = "Q/I"
	p.Y.Label.Text = "U/I"
	p.X.Min, p.X.Max = -side, side
	p.Y.Min, p.Y.Max = -side, side
	p.X.Tick.Marker = StepTicks{Step: side / 3.0, Format: "%.2f"}
	p.Y.Tick.Marker = StepTicks{Step: side / 3.0, Format: "%.2f"}
	p.Add(plotter.NewGrid())

	// Constant polarization-degree circles.
	for _, pd := range []float64{side / 2.0, side} {
		circle, err := plotter.NewLine(ellipseXYs(0, 0, pd, pd))
		if err != nil {
			return nil, err
		}
		circle.Dashes = dashPattern
		circle.Color = gray
		p.Add(circle)
	}

	for _, res := range table {
		if res.Counts < 2 {
			continue
		}
		for _, sigma := range []float64{1.0, 2.0, 3.0} {
			ell, err := plotter.NewLine(ellipseXYs(res.QN, res.UN,
				sigma*res.QNErr, sigma*res.UNErr))
			if err != nil {
				return nil, err
			}
			ell.Color = blue
			p.Add(ell)
		}
		center, err := plotter.NewScatter(plotter.XYs{{X: res.QN, Y: res.UN}})
		if err != nil {
			return nil, err
		}
		center.Shape = vgdraw.CrossGlyph{}
		center.Color = red
		p.Add(center)
	}
	return renderImage(p, wPx, hPx), nil
}

// LightCurvePanel renders the fitted light-curve model together with the raw
// samples it was fitted to, with an optional shaded observation window.
func LightCurvePanel(model *lightcurve.Model, obsStart, obsStop float64, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	styleAxes(p)
	p.Title.Text = "Light curve"
	p.X.Label.Text = "MET [s]"
	p.Y.Label.Text = "Flux [keV cm^-2 s^-1]"
	p.Add(plotter.NewGrid())

	ts := make([]float64, 400)
	floats.Span(ts, model.Xmin(), model.Xmax())
	curve := make(plotter.XYs, len(ts))
	for i, t := range ts {
		curve[i].X = t
		curve[i].Y = model.Evaluate(t)
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return nil, err
	}
	line.Color = blue
	p.Add(line)

	xs, ys := model.X(), model.Y()
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Shape = vgdraw.CircleGlyph{}
	scatter.Radius = vg.Points(2)
	scatter.Color = gray
	p.Add(scatter)

	if obsStop > obsStart {
		ymax := 1.5 * floats.Max(ys)
		for _, t := range []float64{obsStart, obsStop} {
			vline, err := plotter.NewLine(plotter.XYs{{X: t, Y: 0}, {X: t, Y: ymax}})
			if err != nil {
				return nil, err
			}
			vline.Dashes = dashPattern
			vline.Color = black
			p.Add(vline)
		}
	}
	return renderImage(p, wPx, hPx), nil
}

// NormPanel renders the power-law normalization as a function of time over
// the observation window.
func NormPanel(pl *spectrum.TimeDependentPowerLaw, tmin, tmax float64, wPx, hPx float64) (image.Image, error) {
	p := plot.New()
	styleAxes(p)
	p.Title.Text = "Power-law normalization"
	p.X.Label.Text = "MET [s]"
	p.Y.Label.Text = "PL norm [cm^-2 s^-1 keV^-1]"
	p.Add(plotter.NewGrid())

	ts := make([]float64, 200)
	floats.Span(ts, tmin, tmax)
	pts := make(plotter.XYs, len(ts))
	for i, t := range ts {
		norm, err := pl.Norm(t)
		if err != nil {
			return nil, err
		}
		pts[i].X = t
		pts[i].Y = norm
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Shape = vgdraw.CircleGlyph{}
	scatter.Radius = vg.Points(2)
	scatter.Color = blue
	p.Add(scatter)
	return renderImage(p, wPx, hPx), nil
}
