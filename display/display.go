// Package display renders the graphical panels of the observation display:
// sky count map, Stokes confidence ellipses, energy spectrum and light-curve
// panels, each produced as an in-memory image ready for a window or a PNG.
package display

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// StepTicks is a tick marker with fixed step intervals.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// styleAxes applies the shared font settings to a plot.
func styleAxes(p *plot.Plot) {
	p.Title.TextStyle.Font.Typeface = "Liberation"
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = vg.Points(12)

	p.X.Label.TextStyle.Font.Typeface = "Liberation"
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = vg.Points(12)

	p.Y.Label.TextStyle.Font.Typeface = "Liberation"
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	p.X.Tick.Label.Font.Typeface = "Liberation"
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = vg.Points(10)

	p.Y.Tick.Label.Font.Typeface = "Liberation"
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = vg.Points(10)
}

// renderImage draws a plot into an in-memory image of the given pixel size.
// The vg size is mapped to pixels via a fixed DPI.
func renderImage(p *plot.Plot, wPx, hPx float64) image.Image {
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	dc := vgdraw.New(c)
	p.Draw(dc)
	return c.Image()
}

// Compose stitches panel images horizontally into a single frame on a white
// background, aligning them at the top edge.
func Compose(panels ...image.Image) image.Image {
	width, height := 0, 0
	for _, p := range panels {
		width += p.Bounds().Dx()
		if p.Bounds().Dy() > height {
			height = p.Bounds().Dy()
		}
	}
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(frame, frame.Bounds(), image.White, image.Point{}, draw.Src)
	x := 0
	for _, p := range panels {
		r := image.Rect(x, 0, x+p.Bounds().Dx(), p.Bounds().Dy())
		draw.Draw(frame, r, p, p.Bounds().Min, draw.Src)
		x += p.Bounds().Dx()
	}
	return frame
}

// SavePNG writes an image to a PNG file.
func SavePNG(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
