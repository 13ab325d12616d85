// Command obsdisplay is the interactive observation display: it steps through
// an event list one block at a time, accumulating the sky count map, the
// energy spectrum and the Stokes polarization estimate, and shows the
// composite panels in a window.
package main

import (
	"flag"
	"fmt"
	"image"
	"math"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"xpolsim/display"
	"xpolsim/evt"
	"xpolsim/irf"
	"xpolsim/stokes"
)

const version = "1_0_0"

func main() {
	evtPath := flag.String("evtlist", "", "path to the event list file (required)")
	arfPath := flag.String("arf", "", "path to the effective-area response table (required)")
	modfPath := flag.String("modf", "", "path to the modulation-factor response table (required)")
	emin := flag.Float64("emin", 2.0, "lower bound of the selection band [keV]")
	emax := flag.Float64("emax", 8.0, "upper bound of the selection band [keV]")
	npix := flag.Int("npix", 200, "number of pixels per side for the sky count map")
	side := flag.Float64("side", 0.25, "angular width of the count map [deg]")
	chunk := flag.Int("chunk", 50, "number of events folded in per display step")
	out := flag.String("o", "", "batch mode: process the full list and save the final composite PNG here")
	flag.Parse()

	if *evtPath == "" || *arfPath == "" || *modfPath == "" {
		fmt.Println("\n\tMissing required arguments.\n\tUsage: obsdisplay -evtlist <file> -arf <file> -modf <file> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	list, err := evt.ReadList(*evtPath)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read event list failed: %w", err))
		os.Exit(2)
	}
	aeff, err := irf.Load(*arfPath)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read effective area table failed: %w", err))
		os.Exit(3)
	}
	modf, err := irf.Load(*modfPath)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read modulation factor table failed: %w", err))
		os.Exit(4)
	}

	fmt.Printf("\nVersion %s\n", version)
	fmt.Printf("Read %d events spanning %.1f seconds\n", len(list.Events), list.Livetime())

	car, err := newCarousel(list, aeff, modf, *emin, *emax, *npix, *side, *chunk)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tDisplay setup failed: %w", err))
		os.Exit(5)
	}

	if *out != "" {
		runBatch(car, *out)
		return
	}
	runWindow(car)
}

// runBatch folds in every event block and writes the final composite frame.
func runBatch(car *carousel, out string) {
	var frame image.Image
	var err error
	for !car.done() {
		frame, _, err = car.step()
		if err != nil {
			fmt.Println(fmt.Errorf("\n\tDisplay step failed: %w", err))
			os.Exit(6)
		}
	}
	if err := display.SavePNG(out, frame); err != nil {
		fmt.Println(fmt.Errorf("\n\tFailed to write %q: %w", out, err))
		os.Exit(7)
	}
	fmt.Printf("Saved composite frame to %s\n", out)
}

// runWindow shows the carousel in a window with a button advancing one event
// block per press. The image content is cleared and redrawn on every step.
func runWindow(car *carousel) {
	myApp := app.NewWithID("xpolsim.obsdisplay")
	w := myApp.NewWindow("Observation display")
	w.Resize(fyne.Size{Height: 600, Width: 1500})

	frame, card, err := car.step()
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tDisplay step failed: %w", err))
		os.Exit(6)
	}
	img := canvas.NewImageFromImage(frame)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(1400, 480))
	cardLabel := widget.NewLabel(card)

	next := widget.NewButton("Next event block", func() {
		if car.done() {
			return
		}
		frame, card, err := car.step()
		if err != nil {
			fmt.Println(fmt.Errorf("display step failed: %w", err))
			return
		}
		img.Image = frame
		img.Refresh()
		cardLabel.SetText(card)
	})

	w.SetContent(container.NewBorder(nil, container.NewVBox(cardLabel, next), nil, nil, img))
	w.CenterOnScreen()
	w.ShowAndRun()
}

// carousel holds the accumulating data products of the display loop. All
// state is mutated strictly sequentially by the control thread.
type carousel struct {
	list     *evt.List
	analysis *stokes.Analysis
	hist     *evt.EnergyHist
	grid     *evt.SkyGrid

	emin, emax float64
	chunk      int
	cursor     int
	prevMET    float64
}

func newCarousel(list *evt.List, aeff, modf *irf.Response, emin, emax float64,
	npix int, sideDeg float64, chunk int) (*carousel, error) {
	raRef, decRef := list.MeanPosition()
	grid, err := evt.NewSkyGrid(raRef, decRef, sideDeg, npix)
	if err != nil {
		return nil, err
	}
	return &carousel{
		list:     list,
		analysis: stokes.NewAnalysis(modf, aeff, list.Livetime()),
		hist:     evt.NewEnergyHist(0.0, 12.0, 0.04),
		grid:     grid,
		emin:     emin,
		emax:     emax,
		chunk:    chunk,
		prevMET:  list.Events[0].MET,
	}, nil
}

func (c *carousel) done() bool { return c.cursor >= len(c.list.Events) }

// step folds the next block of events into the binned products and renders
// the composite frame.
func (c *carousel) step() (image.Image, string, error) {
	end := c.cursor + c.chunk
	if end > len(c.list.Events) {
		end = len(c.list.Events)
	}
	block := c.list.Events[c.cursor:end]
	for _, ev := range block {
		// The event files guarantee time ordering; a violation here means
		// the list and the cumulative products are out of sync.
		if ev.MET < c.prevMET {
			return nil, "", fmt.Errorf("event at MET %f precedes display cursor %f", ev.MET, c.prevMET)
		}
		c.prevMET = ev.MET
	}
	fmt.Printf("Folding in %d event(s) up to MET %.6f\n", len(block), c.prevMET)

	energies := make([]float64, len(block))
	for i, ev := range block {
		energies[i] = ev.Energy
	}
	c.hist.Fill(energies)
	c.grid.Fill(block)
	c.cursor = end

	processed := c.list.Events[:c.cursor]
	table := c.analysis.Table(processed, []float64{c.emin, c.emax})

	skymap, err := display.CountMapPanel(c.grid, 480, 480)
	if err != nil {
		return nil, "", err
	}
	pol, err := display.StokesPanel(table, 0.12, 480, 480)
	if err != nil {
		return nil, "", err
	}
	spec, err := display.SpectrumPanel(c.hist, c.emin, c.emax, 480, 480)
	if err != nil {
		return nil, "", err
	}
	frame := display.Compose(skymap, pol, spec)

	last := c.list.Events[c.cursor-1]
	card := fmt.Sprintf("Event %d/%d   MET %.6f   E %.2f keV   RA %.4f   Dec %.4f   q %+.3f   u %+.3f",
		c.cursor, len(c.list.Events), last.MET, last.Energy, last.RA, last.Dec, last.Q, last.U)
	if len(table) > 0 && table[0].Counts >= 2 {
		res := table[0]
		card += fmt.Sprintf("\nPD %.3f +/- %.3f   PA %.1f deg   MDP99 %.3f",
			res.PolDeg, res.PolDegErr, res.PolAng*180.0/math.Pi, res.MDP99)
		if lt := c.analysis.Livetime(); lt > 0 {
			rate := float64(res.Counts) / lt
			card += fmt.Sprintf("   rate %.3f Hz", rate)
			if aeff := c.analysis.Aeff(0.5 * (c.emin + c.emax)); aeff > 0 {
				card += fmt.Sprintf("   flux %.3e cm^-2 s^-1", rate/aeff)
			}
		}
	}
	return frame, card, nil
}
