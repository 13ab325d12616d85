package evt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EnergyHist is a fixed-binning energy histogram that accumulates counts
// across successive Fill calls, the way the display loop folds in one chunk
// of events at a time.
type EnergyHist struct {
	Edges  []float64 // bin edges, len = len(Counts)+1
	Counts []float64
}

// NewEnergyHist builds a histogram with uniform bins of the given width over
// [lo, hi].
func NewEnergyHist(lo, hi, width float64) *EnergyHist {
	n := int(math.Ceil((hi - lo) / width))
	edges := make([]float64, n+1)
	floats.Span(edges, lo, lo+float64(n)*width)
	return &EnergyHist{Edges: edges, Counts: make([]float64, n)}
}

// Fill adds one count per event energy; energies outside the edges are
// silently dropped.
func (h *EnergyHist) Fill(energies []float64) {
	lo := h.Edges[0]
	width := h.Edges[1] - h.Edges[0]
	for _, e := range energies {
		i := int((e - lo) / width)
		if e >= lo && i < len(h.Counts) {
			h.Counts[i]++
		}
	}
}

// Total returns the number of accumulated counts.
func (h *EnergyHist) Total() float64 {
	total := 0.0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Centers returns the bin centers.
func (h *EnergyHist) Centers() []float64 {
	centers := make([]float64, len(h.Counts))
	for i := range centers {
		centers[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return centers
}

// SkyGrid is a square count map in sky coordinates, centered on a reference
// position with a tangent-plane (small angle) projection. The counts array
// accumulates across Fill calls and is mutated only by the control loop.
type SkyGrid struct {
	RARef   float64 // reference right ascension [deg]
	DecRef  float64 // reference declination [deg]
	SideDeg float64 // angular width of the map [deg]
	Npix    int     // pixels per side

	Counts [][]float64 // Counts[row][col], row 0 at Dec = DecRef - SideDeg/2
}

// NewSkyGrid builds an empty count map.
func NewSkyGrid(raRef, decRef, sideDeg float64, npix int) (*SkyGrid, error) {
	if npix < 2 {
		return nil, fmt.Errorf("count map needs at least 2 pixels per side, got %d", npix)
	}
	if sideDeg <= 0 {
		return nil, fmt.Errorf("count map side must be positive, got %g", sideDeg)
	}
	counts := make([][]float64, npix)
	for i := range counts {
		counts[i] = make([]float64, npix)
	}
	return &SkyGrid{RARef: raRef, DecRef: decRef, SideDeg: sideDeg, Npix: npix, Counts: counts}, nil
}

// Pixel maps a sky position to fractional pixel coordinates on the grid.
// RA increases to the left on the sky, hence the sign flip on the column.
func (g *SkyGrid) Pixel(ra, dec float64) (col, row float64) {
	scale := g.SideDeg / float64(g.Npix)
	cosDec := math.Cos(g.DecRef * math.Pi / 180.0)
	col = float64(g.Npix)/2.0 - (ra-g.RARef)*cosDec/scale
	row = float64(g.Npix)/2.0 + (dec-g.DecRef)/scale
	return col, row
}

// Fill accumulates one count for every event position inside the map.
func (g *SkyGrid) Fill(events []Event) {
	for _, ev := range events {
		col, row := g.Pixel(ev.RA, ev.Dec)
		c, r := int(math.Floor(col)), int(math.Floor(row))
		if c >= 0 && c < g.Npix && r >= 0 && r < g.Npix {
			g.Counts[r][c]++
		}
	}
}

// Max returns the largest pixel count, used to scale the display.
func (g *SkyGrid) Max() float64 {
	max := 0.0
	for _, row := range g.Counts {
		for _, c := range row {
			if c > max {
				max = c
			}
		}
	}
	return max
}
