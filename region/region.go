// Package region selects events inside circular sky regions and carries the
// BACKSCAL accounting used by background subtraction: the area of the
// selected region in square arcminutes.
package region

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"xpolsim/evt"
)

// ErrRegionFormat is returned when a region file cannot be parsed.
var ErrRegionFormat = errors.New("malformed region file")

// Circle is a circular sky region.
type Circle struct {
	RA        float64 // center right ascension [deg]
	Dec       float64 // center declination [deg]
	RadArcmin float64 // radius [arcmin]
}

// Contains reports whether the given sky position lies inside the circle.
func (c Circle) Contains(ra, dec float64) bool {
	return evt.AngularSeparation(ra, dec, c.RA, c.Dec)*60.0 <= c.RadArcmin
}

// Backscal returns the region area in square arcminutes.
func (c Circle) Backscal() float64 {
	return math.Pi * c.RadArcmin * c.RadArcmin
}

// Select returns the events whose sky position falls inside the circle.
func (c Circle) Select(events []evt.Event) []evt.Event {
	var out []evt.Event
	for _, ev := range events {
		if c.Contains(ev.RA, ev.Dec) {
			out = append(out, ev)
		}
	}
	return out
}

// ParseFile reads a ds9-style region file holding one or more lines of the
// form
//
//	circle(288.26452, 19.77350, 1.0')
//
// with the radius in arcminutes (trailing quote optional). Comment lines and
// coordinate-system headers (e.g. "fk5") are skipped.
func ParseFile(path string) ([]Circle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read region file %s: %w", path, err)
	}
	var circles []Circle
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "(") {
			// Coordinate-system header such as "fk5" or "icrs".
			continue
		}
		circle, err := parseCircle(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrRegionFormat, path, lineNo+1, err)
		}
		circles = append(circles, circle)
	}
	if len(circles) == 0 {
		return nil, fmt.Errorf("%w: %s holds no regions", ErrRegionFormat, path)
	}
	return circles, nil
}

func parseCircle(line string) (Circle, error) {
	open := strings.Index(line, "(")
	closing := strings.Index(line, ")")
	if closing < open {
		return Circle{}, errors.New("unbalanced parentheses")
	}
	shape := strings.ToLower(strings.TrimSpace(line[:open]))
	if shape != "circle" {
		return Circle{}, fmt.Errorf("unsupported region shape %q", shape)
	}
	args := strings.Split(line[open+1:closing], ",")
	if len(args) != 3 {
		return Circle{}, fmt.Errorf("circle needs 3 arguments, got %d", len(args))
	}
	var vals [3]float64
	for i, arg := range args {
		arg = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(arg), "'"))
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return Circle{}, fmt.Errorf("argument %d: %q is not numeric", i, arg)
		}
		vals[i] = v
	}
	if vals[2] <= 0 {
		return Circle{}, fmt.Errorf("radius must be positive, got %g", vals[2])
	}
	return Circle{RA: vals[0], Dec: vals[1], RadArcmin: vals[2]}, nil
}
