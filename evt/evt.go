// Package evt reads photon event lists and bins them into the data products
// the observation display consumes: an energy spectrum histogram and a sky
// count map.
//
// An event list is a delimited ASCII file with one row per event holding, in
// order: MET [s], energy [keV], right ascension [deg], declination [deg] and
// the event Stokes parameters q and u. FITS event files are handled by an
// external collaborator; this package only deals with the exported tables.
package evt

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrEventFormat is returned when an event list cannot be parsed.
var ErrEventFormat = errors.New("malformed event list")

// Event is a single reconstructed photon event.
type Event struct {
	MET    float64 // mission elapsed time [s]
	Energy float64 // reconstructed energy [keV]
	RA     float64 // sky right ascension [deg]
	Dec    float64 // sky declination [deg]
	Q      float64 // event Stokes q
	U      float64 // event Stokes u
}

// List is an ordered sequence of events, non-decreasing in MET.
type List struct {
	Events []Event
}

// ReadList parses an event list from path. Rows must be numeric with six
// columns; blank lines and '#' comments are skipped. Events must be time
// ordered, mirroring the ordering contract of the instrument event files.
func ReadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event list %s: %w", path, err)
	}
	list := &List{}
	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) != 6 {
			return nil, fmt.Errorf("%w: %s line %d has %d fields, expected 6",
				ErrEventFormat, path, lineNo+1, len(fields))
		}
		var v [6]float64
		for i, field := range fields {
			v[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %q is not numeric",
					ErrEventFormat, path, lineNo+1, field)
			}
		}
		ev := Event{MET: v[0], Energy: v[1], RA: v[2], Dec: v[3], Q: v[4], U: v[5]}
		if n := len(list.Events); n > 0 && ev.MET < list.Events[n-1].MET {
			return nil, fmt.Errorf("%w: %s line %d: MET %f precedes previous event at %f",
				ErrEventFormat, path, lineNo+1, ev.MET, list.Events[n-1].MET)
		}
		list.Events = append(list.Events, ev)
	}
	if len(list.Events) == 0 {
		return nil, fmt.Errorf("%w: %s holds no events", ErrEventFormat, path)
	}
	return list, nil
}

// MeanPosition returns the mean sky position of the events, used as the
// reference point of the count map when no explicit reference is given.
func (l *List) MeanPosition() (ra, dec float64) {
	for _, ev := range l.Events {
		ra += ev.RA
		dec += ev.Dec
	}
	n := float64(len(l.Events))
	return ra / n, dec / n
}

// Livetime returns the time span covered by the list in seconds.
func (l *List) Livetime() float64 {
	if len(l.Events) < 2 {
		return 0
	}
	return l.Events[len(l.Events)-1].MET - l.Events[0].MET
}

// Slice returns the events with MET in [tmin, tmax).
func (l *List) Slice(tmin, tmax float64) []Event {
	var out []Event
	for _, ev := range l.Events {
		if ev.MET >= tmin && ev.MET < tmax {
			out = append(out, ev)
		}
	}
	return out
}

// AngularSeparation returns the great-circle separation in degrees between
// two sky positions given in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	const degToRad = math.Pi / 180.0
	sd := math.Sin((dec2 - dec1) / 2 * degToRad)
	sr := math.Sin((ra2 - ra1) / 2 * degToRad)
	a := sd*sd + math.Cos(dec1*degToRad)*math.Cos(dec2*degToRad)*sr*sr
	return 2 * math.Asin(math.Sqrt(a)) / degToRad
}
