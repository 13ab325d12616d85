// Package lightcurve loads tabular light-curve data from ASCII files and fits
// a smoothing spline to it, producing a continuous flux model of time that the
// spectral-model machinery can evaluate at arbitrary mission elapsed times.
package lightcurve

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErgToKeV is the multiplicative factor converting a flux expressed in
// erg/cm^2/s to the equivalent value in keV/cm^2/s (1 erg = 6.2415e8 keV).
const ErgToKeV = 6.241509074e8

// ErrDataFormat is returned when an input file cannot be parsed as a numeric
// table (ragged rows, non-numeric fields, or column indices out of range).
var ErrDataFormat = errors.New("malformed tabular data")

// ErrFitting is returned when the spline fit cannot be performed, e.g. too
// few points for the requested degree or non-increasing time values.
var ErrFitting = errors.New("spline fitting failed")

// ErrDomain is returned by callers that choose to enforce in-domain
// evaluation of a fitted model.
var ErrDomain = errors.New("evaluation outside the fitted domain")

// LoadOptions controls how a tabular light-curve file is interpreted.
type LoadOptions struct {
	TimeColumn int     // 0-based index of the column holding time values (seconds)
	FluxColumn int     // 0-based index of the column holding flux values
	TimeOffset float64 // offset (in MET seconds) added to every time value
	Erg        bool    // flux column is in erg/cm^2/s and must be converted to keV/cm^2/s
	Delimiter  string  // column delimiter; empty means any run of whitespace

	Fit FitOptions // spline fitting options
}

// DefaultLoadOptions returns the options used when the caller passes the zero
// value: time in column 0, flux in column 1, keV units, cubic spline.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{FluxColumn: 1, Fit: DefaultFitOptions()}
}

// Load parses light-curve tabular data from an ASCII file and returns the
// fitted spline model.
//
// The file must contain delimiter-separated numeric columns, one row per time
// sample. Lines that are blank or start with '#' are skipped. The time column
// is shifted by opts.TimeOffset and the flux column is converted from erg to
// keV units when opts.Erg is set.
func Load(path string, opts LoadOptions) (*Model, error) {
	if opts == (LoadOptions{}) {
		opts = DefaultLoadOptions()
	}
	log.Printf("Loading tabular data from %s...", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	table, err := parseTable(string(data), opts.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.TimeColumn < 0 || opts.TimeColumn >= len(table) {
		return nil, fmt.Errorf("%w: time column %d out of range (file has %d columns)",
			ErrDataFormat, opts.TimeColumn, len(table))
	}
	if opts.FluxColumn < 0 || opts.FluxColumn >= len(table) {
		return nil, fmt.Errorf("%w: flux column %d out of range (file has %d columns)",
			ErrDataFormat, opts.FluxColumn, len(table))
	}
	time := table[opts.TimeColumn]
	flux := table[opts.FluxColumn]
	for i := range time {
		time[i] += opts.TimeOffset
	}
	if opts.Erg {
		for i := range flux {
			flux[i] *= ErgToKeV
		}
	}
	log.Printf("Done, %d columns and %d rows read out.", len(table), len(time))
	model, err := NewModel(time, flux, opts.Fit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// parseTable reads delimiter-separated numeric text into a column-major table.
// Every data row must have the same number of fields.
func parseTable(text, delimiter string) ([][]float64, error) {
	var table [][]float64
	nRows := 0
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line, delimiter)
		if table == nil {
			table = make([][]float64, len(fields))
		}
		if len(fields) != len(table) {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrDataFormat, lineNo+1, len(fields), len(table))
		}
		for col, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %d: %q is not numeric",
					ErrDataFormat, lineNo+1, col, field)
			}
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: line %d, column %d: NaN value",
					ErrDataFormat, lineNo+1, col)
			}
			table[col] = append(table[col], v)
		}
		nRows++
	}
	if nRows == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrDataFormat)
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("%w: need at least two columns, got %d", ErrDataFormat, len(table))
	}
	return table, nil
}

func splitFields(line, delimiter string) []string {
	if delimiter == "" {
		return strings.Fields(line)
	}
	fields := strings.Split(line, delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}
