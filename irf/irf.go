// Package irf loads instrument response tables: the effective area (arf) and
// the modulation factor (modf) as functions of energy.
//
// Response tables are JSON5 files holding an array of [energy_keV, value]
// pairs, evaluated by linear interpolation between the tabulated energies.
package irf

import (
	"errors"
	"fmt"
	"os"

	json "github.com/KevinWang15/go-json5"

	"xpolsim/lightcurve"
)

// ErrResponseFormat is returned when a response file cannot be parsed or
// holds too few entries to interpolate.
var ErrResponseFormat = errors.New("malformed response table")

// Response is an energy-dependent instrument response curve.
type Response struct {
	name  string
	model *lightcurve.Model
}

// Load reads a JSON5 response table from path. The table must contain at
// least two [energy, value] pairs with strictly increasing energies.
func Load(path string) (*Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response table %s: %w", path, err)
	}
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResponseFormat, path, err)
	}
	if len(pairs) < 2 {
		return nil, fmt.Errorf("%w: %s has %d entries, need at least 2",
			ErrResponseFormat, path, len(pairs))
	}
	energy := make([]float64, len(pairs))
	value := make([]float64, len(pairs))
	for i, p := range pairs {
		energy[i] = p[0]
		value[i] = p[1]
	}
	model, err := lightcurve.NewModel(energy, value, lightcurve.FitOptions{Degree: 1})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResponseFormat, path, err)
	}
	return &Response{name: path, model: model}, nil
}

// Eval returns the response at the given energy (keV). Energies outside the
// tabulated range are clamped to the nearest tabulated energy.
func (r *Response) Eval(energy float64) float64 {
	if energy < r.model.Xmin() {
		energy = r.model.Xmin()
	}
	if energy > r.model.Xmax() {
		energy = r.model.Xmax()
	}
	return r.model.Evaluate(energy)
}

// Emin returns the lowest tabulated energy.
func (r *Response) Emin() float64 { return r.model.Xmin() }

// Emax returns the highest tabulated energy.
func (r *Response) Emax() float64 { return r.model.Xmax() }

// Name returns the path the response was loaded from.
func (r *Response) Name() string { return r.name }
