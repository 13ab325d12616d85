// Package srcmodel builds astrophysical source models from declarative JSON5
// configuration files: a region-of-interest model holding one celestial
// source (point-like or extended) with a time-dependent power-law spectrum
// and constant polarization, plus an optional instrumental background.
package srcmodel

import (
	"math"

	"xpolsim/spectrum"
)

// Source is anything that contributes photons to the region of interest.
type Source interface {
	// Name returns the source identifier.
	Name() string
	// Spectrum returns the differential photon flux [cm^-2 s^-1 keV^-1] at
	// the given energy [keV] and time [MET s].
	Spectrum(energy, t float64) (float64, error)
	// PolarizationDegree returns the polarization degree in [0, 1].
	PolarizationDegree(energy, t float64) float64
	// PolarizationAngle returns the polarization angle in radians.
	PolarizationAngle(energy, t float64) float64
}

// CelestialSource is a sky source with a power-law spectrum driven by a
// light curve and energy- and time-independent polarization.
type CelestialSource struct {
	SourceName    string
	RA, Dec       float64 // sky position [deg]
	Spec          *spectrum.TimeDependentPowerLaw
	PolDeg        float64 // constant polarization degree
	PolAng        float64 // constant polarization angle [rad]
	ColumnDensity float64 // intrinsic absorption column density [cm^-2]
	Redshift      float64

	// Intensity is the normalized sky-intensity image of an extended source
	// (row-major, summing to 1); nil for a point source.
	Intensity [][]float64
}

func (s *CelestialSource) Name() string { return s.SourceName }

func (s *CelestialSource) Spectrum(energy, t float64) (float64, error) {
	return s.Spec.Eval(energy, t)
}

func (s *CelestialSource) PolarizationDegree(energy, t float64) float64 { return s.PolDeg }

func (s *CelestialSource) PolarizationAngle(energy, t float64) float64 { return s.PolAng }

// Extended reports whether the source carries a sky-intensity image.
func (s *CelestialSource) Extended() bool { return s.Intensity != nil }

// PowerLawInstrumentalBkg is the non-celestial background of the instrument,
// modeled as an unpolarized stationary power law per unit detector area.
type PowerLawInstrumentalBkg struct {
	Norm  float64 // normalization at 1 keV [cm^-2 s^-1 keV^-1]
	Index float64
}

// NewPowerLawInstrumentalBkg returns the default instrumental background.
func NewPowerLawInstrumentalBkg() *PowerLawInstrumentalBkg {
	return &PowerLawInstrumentalBkg{Norm: 4.0e-4, Index: 1.0}
}

func (b *PowerLawInstrumentalBkg) Name() string { return "instrumental background" }

func (b *PowerLawInstrumentalBkg) Spectrum(energy, t float64) (float64, error) {
	return spectrum.PowerLaw(b.Norm, b.Index, energy), nil
}

func (b *PowerLawInstrumentalBkg) PolarizationDegree(energy, t float64) float64 { return 0 }

func (b *PowerLawInstrumentalBkg) PolarizationAngle(energy, t float64) float64 { return 0 }

// ROIModel is the full model of a region of interest: a pointing and the
// sources contributing to it.
type ROIModel struct {
	RA, Dec float64
	Sources []Source
}

// NewROIModel creates a model pointed at the given sky position.
func NewROIModel(ra, dec float64, sources ...Source) *ROIModel {
	return &ROIModel{RA: ra, Dec: dec, Sources: sources}
}

// AddSource appends a source to the model.
func (r *ROIModel) AddSource(s Source) { r.Sources = append(r.Sources, s) }

// TotalSpectrum returns the summed differential photon flux of all sources.
func (r *ROIModel) TotalSpectrum(energy, t float64) (float64, error) {
	total := 0.0
	for _, s := range r.Sources {
		v, err := s.Spectrum(energy, t)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// Radians converts an angle in degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }
