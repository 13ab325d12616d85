// Package spectrum converts observed fluxes into power-law spectral
// normalizations and composes them with a light-curve model into a
// time-dependent photon spectrum.
//
// The photon spectrum is the usual power law N * E^-gamma with the
// normalization N expressed at 1 keV in cm^-2 s^-1 keV^-1.
package spectrum

import (
	"errors"
	"fmt"
	"math"

	"xpolsim/lightcurve"
)

// ErrSpectralIndex is returned when the flux-to-normalization conversion is
// degenerate for the given parameters (bad band bounds or non-finite index).
var ErrSpectralIndex = errors.New("degenerate spectral conversion")

// Band is a reference energy interval in keV.
type Band struct {
	Emin float64
	Emax float64
}

func (b Band) validate() error {
	if math.IsNaN(b.Emin) || math.IsNaN(b.Emax) {
		return fmt.Errorf("%w: band bounds must be numeric", ErrSpectralIndex)
	}
	if b.Emin <= 0 {
		return fmt.Errorf("%w: Emin %g must be positive", ErrSpectralIndex, b.Emin)
	}
	if b.Emin >= b.Emax {
		return fmt.Errorf("%w: Emin %g >= Emax %g", ErrSpectralIndex, b.Emin, b.Emax)
	}
	return nil
}

// Normalization converts a flux integrated over the reference band into the
// power-law normalization at 1 keV.
//
// When energyFlux is true the input is an energy flux (keV/cm^2/s) and the
// conversion inverts the band integral of E^(1-gamma), with the gamma == 2
// case handled analytically as a logarithm. Otherwise the input is a photon
// flux (cm^-2 s^-1) and the integral of E^-gamma is inverted, with the
// logarithmic special case at gamma == 1.
//
// absorptionRatio multiplies the result, converting between absorbed and
// intrinsic flux per the modeling convention chosen upstream; pass 1 for no
// correction.
func Normalization(flux float64, band Band, index float64, energyFlux bool, absorptionRatio float64) (float64, error) {
	if err := band.validate(); err != nil {
		return 0, err
	}
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return 0, fmt.Errorf("%w: photon index %g", ErrSpectralIndex, index)
	}
	exp := 1.0 - index // photon-flux integrand exponent
	if energyFlux {
		exp = 2.0 - index
	}
	var factor float64
	if exp == 0 {
		factor = 1.0 / math.Log(band.Emax/band.Emin)
	} else {
		factor = exp / (math.Pow(band.Emax, exp) - math.Pow(band.Emin, exp))
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 0, fmt.Errorf("%w: conversion factor is not finite for index %g over [%g, %g]",
			ErrSpectralIndex, index, band.Emin, band.Emax)
	}
	return absorptionRatio * factor * flux, nil
}

// PowerLaw returns the differential photon flux N * E^-index at the given
// energy.
func PowerLaw(norm, index, energy float64) float64 {
	return norm * math.Pow(energy, -index)
}

// TimeDependentPowerLaw is a power-law photon spectrum whose normalization
// tracks a fitted light curve: at any time t the spectrum integrates over the
// reference band to the flux the light curve reports at t.
//
// The captured parameters are immutable; the model is a pure function of
// (energy, time) with no cached state.
type TimeDependentPowerLaw struct {
	LightCurve      *lightcurve.Model
	Index           float64 // photon index
	Band            Band    // reference band the light-curve flux is integrated over
	EnergyFlux      bool    // light-curve values are energy fluxes rather than photon fluxes
	AbsorptionRatio float64 // intrinsic/observed flux ratio; zero means no correction
}

// Norm returns the power-law normalization at time t.
func (p *TimeDependentPowerLaw) Norm(t float64) (float64, error) {
	ratio := p.AbsorptionRatio
	if ratio == 0 {
		ratio = 1.0
	}
	return Normalization(p.LightCurve.Evaluate(t), p.Band, p.Index, p.EnergyFlux, ratio)
}

// Eval returns the differential photon flux at the given energy and time.
func (p *TimeDependentPowerLaw) Eval(energy, t float64) (float64, error) {
	norm, err := p.Norm(t)
	if err != nil {
		return 0, err
	}
	return PowerLaw(norm, p.Index, energy), nil
}
