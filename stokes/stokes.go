// Package stokes aggregates per-event Stokes parameters into normalized
// polarization observables with statistical uncertainties.
//
// Events carry q and u values with the conventional amplitude of 2; the
// normalized Stokes parameters are corrected by the effective modulation
// factor of the instrument over the selected energy band.
package stokes

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"xpolsim/evt"
	"xpolsim/irf"
)

// Analysis holds the instrument response needed to turn event Stokes sums
// into polarization estimates.
type Analysis struct {
	modf     *irf.Response
	aeff     *irf.Response
	livetime float64
}

// NewAnalysis creates an analysis bound to a modulation-factor response, an
// effective-area response and the observation livetime in seconds.
func NewAnalysis(modf, aeff *irf.Response, livetime float64) *Analysis {
	return &Analysis{modf: modf, aeff: aeff, livetime: livetime}
}

// Result is the polarization estimate for one energy band.
type Result struct {
	Emin, Emax float64
	Counts     int

	QN, UN       float64 // normalized Stokes parameters
	QNErr, UNErr float64

	PolDeg, PolDegErr float64
	PolAng, PolAngErr float64 // polarization angle [rad]

	MDP99 float64 // minimum detectable polarization at 99% CL
}

// Bin computes the polarization estimate for the events with energy in
// [emin, emax).
func (a *Analysis) Bin(events []evt.Event, emin, emax float64) Result {
	res := Result{Emin: emin, Emax: emax}
	var qs, us, mus []float64
	for _, ev := range events {
		if ev.Energy < emin || ev.Energy >= emax {
			continue
		}
		qs = append(qs, ev.Q)
		us = append(us, ev.U)
		mus = append(mus, a.modf.Eval(ev.Energy))
	}
	res.Counts = len(qs)
	if res.Counts < 2 {
		return res
	}
	n := float64(res.Counts)
	mu := stat.Mean(mus, nil)
	res.QN = stat.Mean(qs, nil) / mu
	res.UN = stat.Mean(us, nil) / mu
	// Event-counting variances, see Kislat et al. (2015).
	res.QNErr = math.Sqrt((2.0/(mu*mu) - res.QN*res.QN) / (n - 1))
	res.UNErr = math.Sqrt((2.0/(mu*mu) - res.UN*res.UN) / (n - 1))
	res.PolDeg = math.Hypot(res.QN, res.UN)
	res.PolAng = 0.5 * math.Atan2(res.UN, res.QN)
	if res.PolDeg > 0 {
		// Project the q/u errors onto the degree/angle coordinates.
		res.PolDegErr = math.Sqrt((res.QN*res.QN*res.QNErr*res.QNErr +
			res.UN*res.UN*res.UNErr*res.UNErr)) / res.PolDeg
		res.PolAngErr = res.PolDegErr / (2.0 * res.PolDeg)
	}
	res.MDP99 = 4.29 / (mu * math.Sqrt(n))
	return res
}

// Table computes the polarization estimates for the contiguous bands defined
// by the given energy bounds.
func (a *Analysis) Table(events []evt.Event, ebounds []float64) []Result {
	var table []Result
	for i := 0; i+1 < len(ebounds); i++ {
		table = append(table, a.Bin(events, ebounds[i], ebounds[i+1]))
	}
	return table
}

// Aeff returns the effective area at the given energy, exposed for rate
// estimates in the display card.
func (a *Analysis) Aeff(energy float64) float64 {
	if a.aeff == nil {
		return 0
	}
	return a.aeff.Eval(energy)
}

// Livetime returns the observation livetime in seconds.
func (a *Analysis) Livetime() float64 { return a.livetime }
