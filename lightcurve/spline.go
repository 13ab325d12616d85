package lightcurve

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// FitOptions controls the spline fit.
type FitOptions struct {
	// Degree of the spline: 1 (piecewise linear) or 3 (natural cubic).
	Degree int

	// Smoothing is the target residual sum of squares, in the spirit of the
	// classic smoothing-spline formulations: the fit is the natural cubic
	// spline whose summed squared residuals come closest to this value.
	// Zero gives the interpolating spline. Ignored for Degree 1.
	Smoothing float64

	// MaxPoints, when positive and smaller than the number of samples,
	// subsamples the data to this many evenly spaced knots before fitting.
	MaxPoints int
}

// DefaultFitOptions returns a cubic interpolating fit.
func DefaultFitOptions() FitOptions {
	return FitOptions{Degree: 3}
}

// Model is a fitted one-dimensional spline over (time, flux) samples.
//
// A Model is immutable once constructed. Evaluation outside [Xmin, Xmax]
// extrapolates the boundary polynomial; that is permitted, but dependent
// calculations must not rely on it silently - callers are expected to check
// Contains (or assert on it) before trusting out-of-domain values.
type Model struct {
	x, y []float64 // fitted knot abscissae and data values
	g    []float64 // spline values at the knots
	m2   []float64 // second derivatives at the knots (all zero for degree 1)
}

// NewModel fits a spline to the given samples. The x values must be strictly
// increasing; duplicates are a fitting error since the spline needs a
// function, not a relation.
func NewModel(x, y []float64, opts FitOptions) (*Model, error) {
	if opts.Degree == 0 {
		opts.Degree = 3
	}
	if opts.Degree != 1 && opts.Degree != 3 {
		return nil, fmt.Errorf("%w: unsupported spline degree %d", ErrFitting, opts.Degree)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d time values vs %d flux values", ErrFitting, len(x), len(y))
	}
	minPoints := opts.Degree + 1
	if len(x) < minPoints {
		return nil, fmt.Errorf("%w: %d points, need at least %d for degree %d",
			ErrFitting, len(x), minPoints, opts.Degree)
	}
	if opts.MaxPoints > 0 && opts.MaxPoints < minPoints {
		opts.MaxPoints = minPoints
	}
	x, y = subsample(x, y, opts.MaxPoints)
	if !sort.Float64sAreSorted(x) {
		return nil, fmt.Errorf("%w: time values are not sorted", ErrFitting)
	}
	for i := 1; i < len(x); i++ {
		if x[i] == x[i-1] {
			return nil, fmt.Errorf("%w: duplicate time value %g", ErrFitting, x[i])
		}
	}

	model := &Model{
		x:  append([]float64(nil), x...),
		y:  append([]float64(nil), y...),
		m2: make([]float64, len(x)),
	}
	if opts.Degree == 1 {
		// A natural cubic spline with vanishing second derivatives is exactly
		// the piecewise-linear interpolant, so degree 1 shares the evaluator.
		model.g = model.y
		return model, nil
	}

	var err error
	if opts.Smoothing > 0 {
		err = model.fitSmoothing(opts.Smoothing)
	} else {
		err = model.fitInterpolating()
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Xmin returns the lower bound of the fitted domain.
func (m *Model) Xmin() float64 { return m.x[0] }

// Xmax returns the upper bound of the fitted domain.
func (m *Model) Xmax() float64 { return m.x[len(m.x)-1] }

// Contains reports whether t lies inside the fitted domain.
func (m *Model) Contains(t float64) bool { return t >= m.Xmin() && t <= m.Xmax() }

// X returns the fitted knot abscissae (e.g. for plotting the raw samples).
func (m *Model) X() []float64 { return append([]float64(nil), m.x...) }

// Y returns the data values at the knots.
func (m *Model) Y() []float64 { return append([]float64(nil), m.y...) }

// Evaluate returns the spline value at t.
func (m *Model) Evaluate(t float64) float64 {
	n := len(m.x)
	// Locate the segment; out-of-domain values extend the boundary segment.
	i := sort.SearchFloat64s(m.x, t) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	h := m.x[i+1] - m.x[i]
	a := (m.x[i+1] - t) / h
	b := (t - m.x[i]) / h
	return a*m.g[i] + b*m.g[i+1] +
		((a*a*a-a)*m.m2[i]+(b*b*b-b)*m.m2[i+1])*h*h/6.0
}

// EvaluateAll evaluates the spline at every element of ts.
func (m *Model) EvaluateAll(ts []float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = m.Evaluate(t)
	}
	return out
}

// fitInterpolating computes the natural cubic spline passing through every
// sample: the interior second derivatives solve R*m2 = Q^T*y with the usual
// tridiagonal R and second-difference Q^T (Green & Silverman formulation).
func (m *Model) fitInterpolating() error {
	m.g = m.y
	n := len(m.x)
	ni := n - 2 // number of interior knots
	rhs := mat.NewVecDense(ni, nil)
	for c := 0; c < ni; c++ {
		rhs.SetVec(c, m.secondDifference(c))
	}
	band := mat.NewSymBandDense(ni, bandwidth(ni), nil)
	for c := 0; c < ni; c++ {
		band.SetSymBand(c, c, (m.h(c)+m.h(c+1))/3.0)
		if c+1 < ni {
			band.SetSymBand(c, c+1, m.h(c+1)/6.0)
		}
	}
	gamma, err := solveBanded(band, rhs)
	if err != nil {
		return err
	}
	for c := 0; c < ni; c++ {
		m.m2[c+1] = gamma.AtVec(c)
	}
	return nil
}

// fitSmoothing computes the smoothing natural cubic spline whose residual sum
// of squares approximates the target. The penalty weight alpha is found by
// bisection: the residual grows monotonically with alpha, from zero at the
// interpolating spline toward the residual of the smoothest attainable fit.
func (m *Model) fitSmoothing(target float64) error {
	// Bracket in log space. The upper limit is effectively a straight line
	// through the data, the lower limit effectively interpolates.
	lo, hi := -12.0, 14.0
	scale := math.Abs(m.x[len(m.x)-1] - m.x[0])
	if scale > 0 {
		// Keep the bracket centered on the natural scale of the penalty term.
		mid := 3.0 * math.Log10(scale)
		lo += mid
		hi += mid
	}
	rss, err := m.applyPenalty(math.Pow(10, hi))
	if err != nil {
		return err
	}
	if rss <= target {
		// Target unreachable: return the smoothest fit we can produce.
		return nil
	}
	for iter := 0; iter < 100; iter++ {
		alpha := math.Pow(10, (lo+hi)/2)
		rss, err = m.applyPenalty(alpha)
		if err != nil {
			return err
		}
		if rss > target {
			hi = (lo + hi) / 2
		} else {
			lo = (lo + hi) / 2
		}
	}
	return nil
}

// applyPenalty fits the penalized spline for a fixed weight alpha and returns
// the residual sum of squares. Solves (R + alpha*Q^T*Q) gamma = Q^T*y, then
// recovers the fitted values as g = y - alpha*Q*gamma.
func (m *Model) applyPenalty(alpha float64) (float64, error) {
	n := len(m.x)
	ni := n - 2
	rhs := mat.NewVecDense(ni, nil)
	for c := 0; c < ni; c++ {
		rhs.SetVec(c, m.secondDifference(c))
	}
	band := mat.NewSymBandDense(ni, bandwidth(ni), nil)
	for c := 0; c < ni; c++ {
		for d := 0; d <= 2 && c+d < ni; d++ {
			v := alpha * m.qColDot(c, c+d)
			if d == 0 {
				v += (m.h(c) + m.h(c+1)) / 3.0
			} else if d == 1 {
				v += m.h(c+1) / 6.0
			}
			band.SetSymBand(c, c+d, v)
		}
	}
	gamma, err := solveBanded(band, rhs)
	if err != nil {
		return 0, err
	}
	m.g = make([]float64, n)
	rss := 0.0
	for r := 0; r < n; r++ {
		qg := 0.0
		for c := r - 2; c <= r; c++ {
			if c >= 0 && c < ni {
				qg += m.qCoeff(r, c) * gamma.AtVec(c)
			}
		}
		m.g[r] = m.y[r] - alpha*qg
		rss += (alpha * qg) * (alpha * qg)
	}
	for c := 0; c < ni; c++ {
		m.m2[c+1] = gamma.AtVec(c)
	}
	return rss, nil
}

// bandwidth returns the symmetric bandwidth of the interior system: two
// off-diagonals in general, fewer when the system is smaller than that.
func bandwidth(ni int) int {
	if ni-1 < 2 {
		return ni - 1
	}
	return 2
}

// h returns the i-th knot spacing.
func (m *Model) h(i int) float64 { return m.x[i+1] - m.x[i] }

// qCoeff returns the entry Q[r][c] of the second-difference matrix: column c
// is supported on rows c, c+1, c+2.
func (m *Model) qCoeff(r, c int) float64 {
	switch r - c {
	case 0:
		return 1.0 / m.h(c)
	case 1:
		return -1.0/m.h(c) - 1.0/m.h(c+1)
	case 2:
		return 1.0 / m.h(c+1)
	}
	return 0
}

// qColDot returns the dot product of columns c1 and c2 of Q.
func (m *Model) qColDot(c1, c2 int) float64 {
	sum := 0.0
	for r := c2; r <= c1+2; r++ {
		sum += m.qCoeff(r, c1) * m.qCoeff(r, c2)
	}
	return sum
}

// secondDifference returns the c-th entry of Q^T*y.
func (m *Model) secondDifference(c int) float64 {
	return (m.y[c+2]-m.y[c+1])/m.h(c+1) - (m.y[c+1]-m.y[c])/m.h(c)
}

func solveBanded(a *mat.SymBandDense, b *mat.VecDense) (*mat.VecDense, error) {
	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return nil, fmt.Errorf("%w: banded system is not positive definite", ErrFitting)
	}
	n, _ := b.Dims()
	dst := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(dst, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitting, err)
	}
	return dst, nil
}

// subsample thins the samples to at most maxPoints evenly spaced knots,
// always retaining the first and last sample.
func subsample(x, y []float64, maxPoints int) ([]float64, []float64) {
	n := len(x)
	if maxPoints <= 0 || maxPoints >= n {
		return x, y
	}
	if maxPoints < 2 {
		maxPoints = 2
	}
	xs := make([]float64, 0, maxPoints)
	ys := make([]float64, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := i * (n - 1) / (maxPoints - 1)
		xs = append(xs, x[idx])
		ys = append(ys, y[idx])
	}
	return xs, ys
}
