package lightcurve

import (
	"errors"
	"math"
	"testing"
)

func TestInterpolatingSplineHitsSamples(t *testing.T) {
	x := []float64{0, 1, 2.5, 4, 5, 7}
	y := []float64{1.0, 2.5, 2.0, 4.0, 3.5, 5.0}
	model, err := NewModel(x, y, FitOptions{Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := range x {
		if got := model.Evaluate(x[i]); math.Abs(got-y[i]) > 1e-9 {
			t.Errorf("Evaluate(%g) = %g, want %g", x[i], got, y[i])
		}
	}
	if model.Xmin() != 0 || model.Xmax() != 7 {
		t.Errorf("domain = [%g, %g], want [0, 7]", model.Xmin(), model.Xmax())
	}
}

func TestCubicFitMinimumPoints(t *testing.T) {
	// Four samples, the smallest set a cubic fit accepts.
	x := []float64{0, 1, 2, 3}
	y := []float64{1.0, 3.0, 2.0, 4.0}
	model, err := NewModel(x, y, FitOptions{Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := range x {
		if got := model.Evaluate(x[i]); math.Abs(got-y[i]) > 1e-9 {
			t.Errorf("Evaluate(%g) = %g, want %g", x[i], got, y[i])
		}
	}
	smooth, err := NewModel(x, y, FitOptions{Degree: 3, Smoothing: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	rss := 0.0
	for i := range x {
		d := smooth.Evaluate(x[i]) - y[i]
		rss += d * d
	}
	if math.Abs(rss-1.0) > 0.05 {
		t.Errorf("residual sum of squares = %g, want about 1", rss)
	}
}

func TestBoundaryValuesMatchSamples(t *testing.T) {
	x := []float64{10, 20, 30, 40, 50}
	y := []float64{5, 7, 6, 8, 9}
	model, err := NewModel(x, y, FitOptions{Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got := model.Evaluate(model.Xmin()); math.Abs(got-y[0]) > 1e-9 {
		t.Errorf("Evaluate(Xmin) = %g, want %g", got, y[0])
	}
	if got := model.Evaluate(model.Xmax()); math.Abs(got-y[len(y)-1]) > 1e-9 {
		t.Errorf("Evaluate(Xmax) = %g, want %g", got, y[len(y)-1])
	}
}

func TestLinearDegree(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 2, 4, 6}
	model, err := NewModel(x, y, FitOptions{Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []float64{0, 0.5, 1.25, 2.75, 3} {
		if got := model.Evaluate(tt); math.Abs(got-2*tt) > 1e-12 {
			t.Errorf("Evaluate(%g) = %g, want %g", tt, got, 2*tt)
		}
	}
}

func TestSmoothingResidualApproachesTarget(t *testing.T) {
	// Noisy samples around a straight line: the interpolating spline has
	// zero residual, the smoothing fit should land near the target.
	x := make([]float64, 21)
	y := make([]float64, 21)
	for i := range x {
		x[i] = float64(i)
		noise := 0.3
		if i%2 == 0 {
			noise = -0.3
		}
		y[i] = 2.0 + 0.5*float64(i) + noise
	}
	target := 0.8
	model, err := NewModel(x, y, FitOptions{Degree: 3, Smoothing: target})
	if err != nil {
		t.Fatal(err)
	}
	rss := 0.0
	for i := range x {
		d := model.Evaluate(x[i]) - y[i]
		rss += d * d
	}
	if math.Abs(rss-target) > 0.05*target {
		t.Errorf("residual sum of squares = %g, want about %g", rss, target)
	}
}

func TestSmoothingReducesCurvature(t *testing.T) {
	x := make([]float64, 20)
	y := make([]float64, 20)
	for i := range x {
		x[i] = float64(i)
		y[i] = math.Sin(float64(i)) // oscillating data
	}
	interp, err := NewModel(x, y, FitOptions{Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	smooth, err := NewModel(x, y, FitOptions{Degree: 3, Smoothing: 5.0})
	if err != nil {
		t.Fatal(err)
	}
	curvature := func(m *Model) float64 {
		total := 0.0
		for _, m2 := range m.m2 {
			total += m2 * m2
		}
		return total
	}
	if curvature(smooth) >= curvature(interp) {
		t.Errorf("smoothing did not reduce curvature: %g >= %g",
			curvature(smooth), curvature(interp))
	}
}

func TestFitDeterminism(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{1, 3, 2, 5, 4, 6, 5, 7}
	a, err := NewModel(x, y, FitOptions{Degree: 3, Smoothing: 2.0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewModel(x, y, FitOptions{Degree: 3, Smoothing: 2.0})
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []float64{0, 1.7, 3.14, 6.99} {
		if a.Evaluate(tt) != b.Evaluate(tt) {
			t.Fatalf("identical fits disagree at t=%g", tt)
		}
	}
}

func TestExtrapolationContinuesBoundarySegment(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 3}
	model, err := NewModel(x, y, FitOptions{Degree: 1})
	if err != nil {
		t.Fatal(err)
	}
	if model.Contains(-1) || model.Contains(4) {
		t.Error("Contains should reject out-of-domain values")
	}
	// The linear model extends its boundary segments.
	if got := model.Evaluate(-1); math.Abs(got+1) > 1e-12 {
		t.Errorf("Evaluate(-1) = %g, want -1", got)
	}
	if got := model.Evaluate(4); math.Abs(got-4) > 1e-12 {
		t.Errorf("Evaluate(4) = %g, want 4", got)
	}
}

func TestDuplicateTimes(t *testing.T) {
	_, err := NewModel([]float64{0, 1, 1, 2}, []float64{1, 2, 3, 4}, FitOptions{Degree: 3})
	if !errors.Is(err, ErrFitting) {
		t.Errorf("error = %v, want ErrFitting", err)
	}
}

func TestUnsortedTimes(t *testing.T) {
	_, err := NewModel([]float64{0, 2, 1, 3}, []float64{1, 2, 3, 4}, FitOptions{Degree: 3})
	if !errors.Is(err, ErrFitting) {
		t.Errorf("error = %v, want ErrFitting", err)
	}
}

func TestUnsupportedDegree(t *testing.T) {
	_, err := NewModel([]float64{0, 1, 2, 3}, []float64{1, 2, 3, 4}, FitOptions{Degree: 2})
	if !errors.Is(err, ErrFitting) {
		t.Errorf("error = %v, want ErrFitting", err)
	}
}

func TestMaxPointsSubsampling(t *testing.T) {
	n := 101
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i) * 2
	}
	model, err := NewModel(x, y, FitOptions{Degree: 3, MaxPoints: 11})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(model.X()); got != 11 {
		t.Errorf("knot count = %d, want 11", got)
	}
	// Endpoints survive the thinning.
	if model.Xmin() != 0 || model.Xmax() != 100 {
		t.Errorf("domain = [%g, %g], want [0, 100]", model.Xmin(), model.Xmax())
	}
}

func TestEvaluateAll(t *testing.T) {
	model, err := NewModel([]float64{0, 1, 2, 3}, []float64{0, 1, 4, 9}, FitOptions{Degree: 3})
	if err != nil {
		t.Fatal(err)
	}
	out := model.EvaluateAll([]float64{0, 1, 2, 3})
	want := []float64{0, 1, 4, 9}
	for i := range out {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("EvaluateAll[%d] = %g, want %g", i, out[i], want[i])
		}
	}
}
