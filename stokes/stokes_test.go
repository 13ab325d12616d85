package stokes

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"xpolsim/evt"
	"xpolsim/irf"
)

// flatResponse builds a response table with a constant value over [1, 10] keV.
func flatResponse(t *testing.T, value float64) *irf.Response {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resp.json5")
	content := fmt.Sprintf("[[1.0, %g], [10.0, %g]]", value, value)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	resp, err := irf.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestBinNormalizedStokes(t *testing.T) {
	modf := flatResponse(t, 0.5)
	analysis := NewAnalysis(modf, nil, 1000.0)

	// Identical event Stokes parameters make the means exact.
	var events []evt.Event
	for i := 0; i < 100; i++ {
		events = append(events, evt.Event{Energy: 4.0, Q: 0.1, U: 0.05})
	}
	res := analysis.Bin(events, 2.0, 8.0)
	if res.Counts != 100 {
		t.Fatalf("Counts = %d, want 100", res.Counts)
	}
	if math.Abs(res.QN-0.2) > 1e-12 {
		t.Errorf("QN = %g, want 0.2 (q mean over modulation factor)", res.QN)
	}
	if math.Abs(res.UN-0.1) > 1e-12 {
		t.Errorf("UN = %g, want 0.1", res.UN)
	}
	wantPD := math.Hypot(0.2, 0.1)
	if math.Abs(res.PolDeg-wantPD) > 1e-12 {
		t.Errorf("PolDeg = %g, want %g", res.PolDeg, wantPD)
	}
	wantPA := 0.5 * math.Atan2(0.1, 0.2)
	if math.Abs(res.PolAng-wantPA) > 1e-12 {
		t.Errorf("PolAng = %g, want %g", res.PolAng, wantPA)
	}
	// Kislat-style counting error with mu = 0.5 and n = 100.
	wantErr := math.Sqrt((2.0/0.25 - 0.04) / 99.0)
	if math.Abs(res.QNErr-wantErr) > 1e-12 {
		t.Errorf("QNErr = %g, want %g", res.QNErr, wantErr)
	}
	wantMDP := 4.29 / (0.5 * 10.0)
	if math.Abs(res.MDP99-wantMDP) > 1e-12 {
		t.Errorf("MDP99 = %g, want %g", res.MDP99, wantMDP)
	}
}

func TestBinEnergySelection(t *testing.T) {
	modf := flatResponse(t, 0.5)
	analysis := NewAnalysis(modf, nil, 1000.0)
	events := []evt.Event{
		{Energy: 1.0, Q: 1.0, U: 1.0}, // below the band
		{Energy: 3.0, Q: 0.1, U: 0.0},
		{Energy: 4.0, Q: 0.1, U: 0.0},
		{Energy: 9.0, Q: 1.0, U: 1.0}, // above the band
	}
	res := analysis.Bin(events, 2.0, 8.0)
	if res.Counts != 2 {
		t.Errorf("Counts = %d, want 2", res.Counts)
	}
	if math.Abs(res.QN-0.2) > 1e-12 {
		t.Errorf("QN = %g, want 0.2", res.QN)
	}
}

func TestBinTooFewEvents(t *testing.T) {
	modf := flatResponse(t, 0.5)
	analysis := NewAnalysis(modf, nil, 1000.0)
	res := analysis.Bin([]evt.Event{{Energy: 4.0, Q: 0.5, U: 0.5}}, 2.0, 8.0)
	if res.Counts != 1 {
		t.Errorf("Counts = %d, want 1", res.Counts)
	}
	if res.QN != 0 || res.PolDeg != 0 {
		t.Errorf("single-event bin should report no estimate, got %+v", res)
	}
}

func TestAeffAndLivetime(t *testing.T) {
	modf := flatResponse(t, 0.5)
	aeff := flatResponse(t, 2.0)
	analysis := NewAnalysis(modf, aeff, 1500.0)
	if got := analysis.Livetime(); got != 1500.0 {
		t.Errorf("Livetime = %g, want 1500", got)
	}
	if got := analysis.Aeff(4.0); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("Aeff(4) = %g, want 2", got)
	}
	// No effective-area table means no rate estimate.
	bare := NewAnalysis(modf, nil, 0)
	if got := bare.Aeff(4.0); got != 0 {
		t.Errorf("Aeff without a table = %g, want 0", got)
	}
}

func TestTable(t *testing.T) {
	modf := flatResponse(t, 0.5)
	analysis := NewAnalysis(modf, nil, 1000.0)
	var events []evt.Event
	for i := 0; i < 10; i++ {
		events = append(events, evt.Event{Energy: 3.0, Q: 0.1, U: 0.0})
		events = append(events, evt.Event{Energy: 6.0, Q: 0.3, U: 0.0})
	}
	table := analysis.Table(events, []float64{2.0, 5.0, 8.0})
	if len(table) != 2 {
		t.Fatalf("table rows = %d, want 2", len(table))
	}
	if table[0].Counts != 10 || table[1].Counts != 10 {
		t.Errorf("row counts = %d, %d, want 10, 10", table[0].Counts, table[1].Counts)
	}
	if math.Abs(table[0].QN-0.2) > 1e-12 || math.Abs(table[1].QN-0.6) > 1e-12 {
		t.Errorf("QN = %g, %g, want 0.2, 0.6", table[0].QN, table[1].QN)
	}
}
