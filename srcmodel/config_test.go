package srcmodel

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `{
	// GRB 221009A style afterglow model
	name: "test burst",
	ra: 288.26452,
	dec: 19.77350,
	pl_index: 2.2,
	flux_emin: 0.3,
	flux_emax: 10.0,
	absorbed_ratio: 2.54,
	pol_deg: 0.1,
	pol_ang_deg: 45.0,
	light_curve: {
		file: "lc.txt",
		erg: true,
	},
}`

const lightCurveData = `# MET flux
0.0    1.0e-9
1000.0 2.0e-9
2000.0 1.5e-9
3000.0 1.2e-9
4000.0 1.0e-9
`

// writeModel writes a config file plus its light-curve data into a temp
// directory and returns the config path.
func writeModel(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json5")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lc.txt"), []byte(lightCurveData), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeModel(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "test burst" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.PLIndex != 2.2 || cfg.AbsorbedRatio != 2.54 {
		t.Errorf("spectral parameters = %g, %g", cfg.PLIndex, cfg.AbsorbedRatio)
	}
	if cfg.PolDeg != 0.1 || cfg.PolAngDeg != 45.0 {
		t.Errorf("polarization = %g, %g", cfg.PolDeg, cfg.PolAngDeg)
	}
	if !cfg.LightCurveOpts.Erg {
		t.Error("light_curve.erg not honored")
	}
	// Optional keys fall back to their defaults.
	if !cfg.InstrumentalBkg {
		t.Error("instrumental_bkg should default to true")
	}
	if cfg.LightCurveOpts.TimeColumn != 0 || cfg.LightCurveOpts.FluxColumn != 1 {
		t.Errorf("column defaults = %d, %d", cfg.LightCurveOpts.TimeColumn, cfg.LightCurveOpts.FluxColumn)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for name, config := range map[string]string{
		"missingName":  `{ra: 1, dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10, light_curve: {file: "lc.txt"}}`,
		"missingIndex": `{name: "x", ra: 1, dec: 2, flux_emin: 0.3, flux_emax: 10, light_curve: {file: "lc.txt"}}`,
		"noLightCurve": `{name: "x", ra: 1, dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10}`,
		"lcNotGroup":   `{name: "x", ra: 1, dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10, light_curve: "lc.txt"}`,
		"polDegRange":  `{name: "x", ra: 1, dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10, pol_deg: 1.5, light_curve: {file: "lc.txt"}}`,
		"wrongType":    `{name: "x", ra: "east", dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10, light_curve: {file: "lc.txt"}}`,
		"badSyntax":    `{name: }`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeModel(t, config))
			if !errors.Is(err, ErrConfigFormat) {
				t.Errorf("error = %v, want ErrConfigFormat", err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := LoadConfig(writeModel(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	roi, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(roi.Sources) != 2 {
		t.Fatalf("built %d sources, want source plus instrumental background", len(roi.Sources))
	}
	src, ok := roi.Sources[0].(*CelestialSource)
	if !ok {
		t.Fatalf("first source is %T", roi.Sources[0])
	}
	if src.Extended() {
		t.Error("source without a sky image must be point-like")
	}
	if math.Abs(src.PolAng-Radians(45.0)) > 1e-12 {
		t.Errorf("PolAng = %g rad", src.PolAng)
	}
	// The spectrum is usable over the light-curve domain.
	v, err := src.Spectrum(2.0, 1000.0)
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		t.Errorf("Spectrum(2, 1000) = %g", v)
	}
	// Total flux exceeds the celestial contribution by the background.
	total, err := roi.TotalSpectrum(2.0, 1000.0)
	if err != nil {
		t.Fatal(err)
	}
	if total <= v {
		t.Errorf("TotalSpectrum = %g, not above source flux %g", total, v)
	}
}

func TestBuildNoBackground(t *testing.T) {
	config := `{
	name: "bare",
	ra: 1.0, dec: 2.0,
	pl_index: 2.0,
	flux_emin: 2.0, flux_emax: 8.0,
	instrumental_bkg: false,
	light_curve: {file: "lc.txt"},
}`
	cfg, err := LoadConfig(writeModel(t, config))
	if err != nil {
		t.Fatal(err)
	}
	roi, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(roi.Sources) != 1 {
		t.Errorf("built %d sources, want 1", len(roi.Sources))
	}
}

func TestBuildMissingLightCurve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json5")
	config := `{name: "x", ra: 1, dec: 2, pl_index: 2, flux_emin: 0.3, flux_emax: 10, light_curve: {file: "nope.txt"}}`
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.Build(); err == nil {
		t.Error("expected an error for a missing light-curve file")
	}
}

func TestInstrumentalBkgIsUnpolarized(t *testing.T) {
	bkg := NewPowerLawInstrumentalBkg()
	if got := bkg.PolarizationDegree(2.0, 0); got != 0 {
		t.Errorf("PolarizationDegree = %g, want 0", got)
	}
	v, err := bkg.Spectrum(2.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-2.0e-4) > 1e-12 {
		t.Errorf("Spectrum(2, 0) = %g, want 2e-4", v)
	}
}
