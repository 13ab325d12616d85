package srcmodel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/KevinWang15/go-json5"

	"xpolsim/lightcurve"
	"xpolsim/spectrum"
)

// ErrConfigFormat is returned when a model configuration file is malformed.
var ErrConfigFormat = errors.New("malformed model configuration")

// Config is the parsed content of a JSON5 source-model configuration file.
// All fields are fixed at load time; nothing in the model mutates them.
type Config struct {
	Name          string
	RA, Dec       float64
	PLIndex       float64
	FluxEmin      float64
	FluxEmax      float64
	AbsorbedRatio float64 // intrinsic/observed flux ratio (1 = no correction)
	ColumnDensity float64
	Redshift      float64
	PolDeg        float64
	PolAngDeg     float64

	LightCurvePath string
	LightCurveOpts lightcurve.LoadOptions

	SkyImagePath    string // optional: extended-source intensity image (8-bit grayscale PNG)
	InstrumentalBkg bool
	ConfigDir       string // directory of the config file, for relative paths
}

// LoadConfig reads and validates a JSON5 model configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model configuration %s: %w", path, err)
	}
	var table map[string]interface{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigFormat, path, err)
	}
	cfg := &Config{ConfigDir: filepath.Dir(path)}
	if err := fillConfig(table, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigFormat, path, err)
	}
	return cfg, nil
}

// fillConfig validates the generic JSON table and fills the config struct,
// applying defaults for the optional fields.
func fillConfig(table map[string]interface{}, cfg *Config) error {
	var err error
	if cfg.Name, err = getString(table, "name", true, ""); err != nil {
		return err
	}
	if cfg.RA, err = getFloat(table, "ra", true, 0); err != nil {
		return err
	}
	if cfg.Dec, err = getFloat(table, "dec", true, 0); err != nil {
		return err
	}
	if cfg.PLIndex, err = getFloat(table, "pl_index", true, 0); err != nil {
		return err
	}
	if cfg.FluxEmin, err = getFloat(table, "flux_emin", true, 0); err != nil {
		return err
	}
	if cfg.FluxEmax, err = getFloat(table, "flux_emax", true, 0); err != nil {
		return err
	}
	if cfg.AbsorbedRatio, err = getFloat(table, "absorbed_ratio", false, 1.0); err != nil {
		return err
	}
	if cfg.ColumnDensity, err = getFloat(table, "column_density", false, 0); err != nil {
		return err
	}
	if cfg.Redshift, err = getFloat(table, "redshift", false, 0); err != nil {
		return err
	}
	if cfg.PolDeg, err = getFloat(table, "pol_deg", false, 0); err != nil {
		return err
	}
	if cfg.PolDeg < 0 || cfg.PolDeg > 1 {
		return fmt.Errorf("pol_deg: %g is not in [0, 1]", cfg.PolDeg)
	}
	if cfg.PolAngDeg, err = getFloat(table, "pol_ang_deg", false, 0); err != nil {
		return err
	}
	if cfg.SkyImagePath, err = getString(table, "sky_image", false, ""); err != nil {
		return err
	}
	if cfg.InstrumentalBkg, err = getBool(table, "instrumental_bkg", false, true); err != nil {
		return err
	}

	lc, ok := table["light_curve"]
	if !ok {
		return errors.New("light_curve: not found")
	}
	lcTable, ok := lc.(map[string]interface{})
	if !ok {
		return errors.New("light_curve: is not a group")
	}
	if cfg.LightCurvePath, err = getString(lcTable, "file", true, ""); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	opts := lightcurve.DefaultLoadOptions()
	var v float64
	if v, err = getFloat(lcTable, "time_column", false, 0); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	opts.TimeColumn = int(v)
	if v, err = getFloat(lcTable, "flux_column", false, 1); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	opts.FluxColumn = int(v)
	if opts.TimeOffset, err = getFloat(lcTable, "time_offset", false, 0); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	if opts.Erg, err = getBool(lcTable, "erg", false, false); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	if opts.Delimiter, err = getString(lcTable, "delimiter", false, ""); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	if opts.Fit.Smoothing, err = getFloat(lcTable, "smoothing", false, 0); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	if v, err = getFloat(lcTable, "degree", false, 3); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	opts.Fit.Degree = int(v)
	if v, err = getFloat(lcTable, "max_points", false, 0); err != nil {
		return fmt.Errorf("light_curve.%v", err)
	}
	opts.Fit.MaxPoints = int(v)
	cfg.LightCurveOpts = opts
	return nil
}

// Build loads the external data the configuration references and assembles
// the region-of-interest model. A malformed light-curve file or sky image
// aborts construction; no partially built model is ever returned.
func (cfg *Config) Build() (*ROIModel, error) {
	lcPath := cfg.resolve(cfg.LightCurvePath)
	lc, err := lightcurve.Load(lcPath, cfg.LightCurveOpts)
	if err != nil {
		return nil, err
	}
	src := &CelestialSource{
		SourceName: cfg.Name,
		RA:         cfg.RA,
		Dec:        cfg.Dec,
		Spec: &spectrum.TimeDependentPowerLaw{
			LightCurve:      lc,
			Index:           cfg.PLIndex,
			Band:            spectrum.Band{Emin: cfg.FluxEmin, Emax: cfg.FluxEmax},
			EnergyFlux:      true,
			AbsorptionRatio: cfg.AbsorbedRatio,
		},
		PolDeg:        cfg.PolDeg,
		PolAng:        Radians(cfg.PolAngDeg),
		ColumnDensity: cfg.ColumnDensity,
		Redshift:      cfg.Redshift,
	}
	// Fail fast on an unusable spectral configuration before any simulation
	// work is attempted.
	if _, err := src.Spec.Norm(lc.Xmin()); err != nil {
		return nil, err
	}
	if cfg.SkyImagePath != "" {
		src.Intensity, err = LoadIntensityImage(cfg.resolve(cfg.SkyImagePath))
		if err != nil {
			return nil, err
		}
	}
	roi := NewROIModel(cfg.RA, cfg.Dec, src)
	if cfg.InstrumentalBkg {
		roi.AddSource(NewPowerLawInstrumentalBkg())
	}
	return roi, nil
}

func (cfg *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.ConfigDir, path)
}

func getString(table map[string]interface{}, key string, required bool, def string) (string, error) {
	v, ok := table[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s: not found", key)
		}
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: is not a string", key)
	}
	return s, nil
}

func getFloat(table map[string]interface{}, key string, required bool, def float64) (float64, error) {
	v, ok := table[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%s: not found", key)
		}
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: is not a number", key)
	}
	return f, nil
}

func getBool(table map[string]interface{}, key string, required bool, def bool) (bool, error) {
	v, ok := table[key]
	if !ok {
		if required {
			return false, fmt.Errorf("%s: not found", key)
		}
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: is not a bool", key)
	}
	return b, nil
}
