// Package config describes a completeness sweep.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yyyoichi/completeness/internal/profile"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the complete sweep configuration.
type Config struct {
	OutputDir   string            `yaml:"output_dir"`
	Image       string            `yaml:"image"`
	Size        Range             `yaml:"size"`      // arcsec
	Magnitude   Range             `yaml:"magnitude"` // mag
	Repeats     int               `yaml:"repeats"`   // batches per (size, magnitude), default 5
	Seed        *uint64           `yaml:"seed"`      // default 1234
	Calibration CalibrationConfig `yaml:"calibration"`
	Detector    DetectorConfig    `yaml:"detector"`
	Workers     int               `yaml:"workers"` // concurrent batches, default 1
	Ledger      string            `yaml:"ledger"`  // SQLite file, relative to output_dir
	Report      ReportConfig      `yaml:"report"`
}

// Range is an inclusive arithmetic sequence.
type Range struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
}

type CalibrationConfig struct {
	ReferenceMagnitude float64 `yaml:"reference_magnitude"`
	PixelScale         float64 `yaml:"pixel_scale"` // arcsec per pixel
}

type DetectorConfig struct {
	Binary string `yaml:"binary"`
	Config string `yaml:"config"`
}

type ReportConfig struct {
	CSV     string `yaml:"csv"`
	Heatmap string `yaml:"heatmap"`
}

const (
	DefaultRepeats = 5
	DefaultSeed    = 1234
)

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}
	if c.Image == "" {
		return fmt.Errorf("%w: image is required", ErrInvalid)
	}
	if err := c.Size.validate("size"); err != nil {
		return err
	}
	if c.Size.Start <= 0 {
		return fmt.Errorf("%w: size.start must be > 0", ErrInvalid)
	}
	if err := c.Magnitude.validate("magnitude"); err != nil {
		return err
	}
	if c.Repeats < 0 || c.Workers < 0 {
		return fmt.Errorf("%w: repeats and workers must not be negative", ErrInvalid)
	}

	if c.Repeats == 0 {
		c.Repeats = DefaultRepeats
	}
	if c.Seed == nil {
		seed := uint64(DefaultSeed)
		c.Seed = &seed
	}
	if c.Calibration.ReferenceMagnitude == 0 {
		c.Calibration.ReferenceMagnitude = profile.DefaultReferenceMagnitude
	}
	if c.Calibration.PixelScale == 0 {
		c.Calibration.PixelScale = profile.DefaultPixelScale
	}
	if c.Calibration.PixelScale < 0 {
		return fmt.Errorf("%w: calibration.pixel_scale must be > 0", ErrInvalid)
	}
	if c.Detector.Binary == "" {
		c.Detector.Binary = "sex"
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Ledger == "" {
		c.Ledger = "ledger.db"
	}
	if c.Report.CSV == "" {
		c.Report.CSV = "detection_rates.csv"
	}
	if c.Report.Heatmap == "" {
		c.Report.Heatmap = "detection_rates.html"
	}
	return nil
}

// Calib returns the profile calibration.
func (c *Config) Calib() profile.Calibration {
	return profile.Calibration{
		ReferenceMagnitude: c.Calibration.ReferenceMagnitude,
		PixelScale:         c.Calibration.PixelScale,
	}
}

// Path resolves p against the output directory.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.OutputDir, p)
}

func (c *Config) Sizes() []float64      { return c.Size.Values() }
func (c *Config) Magnitudes() []float64 { return c.Magnitude.Values() }

// Values lists Start, Start+Step, ... up to and including End.
func (r Range) Values() []float64 {
	n := int(math.Floor((r.End-r.Start)/r.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Start + float64(i)*r.Step
	}
	return out
}

func (r Range) validate(name string) error {
	if !(r.Step > 0) {
		return fmt.Errorf("%w: %s.step must be > 0", ErrInvalid, name)
	}
	if r.End < r.Start {
		return fmt.Errorf("%w: %s.end %v < %s.start %v", ErrInvalid, name, r.End, name, r.Start)
	}
	return nil
}
