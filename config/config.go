// Package config loads the thresholds and runtime settings of a matching run.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Backend names accepted for gallery.backend
const (
	BackendGocv    = "gocv"
	BackendImaging = "imaging"
)

// Matching holds the knobs of the refinement pipeline
type Matching struct {
	// MaxDistance is the largest distance any oracle can report; it seeds every matrix cell
	// and pads rectangular cost matrices.
	MaxDistance    float64 `toml:"max_distance"`
	PHashThreshold float64 `toml:"phash_threshold"`
	CropThreshold  float64 `toml:"crop_threshold"`
	MaxAngle       int     `toml:"max_angle"`
	AngleStep      int     `toml:"angle_step"`
	CropBinBits    []int   `toml:"crop_bin_bits"`
	// Workers bounds the pairwise comparison pool. Zero means one per CPU.
	Workers int `toml:"workers"`
}

// Gallery holds loader settings
type Gallery struct {
	ResizeTarget int    `toml:"resize_target"`
	Backend      string `toml:"backend"`
}

// Config is the full configuration of a run
type Config struct {
	Matching Matching `toml:"matching"`
	Gallery  Gallery  `toml:"gallery"`
}

// Default returns the calibrated defaults
func Default() Config {
	return Config{
		Matching: Matching{
			MaxDistance:    64.0,
			PHashThreshold: 12.0,
			CropThreshold:  0.09,
			MaxAngle:       30,
			AngleStep:      5,
			CropBinBits:    []int{8, 12},
			Workers:        0,
		},
		Gallery: Gallery{
			ResizeTarget: 512,
			Backend:      BackendGocv,
		},
	}
}

// Load reads a TOML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot work with
func (c Config) Validate() error {
	var errs []error
	m := c.Matching

	if m.MaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("matching.max_distance must be positive, got %v", m.MaxDistance))
	}
	if m.PHashThreshold < 0 || m.PHashThreshold > m.MaxDistance {
		errs = append(errs, fmt.Errorf("matching.phash_threshold must be within [0, %v], got %v", m.MaxDistance, m.PHashThreshold))
	}
	if m.CropThreshold < 0 || m.CropThreshold > m.MaxDistance {
		errs = append(errs, fmt.Errorf("matching.crop_threshold must be within [0, %v], got %v", m.MaxDistance, m.CropThreshold))
	}
	if m.MaxAngle < 0 || m.MaxAngle > 180 {
		errs = append(errs, fmt.Errorf("matching.max_angle must be within [0, 180], got %d", m.MaxAngle))
	}
	if m.AngleStep <= 0 {
		errs = append(errs, fmt.Errorf("matching.angle_step must be positive, got %d", m.AngleStep))
	}
	if len(m.CropBinBits) == 0 {
		errs = append(errs, errors.New("matching.crop_bin_bits must not be empty"))
	}
	for _, bits := range m.CropBinBits {
		if bits < 1 || bits > 16 {
			errs = append(errs, fmt.Errorf("matching.crop_bin_bits entries must be within [1, 16], got %d", bits))
		}
	}
	if m.Workers < 0 {
		errs = append(errs, fmt.Errorf("matching.workers must not be negative, got %d", m.Workers))
	}

	if c.Gallery.ResizeTarget <= 0 {
		errs = append(errs, fmt.Errorf("gallery.resize_target must be positive, got %d", c.Gallery.ResizeTarget))
	}
	switch c.Gallery.Backend {
	case BackendGocv, BackendImaging:
	default:
		errs = append(errs, fmt.Errorf("gallery.backend must be %q or %q, got %q", BackendGocv, BackendImaging, c.Gallery.Backend))
	}

	return errors.Join(errs...)
}
