// Package config loads and validates the panwave YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AudioConfig controls capture and analysis parameters.
type AudioConfig struct {
	// SampleRate of 0 means "use the device's default rate". No
	// resampling is performed, so a non-zero value must be a rate the
	// device supports natively.
	SampleRate int `yaml:"sample_rate"`
	// FramesPerBuffer is the block size requested from the driver.
	FramesPerBuffer int `yaml:"frames_per_buffer"`
	// FFTSize is the analysis window length W. Must be a power of two.
	FFTSize int `yaml:"fft_size"`
	// HopSize is the sample offset between successive windows. Smaller
	// hop means more overlap and a faster-scrolling waterfall.
	// 0 defaults to FFTSize/2.
	HopSize int `yaml:"hop_size"`
	// RelayDepth is the capture-to-analysis queue capacity in batches.
	RelayDepth int `yaml:"relay_depth"`
}

// VisualConfig controls the renderer.
type VisualConfig struct {
	FPS         int     `yaml:"fps"`
	DBFloor     float64 `yaml:"db_floor"`   // magnitudes at or below map to the darkest cell
	DBCeil      float64 `yaml:"db_ceil"`    // magnitudes at or above map to the brightest cell
	ColorScheme string  `yaml:"color_scheme"` // "thermal", "mono", "green"
	ShowStatus  bool    `yaml:"show_status"`
	// HistoryRows of 0 sizes the waterfall to the terminal height.
	HistoryRows int `yaml:"history_rows"`
}

// LogConfig mirrors pkg/logging options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level panwave configuration.
type Config struct {
	Audio  AudioConfig  `yaml:"audio"`
	Visual VisualConfig `yaml:"visual"`
	Log    LogConfig    `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:      0,
			FramesPerBuffer: 1024,
			FFTSize:         2048,
			HopSize:         1024,
			RelayDepth:      32,
		},
		Visual: VisualConfig{
			FPS:         30,
			DBFloor:     -90,
			DBCeil:      -10,
			ColorScheme: "thermal",
			ShowStatus:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile merges a YAML file over the receiver.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// TryLoadDefault loads the first existing well-known config file, if any.
func (c *Config) TryLoadDefault() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	paths := []string{
		filepath.Join(home, ".config", "panwave", "config.yaml"),
		filepath.Join(home, ".config", "panwave", "config.yml"),
		filepath.Join(home, ".panwave.yaml"),
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = c.LoadFromFile(p)
			return
		}
	}
}

// Validate checks invariants the pipeline depends on.
func (c *Config) Validate() error {
	a := &c.Audio
	if a.FFTSize < 64 || a.FFTSize&(a.FFTSize-1) != 0 {
		return fmt.Errorf("fft_size %d: must be a power of two >= 64", a.FFTSize)
	}
	if a.HopSize == 0 {
		a.HopSize = a.FFTSize / 2
	}
	if a.HopSize < 1 || a.HopSize > a.FFTSize {
		return fmt.Errorf("hop_size %d: must be in [1, fft_size]", a.HopSize)
	}
	if a.SampleRate < 0 {
		return fmt.Errorf("sample_rate %d: must be >= 0", a.SampleRate)
	}
	if a.FramesPerBuffer < 64 {
		return fmt.Errorf("frames_per_buffer %d: must be >= 64", a.FramesPerBuffer)
	}
	if a.RelayDepth < 1 {
		return fmt.Errorf("relay_depth %d: must be >= 1", a.RelayDepth)
	}
	v := &c.Visual
	if v.FPS < 1 || v.FPS > 240 {
		return fmt.Errorf("fps %d: must be in [1, 240]", v.FPS)
	}
	if v.DBFloor >= v.DBCeil {
		return fmt.Errorf("db_floor %.1f must be below db_ceil %.1f", v.DBFloor, v.DBCeil)
	}
	if v.HistoryRows < 0 {
		return fmt.Errorf("history_rows %d: must be >= 0", v.HistoryRows)
	}
	return nil
}
