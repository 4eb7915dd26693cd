// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the repair tools. Command line flags take
// precedence over it.
type Config struct {
	Raw         RawConfig         `yaml:"raw"`
	Reconstruct ReconstructConfig `yaml:"reconstruct"`
	Detector    DetectorConfig    `yaml:"detector"`
	Metadata    MetadataConfig    `yaml:"metadata"`
	Output      OutputConfig      `yaml:"output"`
	Export      ExportConfig      `yaml:"export"`
	Lock        LockConfig        `yaml:"lock"`
	GCS         GCSConfig         `yaml:"gcs"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// RawConfig names the datasets of a raw detector store.
type RawConfig struct {
	FrameKey     string `yaml:"frame_key"`
	TimestampKey string `yaml:"timestamp_key"`
}

type ReconstructConfig struct {
	Average int `yaml:"average"`
	// ROI is [row_min, row_max, col_min, col_max].
	ROI []int `yaml:"roi"`
}

type DetectorConfig struct {
	Eps        float64 `yaml:"eps"`
	MinSamples int     `yaml:"min_samples"`
	// NImages is the number of frames per scan point; 0 uses the window
	// size.
	NImages int `yaml:"n_images"`
}

// MetadataConfig controls how the metadata document is found and read.
type MetadataConfig struct {
	RawSuffix      string   `yaml:"raw_suffix"`      // e.g. "_0"
	DocumentSuffix string   `yaml:"document_suffix"` // replaces RawSuffix and the extension
	Keys           []string `yaml:"keys,omitempty"`
	FallbackToAll  bool     `yaml:"fallback_to_all"`
}

type OutputConfig struct {
	Suffix string `yaml:"suffix"`
}

// ExportConfig configures proio streams. Compression is 0 for uncompressed,
// 1 for LZ4, 2 for GZIP and 3 for LZMA.
type ExportConfig struct {
	Compression int `yaml:"compression"`
}

// LockConfig enables an output lock held in redis. An empty Addr disables
// locking.
type LockConfig struct {
	Addr string `yaml:"addr"`
	TTL  string `yaml:"ttl"`
}

type GCSConfig struct {
	Credentials string `yaml:"credentials"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Raw: RawConfig{
			FrameKey:     "entry/data/data",
			TimestampKey: "entry/instrument/NDAttributes/NDArrayTimeStamp",
		},
		Reconstruct: ReconstructConfig{
			Average: 10,
			ROI:     []int{0, 2048, 0, 2048},
		},
		Detector: DetectorConfig{
			Eps:        0.3,
			MinSamples: 5,
		},
		Metadata: MetadataConfig{
			RawSuffix:      "_0",
			DocumentSuffix: "_documents.json",
		},
		Output: OutputConfig{
			Suffix: "_repaired",
		},
		Export: ExportConfig{
			Compression: 1,
		},
		Lock: LockConfig{
			TTL: "10m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config on top of the defaults. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Lock.Addr = addr
	}
	if creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); creds != "" {
		c.GCS.Credentials = creds
	}
	if level := os.Getenv("RDI_REPAIR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// LockTTL returns the lock expiry, ten minutes if unset or invalid.
func (c *Config) LockTTL() time.Duration {
	d, err := time.ParseDuration(c.Lock.TTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

func (c *Config) LogLevel() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}

func (c *Config) Validate() error {
	if c.Raw.FrameKey == "" || c.Raw.TimestampKey == "" {
		return fmt.Errorf("raw frame_key and timestamp_key must be set")
	}
	if c.Reconstruct.Average < 1 {
		return fmt.Errorf("reconstruct average must be at least 1, got %d", c.Reconstruct.Average)
	}
	if len(c.Reconstruct.ROI) != 4 {
		return fmt.Errorf("reconstruct roi needs 4 bounds, got %d", len(c.Reconstruct.ROI))
	}
	if !(c.Detector.Eps > 0) || c.Detector.MinSamples < 1 || c.Detector.NImages < 0 {
		return fmt.Errorf("invalid detector settings: eps %v, min_samples %d, n_images %d",
			c.Detector.Eps, c.Detector.MinSamples, c.Detector.NImages)
	}
	if c.Export.Compression < 0 || c.Export.Compression > 3 {
		return fmt.Errorf("export compression must be 0-3, got %d", c.Export.Compression)
	}
	if c.Output.Suffix == "" {
		return fmt.Errorf("output suffix must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}
