// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("RDI_REPAIR_LOG_LEVEL", "")
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Reconstruct.Average)
	assert.Equal(t, []int{0, 2048, 0, 2048}, cfg.Reconstruct.ROI)
	assert.Equal(t, 0.3, cfg.Detector.Eps)
	assert.Equal(t, 5, cfg.Detector.MinSamples)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "repair.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reconstruct:
  average: 5
detector:
  eps: 0.5
metadata:
  keys: [sample_lift, beamline_energy]
  fallback_to_all: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Reconstruct.Average)
	assert.Equal(t, []int{0, 2048, 0, 2048}, cfg.Reconstruct.ROI)
	assert.Equal(t, 0.5, cfg.Detector.Eps)
	assert.Equal(t, 5, cfg.Detector.MinSamples)
	assert.Equal(t, []string{"sample_lift", "beamline_energy"}, cfg.Metadata.Keys)
	assert.True(t, cfg.Metadata.FallbackToAll)
	assert.Equal(t, "entry/data/data", cfg.Raw.FrameKey)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reconstruct: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "repair.yaml")
	cfg := DefaultConfig()
	cfg.Reconstruct.ROI = []int{10, 20, 30, 40}
	cfg.Export.Compression = 2
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")
	t.Setenv("RDI_REPAIR_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Lock.Addr)
	assert.Equal(t, "/etc/creds.json", cfg.GCS.Credentials)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero average":    func(c *Config) { c.Reconstruct.Average = 0 },
		"short roi":       func(c *Config) { c.Reconstruct.ROI = []int{0, 1} },
		"zero eps":        func(c *Config) { c.Detector.Eps = 0 },
		"bad compression": func(c *Config) { c.Export.Compression = 4 },
		"bad level":       func(c *Config) { c.Logging.Level = "loud" },
		"no frame key":    func(c *Config) { c.Raw.FrameKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
