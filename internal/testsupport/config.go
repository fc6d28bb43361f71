// Package testsupport provides shared helpers for package tests: temp-backed
// configs, open stores with cleanup, and sized file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"mediavault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDirs = []string{filepath.Join(base, "library")}
	cfg.Paths.QuarantineDir = filepath.Join(base, "quarantine")
	cfg.Paths.DatabasePath = filepath.Join(base, "mediavault.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLibraryDirs overrides the scanned library roots.
func WithLibraryDirs(dirs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.LibraryDirs = dirs
	}
}

// WithFuzzyThreshold overrides the dedupe similarity threshold.
func WithFuzzyThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dedupe.FuzzyThreshold = threshold
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.QuarantineDir)
}
