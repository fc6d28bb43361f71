package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateStaging(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.QuarantineDir == "" {
		return errors.New("paths.quarantine_dir must be set")
	}
	if c.Paths.DatabasePath == "" {
		return errors.New("paths.database_path must be set")
	}
	for _, dir := range c.Paths.LibraryDirs {
		if dir == c.Paths.QuarantineDir {
			return fmt.Errorf("paths.quarantine_dir %q must not be a scanned library directory", dir)
		}
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.Workers <= 0 {
		return errors.New("scan.workers must be positive")
	}
	if c.Scan.Workers > 64 {
		return errors.New("scan.workers must be 64 or fewer")
	}
	if c.Scan.FFprobeTimeout <= 0 {
		return errors.New("scan.ffprobe_timeout must be positive")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if c.Dedupe.FuzzyThreshold <= 0 || c.Dedupe.FuzzyThreshold > 1 {
		return errors.New("dedupe.fuzzy_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateStaging() error {
	if c.Staging.ExpiryDays < 0 {
		return errors.New("staging.expiry_days must not be negative")
	}
	if c.Staging.PurgeInterval <= 0 {
		return errors.New("staging.purge_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
