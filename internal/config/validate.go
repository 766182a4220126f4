package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		return errors.New("paths.spool_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if strings.TrimSpace(c.Processing.Command) == "" {
		return errors.New("processing.command must be set")
	}
	if c.Processing.TimeoutHours < 0 {
		return errors.New("processing.timeout_hours must not be negative")
	}
	if c.Processing.LookbackDays < 0 {
		return errors.New("processing.lookback_days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateReport() error {
	if !c.Report.Enabled {
		return nil
	}
	if c.Report.MinFrames < 0 {
		return errors.New("report.min_frames must not be negative")
	}
	return nil
}
