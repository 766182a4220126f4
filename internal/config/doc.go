// Package config loads, normalizes, and validates Stream2Frame configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the scheduler and
// CLI need: spool and log directories, the external pipeline command and its
// timeout, notification settings, and the camera inventory.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
