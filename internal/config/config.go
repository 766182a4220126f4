package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SpoolDir  string `toml:"spool_dir"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
}

// Processing contains configuration for the external conversion pipeline.
type Processing struct {
	Command      string   `toml:"command"`
	Args         []string `toml:"args"`
	WorkDir      string   `toml:"workdir"`
	TimeoutHours int      `toml:"timeout_hours"`
	LookbackDays int      `toml:"lookback_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Runs           bool   `toml:"runs"`
	Errors         bool   `toml:"errors"`
	Cameras        bool   `toml:"cameras"`
}

// Report contains configuration for the per-camera transfer audit.
type Report struct {
	Enabled      bool   `toml:"enabled"`
	DatabasePath string `toml:"database_path"`
	MinFrames    int    `toml:"min_frames"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Stream2Frame.
//
// Configuration sections by subsystem:
//   - Paths: spool, log, and collaborator output directories
//   - Processing: external pipeline command, timeout, and lookback window
//   - Notifications: ntfy push notification settings
//   - Report: per-camera frame audit database
//   - Logging: log format and level
//   - Cameras: camera name to MAC address inventory
type Config struct {
	Paths         Paths             `toml:"paths"`
	Processing    Processing        `toml:"processing"`
	Notifications Notifications     `toml:"notifications"`
	Report        Report            `toml:"report"`
	Logging       Logging           `toml:"logging"`
	Cameras       map[string]string `toml:"cameras"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stream2frame/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stream2frame.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	expanded := []*string{
		&c.Paths.SpoolDir,
		&c.Paths.LogDir,
		&c.Paths.OutputDir,
		&c.Processing.WorkDir,
		&c.Report.DatabasePath,
	}
	for _, target := range expanded {
		if strings.TrimSpace(*target) == "" {
			continue
		}
		path, err := expandPath(*target)
		if err != nil {
			return err
		}
		*target = path
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Report.Enabled && strings.TrimSpace(c.Report.DatabasePath) == "" {
		c.Report.DatabasePath = filepath.Join(c.Paths.LogDir, "camera_stats.db")
	}
	return nil
}

// EnsureDirectories creates required directories for scheduler operation.
// OutputDir is created on a best-effort basis so status commands keep working
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SpoolDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// Timeout returns the wall-clock bound applied to a single collaborator run.
func (c *Config) Timeout() time.Duration {
	hours := c.Processing.TimeoutHours
	if hours <= 0 {
		hours = defaultTimeoutHours
	}
	return time.Duration(hours) * time.Hour
}

// LookbackDays returns how far behind "today" the default target date lies.
func (c *Config) LookbackDays() int {
	if c.Processing.LookbackDays <= 0 {
		return defaultLookbackDays
	}
	return c.Processing.LookbackDays
}

// LockPath returns the scheduler lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "stream2frame.lock")
}

// StatusPath returns the status register file location.
func (c *Config) StatusPath() string {
	return filepath.Join(c.Paths.LogDir, "processing_status.txt")
}

// HistoryPath returns the history log file location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "processing_history.csv")
}

// DatePath returns the collaborator output directory for a calendar date.
// The partitioning convention uses no leading zeros.
func (c *Config) DatePath(year, month, day int) string {
	return filepath.Join(c.Paths.OutputDir, fmt.Sprintf("%d/%d/%d", year, month, day))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
