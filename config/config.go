// Package config assembles run configuration from defaults, a .env file,
// an optional YAML file and the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"portalfetch/database"
	"portalfetch/models"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" (plain slog records on stdout) or "console" (colored, stderr).
	LogFormat string `koanf:"log_format"`

	// DownloadDir receives the browser download, the output CSV and the marker.
	DownloadDir string `koanf:"download_dir"`

	// OutputFile is the normalized CSV, relative to DownloadDir unless absolute.
	OutputFile string `koanf:"output_file"`
	// MarkerFile is written at the end of every run, relative to DownloadDir.
	MarkerFile string `koanf:"marker_file"`
	// MetricsFile, when set, receives a Prometheus textfile after every run.
	MetricsFile string `koanf:"metrics_file"`

	ElementTimeout  time.Duration `koanf:"element_timeout"`
	DownloadTimeout time.Duration `koanf:"download_timeout"`
	PollInterval    time.Duration `koanf:"poll_interval"`

	// Browser settings.
	Headless    bool          `koanf:"headless"`
	ChromePath  string        `koanf:"chrome_path"`
	SettleDelay time.Duration `koanf:"settle_delay"`

	Plan     models.Plan     `koanf:"portal"`
	Database database.Config `koanf:"database"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		DownloadDir:     defaultDownloadDir(),
		OutputFile:      "infoshare_master.csv",
		MarkerFile:      "_run_marker.txt",
		ElementTimeout:  30 * time.Second,
		DownloadTimeout: 120 * time.Second,
		PollInterval:    time.Second,
		Headless:        true,
		SettleDelay:     500 * time.Millisecond,
		Plan:            models.DefaultPlan(),
		Database: database.Config{
			Table: "infoshare_master",
		},
	}
}

func defaultDownloadDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(wd, "downloads")
}

// OutputPath resolves OutputFile against DownloadDir.
func (c *Config) OutputPath() string {
	return c.resolve(c.OutputFile)
}

// MarkerPath resolves MarkerFile against DownloadDir.
func (c *Config) MarkerPath() string {
	return c.resolve(c.MarkerFile)
}

// MetricsPath resolves MetricsFile against DownloadDir; "" when disabled.
func (c *Config) MetricsPath() string {
	if c.MetricsFile == "" {
		return ""
	}
	return c.resolve(c.MetricsFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DownloadDir, name)
}
