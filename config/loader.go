package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"portalfetch/database"
)

// EnvConfigFile names the variable holding an optional YAML config path.
const EnvConfigFile = "PORTAL_CONFIG"

// Options tweak Load; the zero value loads .env from the working directory.
type Options struct {
	// EnvFiles are loaded with godotenv before reading the environment.
	// Missing files are ignored. Defaults to ".env".
	EnvFiles []string
	// ConfigFile overrides PORTAL_CONFIG.
	ConfigFile string
}

// Load builds a Config by layering sources.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file if PORTAL_CONFIG (or opts.ConfigFile) is set
//  3. env: DOWNLOAD_DIR, PORTAL_* and DB_*
//
// Variables from .env never override ones already set in the process.
func Load(_ context.Context, opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, name, err)
		}
	}

	// Start with defaults
	base := New()

	k := koanf.New(".")

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	for _, provider := range envProviders() {
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
		}
	}

	// Unmarshal into a copy so absent keys keep their defaults
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Chrome resolves a relative download path against its own working
	// directory, so hand it and the poller the same absolute path
	dir, err := filepath.Abs(cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("%w: download_dir: %v", ErrLoadConfig, err)
	}
	cfg.DownloadDir = dir
	if cfg.Database.Port == 0 {
		cfg.Database.Port = database.DefaultPort(cfg.Database.Type)
	}
	return &cfg, nil
}

// portalEnvKeys maps PORTAL_* suffixes to config keys. PORTAL_URL lives
// under the plan; everything else is top level.
var portalEnvKeys = map[string]string{
	"url": "portal.url",
}

func envProviders() []*env.Env {
	// DOWNLOAD_DIR is the one unprefixed variable, kept for compatibility
	// with existing CI jobs.
	downloadDir := env.Provider("DOWNLOAD_DIR", ".", func(s string) string {
		if s != "DOWNLOAD_DIR" {
			return ""
		}
		return "download_dir"
	})

	// PORTAL_ELEMENT_TIMEOUT -> element_timeout
	portal := env.Provider("PORTAL_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "PORTAL_"))
		if s == "config" {
			return ""
		}
		if key, ok := portalEnvKeys[s]; ok {
			return key
		}
		return s
	})

	// DB_HOST -> database.host
	db := env.Provider("DB_", ".", func(s string) string {
		return "database." + strings.ToLower(strings.TrimPrefix(s, "DB_"))
	})

	return []*env.Env{downloadDir, portal, db}
}

// Validate checks the values a run cannot work without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DownloadDir) == "":
		return fmt.Errorf("%w: download_dir must not be empty", ErrInvalidConfig)
	case c.OutputFile == "":
		return fmt.Errorf("%w: output_file must not be empty", ErrInvalidConfig)
	case c.MarkerFile == "":
		return fmt.Errorf("%w: marker_file must not be empty", ErrInvalidConfig)
	case c.ElementTimeout <= 0 || c.DownloadTimeout <= 0 || c.PollInterval <= 0:
		return fmt.Errorf("%w: timeouts and poll_interval must be positive", ErrInvalidConfig)
	case c.PollInterval > c.DownloadTimeout:
		return fmt.Errorf("%w: poll_interval exceeds download_timeout", ErrInvalidConfig)
	case c.Plan.PortalURL == "":
		return fmt.Errorf("%w: portal.url must not be empty", ErrInvalidConfig)
	case len(c.Plan.Steps) == 0:
		return fmt.Errorf("%w: portal.steps must list at least one link", ErrInvalidConfig)
	case c.Plan.SubmitName == "" && c.Plan.SubmitFallbackXPath == "":
		return fmt.Errorf("%w: portal needs submit_name or submit_fallback_xpath", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "console":
	default:
		return fmt.Errorf("%w: log_format %q (supported: text, console)", ErrInvalidConfig, c.LogFormat)
	}
	switch c.Database.Type {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("%w: database.type %q (supported: mysql, postgres)", ErrInvalidConfig, c.Database.Type)
	}
	if c.Database.Enabled() && (c.Database.Database == "" || c.Database.Table == "") {
		return fmt.Errorf("%w: database.name and database.table are required when database.type is set", ErrInvalidConfig)
	}
	return nil
}
