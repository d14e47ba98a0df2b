package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional yaml file, the environment,
// and command-line overrides, in that order of precedence (lowest first).
type Loader struct {
	path      string
	useDotEnv bool
	overrides Overrides
}

// Overrides carries command-line values that take precedence over the file.
type Overrides struct {
	Host      string
	Port      int
	UploadDir string
}

// NewLoader creates a loader reading from the given config file path; an
// empty path means built-in defaults only.
func NewLoader(path string) *Loader {
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithOverrides installs command-line overrides applied after the file.
func (l *Loader) WithOverrides(o Overrides) *Loader {
	l.overrides = o
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load retrieves configuration: defaults, then file, then environment, then
// command-line overrides.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			// No .env file; the process environment is used as-is.
			_ = err
		}
	}

	cfg := Default()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %s: %w", l.path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
		}
	}

	if level := os.Getenv("IMAGED_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if dir := os.Getenv("IMAGED_UPLOAD_DIR"); dir != "" {
		cfg.Upload.Dir = dir
	}

	if l.overrides.Host != "" {
		cfg.Server.Host = l.overrides.Host
	}
	if l.overrides.Port != 0 {
		cfg.Server.Port = l.overrides.Port
	}
	if l.overrides.UploadDir != "" {
		cfg.Upload.Dir = l.overrides.UploadDir
	}

	applyDefaults(cfg)

	return &Result{
		Config: cfg,
		Path:   l.path,
	}, nil
}
