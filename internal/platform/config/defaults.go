package config

import "time"

const (
	DefaultHost           = "localhost"
	DefaultPort           = 8000
	DefaultUploadDir      = "./uploads"
	DefaultMaxFileSize    = 10 * 1024 * 1024
	DefaultFetchTimeout   = 15 * time.Second
	DefaultMaxConcurrency = 8
)

// Default returns a fully-populated configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "imaged.log",
		},
		Upload: UploadConfig{
			Dir:            DefaultUploadDir,
			MaxFileSize:    DefaultMaxFileSize,
			FetchTimeout:   "15s",
			MaxConcurrency: DefaultMaxConcurrency,
		},
	}
}

// applyDefaults fills in zero values left after file/flag merging.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = "logs"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "imaged.log"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = DefaultUploadDir
	}
	if cfg.Upload.MaxFileSize <= 0 {
		cfg.Upload.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Upload.MaxConcurrency <= 0 {
		cfg.Upload.MaxConcurrency = DefaultMaxConcurrency
	}
}
