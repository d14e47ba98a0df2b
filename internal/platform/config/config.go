package config

import (
	"strings"
	"time"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Upload UploadConfig `yaml:"upload"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// UploadConfig bounds the ingestion pipeline: where files land, how large a
// single image may be, and how remote fetches are limited.
type UploadConfig struct {
	Dir            string `yaml:"dir"`
	MaxFileSize    int64  `yaml:"max_file_size"`
	FetchTimeout   string `yaml:"fetch_timeout"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

// FetchTimeoutDuration parses the configured fetch timeout, falling back to
// the default when the value is empty or unparsable.
func (u UploadConfig) FetchTimeoutDuration() time.Duration {
	value := strings.TrimSpace(u.FetchTimeout)
	if value == "" {
		return DefaultFetchTimeout
	}
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return DefaultFetchTimeout
	}
	return duration
}
