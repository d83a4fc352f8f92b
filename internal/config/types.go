// Package config handles configuration loading and defaults.
package config

import "time"

// Source records where a configuration value came from.
type Source string

const (
	SourceDefault  Source = "default"
	SourceUserFile Source = "user file"
	SourceProjFile Source = "project file"
	SourceEnv      Source = "environment"
	SourceFlag     Source = "flag"
)

// Default values.
const (
	DefaultEndpoint    = "https://place.zevent.fr"
	DefaultWidth       = 700
	DefaultHeight      = 700
	DefaultConcurrency = 128
	DefaultTimeout     = 15
	DefaultRetries     = 1
	DefaultOutFile     = "levels.npy"
	DefaultTextFile    = "levels.txt"
	DefaultLogDir      = "~/.zlevels"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// Config holds the full configuration for zlevels.
type Config struct {
	// Remote endpoint
	Endpoint string `toml:"endpoint"`

	// Token is the bearer credential, supplied via ZPLACE_TOKEN or a
	// .env file, never via TOML or flags: it is a session secret.
	Token string `toml:"-"`

	// Canvas dimensions
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Fetch pass settings
	Concurrency    int `toml:"concurrency"`
	TimeoutSeconds int `toml:"timeout_seconds"`
	Retries        int `toml:"retries"`

	// Output artifacts
	OutFile  string `toml:"out_file"`
	TextFile string `toml:"text_file"`

	// Optional sector restriction
	SectorsFile string `toml:"sectors_file"`

	// Logging
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`

	// Sources maps field names to where their value came from (computed).
	Sources map[string]Source `toml:"-"`
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// setDefaults fills every field with its default and marks the sources.
func setDefaults(cfg *Config) {
	cfg.Endpoint = DefaultEndpoint
	cfg.Width = DefaultWidth
	cfg.Height = DefaultHeight
	cfg.Concurrency = DefaultConcurrency
	cfg.TimeoutSeconds = DefaultTimeout
	cfg.Retries = DefaultRetries
	cfg.OutFile = DefaultOutFile
	cfg.TextFile = DefaultTextFile
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat

	cfg.Sources = make(map[string]Source)
	for _, field := range configFields() {
		cfg.Sources[field] = SourceDefault
	}
}

// configFields lists the configurable field names used for source
// tracking and doctor output.
func configFields() []string {
	return []string{
		"endpoint",
		"token",
		"width",
		"height",
		"concurrency",
		"timeout_seconds",
		"retries",
		"out_file",
		"text_file",
		"sectors_file",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
	}
}
