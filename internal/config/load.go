package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
//  1. Defaults
//  2. User config file (~/.config/zlevels/zlevels.toml or ~/.zlevels/zlevels.toml)
//  3. Project config file (zlevels.toml or .zlevels.toml in the working directory)
//  4. .env file and environment variables
//  5. CLI flags
//
// The source of every value is tracked in Config.Sources.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes a TOML file over cfg, marking sources for the
// keys the file actually defines.
func loadConfigFile(cfg *Config, path string, source Source) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			cfg.Sources[field] = source
		}
	}
	return nil
}

// finalize expands paths and validates the assembled config.
func finalize(cfg *Config) error {
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.OutFile = expandPath(cfg.OutFile)
	cfg.TextFile = expandPath(cfg.TextFile)
	cfg.SectorsFile = expandPath(cfg.SectorsFile)

	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint is empty")
	}
	if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint %q is not a valid URL", cfg.Endpoint)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid canvas dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %ds", cfg.TimeoutSeconds)
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", cfg.Retries)
	}
	if cfg.OutFile == "" {
		return fmt.Errorf("out_file is empty")
	}
	return nil
}

// findUserConfigFile looks for the per-user config file.
func findUserConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidates := []string{
		filepath.Join(home, ".config", "zlevels", "zlevels.toml"),
		filepath.Join(home, ".zlevels", "zlevels.toml"),
	}
	for _, path := range candidates {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// findProjectConfigFile looks for a config file in the working directory.
func findProjectConfigFile() string {
	for _, name := range []string{"zlevels.toml", ".zlevels.toml"} {
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			return name
		}
	}
	return ""
}
