package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	fs := flag.NewFlagSet("zlevels", flag.ContinueOnError)
	cfg, err := Load(fs, args)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

// chdir changes the working directory for the duration of the test,
// restoring the original directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := load(t)
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q, want default", cfg.Endpoint)
	}
	if cfg.Width != 700 || cfg.Height != 700 {
		t.Errorf("canvas = %dx%d, want 700x700", cfg.Width, cfg.Height)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.Retries != DefaultRetries {
		t.Errorf("retries = %d, want %d", cfg.Retries, DefaultRetries)
	}
	if cfg.Sources["concurrency"] != SourceDefault {
		t.Errorf("concurrency source = %s, want default", cfg.Sources["concurrency"])
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	content := "concurrency = 32\nretries = 3\nout_file = \"run.npy\"\n"
	if err := os.WriteFile(filepath.Join(dir, "zlevels.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)

	cfg := load(t)
	if cfg.Concurrency != 32 {
		t.Errorf("concurrency = %d, want 32", cfg.Concurrency)
	}
	if cfg.Retries != 3 {
		t.Errorf("retries = %d, want 3", cfg.Retries)
	}
	if cfg.OutFile != "run.npy" {
		t.Errorf("out_file = %q, want run.npy", cfg.OutFile)
	}
	if cfg.Sources["concurrency"] != SourceProjFile {
		t.Errorf("concurrency source = %s, want project file", cfg.Sources["concurrency"])
	}
	// Fields the file does not define stay at their defaults.
	if cfg.Sources["endpoint"] != SourceDefault {
		t.Errorf("endpoint source = %s, want default", cfg.Sources["endpoint"])
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "zlevels.toml"), []byte("concurrency = 32\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("ZLEVELS_CONCURRENCY", "64")
	t.Setenv("ZPLACE_TOKEN", "Bearer test")

	cfg := load(t)
	if cfg.Concurrency != 64 {
		t.Errorf("concurrency = %d, want 64 from env", cfg.Concurrency)
	}
	if cfg.Token != "Bearer test" {
		t.Errorf("token = %q, want env value", cfg.Token)
	}
	if cfg.Sources["token"] != SourceEnv {
		t.Errorf("token source = %s, want environment", cfg.Sources["token"])
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ZLEVELS_CONCURRENCY", "64")

	cfg := load(t, "-concurrency", "16", "-out", "other.npy")
	if cfg.Concurrency != 16 {
		t.Errorf("concurrency = %d, want 16 from flag", cfg.Concurrency)
	}
	if cfg.OutFile != "other.npy" {
		t.Errorf("out_file = %q, want other.npy", cfg.OutFile)
	}
	if cfg.Sources["concurrency"] != SourceFlag {
		t.Errorf("concurrency source = %s, want flag", cfg.Sources["concurrency"])
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"zero concurrency", []string{"-concurrency", "0"}},
		{"negative retries", []string{"-retries", "-1"}},
		{"zero timeout", []string{"-timeout", "0"}},
		{"empty endpoint", []string{"-endpoint", ""}},
		{"relative endpoint", []string{"-endpoint", "not-a-url"}},
		{"empty out file", []string{"-out", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("zlevels", flag.ContinueOnError)
			if _, err := Load(fs, tt.args); err == nil {
				t.Errorf("Load(%v): expected error", tt.args)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := expandPath("~/.zlevels"); got != filepath.Join(home, ".zlevels") {
		t.Errorf("expandPath(~/.zlevels) = %q", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(empty) = %q", got)
	}
	t.Setenv("ZLEVELS_TEST_DIR", "/tmp/zl")
	if got := expandPath("$ZLEVELS_TEST_DIR/out"); got != "/tmp/zl/out" {
		t.Errorf("expandPath($VAR) = %q", got)
	}
}

func TestExampleConfigParses(t *testing.T) {
	var cfg Config
	if _, err := toml.Decode(ExampleConfig(), &cfg); err != nil {
		t.Fatalf("example config is not valid TOML: %v", err)
	}
	if cfg.Width != 700 || cfg.Concurrency != 128 {
		t.Errorf("example config values off: width=%d concurrency=%d", cfg.Width, cfg.Concurrency)
	}
	if strings.Contains(ExampleConfig(), "token =") {
		t.Error("example config must not carry a token key")
	}
}
