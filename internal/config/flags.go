package config

import (
	"flag"
)

// parseFlags defines and parses the global CLI flags, which override
// every other source. The token deliberately has no flag: secrets on
// the command line leak into shell history and process listings.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("zlevels", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "API base URL")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Max in-flight requests")
	fs.IntVar(&cfg.TimeoutSeconds, "timeout", cfg.TimeoutSeconds, "Per-request timeout (seconds)")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries per coordinate on recoverable errors")
	fs.StringVar(&cfg.OutFile, "out", cfg.OutFile, "Output .npy path")
	fs.StringVar(&cfg.TextFile, "txt", cfg.TextFile, "Text dump path (empty disables)")
	fs.StringVar(&cfg.SectorsFile, "sectors", cfg.SectorsFile, "Sector file restricting the pass")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for per-run failure logs")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Timestamp log lines")

	if err := fs.Parse(args); err != nil {
		return err
	}

	flagField := map[string]string{
		"endpoint":       "endpoint",
		"concurrency":    "concurrency",
		"timeout":        "timeout_seconds",
		"retries":        "retries",
		"out":            "out_file",
		"txt":            "text_file",
		"sectors":        "sectors_file",
		"log-dir":        "log_dir",
		"log-level":      "log_level",
		"log-format":     "log_format",
		"log-timestamps": "log_timestamps",
	}
	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagField[f.Name]; ok {
			cfg.Sources[field] = SourceFlag
		}
	})
	return nil
}
