package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/eliegoudout/zlevels/internal/config"
	"github.com/eliegoudout/zlevels/internal/sectors"
	"github.com/eliegoudout/zlevels/internal/zplace"
)

// doctorCommand checks configuration, credentials, and output paths.
func doctorCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zlevels doctor", flag.ContinueOnError)
	probe := fs.Bool("probe", false, "Send one authenticated request to verify the credential")
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	fmt.Println("Zlevels Doctor")
	fmt.Println("==============")
	fmt.Println()

	allOK := true

	// Check endpoint
	fmt.Printf("Endpoint: %s (%s)\n", cfg.Endpoint, cfg.Sources["endpoint"])
	if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		fmt.Println("  ❌ Error: not an absolute URL")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	// Check credential
	fmt.Println("Credential: ZPLACE_TOKEN")
	if cfg.Token == "" {
		fmt.Println("  ❌ Not set (export ZPLACE_TOKEN or put it in a .env file)")
		allOK = false
	} else {
		fmt.Printf("  ✅ Present (%d characters)\n", len(cfg.Token))
	}
	fmt.Println()

	// Check canvas dimensions
	fmt.Printf("Canvas: %dx%d (%s, %s)\n", cfg.Height, cfg.Width, cfg.Sources["height"], cfg.Sources["width"])
	if cfg.Width <= 0 || cfg.Height <= 0 {
		fmt.Println("  ❌ Error: dimensions must be positive")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	// Check pass settings
	fmt.Printf("Pass settings: concurrency=%d timeout=%ds retries=%d\n",
		cfg.Concurrency, cfg.TimeoutSeconds, cfg.Retries)
	if cfg.Concurrency <= 0 || cfg.TimeoutSeconds <= 0 || cfg.Retries < 0 {
		fmt.Println("  ❌ Error: invalid values")
		allOK = false
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	// Check output path
	fmt.Printf("Output file: %s (%s)\n", cfg.OutFile, cfg.Sources["out_file"])
	if info, err := os.Stat(cfg.OutFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created on fetch)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if info.IsDir() {
		fmt.Println("  ❌ Error: path is a directory")
		allOK = false
	} else {
		fmt.Println("  ✅ OK (will be overwritten on fetch)")
	}
	fmt.Println()

	// Check log directory
	fmt.Printf("Log directory: %s (%s)\n", cfg.LogDir, cfg.Sources["log_dir"])
	if _, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created on fetch)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	// Check sector file
	if cfg.SectorsFile != "" {
		fmt.Printf("Sector file: %s (%s)\n", cfg.SectorsFile, cfg.Sources["sectors_file"])
		f, err := sectors.Load(cfg.SectorsFile)
		if err != nil {
			fmt.Printf("  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			result := f.Validate(cfg.Width, cfg.Height)
			if result.Valid {
				fmt.Printf("  ✅ Valid (%d sectors, %d coordinates)\n",
					len(f.Sectors), len(f.Coordinates()))
				if *verbose {
					for _, s := range f.Sectors {
						fmt.Printf("    - %s (%d cells)\n", s, s.Size())
					}
				}
			} else {
				fmt.Println("  ❌ Validation failed:")
				for _, e := range result.Errors {
					fmt.Printf("     - %v\n", e)
				}
				allOK = false
			}
		}
		fmt.Println()
	}

	// Opt-in remote probe
	if *probe {
		fmt.Printf("Remote probe: %s\n", cfg.Endpoint)
		if cfg.Token == "" {
			fmt.Println("  ❌ Skipped: no credential")
			allOK = false
		} else {
			client := zplace.NewClient(cfg.Endpoint, cfg.Token, zplace.WithTimeout(cfg.Timeout()))
			if err := client.Probe(ctx); err != nil {
				fmt.Printf("  ❌ Error: %v\n", err)
				allOK = false
			} else {
				fmt.Println("  ✅ OK")
			}
		}
		fmt.Println()
	}

	// Overall status
	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. Zlevels may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}
