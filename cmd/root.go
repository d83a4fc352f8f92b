// Package cmd implements the CLI command structure for zlevels.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/eliegoudout/zlevels/internal/config"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the zlevels CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("zlevels", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand; a bare invocation runs a fetch pass.
	subcommand := "fetch"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "fetch":
		return fetchCommand(ctx, cfg, remainingArgs)
	case "dump":
		return dumpCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(cfg, remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func versionCommand() error {
	fmt.Printf("zlevels %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `zlevels - bulk-fetch Zevent Place pixel levels into a dense grid

Usage:
  zlevels [command] [flags]

Commands:
  fetch     Run a fetch pass and write the grid (default)
  dump      Inspect a saved .npy grid
  doctor    Check configuration, credential, and endpoint
  init      Write an example zlevels.toml
  version   Show version
  help      Show this help

The bearer token is read from ZPLACE_TOKEN (environment or .env file).
Find it in your browser's dev tools after logging in at the canvas and
clicking a pixel; never share it.

Global flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  ZPLACE_TOKEN="Bearer ..." zlevels fetch -concurrency 128 -out levels.npy
  zlevels fetch -sector 217,231,259,273 -ui tui
  zlevels dump -txt levels.txt levels.npy
`)
}
