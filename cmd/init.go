package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/eliegoudout/zlevels/internal/config"
)

// initCommand writes a commented starter config to the working directory.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zlevels init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing zlevels.toml")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	const path = "zlevels.toml"
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set ZPLACE_TOKEN in your environment or a .env file before fetching.")
	return nil
}
