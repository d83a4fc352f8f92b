package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/eliegoudout/zlevels/internal/canvas"
	"github.com/eliegoudout/zlevels/internal/config"
	"github.com/eliegoudout/zlevels/internal/npy"
)

// maxHistogramRows caps the per-level breakdown; beyond it only the
// distinct count is printed.
const maxHistogramRows = 32

// dumpCommand reads a saved grid and prints a summary, optionally
// regenerating the text dump.
func dumpCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zlevels dump", flag.ContinueOnError)
	txt := fs.String("txt", "", "Write a text dump of the grid to this path")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := cfg.OutFile
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		path = rest[0]
	default:
		return fmt.Errorf("unexpected arguments: %v", rest[1:])
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	grid, err := npy.Read(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	missing := grid.Missing()
	total := grid.Width() * grid.Height()
	fmt.Printf("%s: %dx%d grid (%d cells)\n", path, grid.Height(), grid.Width(), total)
	fmt.Printf("  max level: %d\n", grid.Max())
	fmt.Printf("  missing:   %d (%.2f%%)\n", missing, 100*float64(missing)/float64(total))

	hist := make(map[int64]int)
	for _, level := range grid.Cells() {
		if level != canvas.LevelMissing {
			hist[level]++
		}
	}
	if len(hist) <= maxHistogramRows {
		fmt.Println("  levels:")
		for level := int64(0); level <= grid.Max(); level++ {
			if n := hist[level]; n > 0 {
				fmt.Printf("    %6d: %d\n", level, n)
			}
		}
	} else {
		fmt.Printf("  levels:    %d distinct values\n", len(hist))
	}

	if *txt == "" {
		return nil
	}
	out, err := os.Create(*txt)
	if err != nil {
		return fmt.Errorf("create %s: %w", *txt, err)
	}
	if err := canvas.WriteText(out, grid); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", *txt, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("  text dump: %s\n", *txt)
	return nil
}
