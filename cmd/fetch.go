package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eliegoudout/zlevels/internal/canvas"
	"github.com/eliegoudout/zlevels/internal/config"
	"github.com/eliegoudout/zlevels/internal/fetch"
	"github.com/eliegoudout/zlevels/internal/logging"
	"github.com/eliegoudout/zlevels/internal/npy"
	"github.com/eliegoudout/zlevels/internal/sectors"
	"github.com/eliegoudout/zlevels/internal/ui"
	"github.com/eliegoudout/zlevels/internal/zplace"
)

// fetchCommand runs one bulk fetch pass and writes the output grid.
func fetchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("zlevels fetch", flag.ContinueOnError)
	concurrency := fs.Int("concurrency", cfg.Concurrency, "Max in-flight requests")
	timeout := fs.Int("timeout", cfg.TimeoutSeconds, "Per-request timeout (seconds)")
	retries := fs.Int("retries", cfg.Retries, "Retries per coordinate on recoverable errors")
	out := fs.String("out", cfg.OutFile, "Output .npy path")
	txt := fs.String("txt", cfg.TextFile, "Text dump path (empty disables)")
	sectorFlag := fs.String("sector", "", "Restrict the pass to one sector (x1,y1,x2,y2)")
	sectorsFile := fs.String("sectors", cfg.SectorsFile, "Sector file restricting the pass")
	uiMode := fs.String("ui", "", "UI mode (tui for live progress)")
	dryRun := fs.Bool("dry-run", false, "Enumerate the work set and exit without requests")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	cfg.Concurrency = *concurrency
	cfg.TimeoutSeconds = *timeout
	cfg.Retries = *retries
	cfg.OutFile = *out
	cfg.TextFile = *txt
	cfg.SectorsFile = *sectorsFile

	logger := logging.NewConsole(os.Stderr, logging.ConsoleOptions{
		Level:           logging.ParseLevel(cfg.LogLevel),
		Formatter:       logging.ParseFormatter(cfg.LogFormat),
		ReportTimestamp: cfg.LogTimestamps,
		Prefix:          "zlevels",
	})

	coords, err := workSet(cfg, *sectorFlag)
	if err != nil {
		return err
	}

	if *dryRun {
		logger.Info("dry run",
			"canvas", fmt.Sprintf("%dx%d", cfg.Height, cfg.Width),
			"coordinates", len(coords),
			"concurrency", cfg.Concurrency,
			"out", cfg.OutFile)
		return nil
	}

	if cfg.Token == "" {
		return fmt.Errorf("no credential: set ZPLACE_TOKEN (or put it in a .env file); " +
			"find the session token in your browser's dev tools after clicking a pixel on the canvas")
	}

	grid, err := canvas.New(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}

	failureLog, err := logging.NewFailureLog(cfg.LogDir)
	if err != nil {
		return err
	}
	defer failureLog.Close()

	client := zplace.NewClient(cfg.Endpoint, cfg.Token, zplace.WithTimeout(cfg.Timeout()))

	opts := []fetch.Option{
		fetch.WithConcurrency(cfg.Concurrency),
		fetch.WithRetries(cfg.Retries),
		fetch.WithFailureSink(func(f fetch.Failure) {
			if err := failureLog.Record(f); err != nil {
				logger.Error("failure log write failed", "err", err)
			}
		}),
	}

	var report *fetch.Report
	if *uiMode == "tui" {
		report, err = runWithProgress(ctx, client, grid, coords, opts)
	} else {
		opts = append(opts, fetch.WithLogger(logger))
		logger.Info("starting pass",
			"coordinates", len(coords), "concurrency", cfg.Concurrency, "retries", cfg.Retries)
		fetcher := fetch.New(client, opts...)
		report, err = fetcher.Run(ctx, grid, coords)
	}
	if err != nil {
		return err
	}

	if err := writeGrid(grid, cfg.OutFile, cfg.TextFile); err != nil {
		return err
	}

	fetch.LogReport(logger, report)
	logger.Info("grid written", "npy", cfg.OutFile)
	if cfg.TextFile != "" {
		logger.Info("text dump written", "txt", cfg.TextFile)
	}
	if report.Missing > 0 {
		logger.Warn("failed coordinates recorded", "log", failureLog.Path)
	}
	return nil
}

// runWithProgress runs the pass behind the live progress display.
func runWithProgress(ctx context.Context, client *zplace.Client, grid *canvas.Grid, coords []canvas.Coordinate, opts []fetch.Option) (*fetch.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statusCh := make(chan fetch.Status, 64)
	opts = append(opts, fetch.WithStatusChannel(statusCh))
	fetcher := fetch.New(client, opts...)

	type outcome struct {
		report *fetch.Report
		err    error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		report, err := fetcher.Run(ctx, grid, coords)
		close(statusCh)
		resultCh <- outcome{report: report, err: err}
	}()

	if err := ui.RunProgress(ctx, cancel, len(coords), statusCh); err != nil {
		cancel()
		res := <-resultCh
		if res.err != nil {
			return res.report, res.err
		}
		return res.report, err
	}
	res := <-resultCh
	return res.report, res.err
}

// workSet enumerates the coordinates of this pass.
func workSet(cfg *config.Config, sectorFlag string) ([]canvas.Coordinate, error) {
	if sectorFlag != "" && cfg.SectorsFile != "" {
		return nil, fmt.Errorf("-sector and -sectors are mutually exclusive")
	}

	if sectorFlag != "" {
		s, err := canvas.ParseSector(sectorFlag)
		if err != nil {
			return nil, err
		}
		if err := s.Valid(cfg.Width, cfg.Height); err != nil {
			return nil, err
		}
		return s.Coordinates(), nil
	}

	if cfg.SectorsFile != "" {
		f, err := sectors.Load(cfg.SectorsFile)
		if err != nil {
			return nil, err
		}
		if result := f.Validate(cfg.Width, cfg.Height); !result.Valid {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  - %v\n", e)
			}
			return nil, fmt.Errorf("invalid sector file %s", cfg.SectorsFile)
		}
		return f.Coordinates(), nil
	}

	return canvas.FullCanvas(cfg.Width, cfg.Height).Coordinates(), nil
}

// writeGrid persists the pass artifacts: the .npy grid and, when
// enabled, the human-readable dump.
func writeGrid(grid *canvas.Grid, npyPath, txtPath string) error {
	npyFile, err := os.Create(npyPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", npyPath, err)
	}
	if err := npy.Write(npyFile, grid); err != nil {
		npyFile.Close()
		return fmt.Errorf("write %s: %w", npyPath, err)
	}
	if err := npyFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", npyPath, err)
	}

	if txtPath == "" {
		return nil
	}
	txtFile, err := os.Create(txtPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", txtPath, err)
	}
	if err := canvas.WriteText(txtFile, grid); err != nil {
		txtFile.Close()
		return fmt.Errorf("write %s: %w", txtPath, err)
	}
	return txtFile.Close()
}
