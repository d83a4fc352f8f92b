// Package fetch runs the bulk level pass: one request per coordinate,
// bounded concurrency, per-coordinate failure containment, fatal
// short-circuit on credential rejection.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eliegoudout/zlevels/internal/canvas"
	"github.com/eliegoudout/zlevels/internal/zplace"
)

// DefaultConcurrency bounds in-flight requests. Unbounded issuance would
// exhaust sockets or trip the server's abuse protection; sequential
// fetching of 490k pixels would take hours.
const DefaultConcurrency = 128

// DefaultRetries is the uniform per-coordinate retry budget for
// recoverable errors. After the budget the coordinate is recorded as
// missing, never dropped.
const DefaultRetries = 1

// LevelSource fetches the level of a single coordinate.
type LevelSource interface {
	PixelLevel(ctx context.Context, coord canvas.Coordinate) (int64, error)
}

// Failure records one coordinate that stayed missing after retries.
type Failure struct {
	Coord    canvas.Coordinate `json:"-"`
	X        int               `json:"x"`
	Y        int               `json:"y"`
	Class    zplace.Class      `json:"class"`
	Err      string            `json:"error"`
	Attempts int               `json:"attempts"`
}

// Report is the final accounting of a pass. Missing plus Fetched always
// equals Total on a non-fatal run, so the grid's completeness can be
// judged before the output is trusted.
type Report struct {
	Total   int
	Fetched int
	Missing int
	Retried int
	ByClass map[zplace.Class]int
	Elapsed time.Duration
}

// Status is a progress event for the TUI or the console progress line.
type Status struct {
	Completed int
	Failed    int
	Total     int
}

// Fetcher runs bulk passes against one level source.
type Fetcher struct {
	source        LevelSource
	concurrency   int
	retries       int
	logger        *log.Logger
	statusCh      chan<- Status
	onFailure     func(Failure)
	progressEvery time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithConcurrency sets the in-flight request bound K. Values below one
// fall back to the default.
func WithConcurrency(k int) Option {
	return func(f *Fetcher) {
		if k > 0 {
			f.concurrency = k
		}
	}
}

// WithRetries sets the per-coordinate retry budget for recoverable errors.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithLogger routes progress and failure lines through the given logger.
func WithLogger(logger *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithStatusChannel emits progress events to ch. Sends never block; a
// slow consumer only misses intermediate snapshots.
func WithStatusChannel(ch chan<- Status) Option {
	return func(f *Fetcher) {
		f.statusCh = ch
	}
}

// WithFailureSink calls fn for every coordinate recorded as missing.
func WithFailureSink(fn func(Failure)) Option {
	return func(f *Fetcher) {
		f.onFailure = fn
	}
}

// New builds a Fetcher around a level source.
func New(source LevelSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:        source,
		concurrency:   DefaultConcurrency,
		retries:       DefaultRetries,
		progressEvery: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run fetches every coordinate into the grid and blocks until the pass
// is complete or fatally aborted. Completion order is unconstrained; the
// returned report is the single barrier before serialization.
//
// A credential rejection cancels the pass: no new requests are issued
// and the error surfaces immediately instead of draining 490k doomed
// calls. Per-coordinate failures never abort the pass; after the retry
// budget the cell is set to canvas.LevelMissing and the failure logged.
func (f *Fetcher) Run(ctx context.Context, grid *canvas.Grid, coords []canvas.Coordinate) (*Report, error) {
	for _, c := range coords {
		if !grid.Contains(c) {
			return nil, fmt.Errorf("coordinate %s outside %dx%d grid", c, grid.Height(), grid.Width())
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	report := &Report{
		Total:   len(coords),
		ByClass: make(map[zplace.Class]int),
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		fatal     error
		completed int
	)
	semaphore := make(chan struct{}, f.concurrency)
	start := time.Now()

	stopProgress := f.startProgress(&mu, &completed, report)
	defer stopProgress()

	for _, coord := range coords {
		if ctx.Err() != nil {
			break
		}

		// Issuing the (K+1)-th request suspends here until a slot frees.
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(coord canvas.Coordinate) {
			defer wg.Done()
			defer func() { <-semaphore }()

			level, attempts, err := f.fetchOne(ctx, coord)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if attempts > 1 {
				report.Retried++
			}

			switch {
			case err == nil:
				grid.Set(coord, level)
				report.Fetched++
			case errors.Is(err, zplace.ErrUnauthorized):
				if fatal == nil {
					fatal = err
				}
				cancel()
			case errors.Is(err, context.Canceled):
				// Pass aborted mid-request; not a per-coordinate failure.
			default:
				grid.Set(coord, canvas.LevelMissing)
				report.Missing++
				class := zplace.Classify(err)
				report.ByClass[class]++
				failure := Failure{
					Coord:    coord,
					X:        coord.X,
					Y:        coord.Y,
					Class:    class,
					Err:      err.Error(),
					Attempts: attempts,
				}
				if f.onFailure != nil {
					f.onFailure(failure)
				}
				if f.logger != nil {
					f.logger.Warn("coordinate recorded as missing",
						"pixel", coord.String(), "class", string(class), "attempts", attempts, "err", err)
				}
			}
			f.emitStatus(completed, report.Missing, report.Total)
		}(coord)
	}

	wg.Wait()
	report.Elapsed = time.Since(start)

	if fatal != nil {
		return report, fmt.Errorf("authentication rejected, aborting pass: %w", fatal)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// fetchOne applies the uniform retry policy to a single coordinate and
// returns the number of attempts made. Credential rejections are never
// retried.
func (f *Fetcher) fetchOne(ctx context.Context, coord canvas.Coordinate) (int64, int, error) {
	var lastErr error
	attempts := 0
	for attempts <= f.retries {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			break
		}
		attempts++
		level, err := f.source.PixelLevel(ctx, coord)
		if err == nil {
			return level, attempts, nil
		}
		lastErr = err
		if errors.Is(err, zplace.ErrUnauthorized) {
			break
		}
	}
	return 0, attempts, lastErr
}

func (f *Fetcher) emitStatus(completed, failed, total int) {
	if f.statusCh == nil {
		return
	}
	select {
	case f.statusCh <- Status{Completed: completed, Failed: failed, Total: total}:
	default:
	}
}

// startProgress logs a periodic progress line when a logger is set and
// returns a stop function.
func (f *Fetcher) startProgress(mu *sync.Mutex, completed *int, report *Report) func() {
	if f.logger == nil || f.progressEvery <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(f.progressEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu.Lock()
				f.logger.Info("fetching",
					"done", *completed, "total", report.Total, "missing", report.Missing)
				mu.Unlock()
			}
		}
	}()
	return func() { close(done) }
}

// LogReport writes the final accounting through the logger.
func LogReport(logger *log.Logger, report *Report) {
	if logger == nil || report == nil {
		return
	}
	fields := []any{
		"total", report.Total,
		"fetched", report.Fetched,
		"missing", report.Missing,
		"retried", report.Retried,
		"elapsed", report.Elapsed.Round(time.Millisecond).String(),
	}
	for _, class := range []zplace.Class{zplace.ClassTransient, zplace.ClassMalformed, zplace.ClassAuth} {
		if n := report.ByClass[class]; n > 0 {
			fields = append(fields, string(class), n)
		}
	}
	if report.Missing > 0 {
		logger.Warn("pass complete with missing coordinates", fields...)
		return
	}
	logger.Info("pass complete", fields...)
}
