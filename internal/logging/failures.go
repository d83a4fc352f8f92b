package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/eliegoudout/zlevels/internal/fetch"
)

// FailureLog appends one JSONL line per coordinate that stayed missing
// after retries, so a later pass can re-fetch exactly the failed subset.
type FailureLog struct {
	RunID string
	Path  string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	n    int
}

// NewFailureLog creates <dir>/<run-id>.jsonl, creating dir if needed.
func NewFailureLog(dir string) (*FailureLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("failure log dir is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create failure log dir: %w", err)
	}

	id := runID()
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", id))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create failure log: %w", err)
	}

	return &FailureLog{
		RunID: id,
		Path:  path,
		file:  file,
		enc:   json.NewEncoder(file),
	}, nil
}

// Record appends one failure. Safe for concurrent use.
func (l *FailureLog) Record(f fetch.Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return l.enc.Encode(f)
}

// Count returns the number of recorded failures.
func (l *FailureLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Close closes the log file. Closing with no recorded failures removes
// the empty file.
func (l *FailureLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err == nil && l.n == 0 {
		err = os.Remove(l.Path)
	}
	return err
}

func runID() string {
	return fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102-150405"), os.Getpid())
}
