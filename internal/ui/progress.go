// Package ui provides the optional terminal progress display for a
// fetch pass.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eliegoudout/zlevels/internal/fetch"
)

const barWidth = 40

// RunProgress renders a live progress display until statusCh closes.
// Quitting the display (q, ctrl+c) calls cancel to abort the pass, then
// keeps draining events until the fetcher winds down.
func RunProgress(ctx context.Context, cancel context.CancelFunc, total int, statusCh <-chan fetch.Status) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("progress display requires a TTY")
	}
	model := &progressModel{
		total:    total,
		cancel:   cancel,
		statusCh: statusCh,
		start:    time.Now(),
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type progressModel struct {
	total    int
	cancel   context.CancelFunc
	statusCh <-chan fetch.Status
	start    time.Time
	last     fetch.Status
	aborting bool
	done     bool
}

type statusMsg struct {
	status fetch.Status
}

type passDoneMsg struct{}

type tickMsg time.Time

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(waitForStatus(m.statusCh), tickCmd())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Stop issuing requests; quit once in-flight work drains.
			m.aborting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	case statusMsg:
		m.last = msg.status
		return m, waitForStatus(m.statusCh)
	case passDoneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder

	completed := m.last.Completed
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(completed) / float64(m.total)
	}

	filled := int(ratio * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	elapsed := time.Since(m.start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	b.WriteString(fmt.Sprintf("Fetching levels  [%s] %5.1f%%\n", bar, ratio*100))
	b.WriteString(fmt.Sprintf("  %d/%d pixels", completed, m.total))
	if m.last.Failed > 0 {
		b.WriteString(fmt.Sprintf("  |  %d missing", m.last.Failed))
	}
	if rate > 0 {
		b.WriteString(fmt.Sprintf("  |  %.0f px/s", rate))
		if remaining := m.total - completed; remaining > 0 {
			eta := time.Duration(float64(remaining)/rate) * time.Second
			b.WriteString(fmt.Sprintf("  |  ETA %s", eta.Round(time.Second)))
		}
	}
	b.WriteString("\n")

	switch {
	case m.aborting && !m.done:
		b.WriteString("Aborting, draining in-flight requests...\n")
	case m.done:
		b.WriteString("Done.\n")
	default:
		b.WriteString("Press q to abort.\n")
	}
	return b.String()
}

func waitForStatus(ch <-chan fetch.Status) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return passDoneMsg{}
		}
		return statusMsg{status: status}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
