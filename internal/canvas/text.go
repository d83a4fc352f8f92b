package canvas

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteText writes the grid as one whitespace-delimited row per line,
// for manual inspection.
func WriteText(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	for x := 0; x < g.Height(); x++ {
		row := g.Row(x)
		for y, v := range row {
			if y > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatInt(v, 10)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses a grid previously written by WriteText. All rows must
// have the same length.
func ReadText(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows [][]int64
	width := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if width < 0 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("row %d: got %d values, want %d", len(rows), len(fields), width)
		}
		row := make([]int64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", len(rows), err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty grid")
	}

	g, err := New(width, len(rows))
	if err != nil {
		return nil, err
	}
	for x, row := range rows {
		copy(g.Row(x), row)
	}
	return g, nil
}
