// Package npy reads and writes 2-D int64 grids in the NumPy NPY v1.0
// format, so a fetched level grid loads directly as a dense array in
// downstream analysis tools.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eliegoudout/zlevels/internal/canvas"
)

var magic = [6]byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// dtype is little-endian int64, the one dtype this tool produces.
const dtype = "<i8"

// headerAlign pads the magic+header prefix to a multiple of 64 bytes,
// as the NPY format requires.
const headerAlign = 64

// Write serializes the grid: magic, v1.0 header dict, then the raw
// row-major little-endian cells.
func Write(w io.Writer, g *canvas.Grid) error {
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }",
		dtype, g.Height(), g.Width())

	// Pad with spaces so magic(6) + version(2) + hlen(2) + header is
	// 64-byte aligned, newline-terminated.
	total := 6 + 2 + 2 + len(header) + 1
	pad := (headerAlign - total%headerAlign) % headerAlign
	header = header + strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, g.Cells())
}

// Read parses a grid previously written by Write. Only 2-D
// little-endian int64 C-order arrays are accepted.
func Read(r io.Reader) (*canvas.Grid, error) {
	var gotMagic [6]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("not an NPY file")
	}

	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version[0] != 1 {
		return nil, fmt.Errorf("unsupported NPY version %d.%d", version[0], version[1])
	}

	var hlen uint16
	if err := binary.Read(r, binary.LittleEndian, &hlen); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}
	raw := make([]byte, hlen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	height, width, err := parseHeader(string(raw))
	if err != nil {
		return nil, err
	}

	g, err := canvas.New(width, height)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, g.Cells()); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return g, nil
}

// parseHeader extracts shape from the header dict and rejects anything
// but a C-order 2-D <i8 array.
func parseHeader(header string) (height, width int, err error) {
	if !strings.Contains(header, "'descr': '"+dtype+"'") {
		return 0, 0, fmt.Errorf("unsupported dtype in header %q (want %s)", strings.TrimSpace(header), dtype)
	}
	if !strings.Contains(header, "'fortran_order': False") {
		return 0, 0, fmt.Errorf("fortran-order arrays are not supported")
	}

	open := strings.Index(header, "(")
	close := strings.Index(header, ")")
	if open < 0 || close < open {
		return 0, 0, fmt.Errorf("no shape in header %q", strings.TrimSpace(header))
	}
	parts := strings.Split(header[open+1:close], ",")
	var dims []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, fmt.Errorf("bad shape dimension %q: %w", p, err)
		}
		dims = append(dims, n)
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("want a 2-D array, got %d dimensions", len(dims))
	}
	return dims[0], dims[1], nil
}
