// Package canvas models the Zevent Place canvas: coordinates, sectors, and
// the dense level grid assembled by a fetch pass.
package canvas

import (
	"fmt"
)

// Canvas dimensions of the 2022 Zevent Place.
const (
	DefaultWidth  = 700
	DefaultHeight = 700
)

// LevelMissing marks a coordinate whose level could not be fetched.
// Real levels are non-negative.
const LevelMissing int64 = -1

// Coordinate addresses one canvas cell. X is the row, Y the column.
// The remote API inverts this convention; the inversion lives in the
// API client only.
type Coordinate struct {
	X int
	Y int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is a dense Height x Width matrix of pixel levels, row-major.
// Cells start at zero, are written at most once per fetch pass, and the
// grid is not mutated after the pass barrier.
type Grid struct {
	width  int
	height int
	cells  []int64
}

// New allocates a zero-filled grid.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]int64, width*height),
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Contains reports whether c lies on the grid.
func (g *Grid) Contains(c Coordinate) bool {
	return c.X >= 0 && c.X < g.height && c.Y >= 0 && c.Y < g.width
}

// Set writes the level for one coordinate.
func (g *Grid) Set(c Coordinate, level int64) error {
	if !g.Contains(c) {
		return fmt.Errorf("coordinate %s outside %dx%d grid", c, g.height, g.width)
	}
	g.cells[c.X*g.width+c.Y] = level
	return nil
}

// At returns the level at one coordinate.
func (g *Grid) At(c Coordinate) int64 {
	return g.cells[c.X*g.width+c.Y]
}

// Row returns one row of the grid. The returned slice aliases the grid.
func (g *Grid) Row(x int) []int64 {
	return g.cells[x*g.width : (x+1)*g.width]
}

// Cells returns the backing row-major cell slice. The slice aliases the
// grid; callers must not mutate it after the pass barrier.
func (g *Grid) Cells() []int64 {
	return g.cells
}

// Missing counts cells holding the LevelMissing sentinel.
func (g *Grid) Missing() int {
	n := 0
	for _, v := range g.cells {
		if v == LevelMissing {
			n++
		}
	}
	return n
}

// Max returns the highest level on the grid, ignoring missing cells.
func (g *Grid) Max() int64 {
	var max int64
	for _, v := range g.cells {
		if v > max {
			max = v
		}
	}
	return max
}

// Equal reports whether two grids have identical dimensions and cells.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.width != other.width || g.height != other.height {
		return false
	}
	for i, v := range g.cells {
		if v != other.cells[i] {
			return false
		}
	}
	return true
}
