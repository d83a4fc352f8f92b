package canvas

import (
	"fmt"
	"strconv"
	"strings"
)

// Sector delimits the half-open rectangle [X1,X2) x [Y1,Y2) of the canvas.
// X is the row index, Y the column index.
type Sector struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// FullCanvas returns the sector covering a whole width x height canvas.
func FullCanvas(width, height int) Sector {
	return Sector{X1: 0, Y1: 0, X2: height, Y2: width}
}

// Valid checks the sector against the canvas bounds.
func (s Sector) Valid(width, height int) error {
	if s.X1 < 0 || s.Y1 < 0 {
		return fmt.Errorf("sector %s: negative origin", s)
	}
	if s.X2 <= s.X1 || s.Y2 <= s.Y1 {
		return fmt.Errorf("sector %s: empty or inverted", s)
	}
	if s.X2 > height || s.Y2 > width {
		return fmt.Errorf("sector %s: outside the %dx%d canvas", s, height, width)
	}
	return nil
}

// Size returns the number of coordinates in the sector.
func (s Sector) Size() int {
	return (s.X2 - s.X1) * (s.Y2 - s.Y1)
}

// Coordinates enumerates the sector row by row.
func (s Sector) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, s.Size())
	for x := s.X1; x < s.X2; x++ {
		for y := s.Y1; y < s.Y2; y++ {
			coords = append(coords, Coordinate{X: x, Y: y})
		}
	}
	return coords
}

// Contains reports whether c lies inside the sector.
func (s Sector) Contains(c Coordinate) bool {
	return c.X >= s.X1 && c.X < s.X2 && c.Y >= s.Y1 && c.Y < s.Y2
}

func (s Sector) String() string {
	return fmt.Sprintf("(%d,%d)->(%d,%d)", s.X1, s.Y1, s.X2, s.Y2)
}

// ParseSector parses the "x1,y1,x2,y2" flag form.
func ParseSector(value string) (Sector, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return Sector{}, fmt.Errorf("sector %q: want x1,y1,x2,y2", value)
	}
	nums := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Sector{}, fmt.Errorf("sector %q: %w", value, err)
		}
		nums[i] = n
	}
	return Sector{X1: nums[0], Y1: nums[1], X2: nums[2], Y2: nums[3]}, nil
}

// UnionCoordinates enumerates the coordinates covered by the sectors,
// deduplicated, in row-major order of first appearance.
func UnionCoordinates(sectors []Sector) []Coordinate {
	seen := make(map[Coordinate]struct{})
	var coords []Coordinate
	for _, s := range sectors {
		for _, c := range s.Coordinates() {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			coords = append(coords, c)
		}
	}
	return coords
}
