package render

import "fmt"

// Point is a position in millimetres. Y grows downward.
type Point struct {
	X, Y float64
}

// Polyline is a connected run of points.
type Polyline []Point

// GridLine is one line of the paper grid.
type GridLine struct {
	X1, Y1, X2, Y2 float64
	Major          bool
}

// Label is a short text anchored at its baseline start.
type Label struct {
	X, Y float64
	Text string
}

// Scene holds the vector primitives of one page of strips.
type Scene struct {
	// Page is the page number, starting at 1.
	Page   int
	Width  float64
	Height float64

	Grid        []GridLine
	Curves      []Polyline
	Calibration Polyline
	Labels      []Label
}

// PointCount returns the number of curve points in the scene.
func (s *Scene) PointCount() int {
	n := 0
	for _, c := range s.Curves {
		n += len(c)
	}
	return n
}

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Float returns the channels scaled to [0, 1].
func (c Color) Float() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Drawing style shared by every backend. Widths and sizes are in millimetres.
var (
	PaperColor     = Color{0xff, 0xff, 0xff}
	MinorGridColor = Color{0xf6, 0xc9, 0xc9}
	MajorGridColor = Color{0xe3, 0x8d, 0x8d}
	TraceColor     = Color{0x00, 0x00, 0x00}
	LabelColor     = Color{0x55, 0x55, 0x55}
)

const (
	MinorGridWidth = 0.1
	MajorGridWidth = 0.25
	TraceWidth     = 0.3
	LabelSize      = 2.5
)
