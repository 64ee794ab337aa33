package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// svgUnit is the number of SVG user units per millimetre. svgo takes integer
// coordinates, so scenes are written in hundredths of a millimetre inside a
// group scaled back to millimetres.
const svgUnit = 100

// errWriter keeps the first write error, since svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func u(mm float64) int {
	return int(math.Round(mm * svgUnit))
}

// WriteSVG writes the scene as an SVG fragment in millimetre user units,
// ready to be placed inside a page template.
func WriteSVG(w io.Writer, scene *Scene) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	canvas.Gtransform(fmt.Sprintf("scale(%g)", 1.0/svgUnit))

	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:%d", MinorGridColor.Hex(), u(MinorGridWidth)))
	for _, line := range scene.Grid {
		if !line.Major {
			canvas.Line(u(line.X1), u(line.Y1), u(line.X2), u(line.Y2))
		}
	}
	canvas.Gend()

	canvas.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:%d", MajorGridColor.Hex(), u(MajorGridWidth)))
	for _, line := range scene.Grid {
		if line.Major {
			canvas.Line(u(line.X1), u(line.Y1), u(line.X2), u(line.Y2))
		}
	}
	canvas.Gend()

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke:%s;stroke-width:%d;stroke-linejoin:round",
		TraceColor.Hex(), u(TraceWidth)))
	for _, curve := range scene.Curves {
		writePolyline(canvas, curve)
	}
	if len(scene.Calibration) > 0 {
		writePolyline(canvas, scene.Calibration)
	}
	canvas.Gend()

	canvas.Gstyle(fmt.Sprintf("fill:%s;font-family:Helvetica,Arial,sans-serif;font-size:%d",
		LabelColor.Hex(), u(LabelSize)))
	for _, label := range scene.Labels {
		canvas.Text(u(label.X), u(label.Y), label.Text)
	}
	canvas.Gend()

	canvas.Gend()
	return ew.err
}

// SVG returns the scene as an SVG fragment.
func (s *Scene) SVG() (string, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writePolyline(canvas *svg.SVG, line Polyline) {
	xs := make([]int, len(line))
	ys := make([]int, len(line))
	for i, p := range line {
		xs[i] = u(p.X)
		ys[i] = u(p.Y)
	}
	canvas.Polyline(xs, ys)
}
