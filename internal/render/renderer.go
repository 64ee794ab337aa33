// Package render turns partitioned pages into vector scenes on ECG paper.
package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// gridSlack keeps the last grid line when the width is a float multiple of the spacing
const gridSlack = 1e-9

// Renderer draws pages with a fixed geometry.
type Renderer struct {
	geometry Geometry
}

// NewRenderer creates a renderer for geometry.
func NewRenderer(g Geometry) *Renderer {
	return &Renderer{geometry: g}
}

// Geometry returns the geometry the renderer draws with.
func (r *Renderer) Geometry() Geometry {
	return r.geometry
}

// RenderPage draws the grid, one curve per run of present samples in each
// strip, a time label per strip, and the calibration pulse when the page
// holds the first strip of the run.
func (r *Renderer) RenderPage(page model.Page) (*Scene, error) {
	g := r.geometry
	if len(page.Strips) != g.StripsPerPage {
		return nil, fmt.Errorf("%w: page %d holds %d strips, expected %d",
			model.ErrRenderingFailure, page.Number, len(page.Strips), g.StripsPerPage)
	}

	scene := &Scene{
		Page:   page.Number,
		Width:  g.Width(),
		Height: g.Height(),
		Grid:   r.grid(),
	}

	for row, strip := range page.Strips {
		if len(strip.Samples) != g.StripLength {
			return nil, fmt.Errorf("%w: strip %d holds %d samples, expected %d",
				model.ErrRenderingFailure, strip.Index, len(strip.Samples), g.StripLength)
		}

		curves, err := r.DrawCurve(row, strip.TimeAxis(g.SamplingRate), strip.Samples)
		if err != nil {
			return nil, fmt.Errorf("page %d strip %d: %w", page.Number, strip.Index, err)
		}
		scene.Curves = append(scene.Curves, curves...)
		scene.Labels = append(scene.Labels, r.timeLabel(row, strip))

		if strip.Index == 0 {
			scene.Calibration = r.calibrationPulse(row)
		}
	}
	return scene, nil
}

// DrawCurve converts one strip into polylines placed on the given row.
// Missing samples break the curve. Values beyond the amplitude window are
// clipped to its edge.
func (r *Renderer) DrawCurve(row int, times []float64, values model.Trace) ([]Polyline, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: time axis has %d points but value axis has %d",
			model.ErrRenderingFailure, len(times), len(values))
	}
	if len(times) == 0 {
		return nil, nil
	}

	g := r.geometry
	baseline := g.Baseline(row)
	t0 := times[0]

	var curves []Polyline
	var run Polyline
	flush := func() {
		// a lone sample has no segment to draw
		if len(run) > 1 {
			curves = append(curves, run)
		}
		run = nil
	}

	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) || (i > 0 && t <= times[i-1]) {
			return nil, fmt.Errorf("%w: time axis is not strictly increasing at index %d",
				model.ErrRenderingFailure, i)
		}
		sample := values[i]
		if sample.IsMissing() {
			flush()
			continue
		}
		v := math.Max(-g.AmplitudeLimit, math.Min(g.AmplitudeLimit, sample.Value))
		run = append(run, Point{
			X: (t - t0) * g.PaperSpeed,
			Y: baseline - v*g.Gain,
		})
	}
	flush()
	return curves, nil
}

func (r *Renderer) grid() []GridLine {
	g := r.geometry
	width, height := g.Width(), g.Height()
	majorEvery := int(math.Round(constants.MajorGridMM / constants.MinorGridMM))

	var minor, major []GridLine
	add := func(i int, line GridLine) {
		if i%majorEvery == 0 {
			line.Major = true
			major = append(major, line)
			return
		}
		minor = append(minor, line)
	}

	for i := 0; float64(i)*constants.MinorGridMM <= width+gridSlack; i++ {
		x := float64(i) * constants.MinorGridMM
		add(i, GridLine{X1: x, Y1: 0, X2: x, Y2: height})
	}
	for i := 0; float64(i)*constants.MinorGridMM <= height+gridSlack; i++ {
		y := float64(i) * constants.MinorGridMM
		add(i, GridLine{X1: 0, Y1: y, X2: width, Y2: y})
	}

	// major lines are drawn over minor ones
	return append(minor, major...)
}

// timeLabel shows the recording time at the start of a strip, not counting
// the legend gap.
func (r *Renderer) timeLabel(row int, strip model.Strip) Label {
	g := r.geometry
	seconds := math.Max(0, strip.StartSeconds-g.LegendGapSeconds)
	seconds = math.Round(seconds*100) / 100
	return Label{
		X:    1,
		Y:    float64(row)*g.StripHeight() + 1 + LabelSize,
		Text: strconv.FormatFloat(seconds, 'f', -1, 64) + "s",
	}
}

// calibrationPulse is the 1 mV reference square wave centred in the legend
// gap. It is omitted when the gap is too narrow to hold it.
func (r *Renderer) calibrationPulse(row int) Polyline {
	g := r.geometry
	gapWidth := g.LegendGapSeconds * g.PaperSpeed
	pulseWidth := constants.CalibrationPulseSeconds * g.PaperSpeed
	if gapWidth < pulseWidth+2 {
		return nil
	}

	baseline := g.Baseline(row)
	top := baseline - constants.CalibrationPulseMV*g.Gain
	lead := (gapWidth - pulseWidth) / 2
	return Polyline{
		{X: 0, Y: baseline},
		{X: lead, Y: baseline},
		{X: lead, Y: top},
		{X: lead + pulseWidth, Y: top},
		{X: lead + pulseWidth, Y: baseline},
		{X: gapWidth, Y: baseline},
	}
}
