package render

import (
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/partition"
)

// Geometry maps the strip layout onto ECG paper, in millimetres.
type Geometry struct {
	SamplingRate  float64
	StripLength   int
	StripsPerPage int
	// LegendGapSeconds is the blank lead-in of the first strip.
	LegendGapSeconds float64

	PaperSpeed     float64 // mm per second
	Gain           float64 // mm per millivolt
	AmplitudeLimit float64 // mV either side of the baseline
}

// NewGeometry uses standard paper speed and gain.
func NewGeometry(p partition.Params) Geometry {
	return Geometry{
		SamplingRate:     p.SamplingRate,
		StripLength:      p.StripLength(),
		StripsPerPage:    p.StripsPerPage,
		LegendGapSeconds: float64(p.LegendGapSamples()) / p.SamplingRate,
		PaperSpeed:       constants.PaperSpeedMMPerSecond,
		Gain:             constants.GainMMPerMillivolt,
		AmplitudeLimit:   constants.AmplitudeLimitMV,
	}
}

// StripSeconds is the time covered by one strip.
func (g Geometry) StripSeconds() float64 {
	return float64(g.StripLength) / g.SamplingRate
}

// StripWidth is the width of one strip row.
func (g Geometry) StripWidth() float64 {
	return g.StripSeconds() * g.PaperSpeed
}

// StripHeight is the height of one strip row.
func (g Geometry) StripHeight() float64 {
	return 2 * g.AmplitudeLimit * g.Gain
}

// Width of the graph area.
func (g Geometry) Width() float64 {
	return g.StripWidth()
}

// Height of the graph area.
func (g Geometry) Height() float64 {
	return float64(g.StripsPerPage) * g.StripHeight()
}

// Baseline is the y coordinate of 0 mV in the given row.
func (g Geometry) Baseline(row int) float64 {
	return float64(row)*g.StripHeight() + g.StripHeight()/2
}
