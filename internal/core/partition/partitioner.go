// Package partition splits an ECG trace into fixed-length strips grouped
// into fixed-size pages.
//
// The trace is first shifted right by a blank legend gap. It is then
// right-filled with missing samples until every strip is full and the strip
// count is a multiple of the strips per page. Sample order is never changed.
package partition

import (
	"fmt"
	"math"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// roundingSlack absorbs float error in duration × rate products such as
// 0.3 s × 250 Hz = 75.00000000000001.
const roundingSlack = 1e-6

// Params controls the strip geometry.
type Params struct {
	SamplingRate  float64       // samples per second
	StripDuration time.Duration // duration of one strip
	StripsPerPage int
	LegendGap     time.Duration // blank lead-in before the first sample
}

// DefaultParams returns 250 Hz, 8 s strips, 4 strips per page, 0.5 s gap.
func DefaultParams() Params {
	return Params{
		SamplingRate:  constants.DefaultSamplingRate,
		StripDuration: constants.DefaultStripDuration,
		StripsPerPage: constants.DefaultStripsPerPage,
		LegendGap:     constants.DefaultLegendGap,
	}
}

// Validate checks that every parameter is usable.
func (p Params) Validate() error {
	if p.SamplingRate <= 0 || math.IsNaN(p.SamplingRate) || math.IsInf(p.SamplingRate, 0) {
		return fmt.Errorf("%w: sampling rate must be positive, got %v", model.ErrInvalidInput, p.SamplingRate)
	}
	if p.StripDuration <= 0 {
		return fmt.Errorf("%w: strip duration must be positive, got %v", model.ErrInvalidInput, p.StripDuration)
	}
	if p.StripsPerPage <= 0 {
		return fmt.Errorf("%w: strips per page must be positive, got %d", model.ErrInvalidInput, p.StripsPerPage)
	}
	if p.LegendGap < 0 {
		return fmt.Errorf("%w: legend gap must not be negative, got %v", model.ErrInvalidInput, p.LegendGap)
	}
	return nil
}

// StripLength is the number of samples in one strip, rounded up.
func (p Params) StripLength() int {
	return int(math.Ceil(p.StripDuration.Seconds()*p.SamplingRate - roundingSlack))
}

// LegendGapSamples converts the legend gap to a sample count at the current rate.
func (p Params) LegendGapSamples() int {
	return int(math.Round(p.LegendGap.Seconds() * p.SamplingRate))
}

// Layout holds every count derived while partitioning.
type Layout struct {
	OriginalCount int // samples supplied by the caller
	GapSamples    int // missing samples prepended for the legend
	SampleCount   int // OriginalCount + GapSamples
	StripLength   int
	RawStripCount int // strips needed to hold SampleCount
	TailFill      int // missing samples completing the last data strip
	PadStrips     int // wholly missing strips completing the last page
	TotalStrips   int
	PageCount     int
	PaddedLength  int // TotalStrips × StripLength
}

// Plan computes the layout for a trace of originalCount samples.
func Plan(originalCount int, p Params) (Layout, error) {
	if err := p.Validate(); err != nil {
		return Layout{}, err
	}
	if originalCount <= 0 {
		return Layout{}, fmt.Errorf("%w: trace is empty", model.ErrInvalidInput)
	}

	stripLen := p.StripLength()
	if stripLen <= 0 {
		return Layout{}, fmt.Errorf("%w: strip of %v at %v Hz holds no sample",
			model.ErrInvalidInput, p.StripDuration, p.SamplingRate)
	}

	l := Layout{
		OriginalCount: originalCount,
		GapSamples:    p.LegendGapSamples(),
		StripLength:   stripLen,
	}
	l.SampleCount = l.OriginalCount + l.GapSamples
	l.RawStripCount = (l.SampleCount + stripLen - 1) / stripLen
	l.TailFill = l.RawStripCount*stripLen - l.SampleCount
	l.PadStrips = (p.StripsPerPage - l.RawStripCount%p.StripsPerPage) % p.StripsPerPage
	l.TotalStrips = l.RawStripCount + l.PadStrips
	l.PageCount = l.TotalStrips / p.StripsPerPage
	l.PaddedLength = l.TotalStrips * stripLen
	return l, nil
}

// Result is the partitioned trace.
type Result struct {
	Layout            Layout
	Pages             []model.Page
	RecordTimeSeconds int
}

// Strips returns every strip of every page in order.
func (r *Result) Strips() []model.Strip {
	strips := make([]model.Strip, 0, r.Layout.TotalStrips)
	for _, page := range r.Pages {
		strips = append(strips, page.Strips...)
	}
	return strips
}

// Padded returns the padded trace by concatenating all pages.
func (r *Result) Padded() model.Trace {
	out := make(model.Trace, 0, r.Layout.PaddedLength)
	for _, page := range r.Pages {
		out = append(out, page.Samples()...)
	}
	return out
}

// Partition splits trace into pages of strips. The input is not modified.
func Partition(trace model.Trace, p Params) (*Result, error) {
	layout, err := Plan(len(trace), p)
	if err != nil {
		return nil, err
	}

	// The zero Sample is Missing, so the gap and the tail are already in place.
	padded := make(model.Trace, layout.PaddedLength)
	copy(padded[layout.GapSamples:], trace)

	pages := make([]model.Page, 0, layout.PageCount)
	stripIndex := 0
	for i, bounds := range splitRanges(len(padded), layout.PageCount) {
		page := model.Page{
			Number: i + 1,
			Strips: make([]model.Strip, 0, p.StripsPerPage),
		}
		for start := bounds[0]; start < bounds[1]; start += layout.StripLength {
			end := min(start+layout.StripLength, bounds[1])
			page.Strips = append(page.Strips, model.Strip{
				Index:        stripIndex,
				StartSeconds: float64(start) / p.SamplingRate,
				Samples:      padded[start:end:end],
			})
			stripIndex++
		}
		pages = append(pages, page)
	}

	return &Result{
		Layout:            layout,
		Pages:             pages,
		RecordTimeSeconds: RecordTime(layout.OriginalCount, p.SamplingRate),
	}, nil
}

// RecordTime is the recording duration rounded to the nearest second.
// It ignores the legend gap and any padding.
func RecordTime(originalCount int, rate float64) int {
	if rate <= 0 {
		return 0
	}
	return int(math.Round(float64(originalCount) / rate))
}

// splitRanges divides [0, length) into parts contiguous ranges of equal
// width, using rounded boundaries so there is no gap or overlap.
func splitRanges(length, parts int) [][2]int {
	if parts <= 0 {
		return nil
	}
	width := float64(length) / float64(parts)
	ranges := make([][2]int, parts)
	for i := range ranges {
		ranges[i] = [2]int{
			int(math.Round(width * float64(i))),
			int(math.Round(width * float64(i+1))),
		}
	}
	return ranges
}
