package model

// Strip is one fixed-duration row of the chart.
type Strip struct {
	// Index is the position of the strip across the whole run, starting at 0.
	Index int
	// StartSeconds is the offset of the first sample on the padded timeline.
	StartSeconds float64
	Samples      Trace
}

// TimeAxis returns one timestamp per sample, in seconds from StartSeconds.
func (s Strip) TimeAxis(rate float64) []float64 {
	axis := make([]float64, len(s.Samples))
	for i := range axis {
		axis[i] = s.StartSeconds + float64(i)/rate
	}
	return axis
}

// Empty reports whether the strip holds no present sample.
func (s Strip) Empty() bool {
	return s.Samples.MissingCount() == len(s.Samples)
}

// Page is a fixed-count group of strips stacked on one output surface.
type Page struct {
	// Number starts at 1.
	Number int
	Strips []Strip
}

// Samples concatenates the strips of the page in order.
func (p Page) Samples() Trace {
	n := 0
	for _, s := range p.Strips {
		n += len(s.Samples)
	}
	out := make(Trace, 0, n)
	for _, s := range p.Strips {
		out = append(out, s.Samples...)
	}
	return out
}
