package model

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
)

// Sample is one amplitude reading in millivolts, or a missing marker.
// The zero value is Missing.
type Sample struct {
	Value float64
	Valid bool
}

// Missing occupies a time slot but is never drawn.
var Missing = Sample{}

// Value builds a present sample. NaN and infinities become Missing.
func Value(v float64) Sample {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Sample{Value: v, Valid: true}
}

// IsMissing reports whether the sample is a gap marker.
func (s Sample) IsMissing() bool {
	return !s.Valid
}

func (s Sample) String() string {
	if !s.Valid {
		return "None"
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// MarshalJSON writes missing samples as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.Value, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := sonic.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("sample must be a number or null: %w", err)
	}
	if v == nil {
		*s = Missing
		return nil
	}
	*s = Value(*v)
	return nil
}

// Trace is one continuous recording in temporal order.
type Trace []Sample

// TraceFromValues wraps plain amplitudes. NaN entries become Missing.
func TraceFromValues(values []float64) Trace {
	trace := make(Trace, len(values))
	for i, v := range values {
		trace[i] = Value(v)
	}
	return trace
}

// Gap returns n missing samples.
func Gap(n int) Trace {
	if n <= 0 {
		return Trace{}
	}
	return make(Trace, n)
}

// Len returns the number of time slots, missing ones included.
func (t Trace) Len() int {
	return len(t)
}

// MissingCount counts gap markers.
func (t Trace) MissingCount() int {
	count := 0
	for _, s := range t {
		if !s.Valid {
			count++
		}
	}
	return count
}
