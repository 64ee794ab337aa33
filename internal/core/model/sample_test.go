package model

import (
	"errors"
	"math"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRejectsNonFinite(t *testing.T) {
	assert.True(t, Value(math.NaN()).IsMissing())
	assert.True(t, Value(math.Inf(1)).IsMissing())
	assert.True(t, Value(math.Inf(-1)).IsMissing())

	s := Value(-0.25)
	assert.False(t, s.IsMissing())
	assert.Equal(t, -0.25, s.Value)
}

func TestSampleUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expected    Trace
		expectError bool
	}{
		{
			name:     "numbers_and_null",
			jsonData: `[0.5, null, -1, 2e-3]`,
			expected: Trace{Value(0.5), Missing, Value(-1), Value(0.002)},
		},
		{
			name:     "empty_list",
			jsonData: `[]`,
			expected: Trace{},
		},
		{
			name:        "string_element",
			jsonData:    `[1, "x"]`,
			expectError: true,
		},
		{
			name:        "boolean_element",
			jsonData:    `[true]`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trace Trace
			err := sonic.Unmarshal([]byte(tt.jsonData), &trace)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, trace)
		})
	}
}

func TestSampleMarshalJSON(t *testing.T) {
	data, err := sonic.Marshal(Trace{Value(1.5), Missing, Value(-2)})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, -2]`, string(data))
}

func TestTraceHelpers(t *testing.T) {
	trace := TraceFromValues([]float64{1, math.NaN(), 3})
	assert.Equal(t, 3, trace.Len())
	assert.Equal(t, 1, trace.MissingCount())
	assert.Equal(t, "None", trace[1].String())
	assert.Equal(t, "3", trace[2].String())

	gap := Gap(5)
	assert.Len(t, gap, 5)
	assert.Equal(t, 5, gap.MissingCount())
	assert.Empty(t, Gap(-1))
}

func TestStripTimeAxis(t *testing.T) {
	strip := Strip{StartSeconds: 8, Samples: Gap(4)}
	axis := strip.TimeAxis(4)
	assert.Equal(t, []float64{8, 8.25, 8.5, 8.75}, axis)
	assert.True(t, strip.Empty())
}

func TestPageSamples(t *testing.T) {
	page := Page{Number: 1, Strips: []Strip{
		{Index: 0, Samples: Trace{Value(1), Value(2)}},
		{Index: 1, Samples: Trace{Missing, Value(4)}},
	}}
	assert.Equal(t, Trace{Value(1), Value(2), Missing, Value(4)}, page.Samples())
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected ExportFormat
		wantErr  bool
	}{
		{input: "pdf", expected: ExportPDF},
		{input: "PNG", expected: ExportPNG},
		{input: " jpg ", expected: ExportJPG},
		{input: "svg", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			format, err := ParseExportFormat(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedExport))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}

	assert.True(t, ExportPDF.Paged())
	assert.False(t, ExportPNG.Paged())
	assert.Equal(t, ".jpg", ExportJPG.Extension())
}
