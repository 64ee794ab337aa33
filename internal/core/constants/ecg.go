package constants

import "time"

const (
	// Recording defaults
	DefaultSamplingRate  = 250.0 // Hz
	DefaultStripDuration = 8 * time.Second
	DefaultStripsPerPage = 4

	// Blank lead-in on the first strip, reserved for the calibration legend.
	// 0.5 s is 125 samples at the default rate.
	DefaultLegendGap = 500 * time.Millisecond
)

const (
	// Standard ECG paper: 25 mm/s paper speed, 10 mm/mV gain
	PaperSpeedMMPerSecond = 25.0
	GainMMPerMillivolt    = 10.0
	PlotScale             = "25mm/s, 10mm/mV"

	// Amplitude window of one strip, in millivolts either side of the baseline
	AmplitudeLimitMV = 2.5

	// Paper grid
	MinorGridMM = 1.0
	MajorGridMM = 5.0

	// Calibration pulse drawn in the legend gap
	CalibrationPulseMV      = 1.0
	CalibrationPulseSeconds = 0.2
)

const (
	// Output resolution
	ResolutionPPI = 72
	PixelsPerCM   = 28.35
	PixelsPerMM   = PixelsPerCM / 10

	// Page margins and the metadata panel, in millimetres
	PageMarginMM    = 10.0
	MetaPanelMM     = 30.0
	MetaFontSizePx  = 10
	MetaLineSpacing = 16 // px between panel lines
)

const (
	DefaultOutputName = "graph"
	DefaultExport     = "pdf"
	DefaultRasterizer = "chrome"
)
