package model

import "errors"

// Error kinds of a generation run. All of them abort the run.
var (
	// ErrInvalidInput covers unreadable paths, unparsable literals and bad parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedExport is returned for export formats other than pdf, jpg and png.
	ErrUnsupportedExport = errors.New("unsupported export format")
	// ErrRenderingFailure is returned when a strip cannot be drawn or rasterized.
	ErrRenderingFailure = errors.New("rendering failure")
)
