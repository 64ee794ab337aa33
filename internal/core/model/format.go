package model

import (
	"fmt"
	"strings"
)

// ExportFormat is the file type of the final artifact.
type ExportFormat string

const (
	ExportPDF ExportFormat = "pdf"
	ExportJPG ExportFormat = "jpg"
	ExportPNG ExportFormat = "png"
)

// SupportedExports lists the accepted formats in display order.
var SupportedExports = []ExportFormat{ExportPDF, ExportJPG, ExportPNG}

// ParseExportFormat validates a user supplied format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedExports {
		if format == supported {
			return format, nil
		}
	}
	return "", fmt.Errorf("%w: '%s' must be one of %v", ErrUnsupportedExport, s, SupportedExports)
}

// Extension returns the file extension including the dot.
func (f ExportFormat) Extension() string {
	return "." + string(f)
}

// Paged reports whether one file holds every page.
func (f ExportFormat) Paged() bool {
	return f == ExportPDF
}
