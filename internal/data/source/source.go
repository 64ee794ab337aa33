// Package source resolves ECG traces from files.
package source

import (
	"path/filepath"
	"strings"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// Recording is a resolved trace plus whatever the source file knows about it.
type Recording struct {
	Trace model.Trace
	// SamplingRate is 0 when the source does not carry one.
	SamplingRate float64
	Channel      string
	PatientID    string
	Source       string
}

// Kind names a trace file format.
type Kind string

const (
	KindLiteral Kind = "literal"
	KindEDF     Kind = "edf"
)

// Extensions lists the file extensions recognised as traces.
var Extensions = []string{".txt", ".json", ".lst", ".edf", ".rec"}

// DetectKind picks the format from the file extension.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".edf", ".rec":
		return KindEDF
	default:
		return KindLiteral
	}
}

// Load reads path as the detected format. channel only applies to EDF.
func Load(path, channel string) (*Recording, error) {
	if DetectKind(path) == KindEDF {
		return ReadEDF(path, channel)
	}

	trace, err := ReadLiteralFile(path)
	if err != nil {
		return nil, err
	}
	return &Recording{Trace: trace, Source: path}, nil
}
