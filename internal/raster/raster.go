// Package raster turns composed documents into PDF, PNG or JPEG files.
package raster

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/compose"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

// Rasterizer kinds
const (
	KindChrome = "chrome"
	KindNative = "native"
)

const (
	DefaultScale       = 2.0
	DefaultJPEGQuality = 90
	DefaultTimeout     = time.Minute
)

// Rasterizer writes a composed document to its destination files.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *compose.Document, dest Destination) error
}

// Destination lists the files of one export. A paged format writes every
// page to its single file. Image formats write page i+1 to Files[i].
type Destination struct {
	Format model.ExportFormat
	Files  []string
}

// PlanDestination names the output files: <name>.pdf for PDF, <name>.<ext>
// for a single image page, and <name>-<page>.<ext> otherwise.
func PlanDestination(dir, name string, format model.ExportFormat, pages int) Destination {
	ext := format.Extension()
	if format.Paged() || pages == 1 {
		return Destination{Format: format, Files: []string{filepath.Join(dir, name+ext)}}
	}

	files := make([]string, pages)
	for i := range files {
		files[i] = filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i+1, ext))
	}
	return Destination{Format: format, Files: files}
}

// Primary is the file holding the first page.
func (d Destination) Primary() string {
	if len(d.Files) == 0 {
		return ""
	}
	return d.Files[0]
}

// OutputFiles maps every page number to the file that holds it.
func (d Destination) OutputFiles(pages int) map[int]string {
	out := make(map[int]string, pages)
	for page := 1; page <= pages; page++ {
		if d.Format.Paged() {
			out[page] = d.Primary()
		} else if page <= len(d.Files) {
			out[page] = d.Files[page-1]
		}
	}
	return out
}

// Check verifies that dest fits doc.
func (d Destination) Check(doc *compose.Document) error {
	if doc == nil || doc.PageCount() == 0 {
		return fmt.Errorf("%w: document has no pages", model.ErrRenderingFailure)
	}
	if _, err := model.ParseExportFormat(string(d.Format)); err != nil {
		return err
	}
	want := doc.PageCount()
	if d.Format.Paged() {
		want = 1
	}
	if len(d.Files) != want {
		return fmt.Errorf("%w: %s export of %d pages needs %d files, got %d",
			model.ErrRenderingFailure, d.Format, doc.PageCount(), want, len(d.Files))
	}
	return nil
}

// Options configures the rasterizer backends.
type Options struct {
	Kind string
	// ChromeBin is the browser executable. Empty searches the usual locations.
	ChromeBin string
	// ControlURL connects to a running browser instead of launching one.
	ControlURL string
	// Scale multiplies the image resolution of ResolutionPPI.
	Scale       float64
	JPEGQuality int
	Timeout     time.Duration
	Logger      util.LoggerInterface
}

func (o Options) withDefaults() Options {
	if o.Kind == "" {
		o.Kind = KindChrome
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = util.NopLogger()
	}
	return o
}

// New creates the rasterizer named by opts.Kind.
func New(opts Options) (Rasterizer, error) {
	opts = opts.withDefaults()

	switch opts.Kind {
	case KindChrome:
		opts.Logger.Debug("Using headless Chrome rasterizer",
			util.F("bin", opts.ChromeBin), util.F("control_url", opts.ControlURL))
		return NewChromeRasterizer(opts), nil
	case KindNative:
		opts.Logger.Debug("Using native rasterizer", util.F("scale", opts.Scale))
		return NewNativeRasterizer(opts), nil
	default:
		return nil, fmt.Errorf("unknown rasterizer: %s", opts.Kind)
	}
}
