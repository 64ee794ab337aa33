package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kartikeyarokde/go-ecg-graph/internal/compose"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/partition"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(t *testing.T, samples int) *compose.Document {
	t.Helper()

	values := make([]float64, samples)
	for i := range values {
		values[i] = float64(i%250) / 250
	}
	params := partition.DefaultParams()
	result, err := partition.Partition(model.TraceFromValues(values), params)
	require.NoError(t, err)

	r := render.NewRenderer(render.NewGeometry(params))
	scenes := make([]*render.Scene, 0, len(result.Pages))
	for _, page := range result.Pages {
		scene, err := r.RenderPage(page)
		require.NoError(t, err)
		scenes = append(scenes, scene)
	}

	meta := model.NewGraphMetadata(params.SamplingRate, constants.PlotScale, samples, result.RecordTimeSeconds)
	meta.DisplayInformation.Merge(map[string]string{"Patient": "Zoë"})
	doc, err := compose.NewCompositor().Compose(scenes, meta)
	require.NoError(t, err)
	return doc
}

func TestPlanDestination(t *testing.T) {
	tests := []struct {
		name     string
		format   model.ExportFormat
		pages    int
		expected []string
	}{
		{name: "pdf_single_page", format: model.ExportPDF, pages: 1, expected: []string{"/out/ecg.pdf"}},
		{name: "pdf_many_pages", format: model.ExportPDF, pages: 3, expected: []string{"/out/ecg.pdf"}},
		{name: "png_single_page", format: model.ExportPNG, pages: 1, expected: []string{"/out/ecg.png"}},
		{name: "jpg_many_pages", format: model.ExportJPG, pages: 3, expected: []string{"/out/ecg-1.jpg", "/out/ecg-2.jpg", "/out/ecg-3.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := PlanDestination("/out", "ecg", tt.format, tt.pages)
			assert.Equal(t, tt.format, dest.Format)
			assert.Equal(t, tt.expected, dest.Files)
			assert.Equal(t, tt.expected[0], dest.Primary())
		})
	}
}

func TestDestinationOutputFiles(t *testing.T) {
	pdf := PlanDestination("/out", "ecg", model.ExportPDF, 2)
	assert.Equal(t, map[int]string{1: "/out/ecg.pdf", 2: "/out/ecg.pdf"}, pdf.OutputFiles(2))

	png := PlanDestination("/out", "ecg", model.ExportPNG, 2)
	assert.Equal(t, map[int]string{1: "/out/ecg-1.png", 2: "/out/ecg-2.png"}, png.OutputFiles(2))

	assert.Equal(t, "", Destination{}.Primary())
}

func TestDestinationCheck(t *testing.T) {
	doc := testDocument(t, 10000)
	require.Equal(t, 2, doc.PageCount())

	tests := []struct {
		name string
		dest Destination
		kind error
	}{
		{name: "svg", dest: Destination{Format: "svg", Files: []string{"a.svg"}}, kind: model.ErrUnsupportedExport},
		{name: "pdf_two_files", dest: Destination{Format: model.ExportPDF, Files: []string{"a", "b"}}, kind: model.ErrRenderingFailure},
		{name: "png_one_file_two_pages", dest: Destination{Format: model.ExportPNG, Files: []string{"a"}}, kind: model.ErrRenderingFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.dest.Check(doc), tt.kind))
		})
	}

	assert.NoError(t, PlanDestination("/out", "ecg", model.ExportPNG, 2).Check(doc))
	assert.True(t, errors.Is(Destination{Format: model.ExportPDF}.Check(&compose.Document{}), model.ErrRenderingFailure))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		kind        string
		expectType  string
		expectError bool
	}{
		{name: "default_is_chrome", kind: "", expectType: "chrome"},
		{name: "chrome", kind: KindChrome, expectType: "chrome"},
		{name: "native", kind: KindNative, expectType: "native"},
		{name: "unknown", kind: "phantomjs", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(Options{Kind: tt.kind})
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			switch tt.expectType {
			case "chrome":
				assert.IsType(t, &ChromeRasterizer{}, r)
			case "native":
				assert.IsType(t, &NativeRasterizer{}, r)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{JPEGQuality: 150}.withDefaults()
	assert.Equal(t, KindChrome, opts.Kind)
	assert.Equal(t, DefaultScale, opts.Scale)
	assert.Equal(t, DefaultJPEGQuality, opts.JPEGQuality)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.NotNil(t, opts.Logger)
}

func TestNativeRasterizerPDF(t *testing.T) {
	doc := testDocument(t, 10000)
	dir := t.TempDir()
	dest := PlanDestination(dir, "graph", model.ExportPDF, doc.PageCount())

	require.NoError(t, NewNativeRasterizer(Options{}).Rasterize(context.Background(), doc, dest))

	data, err := os.ReadFile(filepath.Join(dir, "graph.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.True(t, bytes.Contains(data, []byte("/Count 2")))
}

func TestNativeRasterizerImages(t *testing.T) {
	tests := []struct {
		name   string
		format model.ExportFormat
		codec  string
	}{
		{name: "png", format: model.ExportPNG, codec: "png"},
		{name: "jpg", format: model.ExportJPG, codec: "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument(t, 10000)
			dir := t.TempDir()
			dest := PlanDestination(dir, "graph", tt.format, doc.PageCount())

			require.NoError(t, NewNativeRasterizer(Options{Scale: 1}).Rasterize(context.Background(), doc, dest))

			require.Len(t, dest.Files, 2)
			for _, path := range dest.Files {
				f, err := os.Open(path)
				require.NoError(t, err)
				cfg, codec, err := image.DecodeConfig(f)
				f.Close()
				require.NoError(t, err)

				assert.Equal(t, tt.codec, codec)
				assert.Equal(t, 624, cfg.Width) // 220 mm at 2.835 px/mm
				assert.Equal(t, int(doc.Layout.Height*constants.PixelsPerMM+0.5), cfg.Height)
			}
		})
	}
}

func TestNativeRasterizerHonoursCancellation(t *testing.T) {
	doc := testDocument(t, 2000)
	dir := t.TempDir()
	dest := PlanDestination(dir, "graph", model.ExportPNG, doc.PageCount())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNativeRasterizer(Options{}).Rasterize(ctx, doc, dest)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(dest.Primary())
	assert.True(t, os.IsNotExist(statErr))
}

func TestNativeRasterizerRejectsMissingScene(t *testing.T) {
	doc := testDocument(t, 2000)
	doc.Pages[0].Scene = nil
	dest := PlanDestination(t.TempDir(), "graph", model.ExportPDF, 1)

	err := NewNativeRasterizer(Options{}).Rasterize(context.Background(), doc, dest)
	assert.True(t, errors.Is(err, model.ErrRenderingFailure))
}

func TestChromeRasterizerRequiresStagedDocument(t *testing.T) {
	doc := testDocument(t, 2000)
	dest := PlanDestination(t.TempDir(), "graph", model.ExportPDF, 1)

	err := NewChromeRasterizer(Options{}).Rasterize(context.Background(), doc, dest)
	assert.True(t, errors.Is(err, model.ErrRenderingFailure))
	assert.Contains(t, err.Error(), "not staged")
}

func TestFileURL(t *testing.T) {
	u := fileURL("/tmp/ecg graph/document.html")
	assert.Equal(t, "file:///tmp/ecg%20graph/document.html", u)

	rel := fileURL("document.html")
	assert.True(t, strings.HasPrefix(rel, "file:///"))
	assert.True(t, strings.HasSuffix(rel, "/document.html"))
}
