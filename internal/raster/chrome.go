package raster

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/kartikeyarokde/go-ecg-graph/internal/compose"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

// Chrome lays out CSS pixels at 96 per inch
const cssPixelsPerMM = 96 / 25.4

// ChromeRasterizer prints the staged HTML document with headless Chrome.
type ChromeRasterizer struct {
	opts Options
}

// NewChromeRasterizer creates a Chrome backed rasterizer.
func NewChromeRasterizer(opts Options) *ChromeRasterizer {
	return &ChromeRasterizer{opts: opts.withDefaults()}
}

// Rasterize loads doc.HTMLPath and prints it to a PDF or screenshots each
// page element as an image.
func (c *ChromeRasterizer) Rasterize(ctx context.Context, doc *compose.Document, dest Destination) error {
	if err := dest.Check(doc); err != nil {
		return err
	}
	if doc.HTMLPath == "" {
		return fmt.Errorf("%w: document is not staged", model.ErrRenderingFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	browser, release, err := c.connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrRenderingFailure, err)
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("%w: create page: %w", model.ErrRenderingFailure, err)
	}
	defer page.Close()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             int(math.Ceil(doc.Layout.Width * cssPixelsPerMM)),
		Height:            int(math.Ceil(doc.Layout.Height * cssPixelsPerMM)),
		DeviceScaleFactor: constants.PixelsPerMM * c.opts.Scale / cssPixelsPerMM,
		Mobile:            false,
	}).Call(page); err != nil {
		return fmt.Errorf("%w: set viewport: %w", model.ErrRenderingFailure, err)
	}

	page = page.Context(ctx)
	if err := page.Navigate(fileURL(doc.HTMLPath)); err != nil {
		return fmt.Errorf("%w: load %s: %w", model.ErrRenderingFailure, doc.HTMLPath, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("%w: load %s: %w", model.ErrRenderingFailure, doc.HTMLPath, err)
	}

	if dest.Format.Paged() {
		return c.printPDF(page, doc, dest.Primary())
	}
	return c.screenshot(page, doc, dest)
}

func (c *ChromeRasterizer) connect(ctx context.Context) (*rod.Browser, func(), error) {
	controlURL := c.opts.ControlURL
	release := func() {}

	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(true)
		if bin := c.chromeBin(); bin != "" {
			l = l.Bin(bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
		release = func() {
			l.Kill()
			l.Cleanup()
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		release()
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	c.opts.Logger.Debug("Connected to chrome", util.F("control_url", controlURL))
	return browser, func() {
		// a browser we attached to is left running
		if c.opts.ControlURL == "" {
			_ = browser.Close()
		}
		release()
	}, nil
}

func (c *ChromeRasterizer) chromeBin() string {
	if c.opts.ChromeBin != "" {
		return c.opts.ChromeBin
	}
	if path, ok := launcher.LookPath(); ok {
		return path
	}
	return ""
}

func (c *ChromeRasterizer) printPDF(page *rod.Page, doc *compose.Document, path string) error {
	width := doc.Layout.Width / 25.4
	height := doc.Layout.Height / 25.4
	zero := 0.0

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        &width,
		PaperHeight:       &height,
		MarginTop:         &zero,
		MarginBottom:      &zero,
		MarginLeft:        &zero,
		MarginRight:       &zero,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return fmt.Errorf("%w: print pdf: %w", model.ErrRenderingFailure, err)
	}

	if err := writeStream(path, stream); err != nil {
		return fmt.Errorf("%w: write %s: %w", model.ErrRenderingFailure, path, err)
	}
	c.opts.Logger.Debug("PDF written", util.F("path", path), util.F("pages", doc.PageCount()))
	return nil
}

func (c *ChromeRasterizer) screenshot(page *rod.Page, doc *compose.Document, dest Destination) error {
	format := proto.PageCaptureScreenshotFormatPng
	if dest.Format == model.ExportJPG {
		format = proto.PageCaptureScreenshotFormatJpeg
	}

	for i, path := range dest.Files {
		number := doc.Pages[i].Number
		el, err := page.Element(fmt.Sprintf("#page-%d", number))
		if err != nil {
			return fmt.Errorf("%w: page %d: %w", model.ErrRenderingFailure, number, err)
		}
		data, err := el.Screenshot(format, c.opts.JPEGQuality)
		if err != nil {
			return fmt.Errorf("%w: screenshot page %d: %w", model.ErrRenderingFailure, number, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("%w: write %s: %w", model.ErrRenderingFailure, path, err)
		}
		c.opts.Logger.Debug("Page image written", util.F("path", path), util.F("page", number))
	}
	return nil
}

func writeStream(path string, r io.Reader) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
