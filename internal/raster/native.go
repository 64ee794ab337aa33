package raster

import (
	"context"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"github.com/kartikeyarokde/go-ecg-graph/internal/compose"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const pointsPerMM = 72 / 25.4

// canvas is the drawing surface shared by the PDF and image backends.
// Coordinates and sizes are millimetres from the top left page corner.
type canvas interface {
	Fill(x, y, w, h float64, c render.Color)
	Line(x1, y1, x2, y2, width float64, c render.Color)
	Polyline(points render.Polyline, dx, dy, width float64, c render.Color)
	Text(x, y, size float64, bold bool, c render.Color, s string)
}

// NativeRasterizer draws scenes directly, without an external process.
type NativeRasterizer struct {
	opts Options
}

// NewNativeRasterizer creates a rasterizer backed by fpdf and gg.
func NewNativeRasterizer(opts Options) *NativeRasterizer {
	return &NativeRasterizer{opts: opts.withDefaults()}
}

// Rasterize writes doc to dest.
func (n *NativeRasterizer) Rasterize(ctx context.Context, doc *compose.Document, dest Destination) error {
	if err := dest.Check(doc); err != nil {
		return err
	}
	for _, page := range doc.Pages {
		if page.Scene == nil {
			return fmt.Errorf("%w: page %d has no scene", model.ErrRenderingFailure, page.Number)
		}
	}

	if dest.Format.Paged() {
		return n.writePDF(ctx, doc, dest.Primary())
	}

	for i, path := range dest.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := doc.Pages[i]
		if err := n.writeImage(doc, page, dest.Format, path); err != nil {
			return fmt.Errorf("%w: page %d: %w", model.ErrRenderingFailure, page.Number, err)
		}
		n.opts.Logger.Debug("Page image written", util.F("path", path), util.F("page", page.Number))
	}
	return nil
}

func (n *NativeRasterizer) writePDF(ctx context.Context, doc *compose.Document, path string) error {
	l := doc.Layout
	size := fpdf.SizeType{Wd: l.Width, Ht: l.Height}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           size,
	})
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("ecg-graph", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetLineJoinStyle("round")

	c := &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		pdf.AddPageFormat("P", size)
		paint(c, doc, page)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("%w: write %s: %w", model.ErrRenderingFailure, path, err)
	}
	n.opts.Logger.Debug("PDF written", util.F("path", path), util.F("pages", doc.PageCount()))
	return nil
}

func (n *NativeRasterizer) writeImage(doc *compose.Document, page compose.Page, format model.ExportFormat, path string) error {
	ppm := constants.PixelsPerMM * n.opts.Scale
	l := doc.Layout
	dc := gg.NewContext(int(l.Width*ppm+0.5), int(l.Height*ppm+0.5))
	dc.SetLineJoin(gg.LineJoinRound)

	paint(&imageCanvas{dc: dc, ppm: ppm}, doc, page)

	if format == model.ExportJPG {
		return gg.SaveJPG(path, dc.Image(), n.opts.JPEGQuality)
	}
	return dc.SavePNG(path)
}

// paint draws the page furniture and the scene of page.
func paint(c canvas, doc *compose.Document, page compose.Page) {
	l := doc.Layout
	c.Fill(0, 0, l.Width, l.Height, render.PaperColor)

	c.Text(l.Margin, l.TitleY, compose.TitleSize, true, compose.TextColor, compose.Title)
	c.Text(l.HeadingX, l.TitleY, compose.HeadingSize, false, compose.TextColor, doc.Heading(page.Number))
	for i, line := range doc.Meta {
		c.Text(l.Margin, l.MetaY+float64(i)*l.MetaLineHeight, l.MetaFontSize(), false, compose.TextColor, line)
	}

	scene := page.Scene
	dx, dy := l.Margin, l.GraphY
	for _, g := range scene.Grid {
		if g.Major {
			c.Line(dx+g.X1, dy+g.Y1, dx+g.X2, dy+g.Y2, render.MajorGridWidth, render.MajorGridColor)
		} else {
			c.Line(dx+g.X1, dy+g.Y1, dx+g.X2, dy+g.Y2, render.MinorGridWidth, render.MinorGridColor)
		}
	}
	for _, curve := range scene.Curves {
		c.Polyline(curve, dx, dy, render.TraceWidth, render.TraceColor)
	}
	if len(scene.Calibration) > 1 {
		c.Polyline(scene.Calibration, dx, dy, render.TraceWidth, render.TraceColor)
	}
	for _, label := range scene.Labels {
		c.Text(dx+label.X, dy+label.Y, render.LabelSize, false, render.LabelColor, label.Text)
	}
}

type pdfCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *pdfCanvas) Fill(x, y, w, h float64, c render.Color) {
	p.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	p.pdf.Rect(x, y, w, h, "F")
}

func (p *pdfCanvas) Line(x1, y1, x2, y2, width float64, c render.Color) {
	p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetLineWidth(width)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *pdfCanvas) Polyline(points render.Polyline, dx, dy, width float64, c render.Color) {
	if len(points) < 2 {
		return
	}
	p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetLineWidth(width)
	p.pdf.MoveTo(dx+points[0].X, dy+points[0].Y)
	for _, pt := range points[1:] {
		p.pdf.LineTo(dx+pt.X, dy+pt.Y)
	}
	p.pdf.DrawPath("D")
}

func (p *pdfCanvas) Text(x, y, size float64, bold bool, c render.Color, s string) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont("Helvetica", style, size*pointsPerMM)
	p.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	p.pdf.Text(x, y, p.tr(s))
}

type imageCanvas struct {
	dc  *gg.Context
	ppm float64 // pixels per millimetre
}

func (i *imageCanvas) Fill(x, y, w, h float64, c render.Color) {
	i.dc.SetRGB(c.Float())
	i.dc.DrawRectangle(x*i.ppm, y*i.ppm, w*i.ppm, h*i.ppm)
	i.dc.Fill()
}

func (i *imageCanvas) Line(x1, y1, x2, y2, width float64, c render.Color) {
	i.dc.SetRGB(c.Float())
	i.dc.SetLineWidth(width * i.ppm)
	i.dc.DrawLine(x1*i.ppm, y1*i.ppm, x2*i.ppm, y2*i.ppm)
	i.dc.Stroke()
}

func (i *imageCanvas) Polyline(points render.Polyline, dx, dy, width float64, c render.Color) {
	if len(points) < 2 {
		return
	}
	i.dc.SetRGB(c.Float())
	i.dc.SetLineWidth(width * i.ppm)
	i.dc.MoveTo((dx+points[0].X)*i.ppm, (dy+points[0].Y)*i.ppm)
	for _, pt := range points[1:] {
		i.dc.LineTo((dx+pt.X)*i.ppm, (dy+pt.Y)*i.ppm)
	}
	i.dc.Stroke()
}

func (i *imageCanvas) Text(x, y, size float64, bold bool, c render.Color, s string) {
	if face := fontFace(bold, size*i.ppm); face != nil {
		i.dc.SetFontFace(face)
	}
	i.dc.SetRGB(c.Float())
	i.dc.DrawString(s, x*i.ppm, y*i.ppm)
}

var (
	fontsOnce  sync.Once
	fontNormal *truetype.Font
	fontBold   *truetype.Font
)

// fontFace returns a Go font face of px pixels, or nil when the embedded
// fonts cannot be parsed and gg's built-in face has to do.
func fontFace(isBold bool, px float64) font.Face {
	fontsOnce.Do(func() {
		fontNormal, _ = truetype.Parse(goregular.TTF)
		fontBold, _ = truetype.Parse(gobold.TTF)
	})

	f := fontNormal
	if isBold {
		f = fontBold
	}
	if f == nil {
		return nil
	}
	return truetype.NewFace(f, &truetype.Options{Size: px, DPI: 72})
}
