// Package compose splices rendered scenes and the metadata panel into the
// page template, and wraps the pages in a printable HTML document.
package compose

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
	"github.com/kartikeyarokde/go-ecg-graph/internal/workspace"
)

//go:embed templates/page.svg
var pageTemplate string

//go:embed templates/print.html
var printTemplate string

// Template tokens
const (
	TokenGraph        = "$$ecg_graph$$"
	TokenMeta         = "$$meta$$"
	TokenRecordedTime = "$$recorded_time$$"
	TokenDuration     = "$$duration$$"
	TokenPage         = "$$page$$"
	TokenPageCount    = "$$page_count$$"
	TokenWidth        = "$$width$$"
	TokenHeight       = "$$height$$"

	// layout tokens, in millimetres
	TokenMargin   = "$$margin$$"
	TokenTitleY   = "$$title_y$$"
	TokenHeadingX = "$$heading_x$$"
	TokenMetaY    = "$$meta_y$$"
	TokenGraphY   = "$$graph_y$$"
	TokenPx       = "$$px$$"
)

// DefaultTitle names the HTML document.
const DefaultTitle = "ECG graph"

// Page is one composed page.
type Page struct {
	Number int
	Scene  *render.Scene
	// SVG is the complete standalone page.
	SVG string
	// Path is set once the page is staged in a workspace.
	Path string
}

// Document is every composed page of a run plus what native backends need
// to draw the page furniture themselves.
type Document struct {
	Title        string
	Layout       Layout
	Meta         []string
	RecordedTime int
	Duration     string
	Pages        []Page
	// HTMLPath is set once the document is staged in a workspace.
	HTMLPath string
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Page returns page number n, starting at 1.
func (d *Document) Page(n int) (Page, bool) {
	if n < 1 || n > len(d.Pages) {
		return Page{}, false
	}
	return d.Pages[n-1], true
}

// Heading is the line printed next to the title of page n.
func (d *Document) Heading(n int) string {
	return fmt.Sprintf("Recorded time: %d s   Duration: %s   Page %d of %d",
		d.RecordedTime, d.Duration, n, len(d.Pages))
}

// Compositor fills the page template.
type Compositor struct {
	page  string
	print *template.Template
}

// NewCompositor uses the built-in page template.
func NewCompositor() *Compositor {
	c, err := NewCompositorWithTemplate(pageTemplate)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCompositorWithTemplate uses a custom page template. It must hold the
// graph token.
func NewCompositorWithTemplate(page string) (*Compositor, error) {
	if !strings.Contains(page, TokenGraph) {
		return nil, fmt.Errorf("%w: page template has no %s token", model.ErrInvalidInput, TokenGraph)
	}
	return &Compositor{
		page:  page,
		print: template.Must(template.New("print").Parse(printTemplate)),
	}, nil
}

// Compose builds one page per scene. Scenes must share one geometry.
func (c *Compositor) Compose(scenes []*render.Scene, meta *model.GraphMetadata) (*Document, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: nothing to compose", model.ErrRenderingFailure)
	}

	lines := meta.DisplayInformation.Lines()
	duration, ok := meta.DisplayInformation.Get(model.LabelDuration)
	if !ok {
		duration = model.FormatRecordTime(meta.RecordTimeSeconds)
	}

	doc := &Document{
		Title:        DefaultTitle,
		Layout:       NewLayout(scenes[0].Width, scenes[0].Height, len(lines)),
		Meta:         lines,
		RecordedTime: meta.RecordTimeSeconds,
		Duration:     duration,
		Pages:        make([]Page, 0, len(scenes)),
	}

	l := doc.Layout
	common := []string{
		TokenMeta, MetaXML(lines),
		TokenRecordedTime, strconv.Itoa(meta.RecordTimeSeconds),
		TokenDuration, xmlEscape(duration),
		TokenPageCount, strconv.Itoa(len(scenes)),
		TokenWidth, formatMM(l.Width),
		TokenHeight, formatMM(l.Height),
		TokenMargin, formatMM(l.Margin),
		TokenTitleY, formatMM(l.TitleY),
		TokenHeadingX, formatMM(l.HeadingX),
		TokenMetaY, formatMM(l.MetaY),
		TokenGraphY, formatMM(l.GraphY),
		TokenPx, strconv.FormatFloat(l.PxToMM, 'f', 6, 64),
	}

	for i, scene := range scenes {
		number := i + 1
		fragment, err := scene.SVG()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", model.ErrRenderingFailure, number, err)
		}

		pairs := append([]string{
			TokenGraph, fragment,
			TokenPage, strconv.Itoa(number),
		}, common...)
		doc.Pages = append(doc.Pages, Page{
			Number: number,
			Scene:  scene,
			SVG:    strings.NewReplacer(pairs...).Replace(c.page),
		})
	}
	return doc, nil
}

// WriteHTML writes the print wrapper holding every page of doc inline.
func (c *Compositor) WriteHTML(w io.Writer, doc *Document) error {
	return c.print.Execute(w, struct {
		Title  string
		Width  string
		Height string
		Pages  []Page
	}{
		Title:  html.EscapeString(doc.Title),
		Width:  formatMM(doc.Layout.Width),
		Height: formatMM(doc.Layout.Height),
		Pages:  doc.Pages,
	})
}

// Stage writes each page as page-<n>.svg and the HTML wrapper as
// document.html into ws, and records their paths on doc.
func (c *Compositor) Stage(ws *workspace.Workspace, doc *Document) error {
	for i := range doc.Pages {
		page := &doc.Pages[i]
		path, err := ws.WriteFile(fmt.Sprintf("page-%d.svg", page.Number), []byte(page.SVG))
		if err != nil {
			return err
		}
		page.Path = path
	}

	path, err := ws.Write("document.html", func(w io.Writer) error {
		return c.WriteHTML(w, doc)
	})
	if err != nil {
		return err
	}
	doc.HTMLPath = path
	return nil
}

// MetaXML renders the metadata panel as one tspan per line.
func MetaXML(lines []string) string {
	var b bytes.Buffer
	for i, line := range lines {
		fmt.Fprintf(&b, `<tspan x="0" y="%d" font-size="%d">`,
			i*constants.MetaLineSpacing, constants.MetaFontSizePx)
		_ = xml.EscapeText(&b, []byte(line))
		b.WriteString("</tspan>")
	}
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func formatMM(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
