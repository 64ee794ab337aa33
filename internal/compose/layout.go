package compose

import (
	"math"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
)

// Offsets of the page furniture from the top margin, in millimetres
const (
	titleOffset = 5.0
	metaOffset  = 10.0
	headingGap  = 15.0
	metaPadding = 3.0
)

// Layout places the title, metadata panel and graph on a page. All values
// are millimetres from the top left corner.
type Layout struct {
	Width  float64
	Height float64
	Margin float64

	TitleY   float64
	HeadingX float64
	MetaY    float64
	// MetaLineHeight is the distance between two panel lines.
	MetaLineHeight float64
	// PxToMM converts the panel's pixel units at the output resolution.
	PxToMM float64

	GraphY      float64
	GraphWidth  float64
	GraphHeight float64
}

// NewLayout sizes a page around a graph. The metadata panel grows past its
// default height when there are more lines than fit.
func NewLayout(graphWidth, graphHeight float64, metaLines int) Layout {
	px := 25.4 / float64(constants.ResolutionPPI)
	margin := constants.PageMarginMM
	lineHeight := float64(constants.MetaLineSpacing) * px

	panel := constants.MetaPanelMM
	if metaLines > 0 {
		panel = math.Max(panel, metaOffset+float64(metaLines-1)*lineHeight+metaPadding)
	}

	l := Layout{
		Margin:         margin,
		TitleY:         margin + titleOffset,
		HeadingX:       margin + headingGap,
		MetaY:          margin + metaOffset,
		MetaLineHeight: lineHeight,
		PxToMM:         px,
		GraphY:         margin + panel,
		GraphWidth:     graphWidth,
		GraphHeight:    graphHeight,
	}
	l.Width = graphWidth + 2*margin
	l.Height = l.GraphY + graphHeight + margin
	return l
}

// MetaFontSize is the panel font size in millimetres.
func (l Layout) MetaFontSize() float64 {
	return float64(constants.MetaFontSizePx) * l.PxToMM
}

// Page furniture drawn by every backend, sizes in millimetres
const (
	Title       = "ECG"
	TitleSize   = 5.0
	HeadingSize = 3.5
)

// TextColor is the color of the title, heading and metadata panel.
var TextColor = render.Color{R: 0x22, G: 0x22, B: 0x22}
