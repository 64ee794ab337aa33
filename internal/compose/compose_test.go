package compose

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/partition"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
	"github.com/kartikeyarokde/go-ecg-graph/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenesFor(t *testing.T, n int) ([]*render.Scene, *model.GraphMetadata) {
	t.Helper()

	params := partition.DefaultParams()
	result, err := partition.Partition(model.TraceFromValues(make([]float64, n)), params)
	require.NoError(t, err)

	r := render.NewRenderer(render.NewGeometry(params))
	scenes := make([]*render.Scene, 0, len(result.Pages))
	for _, page := range result.Pages {
		scene, err := r.RenderPage(page)
		require.NoError(t, err)
		scenes = append(scenes, scene)
	}
	meta := model.NewGraphMetadata(params.SamplingRate, constants.PlotScale, n, result.RecordTimeSeconds)
	return scenes, meta
}

func TestComposeSinglePage(t *testing.T) {
	scenes, meta := scenesFor(t, 2000)
	doc, err := NewCompositor().Compose(scenes, meta)
	require.NoError(t, err)

	require.Equal(t, 1, doc.PageCount())
	page := doc.Pages[0]
	assert.Equal(t, 1, page.Number)
	assert.Same(t, scenes[0], page.Scene)

	assert.NotContains(t, page.SVG, "$$")
	assert.Contains(t, page.SVG, `width="220mm" height="250mm" viewBox="0 0 220 250"`)
	assert.Contains(t, page.SVG, "Recorded time: 8 s   Duration: 8 seconds   Page 1 of 1")
	assert.Contains(t, page.SVG, `<g transform="translate(10,40)">`)
	assert.Contains(t, page.SVG, `<g transform="scale(0.01)">`)
	assert.Contains(t, page.SVG, `<tspan x="0" y="0" font-size="10">Record frequency: 250 Hz</tspan>`)
	assert.Contains(t, page.SVG, `<tspan x="0" y="48" font-size="10">Duration: 8 seconds</tspan>`)

	assert.Equal(t, "Recorded time: 8 s   Duration: 8 seconds   Page 1 of 1", doc.Heading(1))
	assert.Equal(t, meta.DisplayInformation.Lines(), doc.Meta)
}

func TestComposeMultiplePages(t *testing.T) {
	scenes, meta := scenesFor(t, 10000)
	require.Len(t, scenes, 2)

	doc, err := NewCompositor().Compose(scenes, meta)
	require.NoError(t, err)
	require.Equal(t, 2, doc.PageCount())

	assert.Contains(t, doc.Pages[0].SVG, "Page 1 of 2")
	assert.Contains(t, doc.Pages[1].SVG, "Page 2 of 2")
	assert.Contains(t, doc.Pages[1].SVG, "Recorded time: 40 s")

	page, ok := doc.Page(2)
	assert.True(t, ok)
	assert.Equal(t, 2, page.Number)
	_, ok = doc.Page(3)
	assert.False(t, ok)
	_, ok = doc.Page(0)
	assert.False(t, ok)
}

func TestComposeEscapesAnnotations(t *testing.T) {
	scenes, meta := scenesFor(t, 500)
	meta.DisplayInformation.Merge(map[string]string{
		"Patient": `O'Brien <b>&</b>`,
	})

	doc, err := NewCompositor().Compose(scenes, meta)
	require.NoError(t, err)

	svg := doc.Pages[0].SVG
	assert.Contains(t, svg, `y="64" font-size="10">Patient: O&#39;Brien &lt;b&gt;&amp;&lt;/b&gt;</tspan>`)
	assert.NotContains(t, svg, "<b>")
}

func TestComposeRejectsEmpty(t *testing.T) {
	_, meta := scenesFor(t, 10)
	_, err := NewCompositor().Compose(nil, meta)
	assert.True(t, errors.Is(err, model.ErrRenderingFailure))
}

func TestNewCompositorWithTemplate(t *testing.T) {
	_, err := NewCompositorWithTemplate("<svg>$$meta$$</svg>")
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	c, err := NewCompositorWithTemplate("<svg><text>$$page$$/$$page_count$$</text>$$ecg_graph$$</svg>")
	require.NoError(t, err)

	scenes, meta := scenesFor(t, 10000)
	doc, err := c.Compose(scenes, meta)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Pages[1].SVG, "<svg><text>2/2</text><g transform"))
}

func TestMetaXML(t *testing.T) {
	assert.Equal(t, "", MetaXML(nil))
	assert.Equal(t,
		`<tspan x="0" y="0" font-size="10">a: 1</tspan><tspan x="0" y="16" font-size="10">b: x&lt;y</tspan>`,
		MetaXML([]string{"a: 1", "b: x<y"}))
}

func TestNewLayout(t *testing.T) {
	l := NewLayout(200, 200, 4)
	assert.InDelta(t, 220.0, l.Width, 1e-9)
	assert.InDelta(t, 250.0, l.Height, 1e-9)
	assert.InDelta(t, 40.0, l.GraphY, 1e-9)
	assert.InDelta(t, 15.0, l.TitleY, 1e-9)
	assert.InDelta(t, 20.0, l.MetaY, 1e-9)
	assert.InDelta(t, 5.644, l.MetaLineHeight, 1e-3)
	assert.InDelta(t, 3.528, l.MetaFontSize(), 1e-3)

	// ten lines no longer fit the default panel
	tall := NewLayout(200, 200, 10)
	assert.Greater(t, tall.GraphY, l.GraphY)
	assert.InDelta(t, tall.GraphY+200+10, tall.Height, 1e-9)
	lastLine := tall.MetaY + 9*tall.MetaLineHeight
	assert.Greater(t, tall.GraphY, lastLine)
}

func TestWriteHTML(t *testing.T) {
	scenes, meta := scenesFor(t, 10000)
	c := NewCompositor()
	doc, err := c.Compose(scenes, meta)
	require.NoError(t, err)
	doc.Title = "ECG <graph>"

	var buf bytes.Buffer
	require.NoError(t, c.WriteHTML(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "<title>ECG &lt;graph&gt;</title>")
	assert.Contains(t, out, "@page { size: 220mm 250mm; margin: 0; }")
	assert.Contains(t, out, `<div class="page" id="page-1">`)
	assert.Contains(t, out, `<div class="page" id="page-2">`)
	assert.Equal(t, 2, strings.Count(out, "<svg "))
}

func TestStage(t *testing.T) {
	scenes, meta := scenesFor(t, 10000)
	c := NewCompositor()
	doc, err := c.Compose(scenes, meta)
	require.NoError(t, err)

	ws, err := workspace.New(t.TempDir(), "stage")
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, c.Stage(ws, doc))
	assert.Equal(t, ws.Path("document.html"), doc.HTMLPath)
	assert.Equal(t, ws.Path("page-2.svg"), doc.Pages[1].Path)
	assert.Equal(t, []string{"document.html", "page-1.svg", "page-2.svg"}, ws.Files())

	data, err := os.ReadFile(doc.Pages[0].Path)
	require.NoError(t, err)
	assert.Equal(t, doc.Pages[0].SVG, string(data))
}
