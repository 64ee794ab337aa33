package formatter

import (
	"io"
	"strings"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

// Minimum readable column widths
const (
	minLabelWidth = 8
	minValueWidth = 8
)

type TableFormatter struct {
	headers  []string
	maxWidth int  // total line width in terminal cells, 0 for unlimited
	color    bool // highlight the header row
}

func NewTableFormatter() *TableFormatter {
	f := NewTableFormatterWidth(util.TerminalWidth())
	f.color = util.IsTerminal()
	return f
}

// NewTableFormatterWidth fits the table into maxWidth cells, truncating long values.
func NewTableFormatterWidth(maxWidth int) *TableFormatter {
	return &TableFormatter{
		headers:  []string{"Field", "Value"},
		maxWidth: maxWidth,
	}
}

func (f *TableFormatter) Format(w io.Writer, meta *model.GraphMetadata) error {
	data := rows(meta)
	widths := f.calculateColumnWidths(data)

	var b strings.Builder
	f.printBorder(&b, widths, "top")
	f.printHeader(&b, widths)
	f.printBorder(&b, widths, "middle")

	for i, r := range data {
		// Output paths start a separate block
		if r.Label == "Output" && i > 0 {
			f.printBorder(&b, widths, "middle")
		}
		f.printRow(&b, []string{r.Label, r.Value}, widths)
	}

	f.printBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

// calculateColumnWidths sizes both columns by display width, shrinking the
// value column when the table would overflow maxWidth.
func (f *TableFormatter) calculateColumnWidths(data []row) []int {
	widths := []int{
		util.GetDisplayWidth(f.headers[0]),
		util.GetDisplayWidth(f.headers[1]),
	}
	for _, r := range data {
		widths[0] = max(widths[0], util.GetDisplayWidth(r.Label))
		widths[1] = max(widths[1], util.GetDisplayWidth(r.Value))
	}
	widths[0] = max(widths[0], minLabelWidth)
	widths[1] = max(widths[1], minValueWidth)

	// "│ " + label + " │ " + value + " │"
	if f.maxWidth > 0 {
		room := f.maxWidth - widths[0] - 7
		if widths[1] > room {
			widths[1] = max(room, minValueWidth)
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}

func (f *TableFormatter) printHeader(b *strings.Builder, widths []int) {
	if !f.color {
		f.printRow(b, f.headers, widths)
		return
	}
	b.WriteString("│")
	for i, header := range f.headers {
		b.WriteString(" ")
		b.WriteString(util.FormatTitle(util.PadString(header, widths[i], true)))
		b.WriteString(" │")
	}
	b.WriteString("\n")
}

// printRow prints a row with every cell left-aligned
func (f *TableFormatter) printRow(b *strings.Builder, values []string, widths []int) {
	b.WriteString("│")
	for i, value := range values {
		if util.GetDisplayWidth(value) > widths[i] {
			value = util.TruncateString(value, widths[i])
		}
		b.WriteString(" ")
		b.WriteString(util.PadString(value, widths[i], true))
		b.WriteString(" │")
	}
	b.WriteString("\n")
}
