package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// Output formats for the metadata of a generation run
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Formatter prints the metadata of one generation run
type Formatter interface {
	Format(w io.Writer, meta *model.GraphMetadata) error
}

// Formats lists every supported format name
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatCSV, FormatSummary}
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case FormatTable, "":
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unknown output format %q (want one of %s)",
			model.ErrInvalidInput, name, strings.Join(Formats(), ", "))
	}
}

// row is one label/value line shared by the table and csv formats
type row struct {
	Label string
	Value string
}

// rows flattens the display panel followed by the run facts and output files.
func rows(meta *model.GraphMetadata) []row {
	out := make([]row, 0, len(meta.DisplayInformation)+3+len(meta.OutputFiles))
	for _, e := range meta.DisplayInformation {
		out = append(out, row{Label: e.Label, Value: e.Value})
	}
	out = append(out,
		row{Label: "Strips", Value: fmt.Sprintf("%d", meta.StripCount)},
		row{Label: "Pages", Value: fmt.Sprintf("%d", meta.PageCount)},
	)
	if meta.Output != "" {
		out = append(out, row{Label: "Output", Value: meta.Output})
	}
	if len(meta.OutputFiles) > 1 {
		for _, page := range pageNumbers(meta.OutputFiles) {
			out = append(out, row{Label: fmt.Sprintf("Page %d", page), Value: meta.OutputFiles[page]})
		}
	}
	return out
}

// pageNumbers returns the keys of files in ascending order.
func pageNumbers(files map[int]string) []int {
	pages := make([]int, 0, len(files))
	for page := range files {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}
