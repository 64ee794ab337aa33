package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

const summaryRule = 60

// SummaryFormatter prints a plain report of one generation run.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

// Format writes the report sections: recording, layout, then files.
func (f *SummaryFormatter) Format(w io.Writer, meta *model.GraphMetadata) error {
	var b strings.Builder

	fmt.Fprintln(&b, strings.Repeat("=", summaryRule))
	fmt.Fprintln(&b, "ECG Graph Summary")
	fmt.Fprintln(&b, strings.Repeat("=", summaryRule))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Recording:")
	fmt.Fprintf(&b, "  Frequency: %s\n", model.FormatFrequency(meta.SamplingRate))
	fmt.Fprintf(&b, "  Signals: %d (%s)\n", meta.SignalCount, util.FormatNumber(meta.SignalCount))
	fmt.Fprintf(&b, "  Duration: %s\n", util.FormatRecordingTime(meta.RecordTimeSeconds))
	fmt.Fprintf(&b, "  Scale: %s\n", meta.Scale)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Layout:")
	fmt.Fprintf(&b, "  Strips: %d\n", meta.StripCount)
	fmt.Fprintf(&b, "  Pages: %d\n", meta.PageCount)
	fmt.Fprintln(&b)

	if len(meta.OutputFiles) == 0 {
		fmt.Fprintln(&b, "No output written")
	} else {
		fmt.Fprintln(&b, "Output Files:")
		fmt.Fprintln(&b, strings.Repeat("-", summaryRule))
		for _, page := range pageNumbers(meta.OutputFiles) {
			path := meta.OutputFiles[page]
			if info, err := os.Stat(path); err == nil {
				fmt.Fprintf(&b, "  Page %-4d %s (%s)\n", page, path, util.FormatBytes(info.Size()))
			} else {
				fmt.Fprintf(&b, "  Page %-4d %s\n", page, path)
			}
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, strings.Repeat("=", summaryRule))

	_, err := io.WriteString(w, b.String())
	return err
}
