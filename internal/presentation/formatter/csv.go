package formatter

import (
	"encoding/csv"
	"io"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, meta *model.GraphMetadata) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Field", "Value"}); err != nil {
		return err
	}
	for _, r := range rows(meta) {
		if err := cw.Write([]string{r.Label, r.Value}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
