package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(w io.Writer, meta *model.GraphMetadata) error {
	data, err := MarshalMetadata(meta)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// MarshalMetadata renders meta as indented JSON, the layout of the
// metadata file written next to the graph.
func MarshalMetadata(meta *model.GraphMetadata) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(meta, "", "  ")
}
