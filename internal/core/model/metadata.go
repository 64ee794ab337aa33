package model

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
)

// Display labels of the metadata panel
const (
	LabelFrequency = "Record frequency"
	LabelScale     = "Scale"
	LabelSignals   = "No. of signals"
	LabelDuration  = "Duration"
)

// GraphMetadata describes one conversion run.
type GraphMetadata struct {
	SamplingRate       float64        `json:"record_frequency"`
	Scale              string         `json:"scale"`
	SignalCount        int            `json:"signals_num"`
	RecordTimeSeconds  int            `json:"record_time"`
	StripCount         int            `json:"strip_count"`
	PageCount          int            `json:"page_count"`
	Output             string         `json:"output"`
	OutputFiles        map[int]string `json:"output_files"`
	DisplayInformation Display        `json:"display_information"`
}

// NewGraphMetadata fills the derived facts and the default display panel.
func NewGraphMetadata(rate float64, scale string, signals, recordTime int) *GraphMetadata {
	return &GraphMetadata{
		SamplingRate:      rate,
		Scale:             scale,
		SignalCount:       signals,
		RecordTimeSeconds: recordTime,
		OutputFiles:       make(map[int]string),
		DisplayInformation: Display{
			{Label: LabelFrequency, Value: FormatFrequency(rate)},
			{Label: LabelScale, Value: scale},
			{Label: LabelSignals, Value: strconv.Itoa(signals)},
			{Label: LabelDuration, Value: FormatRecordTime(recordTime)},
		},
	}
}

// FormatFrequency renders a sampling rate such as "250 Hz".
func FormatFrequency(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + " Hz"
}

// FormatRecordTime renders a duration in whole seconds.
func FormatRecordTime(seconds int) string {
	if seconds == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", seconds)
}

// DisplayEntry is one line of the metadata panel.
type DisplayEntry struct {
	Label string
	Value string
}

// Display is an ordered label to value mapping.
type Display []DisplayEntry

// Get looks up a label.
func (d Display) Get(label string) (string, bool) {
	for _, e := range d {
		if e.Label == label {
			return e.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing label or appends a new entry.
func (d *Display) Set(label, value string) {
	for i := range *d {
		if (*d)[i].Label == label {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, DisplayEntry{Label: label, Value: value})
}

// Merge applies caller annotations. New labels are appended in key order.
func (d *Display) Merge(annotations map[string]string) {
	keys := make([]string, 0, len(annotations))
	for k := range annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, annotations[k])
	}
}

// Lines renders "Label: Value" strings in order.
func (d Display) Lines() []string {
	lines := make([]string, len(d))
	for i, e := range d {
		lines[i] = e.Label + ": " + e.Value
	}
	return lines
}

// MarshalJSON writes the panel as an object, keeping entry order.
func (d Display) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		value, err := sonic.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
