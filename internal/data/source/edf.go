package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenPSG/edf"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// readChunk is the number of samples pulled from the signal reader at once
const readChunk = 4096

// Fixed EDF header layout, read directly for channel selection and the
// recording rate.
const (
	edfFixedHeader   = 256
	edfSignalHeader  = 256
	edfPatientOff    = 8
	edfDurationOff   = 244
	edfSignalCntOff  = 252
	edfLabelLen      = 16
	edfSamplesOffset = 216 // bytes per signal preceding the samples-per-record field
)

// channelInfo describes one EDF signal.
type channelInfo struct {
	Label            string
	SamplesPerRecord int
}

type edfLayout struct {
	PatientID      string
	RecordDuration float64 // seconds
	Channels       []channelInfo
}

// ReadEDF loads one channel of an EDF/EDF+ recording. An empty channel
// selects the first label containing "ECG", or channel 0.
func ReadEDF(path, channel string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: record path is invalid: %w", model.ErrInvalidInput, err)
	}
	defer f.Close()

	reader, err := edf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid EDF file: %w", model.ErrInvalidInput, path, err)
	}

	layout, err := readEDFLayout(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrInvalidInput, path, err)
	}

	index, err := selectChannel(layout.Channels, channel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrInvalidInput, path, err)
	}
	info := layout.Channels[index]

	signal, err := reader.Signal(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrInvalidInput, path, err)
	}

	var trace model.Trace
	buf := make([]float64, readChunk)
	for {
		n, err := signal.Read(buf)
		for _, v := range buf[:n] {
			trace = append(trace, model.Value(v))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: reading channel %q: %w", model.ErrInvalidInput, path, info.Label, err)
		}
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: %s: channel %q holds no samples", model.ErrInvalidInput, path, info.Label)
	}

	var rate float64
	if layout.RecordDuration > 0 {
		rate = float64(info.SamplesPerRecord) / layout.RecordDuration
	}

	return &Recording{
		Trace:        trace,
		SamplingRate: rate,
		Channel:      info.Label,
		PatientID:    layout.PatientID,
		Source:       path,
	}, nil
}

func readEDFLayout(r io.ReadSeeker) (*edfLayout, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	fixed := make([]byte, edfFixedHeader)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	count, err := strconv.Atoi(field(fixed, edfSignalCntOff, 4))
	if err != nil || count <= 0 {
		return nil, fmt.Errorf("invalid signal count %q", field(fixed, edfSignalCntOff, 4))
	}
	duration, err := strconv.ParseFloat(field(fixed, edfDurationOff, 8), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid data record duration %q", field(fixed, edfDurationOff, 8))
	}

	signals := make([]byte, count*edfSignalHeader)
	if _, err := io.ReadFull(r, signals); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}

	layout := &edfLayout{
		PatientID:      field(fixed, edfPatientOff, 80),
		RecordDuration: duration,
		Channels:       make([]channelInfo, count),
	}
	for i := range layout.Channels {
		layout.Channels[i].Label = field(signals, i*edfLabelLen, edfLabelLen)
		spr := field(signals, count*edfSamplesOffset+i*8, 8)
		if layout.Channels[i].SamplesPerRecord, err = strconv.Atoi(spr); err != nil {
			return nil, fmt.Errorf("invalid samples per record %q", spr)
		}
	}
	return layout, nil
}

func field(b []byte, off, n int) string {
	return strings.TrimSpace(string(b[off : off+n]))
}

func selectChannel(channels []channelInfo, want string) (int, error) {
	if want != "" {
		for i, c := range channels {
			if strings.EqualFold(c.Label, want) {
				return i, nil
			}
		}
		for i, c := range channels {
			if strings.Contains(strings.ToLower(c.Label), strings.ToLower(want)) {
				return i, nil
			}
		}
		labels := make([]string, len(channels))
		for i, c := range channels {
			labels[i] = c.Label
		}
		return 0, fmt.Errorf("no channel matches %q (have %s)", want, strings.Join(labels, ", "))
	}

	for i, c := range channels {
		if strings.Contains(strings.ToUpper(c.Label), "ECG") {
			return i, nil
		}
	}
	return 0, nil
}
