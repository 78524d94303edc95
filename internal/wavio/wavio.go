// Package wavio reads and writes integer PCM WAV files as planar float64
// blocks in [-1, 1].
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

const pcmFormat = 1

var (
	// ErrInvalidFile is returned when the input is not a readable WAV file.
	ErrInvalidFile = errors.New("wavio: invalid WAV file")
	// ErrUnsupportedBitDepth is returned for bit depths other than 16, 24
	// and 32.
	ErrUnsupportedBitDepth = errors.New("wavio: unsupported bit depth")
	// ErrChannelMismatch is returned when a block does not match the
	// channel count of the stream.
	ErrChannelMismatch = errors.New("wavio: channel count mismatch")
)

func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32767, nil
	case 24:
		return 8388607, nil
	case 32:
		return 2147483647, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// Reader decodes a WAV stream block by block.
type Reader struct {
	closer   io.Closer
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	scale    float64

	ints    *audio.IntBuffer
	scratch []float64
}

// Open opens a WAV file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: open input: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.closer = f

	return r, nil
}

// NewReader decodes from rs. The caller keeps ownership of rs.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}

	format := decoder.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, ErrInvalidFile
	}

	bitDepth := int(decoder.BitDepth)

	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	return &Reader{
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: bitDepth,
		scale:    scale,
		ints:     &audio.IntBuffer{Format: format},
	}, nil
}

// SampleRate returns the stream rate in Hz.
func (r *Reader) SampleRate() int { return r.rate }

// Channels returns the channel count of the stream.
func (r *Reader) Channels() int { return r.channels }

// BitDepth returns the PCM bit depth of the stream.
func (r *Reader) BitDepth() int { return r.bitDepth }

// Read fills dst with up to len(dst[0]) frames and returns the number of
// frames read. It returns io.EOF once the stream is exhausted.
func (r *Reader) Read(dst [][]float64) (int, error) {
	if len(dst) != r.channels {
		return 0, fmt.Errorf("%w: got %d, stream has %d", ErrChannelMismatch, len(dst), r.channels)
	}

	want := len(dst[0]) * r.channels
	if cap(r.ints.Data) < want {
		r.ints.Data = make([]int, want)
	}

	r.ints.Data = r.ints.Data[:want]
	r.scratch = core.EnsureLen(r.scratch, want)

	n, err := r.decoder.PCMBuffer(r.ints)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("wavio: read: %w", err)
	}

	// n counts samples, not frames.
	frames := min(n, want) / r.channels
	if frames == 0 {
		return 0, io.EOF
	}

	samples := r.scratch[:frames*r.channels]
	for i, v := range r.ints.Data[:len(samples)] {
		samples[i] = float64(v)
	}

	f64.Scale(samples, samples, 1/r.scale)

	for c := range dst {
		ch := dst[c][:frames]
		for i := range ch {
			ch[i] = samples[i*r.channels+c]
		}
	}

	return frames, nil
}

// Close releases the underlying file when the reader was opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Writer encodes planar float blocks into a WAV stream.
type Writer struct {
	closer   io.Closer
	encoder  *wav.Encoder
	channels int
	scale    float64

	ints    *audio.IntBuffer
	scratch []float64
}

// Create creates a WAV file for writing.
func Create(path string, sampleRate, bitDepth, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: create output: %w", err)
	}

	w, err := NewWriter(f, sampleRate, bitDepth, channels)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w.closer = f

	return w, nil
}

// NewWriter encodes into ws. Close finalizes the header but leaves ws open.
func NewWriter(ws io.WriteSeeker, sampleRate, bitDepth, channels int) (*Writer, error) {
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	if sampleRate < 1 || channels < 1 {
		return nil, fmt.Errorf("wavio: invalid format: %d Hz, %d channels", sampleRate, channels)
	}

	return &Writer{
		encoder:  wav.NewEncoder(ws, sampleRate, bitDepth, channels, pcmFormat),
		channels: channels,
		scale:    scale,
		ints: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write encodes the first n frames of src. Samples are clipped to [-1, 1].
func (w *Writer) Write(src [][]float64, n int) error {
	if len(src) != w.channels {
		return fmt.Errorf("%w: got %d, stream has %d", ErrChannelMismatch, len(src), w.channels)
	}

	if n <= 0 {
		return nil
	}

	total := n * w.channels
	if cap(w.ints.Data) < total {
		w.ints.Data = make([]int, total)
	}

	w.scratch = core.EnsureLen(w.scratch, total)
	samples := w.scratch

	if w.channels == 2 {
		f64.Interleave2(samples, src[0][:n], src[1][:n])
	} else {
		for c, ch := range src {
			for i, v := range ch[:n] {
				samples[i*w.channels+c] = v
			}
		}
	}

	f64.Scale(samples, samples, w.scale)

	ints := w.ints.Data[:total]
	for i, v := range samples {
		ints[i] = int(core.Clamp(v, -w.scale, w.scale))
	}

	w.ints.Data = ints

	if err := w.encoder.Write(w.ints); err != nil {
		return fmt.Errorf("wavio: write: %w", err)
	}

	return nil
}

// Close writes the final header and closes a file opened by Create.
func (w *Writer) Close() error {
	if err := w.encoder.Close(); err != nil {
		return fmt.Errorf("wavio: finalize: %w", err)
	}

	if w.closer == nil {
		return nil
	}

	return w.closer.Close()
}
