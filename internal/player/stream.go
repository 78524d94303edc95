package player

import (
	"encoding/binary"
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

const bytesPerSample = 4

// Processor is the engine interface a Stream renders through.
type Processor interface {
	ProcessBlock(buf [][]float64)
}

// Stream renders float32 little-endian interleaved PCM from a Source
// filtered by a Processor. It implements io.Reader for oto.
type Stream struct {
	src      Source
	proc     Processor
	channels int

	planar      [][]float64
	interleaved []float64
	pending     []byte
	buf         []byte
}

// NewStream renders blocks of blockSize frames. blockSize must not exceed
// the processor's prepared block size.
func NewStream(src Source, proc Processor, channels, blockSize int) *Stream {
	planar := make([][]float64, channels)
	for c := range planar {
		planar[c] = make([]float64, blockSize)
	}

	return &Stream{
		src:         src,
		proc:        proc,
		channels:    channels,
		planar:      planar,
		interleaved: make([]float64, blockSize*channels),
		buf:         make([]byte, blockSize*channels*bytesPerSample),
	}
}

// Read implements io.Reader. It never fails.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0

	for n < len(p) {
		if len(s.pending) == 0 {
			s.render()
		}

		m := copy(p[n:], s.pending)
		s.pending = s.pending[m:]
		n += m
	}

	return n, nil
}

func (s *Stream) render() {
	s.src.Fill(s.planar)
	s.proc.ProcessBlock(s.planar)

	if s.channels == 2 {
		f64.Interleave2(s.interleaved, s.planar[0], s.planar[1])
	} else {
		for c, ch := range s.planar {
			for i, v := range ch {
				s.interleaved[i*s.channels+c] = v
			}
		}
	}

	for i, v := range s.interleaved {
		v = core.Clamp(v, -1, 1)
		binary.LittleEndian.PutUint32(s.buf[i*bytesPerSample:], math.Float32bits(float32(v)))
	}

	s.pending = s.buf
}
