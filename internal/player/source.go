package player

import "math"

// Source produces planar frames for a Stream.
type Source interface {
	// Fill writes len(dst[c]) frames into every channel of dst.
	Fill(dst [][]float64)
}

// Tone is a sine oscillator copied to every channel.
type Tone struct {
	amplitude float64
	step      float64
	phase     float64
}

// NewTone returns a sine source of freqHz at sampleRate.
func NewTone(freqHz, sampleRate, amplitude float64) *Tone {
	return &Tone{
		amplitude: amplitude,
		step:      2 * math.Pi * freqHz / sampleRate,
	}
}

// Fill implements Source.
func (t *Tone) Fill(dst [][]float64) {
	if len(dst) == 0 {
		return
	}

	first := dst[0]
	for i := range first {
		first[i] = t.amplitude * math.Sin(t.phase)

		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}

	for _, ch := range dst[1:] {
		copy(ch, first)
	}
}

// Loop repeats a planar buffer forever. Output channels beyond the
// buffer reuse its last channel.
type Loop struct {
	data [][]float64
	pos  int
}

// NewLoop returns a looping source over data. data must hold at least
// one non-empty channel.
func NewLoop(data [][]float64) *Loop {
	return &Loop{data: data}
}

// Fill implements Source.
func (l *Loop) Fill(dst [][]float64) {
	if len(dst) == 0 {
		return
	}

	n := len(dst[0])
	length := len(l.data[0])

	for c, ch := range dst {
		src := l.data[min(c, len(l.data)-1)]
		pos := l.pos

		for i := range n {
			ch[i] = src[pos]

			pos++
			if pos == length {
				pos = 0
			}
		}
	}

	l.pos = (l.pos + n) % length
}
