// Package testutil provides deterministic test signals and tolerance helpers
// shared by the engine tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// Sine returns amplitude*sin(2*pi*freqHz*n/sampleRate) for n in [0, length).
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Noise returns uniform white noise in [-amplitude, amplitude) from a fixed
// seed.
func Noise(seed uint64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, length)

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse returns a signal that is amplitude at pos and zero elsewhere.
func Impulse(length, pos int, amplitude float64) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = amplitude
	}

	return out
}

// Constant returns a signal holding value.
func Constant(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Planar returns channels zeroed buffers of length samples.
func Planar(channels, length int) [][]float64 {
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, length)
	}

	return out
}

// Interleave packs planar channels of equal length into one frame-major
// buffer.
func Interleave(planar [][]float64) []float64 {
	if len(planar) == 0 {
		return nil
	}

	n := len(planar[0])
	out := make([]float64, n*len(planar))

	for c, ch := range planar {
		for i, v := range ch[:n] {
			out[i*len(planar)+c] = v
		}
	}

	return out
}

// Deinterleave splits a frame-major buffer into planar channels.
func Deinterleave(buf []float64, channels int) [][]float64 {
	n := len(buf) / channels
	out := Planar(channels, n)

	for i := range n {
		for c := range channels {
			out[c][i] = buf[i*channels+c]
		}
	}

	return out
}
