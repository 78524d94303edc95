// Package window generates the analysis windows used by the measurement
// code.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	// TypeBlackmanHarris is the 4-term Blackman-Harris window (-92 dB
	// sidelobes).
	TypeBlackmanHarris
)

// String returns the window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeBlackmanHarris:
		return "blackman-harris"
	default:
		return "unknown"
	}
}

var cosineTerms = map[Type][]float64{
	TypeRectangular:    {1},
	TypeHann:           {0.5, 0.5},
	TypeBlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
}

// Generate returns symmetric coefficients of length n. Unknown types
// yield a rectangular window.
func Generate(t Type, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}

	terms, ok := cosineTerms[t]
	if !ok {
		terms = cosineTerms[TypeRectangular]
	}

	for i := range out {
		x := 2 * math.Pi * float64(i) / float64(n-1)

		sign := 1.0
		for k, a := range terms {
			out[i] += sign * a * math.Cos(float64(k)*x)
			sign = -sign
		}
	}

	return out
}

// Apply multiplies buf in place by the selected window and returns the
// coefficients it used.
func Apply(t Type, buf []float64) []float64 {
	if len(buf) == 0 {
		return nil
	}

	coeffs := Generate(t, len(buf))
	vecmath.MulBlockInPlace(buf, coeffs)

	return coeffs
}

// CoherentGain returns the mean of coeffs, the amplitude a windowed
// bin-centered sine is scaled by.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	return floats.Sum(coeffs) / float64(len(coeffs))
}
