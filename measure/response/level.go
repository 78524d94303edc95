package response

import (
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/floats"
)

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return floats.Norm(x, math.Inf(1))
}

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return floats.Norm(x, 2) / math.Sqrt(float64(len(x)))
}

// ToneAmplitude estimates the amplitude of the freqHz component of x by
// correlating with a quadrature pair. The estimate is exact when x holds
// a whole number of periods.
func ToneAmplitude(x []float64, freqHz, sampleRate float64) float64 {
	if len(x) == 0 {
		return 0
	}

	c := make([]float64, len(x))
	s := make([]float64, len(x))

	w := 2 * math.Pi * freqHz / sampleRate
	for i := range x {
		s[i], c[i] = math.Sincos(w * float64(i))
	}

	re := f64.DotProduct(x, c)
	im := f64.DotProduct(x, s)

	return 2 * math.Hypot(re, im) / float64(len(x))
}

// WholePeriods returns the largest length <= n that holds an integer
// number of periods of freqHz, or n when not even one period fits.
func WholePeriods(n int, freqHz, sampleRate float64) int {
	period := sampleRate / freqHz

	periods := math.Floor(float64(n) / period)
	if periods < 1 {
		return n
	}

	return int(math.Round(periods * period))
}
