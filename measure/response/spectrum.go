package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-vcf/dsp/window"
)

var (
	// ErrEmptySignal is returned when there is nothing to measure.
	ErrEmptySignal = errors.New("response: empty signal")
	// ErrInvalidSampleRate is returned for non-positive or non-finite rates.
	ErrInvalidSampleRate = errors.New("response: invalid sample rate")
)

// Spectrum is the one-sided, windowed spectrum of a real signal.
// Magnitudes are scaled so a bin-centered sine of amplitude A reads A.
type Spectrum struct {
	SampleRate float64
	FFTSize    int
	// Magnitude and Power hold bins 0..FFTSize/2.
	Magnitude []float64
	Power     []float64
}

// Analyze windows signal with a Hann window, zero-pads it to the next
// power of two and returns its spectrum.
func Analyze(signal []float64, sampleRate float64) (*Spectrum, error) {
	return AnalyzeWindow(signal, sampleRate, window.TypeHann)
}

// AnalyzeWindow is Analyze with an explicit window.
func AnalyzeWindow(signal []float64, sampleRate float64, w window.Type) (*Spectrum, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	if err := validateRate(sampleRate); err != nil {
		return nil, err
	}

	size := nextPowerOfTwo(len(signal))

	windowed := make([]float64, len(signal))
	copy(windowed, signal)
	win := window.Apply(w, windowed)

	in := make([]complex128, size)
	for i, v := range windowed {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("response: fft plan: %w", err)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("response: fft: %w", err)
	}

	bins := size/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	// Single-sided amplitude with the window's coherent gain removed.
	scale := 2 / (float64(len(win)) * window.CoherentGain(win))
	for i := range bins {
		re[i] = real(out[i]) * scale
		im[i] = imag(out[i]) * scale
	}

	re[0] /= 2
	im[0] /= 2

	if size%2 == 0 && bins > 1 {
		re[bins-1] /= 2
		im[bins-1] /= 2
	}

	mag := make([]float64, bins)
	pow := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)
	vecmath.Power(pow, re, im)

	return &Spectrum{
		SampleRate: sampleRate,
		FFTSize:    size,
		Magnitude:  mag,
		Power:      pow,
	}, nil
}

// BinHz returns the center frequency of bin i.
func (s *Spectrum) BinHz(i int) float64 {
	return float64(i) * s.SampleRate / float64(s.FFTSize)
}

// Bin returns the bin closest to hz, clamped to the valid range.
func (s *Spectrum) Bin(hz float64) int {
	i := int(math.Round(hz * float64(s.FFTSize) / s.SampleRate))
	return max(0, min(i, len(s.Magnitude)-1))
}

// PeakIn returns the frequency and magnitude of the largest bin in
// [loHz, hiHz].
func (s *Spectrum) PeakIn(loHz, hiHz float64) (float64, float64) {
	lo, hi := s.Bin(loHz), s.Bin(hiHz)
	if hi < lo {
		lo, hi = hi, lo
	}

	idx := lo + floats.MaxIdx(s.Magnitude[lo:hi+1])

	return s.BinHz(idx), s.Magnitude[idx]
}

// BandPower sums the power of the bins in [loHz, hiHz].
func (s *Spectrum) BandPower(loHz, hiHz float64) float64 {
	lo, hi := s.Bin(loHz), s.Bin(hiHz)
	if hi < lo {
		lo, hi = hi, lo
	}

	return floats.Sum(s.Power[lo : hi+1])
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}

func validateRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	return nil
}
