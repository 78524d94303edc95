// Package antialias provides the 2-pole Butterworth lowpass that band-limits
// the signal entering and leaving the nonlinear ladder at the oversampled
// rate.
package antialias

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vcf/dsp/filter/biquad"
	"github.com/cwbudde/algo-vcf/dsp/filter/design"
)

// DefaultRatio places the cutoff at a quarter of the oversampled rate.
const DefaultRatio = 0.25

// Filter is a single-channel anti-aliasing lowpass.
//
// Coefficients are rebuilt only when Configure sees a new (sampleRate,
// cutoff) pair, so calling Configure once per block costs a comparison.
type Filter struct {
	section *biquad.Section

	sampleRate float64
	cutoffHz   float64
	rebuilds   int
}

// New returns an unconfigured filter. Until Configure succeeds it passes
// samples through unchanged.
func New() *Filter {
	return &Filter{section: biquad.NewSection(biquad.Coefficients{B0: 1})}
}

// Configure sets the operating rate and cutoff. A change of sample rate
// also clears the delay line.
func (f *Filter) Configure(sampleRate, cutoffHz float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("antialias: sample rate must be > 0 and finite: %f", sampleRate)
	}

	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 || math.IsNaN(cutoffHz) {
		return fmt.Errorf("antialias: cutoff must be in (0, %g): %f", sampleRate/2, cutoffHz)
	}

	if sampleRate == f.sampleRate && cutoffHz == f.cutoffHz {
		return nil
	}

	if sampleRate != f.sampleRate {
		f.section.Reset()
	}

	f.section.SetCoefficients(design.ButterworthLowpass(cutoffHz, sampleRate))
	f.sampleRate = sampleRate
	f.cutoffHz = cutoffHz
	f.rebuilds++

	return nil
}

// ProcessSample filters one sample.
func (f *Filter) ProcessSample(x float64) float64 {
	return f.section.ProcessSample(x)
}

// Process filters buf in place.
func (f *Filter) Process(buf []float64) {
	f.section.ProcessBlock(buf)
}

// Reset clears the delay line and keeps the coefficients.
func (f *Filter) Reset() {
	f.section.Reset()
}

// MagnitudeDB returns the analytic gain at hz in dB. An unconfigured
// filter reads 0 dB.
func (f *Filter) MagnitudeDB(hz float64) float64 {
	if f.sampleRate == 0 {
		return 0
	}

	return f.section.MagnitudeDB(hz, f.sampleRate)
}

// SampleRate returns the configured rate, or 0 before Configure.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the configured cutoff, or 0 before Configure.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Rebuilds reports how many times coefficients were recomputed.
func (f *Filter) Rebuilds() int { return f.rebuilds }
