package response

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

// BlockProcessor is a planar multi-channel processor such as
// vcf.Processor.
type BlockProcessor interface {
	ProcessBlock(buf [][]float64)
	Reset()
}

// Point is one measured frequency of a Sweep.
type Point struct {
	FrequencyHz float64
	Gain        float64
	GainDB      float64
}

// SweepConfig controls the stepped-tone measurement.
type SweepConfig struct {
	// Amplitude of the test tone.
	Amplitude float64
	// Length of each tone in samples. The second half is measured.
	Length int
	// BlockSize of the ProcessBlock calls.
	BlockSize int
}

// DefaultSweepConfig measures with a quiet tone so a nonlinear processor
// stays close to its small-signal response.
func DefaultSweepConfig(sampleRate float64) SweepConfig {
	return SweepConfig{
		Amplitude: 0.01,
		Length:    int(sampleRate / 5),
		BlockSize: 512,
	}
}

// Sweep feeds one tone per frequency through channel 0 of p, resetting p
// before each tone, and returns the settled gain.
func Sweep(p BlockProcessor, sampleRate float64, freqs []float64) ([]Point, error) {
	return SweepWith(p, sampleRate, freqs, DefaultSweepConfig(sampleRate))
}

// SweepWith is Sweep with explicit settings.
func SweepWith(p BlockProcessor, sampleRate float64, freqs []float64, cfg SweepConfig) ([]Point, error) {
	if err := validateRate(sampleRate); err != nil {
		return nil, err
	}

	if cfg.Length < 2 || cfg.BlockSize < 1 || cfg.Amplitude <= 0 {
		return nil, fmt.Errorf("response: invalid sweep config: %+v", cfg)
	}

	buf := make([]float64, cfg.Length)
	points := make([]Point, 0, len(freqs))

	for _, f := range freqs {
		if f <= 0 || f >= sampleRate/2 {
			return nil, fmt.Errorf("response: sweep frequency out of range: %v", f)
		}

		p.Reset()

		w := 2 * math.Pi * f / sampleRate
		for i := range buf {
			buf[i] = cfg.Amplitude * math.Sin(w*float64(i))
		}

		for off := 0; off < len(buf); off += cfg.BlockSize {
			end := min(off+cfg.BlockSize, len(buf))
			p.ProcessBlock([][]float64{buf[off:end]})
		}

		settled := buf[len(buf)/2:]
		settled = settled[:WholePeriods(len(settled), f, sampleRate)]

		gain := ToneAmplitude(settled, f, sampleRate) / cfg.Amplitude

		points = append(points, Point{
			FrequencyHz: f,
			Gain:        gain,
			GainDB:      core.LinearToDB(gain),
		})
	}

	return points, nil
}

// LogFrequencies returns n logarithmically spaced frequencies from lo to
// hi inclusive.
func LogFrequencies(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	ratio := math.Log(hi / lo)

	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}

	return out
}
