package oversample

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vcf/dsp/filter/halfband"
)

var (
	// ErrInvalidFactor indicates an unsupported oversampling factor.
	ErrInvalidFactor = errors.New("oversample: factor must be 1, 2, 4 or 8")
	// ErrInvalidBlockSize indicates a non-positive maximum block size.
	ErrInvalidBlockSize = errors.New("oversample: invalid max block size")
)

// Steepness selects the half-band designs used by the cascade.
type Steepness int

const (
	// SteepnessDefault reaches roughly 99 dB image rejection in the first
	// stage with short allpass chains.
	SteepnessDefault Steepness = iota
	// SteepnessHigh uses longer chains for about 50 dB more rejection.
	SteepnessHigh
)

func (s Steepness) String() string {
	switch s {
	case SteepnessDefault:
		return "default"
	case SteepnessHigh:
		return "high"
	default:
		return "unknown"
	}
}

// StageDesign is the coefficient count and transition width of one stage.
type StageDesign struct {
	Coefficients int
	Transition   float64
}

// StageDesigns returns the per-stage designs for s, ordered from the host
// rate upward. At most three stages are ever used.
func StageDesigns(s Steepness) []StageDesign {
	if s == SteepnessHigh {
		return []StageDesign{{12, 0.04}, {6, 0.14}, {4, 0.2}}
	}

	return []StageDesign{{8, 0.04}, {4, 0.14}, {3, 0.2}}
}

// Attenuation returns the stopband attenuation of the design in dB.
func (d StageDesign) Attenuation() float64 {
	a, err := halfband.Attenuation(d.Coefficients, d.Transition)
	if err != nil {
		return 0
	}

	return a
}

type config struct {
	steepness Steepness
}

// Option configures an Oversampler.
type Option func(*config)

// WithSteepness selects the stage designs.
func WithSteepness(s Steepness) Option {
	return func(cfg *config) {
		if s == SteepnessDefault || s == SteepnessHigh {
			cfg.steepness = s
		}
	}
}

// Oversampler is a multi-stage 2^n interpolator/decimator.
type Oversampler struct {
	factor       int
	maxBlockSize int
	steepness    Steepness

	stages []*halfband.Stage
	// bufs[i] holds the output of stage i at rate 2^(i+1).
	bufs [][]float64

	latency float64
}

// New builds an oversampler for factor in {1, 2, 4, 8} and blocks of up to
// maxBlockSize host samples.
func New(factor, maxBlockSize int, opts ...Option) (*Oversampler, error) {
	n, ok := stageCount(factor)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}

	if maxBlockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlockSize)
	}

	cfg := config{steepness: SteepnessDefault}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Oversampler{
		factor:    factor,
		steepness: cfg.steepness,
		stages:    make([]*halfband.Stage, n),
		bufs:      make([][]float64, n),
	}

	designs := StageDesigns(cfg.steepness)
	for i := range n {
		st, err := halfband.NewStage(designs[i].Coefficients, designs[i].Transition)
		if err != nil {
			return nil, fmt.Errorf("oversample: stage %d: %w", i, err)
		}

		o.stages[i] = st

		// Stage i runs at 2^(i+1) times the host rate. Its interpolator
		// delays by d+1 samples and its decimator by d samples there.
		rate := float64(int(1) << (i + 1))
		o.latency += (2*st.GroupDelay() + 1) * float64(factor) / rate
	}

	o.allocate(maxBlockSize)

	return o, nil
}

func stageCount(factor int) (int, bool) {
	switch factor {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 4:
		return 2, true
	case 8:
		return 3, true
	default:
		return 0, false
	}
}

func (o *Oversampler) allocate(maxBlockSize int) {
	o.maxBlockSize = maxBlockSize

	if len(o.stages) == 0 {
		o.bufs = [][]float64{make([]float64, maxBlockSize)}
		return
	}

	for i := range o.stages {
		o.bufs[i] = make([]float64, maxBlockSize<<(i+1))
	}
}

// Up interpolates src and returns Factor()*len(src) samples at the
// oversampled rate. The returned slice is owned by the Oversampler and is
// valid until the next call to Up. Samples beyond MaxBlockSize are ignored.
func (o *Oversampler) Up(src []float64) []float64 {
	n := min(len(src), o.maxBlockSize)
	src = src[:n]

	if len(o.stages) == 0 {
		out := o.bufs[0][:n]
		copy(out, src)

		return out
	}

	in := src
	for i, st := range o.stages {
		out := o.bufs[i][:len(in)*2]
		st.Upsample(out, in)
		in = out
	}

	return in
}

// Down decimates hi, which must hold Factor()*len(dst) samples, into dst.
// hi may be the slice returned by Up.
func (o *Oversampler) Down(dst, hi []float64) {
	n := min(len(dst), o.maxBlockSize, len(hi)/o.factor)
	dst = dst[:n]

	if len(o.stages) == 0 {
		copy(dst, hi[:n])
		return
	}

	in := hi[:n*o.factor]
	for i := len(o.stages) - 1; i > 0; i-- {
		out := o.bufs[i-1][:len(in)/2]
		o.stages[i].Downsample(out, in)
		in = out
	}

	o.stages[0].Downsample(dst, in)
}

// Latency returns the round-trip delay of Up followed by Down in
// oversampled samples. It is fractional in general.
func (o *Oversampler) Latency() float64 {
	return o.latency
}

// LatencySamples returns the round-trip delay in host samples, rounded to
// the nearest integer.
func (o *Oversampler) LatencySamples() int {
	return int(math.Round(o.latency / float64(o.factor)))
}

// Reset clears all stage delay lines.
func (o *Oversampler) Reset() {
	for _, st := range o.stages {
		st.Reset()
	}
}

// Resize changes the maximum block size. When the size changes the
// buffers are reallocated and the stages are reset.
func (o *Oversampler) Resize(maxBlockSize int) error {
	if maxBlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, maxBlockSize)
	}

	if maxBlockSize == o.maxBlockSize {
		return nil
	}

	o.allocate(maxBlockSize)
	o.Reset()

	return nil
}

// Attenuations returns the stopband attenuation in dB of each stage, from
// the host rate upward.
func (o *Oversampler) Attenuations() []float64 {
	designs := StageDesigns(o.steepness)[:len(o.stages)]

	out := make([]float64, len(designs))
	for i, d := range designs {
		out[i] = d.Attenuation()
	}

	return out
}

// Factor returns the oversampling factor.
func (o *Oversampler) Factor() int { return o.factor }

// MaxBlockSize returns the largest host block Up accepts.
func (o *Oversampler) MaxBlockSize() int { return o.maxBlockSize }

// Steepness returns the selected stage designs.
func (o *Oversampler) Steepness() Steepness { return o.steepness }

// Stages returns the number of half-band stages in the cascade.
func (o *Oversampler) Stages() int { return len(o.stages) }
