package ladder

import (
	"fmt"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

// Filter is a single-channel ladder running at one fixed rate.
//
// Control changes are applied at the start of the next ProcessSample,
// ProcessInPlace or ProcessTo call, never inside a block.
type Filter struct {
	sampleRate float64

	mapper *Mapper
	solver Solver
	params *Parameters

	state State
	last  Step
}

// New constructs a ladder filter at sampleRate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !core.IsFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("ladder: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		sampleRate: sampleRate,
		mapper:     newMapper(cfg),
		solver:     Solver{MaxIterations: cfg.maxIterations},
	}

	f.params, _ = f.mapper.Commit(sampleRate, 1)

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the most recently set cutoff.
func (f *Filter) CutoffHz() float64 {
	v, _ := f.mapper.Value(ParamCutoffHz)
	return v
}

// FeedbackGain returns the most recently set feedback gain.
func (f *Filter) FeedbackGain() float64 {
	v, _ := f.mapper.Value(ParamFeedbackGain)
	return v
}

// SetCutoffHz sets f0, clamped to [50, 20000] Hz.
func (f *Filter) SetCutoffHz(hz float64) { f.mapper.SetCutoffHz(hz) }

// SetFeedbackGain sets K, clamped to [0, 4].
func (f *Filter) SetFeedbackGain(k float64) { f.mapper.SetFeedbackGain(k) }

// Parameters returns the parameters in effect.
func (f *Filter) Parameters() Parameters { return *f.params }

// MaxIterations returns the iteration cap of the solver.
func (f *Filter) MaxIterations() int { return f.solver.MaxIterations }

// LastStep returns the solve report of the most recent sample.
func (f *Filter) LastStep() Step { return f.last }

// Reset clears the ladder state.
func (f *Filter) Reset() {
	f.state = State{}
	f.last = Step{}
}

// State returns a copy of the current state.
func (f *Filter) State() State {
	return f.state
}

// SetState restores a previously saved state.
func (f *Filter) SetState(state State) error {
	if !state.IsFinite() {
		return fmt.Errorf("ladder: state contains NaN or Inf")
	}

	f.state = state

	return nil
}

// ProcessSample commits pending controls and processes one sample.
func (f *Filter) ProcessSample(x float64) float64 {
	f.params, _ = f.mapper.Commit(f.sampleRate, 1)
	return f.process(x)
}

// ProcessInPlace processes a mono buffer in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	f.params, _ = f.mapper.Commit(f.sampleRate, 1)

	for i, x := range buf {
		buf[i] = f.process(x)
	}
}

// ProcessTo processes src into dst. Both slices must have the same length.
func (f *Filter) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	f.params, _ = f.mapper.Commit(f.sampleRate, 1)

	for i, x := range src {
		dst[i] = f.process(x)
	}
}

func (f *Filter) process(x float64) float64 {
	f.last = f.solver.Solve(x, f.params, &f.state)
	return f.last.Out
}
