package ladder

import (
	"math"
	"sync/atomic"
)

// slot is a single-writer/single-reader mailbox holding the latest value of
// one control. The writer publishes the bits before raising dirty, so a
// reader that observes dirty also observes a value at least that recent.
type slot struct {
	bits  atomic.Uint64
	dirty atomic.Bool
}

func (s *slot) store(v float64) {
	s.bits.Store(math.Float64bits(v))
	s.dirty.Store(true)
}

func (s *slot) load() float64 {
	return math.Float64frombits(s.bits.Load())
}

func (s *slot) take() (float64, bool) {
	if !s.dirty.Swap(false) {
		return 0, false
	}

	return s.load(), true
}

// Mapper turns the user controls into solver Parameters.
//
// Set and its typed variants may be called from any goroutine, one writer
// per control. Commit and Parameters belong to the audio thread.
type Mapper struct {
	feedback slot
	cutoff   slot

	constants      Constants
	resonanceScale float64
	antiAliasRatio float64

	// Audio-thread state.
	params       Parameters
	feedbackGain float64
	cutoffHz     float64
	sampleRate   float64
	factor       int
	committed    bool
}

// NewMapper returns a mapper holding the configured initial controls. The
// first Commit computes Parameters from them.
func NewMapper(opts ...Option) (*Mapper, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return newMapper(cfg), nil
}

func newMapper(cfg config) *Mapper {
	m := &Mapper{
		constants:      cfg.constants,
		resonanceScale: cfg.resonanceScale,
		antiAliasRatio: cfg.antiAliasRatio,
		feedbackGain:   cfg.feedbackGain,
		cutoffHz:       cfg.cutoffHz,
	}

	m.feedback.bits.Store(math.Float64bits(cfg.feedbackGain))
	m.cutoff.bits.Store(math.Float64bits(cfg.cutoffHz))

	return m
}

func (m *Mapper) slotFor(id ParamID) (*slot, Range, error) {
	r, err := RangeOf(id)
	if err != nil {
		return nil, Range{}, err
	}

	if id == ParamFeedbackGain {
		return &m.feedback, r, nil
	}

	return &m.cutoff, r, nil
}

// Set publishes a new control value. Values are clamped to the declared
// range; NaN is ignored. Only an unknown id is an error.
func (m *Mapper) Set(id ParamID, value float64) error {
	s, r, err := m.slotFor(id)
	if err != nil {
		return err
	}

	if math.IsNaN(value) {
		return nil
	}

	s.store(r.Clamp(value))

	return nil
}

// SetFeedbackGain publishes K.
func (m *Mapper) SetFeedbackGain(k float64) {
	_ = m.Set(ParamFeedbackGain, k)
}

// SetCutoffHz publishes f0.
func (m *Mapper) SetCutoffHz(hz float64) {
	_ = m.Set(ParamCutoffHz, hz)
}

// Value returns the most recently published value of id, committed or not.
func (m *Mapper) Value(id ParamID) (float64, error) {
	s, _, err := m.slotFor(id)
	if err != nil {
		return 0, err
	}

	return s.load(), nil
}

// Pending reports whether id has a published value not yet committed.
func (m *Mapper) Pending(id ParamID) bool {
	s, _, err := m.slotFor(id)
	if err != nil {
		return false
	}

	return s.dirty.Load()
}

// Commit drains pending controls and returns the parameters for the next
// block at host rate sampleRate and oversampling factor. The bool reports
// whether anything changed since the previous commit. I0 is recomputed
// only when the cutoff or a rate changed.
//
// Commit must be called at block boundaries only. The returned pointer
// stays valid and unchanged until the next Commit.
func (m *Mapper) Commit(sampleRate float64, factor int) (*Parameters, bool) {
	if factor < 1 {
		factor = 1
	}

	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return &m.params, false
	}

	feedbackChanged := !m.committed
	if k, ok := m.feedback.take(); ok && k != m.feedbackGain {
		m.feedbackGain = k
		feedbackChanged = true
	}

	cutoffChanged := !m.committed
	if hz, ok := m.cutoff.take(); ok && hz != m.cutoffHz {
		m.cutoffHz = hz
		cutoffChanged = true
	}

	rateChanged := !m.committed || sampleRate != m.sampleRate || factor != m.factor

	p := &m.params

	if rateChanged {
		m.sampleRate = sampleRate
		m.factor = factor

		p.SampleRate = sampleRate
		p.SolverRate = sampleRate * float64(factor)
		p.T = 1 / p.SolverRate
		p.C = m.constants.C
		p.Vt = m.constants.Vt
		p.Gamma = m.constants.Gamma()
		p.Tolerance = m.constants.Tolerance
		p.AntiAliasHz = m.AntiAliasCutoff(p.SolverRate)
	}

	if cutoffChanged || rateChanged {
		p.CutoffHz = limitCutoff(m.cutoffHz, p.SolverRate)
		p.I0 = BiasCurrent(p.CutoffHz, p.SolverRate, m.constants)
	}

	if feedbackChanged {
		p.FeedbackGain = m.feedbackGain
		p.Feedback = m.feedbackGain * m.resonanceScale
	}

	m.committed = true

	return p, feedbackChanged || cutoffChanged || rateChanged
}

// Parameters returns a copy of the last committed parameters.
func (m *Mapper) Parameters() Parameters {
	return m.params
}

// AntiAliasCutoff returns the anti-aliasing cutoff for a solver rate.
func (m *Mapper) AntiAliasCutoff(solverRate float64) float64 {
	return m.antiAliasRatio * solverRate
}

// Constants returns the circuit constants.
func (m *Mapper) Constants() Constants { return m.constants }

// ResonanceScale returns the factor between K and the feedback coefficient.
func (m *Mapper) ResonanceScale() float64 { return m.resonanceScale }
