package ladder

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

// ErrUnknownParameter is returned when a ParamID does not name a control.
var ErrUnknownParameter = errors.New("ladder: unknown parameter")

// ParamID identifies a user-facing control.
type ParamID string

const (
	// ParamFeedbackGain is the global feedback gain K.
	ParamFeedbackGain ParamID = "feedbackGain"
	// ParamCutoffHz is the cutoff frequency f0 in Hz.
	ParamCutoffHz ParamID = "cutoffHz"
)

const (
	DefaultFeedbackGain = 0.5
	MinFeedbackGain     = 0.0
	MaxFeedbackGain     = 4.0

	DefaultCutoffHz = 1000.0
	MinCutoffHz     = 50.0
	MaxCutoffHz     = 20000.0

	// DefaultResonanceScale maps K = 4 just past the self-oscillation
	// threshold of the circuit model.
	DefaultResonanceScale = 1.25

	// DefaultAntiAliasRatio places the anti-aliasing cutoff at a quarter of
	// the solver rate.
	DefaultAntiAliasRatio = 0.25

	// maxCutoffRatio keeps the pre-warped cutoff below the solver Nyquist.
	maxCutoffRatio = 0.45
)

// Range is the declared inclusive range and default of a control.
type Range struct {
	Min, Max, Default float64
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return core.Clamp(v, r.Min, r.Max)
}

// Ranges returns the declared range of every control.
func Ranges() map[ParamID]Range {
	return map[ParamID]Range{
		ParamFeedbackGain: {MinFeedbackGain, MaxFeedbackGain, DefaultFeedbackGain},
		ParamCutoffHz:     {MinCutoffHz, MaxCutoffHz, DefaultCutoffHz},
	}
}

// RangeOf returns the range of id.
func RangeOf(id ParamID) (Range, error) {
	switch id {
	case ParamFeedbackGain:
		return Range{MinFeedbackGain, MaxFeedbackGain, DefaultFeedbackGain}, nil
	case ParamCutoffHz:
		return Range{MinCutoffHz, MaxCutoffHz, DefaultCutoffHz}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}
}

// Constants are the fixed physical values of the circuit model.
type Constants struct {
	C         float64 // stage capacitance in farads
	Vt        float64 // thermal voltage in volts
	Eta       float64 // transistor non-ideality factor
	Tolerance float64 // relative convergence threshold on the last stage
}

// DefaultConstants returns the component values of the modeled circuit.
func DefaultConstants() Constants {
	return Constants{
		C:         0.01e-6,
		Vt:        0.026,
		Eta:       1.836,
		Tolerance: 1e-3,
	}
}

// Gamma returns the saturation scale eta*Vt.
func (c Constants) Gamma() float64 {
	return c.Eta * c.Vt
}

// Validate reports whether every constant is finite and positive.
func (c Constants) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"capacitance", c.C},
		{"thermal voltage", c.Vt},
		{"eta", c.Eta},
		{"tolerance", c.Tolerance},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) || v.value <= 0 {
			return fmt.Errorf("ladder: %s must be > 0 and finite: %v", v.name, v.value)
		}
	}

	return nil
}

// Parameters is the coefficient snapshot the solver reads. It is rebuilt
// only at block boundaries and never changes during a solve.
type Parameters struct {
	SampleRate float64 // host rate
	SolverRate float64 // rate the solver integrates at, SampleRate*factor
	// T is the oversampled period 1/SolverRate, not 1/SampleRate. I0 is
	// pre-warped at SolverRate as well.
	T float64

	C     float64
	Vt    float64
	Gamma float64

	// CutoffHz is the cutoff used for I0, after limiting to the solver
	// band. FeedbackGain is the user value of K and Feedback the
	// coefficient multiplying the last stage voltage.
	CutoffHz     float64
	FeedbackGain float64
	Feedback     float64

	I0        float64
	Tolerance float64

	// AntiAliasHz is the cutoff of the anti-aliasing stages around the
	// solver.
	AntiAliasHz float64
}

// BiasCurrent returns the pre-warped bias current for cutoff f0 at the
// given solver rate: 2*rate*tan(pi*f0/rate)*8*C*Vt.
func BiasCurrent(cutoffHz, solverRate float64, c Constants) float64 {
	return 2 * solverRate * math.Tan(math.Pi*cutoffHz/solverRate) * 8 * c.C * c.Vt
}

// limitCutoff keeps f0 inside the band the pre-warp can represent.
func limitCutoff(cutoffHz, solverRate float64) float64 {
	return math.Min(cutoffHz, maxCutoffRatio*solverRate)
}
