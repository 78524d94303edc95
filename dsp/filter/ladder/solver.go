package ladder

import (
	"math"

	"github.com/cwbudde/algo-vcf/dsp/core"
)

// State is the persistent per-channel state of the ladder. The zero value
// is the reset state.
type State struct {
	Vc  [4]float64 // stage capacitor voltages
	Sat [4]float64 // saturated coupling terms
	S   [4]float64 // trapezoidal integration memories, S[k] = T/2*Xc[k] + Vc[k]
	Xc  [4]float64 // stage derivative estimates

	// Vout is the last committed output, fed back into the input coupling.
	Vout float64
}

// IsFinite reports whether every field holds a finite value.
func (s *State) IsFinite() bool {
	for k := range 4 {
		if !core.IsFinite(s.Vc[k]) || !core.IsFinite(s.Sat[k]) ||
			!core.IsFinite(s.S[k]) || !core.IsFinite(s.Xc[k]) {
			return false
		}
	}

	return core.IsFinite(s.Vout)
}

// Step describes one solved sample.
type Step struct {
	Out        float64
	Iterations int
	// Converged is false when the iteration cap was reached and the last
	// estimate was committed instead.
	Converged bool
	// Sanitized is true when the input or the solution was not finite and
	// the sample was replaced by silence.
	Sanitized bool
}

// Solver advances a State by one sample.
type Solver struct {
	// MaxIterations caps the fixed-point loop. Values < 1 use
	// DefaultMaxIterations.
	MaxIterations int
}

// NewSolver returns a solver configured by opts. Only WithMaxIterations
// affects it; other options are validated and ignored.
func NewSolver(opts ...Option) (Solver, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return Solver{}, err
	}

	return Solver{MaxIterations: cfg.maxIterations}, nil
}

// Solve computes the output for input vin and commits the new history into
// st. p is read only.
func (sv Solver) Solve(vin float64, p *Parameters, st *State) Step {
	maxIt := sv.MaxIterations
	if maxIt < 1 {
		maxIt = DefaultMaxIterations
	}

	sanitized := false
	if !core.IsFinite(vin) {
		vin = 0
		sanitized = true
	}

	g := p.I0 / (2 * p.C)
	h := p.T / 2
	inScale := 1 / (2 * p.Vt)
	satScale := 1 / (2 * p.Gamma)
	outScale := 1 / (6 * p.Gamma)
	fb := 0.5 + p.Feedback

	vc1, vc2, vc3 := st.Vc[0], st.Vc[1], st.Vc[2]
	sat1, sat2, sat3, sat4 := st.Sat[0], st.Sat[1], st.Sat[2], st.Sat[3]
	s1, s2, s3, s4 := st.S[0], st.S[1], st.S[2], st.S[3]
	vout := st.Vout

	var xc1, xc2, xc3, xc4 float64

	est, prev := 0.0, 1.0
	it := 0
	converged := true

	for math.Abs(est-prev) > math.Abs(prev)*p.Tolerance {
		if it >= maxIt {
			converged = false
			break
		}

		it++
		prev = est

		in := math.Tanh((vin - vout) * inScale)

		xc1 = g * (in + sat1)
		vc1 = h*xc1 + s1
		sat1 = math.Tanh((vc2 - vc1) * satScale)

		xc2 = g * (sat2 - sat1)
		vc2 = h*xc2 + s2
		sat2 = math.Tanh((vc3 - vc2) * satScale)

		xc3 = g * (sat3 - sat2)
		vc3 = h*xc3 + s3
		sat3 = math.Tanh((est - vc3) * satScale)

		xc4 = g * (-sat4 - sat3)
		est = h*xc4 + s4
		sat4 = math.Tanh(est * outScale)

		vout = est * fb
	}

	if !core.IsFinite(vout) || !core.IsFinite(est) {
		*st = State{}
		return Step{Iterations: it, Sanitized: true}
	}

	st.Vc = [4]float64{
		core.FlushDenormals(vc1), core.FlushDenormals(vc2),
		core.FlushDenormals(vc3), core.FlushDenormals(est),
	}
	st.Sat = [4]float64{sat1, sat2, sat3, sat4}
	st.Xc = [4]float64{
		core.FlushDenormals(xc1), core.FlushDenormals(xc2),
		core.FlushDenormals(xc3), core.FlushDenormals(xc4),
	}

	for k := range 4 {
		st.S[k] = core.FlushDenormals(h*st.Xc[k] + st.Vc[k])
	}

	st.Vout = core.FlushDenormals(vout)

	return Step{
		Out:        st.Vout,
		Iterations: it,
		Converged:  converged,
		Sanitized:  sanitized,
	}
}
