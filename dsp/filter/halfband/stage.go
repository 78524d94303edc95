package halfband

// allpassChain is a cascade of first-order allpass sections
// y[n] = c*(x[n] - y[n-1]) + x[n-1], running at the low rate.
type allpassChain struct {
	coeffs []float64
	x      []float64
	y      []float64
}

func newAllpassChain(coeffs []float64) allpassChain {
	return allpassChain{
		coeffs: coeffs,
		x:      make([]float64, len(coeffs)),
		y:      make([]float64, len(coeffs)),
	}
}

func (a *allpassChain) process(v float64) float64 {
	for i, c := range a.coeffs {
		y := c*(v-a.y[i]) + a.x[i]
		a.x[i] = v
		a.y[i] = y
		v = y
	}

	return v
}

func (a *allpassChain) reset() {
	clear(a.x)
	clear(a.y)
}

// Stage is a 2x interpolator/decimator pair sharing one half-band design.
type Stage struct {
	coeffs []float64

	up   [2]allpassChain
	down [2]allpassChain

	groupDelay float64
}

// NewStage designs a stage from a coefficient count and transition width.
func NewStage(numberOfCoeffs int, transition float64) (*Stage, error) {
	coeffs, err := DesignCoefficients(numberOfCoeffs, transition)
	if err != nil {
		return nil, err
	}

	return NewStageFromCoefficients(coeffs)
}

// NewStageFromCoefficients builds a stage from explicit allpass coefficients.
func NewStageFromCoefficients(coeffs []float64) (*Stage, error) {
	if err := validateCoefficients(coeffs); err != nil {
		return nil, err
	}

	s := &Stage{coeffs: append([]float64(nil), coeffs...)}

	var even, odd []float64

	for i, c := range s.coeffs {
		if i%2 == 0 {
			even = append(even, c)
		} else {
			odd = append(odd, c)
		}
	}

	for dir := range 2 {
		path := even
		if dir == 1 {
			path = odd
		}

		s.up[dir] = newAllpassChain(path)
		s.down[dir] = newAllpassChain(path)
	}

	// Each odd section contributes 2(1-c)/(1+c) high-rate samples of DC
	// delay to the decimator output.
	for _, c := range odd {
		s.groupDelay += 2 * (1 - c) / (1 + c)
	}

	return s, nil
}

// UpsampleSample returns the two high-rate samples for one input sample.
func (s *Stage) UpsampleSample(x float64) (out0, out1 float64) {
	return s.up[0].process(x), s.up[1].process(x)
}

// DownsampleSample consumes two consecutive high-rate samples and returns
// one low-rate sample.
func (s *Stage) DownsampleSample(in0, in1 float64) float64 {
	return 0.5 * (s.down[0].process(in1) + s.down[1].process(in0))
}

// Upsample interpolates src into dst. dst must hold 2*len(src) samples.
func (s *Stage) Upsample(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[2*len(src)-1]

	for i, x := range src {
		dst[2*i], dst[2*i+1] = s.UpsampleSample(x)
	}
}

// Downsample decimates src into dst. src must hold 2*len(dst) samples.
func (s *Stage) Downsample(dst, src []float64) {
	if len(dst) == 0 {
		return
	}

	_ = src[2*len(dst)-1]

	for i := range dst {
		dst[i] = s.DownsampleSample(src[2*i], src[2*i+1])
	}
}

// Reset clears both delay lines.
func (s *Stage) Reset() {
	for i := range 2 {
		s.up[i].reset()
		s.down[i].reset()
	}
}

// GroupDelay returns the low-frequency delay of the decimator in high-rate
// samples. The interpolator delays by exactly one high-rate sample more.
func (s *Stage) GroupDelay() float64 {
	return s.groupDelay
}

// Coefficients returns a copy of the allpass coefficients.
func (s *Stage) Coefficients() []float64 {
	return append([]float64(nil), s.coeffs...)
}
