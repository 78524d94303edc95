package ladder

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestRangesMatchDeclaredControls(t *testing.T) {
	r := Ranges()

	if got := r[ParamFeedbackGain]; got != (Range{0, 4, 0.5}) {
		t.Fatalf("feedbackGain range = %+v", got)
	}

	if got := r[ParamCutoffHz]; got != (Range{50, 20000, 1000}) {
		t.Fatalf("cutoffHz range = %+v", got)
	}

	if _, err := RangeOf("drive"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("RangeOf(drive) error = %v, want ErrUnknownParameter", err)
	}
}

func TestMapperSetClampsAndIgnoresNaN(t *testing.T) {
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	tests := []struct {
		id   ParamID
		in   float64
		want float64
	}{
		{ParamFeedbackGain, 2.5, 2.5},
		{ParamFeedbackGain, -1, 0},
		{ParamFeedbackGain, 9, 4},
		{ParamFeedbackGain, math.Inf(1), 4},
		{ParamFeedbackGain, math.NaN(), 4},
		{ParamCutoffHz, 10, 50},
		{ParamCutoffHz, 44100, 20000},
		{ParamCutoffHz, 3000, 3000},
		{ParamCutoffHz, math.NaN(), 3000},
		{ParamCutoffHz, math.Inf(-1), 50},
	}

	for _, tt := range tests {
		if err := m.Set(tt.id, tt.in); err != nil {
			t.Fatalf("Set(%s, %v) error = %v", tt.id, tt.in, err)
		}

		got, err := m.Value(tt.id)
		if err != nil {
			t.Fatalf("Value(%s) error = %v", tt.id, err)
		}

		if got != tt.want {
			t.Fatalf("Set(%s, %v) -> %v, want %v", tt.id, tt.in, got, tt.want)
		}
	}
}

func TestMapperUnknownParameter(t *testing.T) {
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	if err := m.Set("thermalVoltage", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("Set() error = %v, want ErrUnknownParameter", err)
	}

	if _, err := m.Value("thermalVoltage"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("Value() error = %v, want ErrUnknownParameter", err)
	}

	if m.Pending("thermalVoltage") {
		t.Fatal("Pending() = true for unknown parameter")
	}
}

func TestMapperCommit(t *testing.T) {
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	p, changed := m.Commit(48000, 4)
	if !changed {
		t.Fatal("first Commit reported no change")
	}

	c := DefaultConstants()
	wantI0 := 2 * 192000 * math.Tan(math.Pi*1000/192000) * 8 * c.C * c.Vt

	if math.Abs(p.I0-wantI0) > 1e-18 {
		t.Fatalf("I0 = %g, want %g", p.I0, wantI0)
	}

	if p.SolverRate != 192000 || p.T != 1.0/192000 || p.SampleRate != 48000 {
		t.Fatalf("rates = %v/%v/%v", p.SampleRate, p.SolverRate, p.T)
	}

	if math.Abs(p.Gamma-1.836*0.026) > 1e-15 {
		t.Fatalf("Gamma = %v", p.Gamma)
	}

	if p.FeedbackGain != DefaultFeedbackGain || p.Feedback != DefaultFeedbackGain*DefaultResonanceScale {
		t.Fatalf("feedback = %v / %v", p.FeedbackGain, p.Feedback)
	}

	if p.AntiAliasHz != 48000 {
		t.Fatalf("AntiAliasHz = %v, want 48000", p.AntiAliasHz)
	}

	if _, changed := m.Commit(48000, 4); changed {
		t.Fatal("Commit without new values reported a change")
	}

	m.SetCutoffHz(2000)

	if !m.Pending(ParamCutoffHz) {
		t.Fatal("Pending(cutoffHz) = false after Set")
	}

	if p.CutoffHz != 1000 {
		t.Fatal("Set changed committed parameters before Commit")
	}

	p, changed = m.Commit(48000, 4)
	if !changed || p.CutoffHz != 2000 {
		t.Fatalf("Commit after Set: changed=%v cutoff=%v", changed, p.CutoffHz)
	}

	if m.Pending(ParamCutoffHz) {
		t.Fatal("Pending(cutoffHz) = true after Commit")
	}

	// Publishing the committed value again is not a change.
	m.SetCutoffHz(2000)

	if _, changed := m.Commit(48000, 4); changed {
		t.Fatal("re-publishing an equal value reported a change")
	}

	if _, changed := m.Commit(96000, 4); !changed {
		t.Fatal("rate change not reported")
	}
}

func TestMapperStepFollowsOversampling(t *testing.T) {
	for _, factor := range []int{1, 2, 8} {
		m, err := NewMapper()
		if err != nil {
			t.Fatalf("NewMapper() error = %v", err)
		}

		p, _ := m.Commit(48000, factor)
		rate := 48000 * float64(factor)

		if p.T != 1/rate {
			t.Fatalf("factor %d: T = %v, want 1/%v", factor, p.T, rate)
		}

		if want := BiasCurrent(p.CutoffHz, rate, m.Constants()); p.I0 != want {
			t.Fatalf("factor %d: I0 = %v, want %v", factor, p.I0, want)
		}
	}
}

func TestMapperLimitsCutoffToSolverBand(t *testing.T) {
	m, err := NewMapper(WithCutoffHz(20000))
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	p, _ := m.Commit(8000, 1)
	if p.CutoffHz != 3600 {
		t.Fatalf("CutoffHz = %v, want 3600", p.CutoffHz)
	}

	if !isFinitePositive(p.I0) {
		t.Fatalf("I0 = %v, want finite and positive", p.I0)
	}

	p, _ = m.Commit(48000, 4)
	if p.CutoffHz != 20000 {
		t.Fatalf("CutoffHz = %v after rate increase, want 20000", p.CutoffHz)
	}
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func TestMapperCommitRejectsInvalidRate(t *testing.T) {
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	before, _ := m.Commit(48000, 2)
	snapshot := *before

	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		p, changed := m.Commit(rate, 2)
		if changed || *p != snapshot {
			t.Fatalf("Commit(%v) modified parameters", rate)
		}
	}
}

func TestMapperResonanceScale(t *testing.T) {
	m, err := NewMapper(WithResonanceScale(1), WithFeedbackGain(3))
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	p, _ := m.Commit(48000, 1)
	if p.Feedback != 3 {
		t.Fatalf("Feedback = %v, want 3", p.Feedback)
	}
}

func TestOptionValidation(t *testing.T) {
	bad := []Option{
		WithCutoffHz(10),
		WithCutoffHz(math.NaN()),
		WithFeedbackGain(4.5),
		WithResonanceScale(0),
		WithResonanceScale(math.Inf(1)),
		WithAntiAliasRatio(0.5),
		WithAntiAliasRatio(0),
		WithMaxIterations(0),
		WithConstants(Constants{C: 0, Vt: 0.026, Eta: 1.836, Tolerance: 1e-3}),
		WithConstants(Constants{C: 1e-8, Vt: math.NaN(), Eta: 1.836, Tolerance: 1e-3}),
	}

	for i, opt := range bad {
		if _, err := NewMapper(opt); err == nil {
			t.Fatalf("option %d: NewMapper() error = nil, want error", i)
		}
	}

	if _, err := NewMapper(nil); err != nil {
		t.Fatalf("NewMapper(nil) error = %v", err)
	}
}

func TestMapperConcurrentSetAndCommit(t *testing.T) {
	m, err := NewMapper()
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := range 2000 {
			m.SetCutoffHz(float64(100 + i))
		}
	}()

	go func() {
		defer wg.Done()

		for i := range 2000 {
			m.SetFeedbackGain(float64(i%5) * 0.8)
		}
	}()

	for range 500 {
		p, _ := m.Commit(48000, 4)
		if p.CutoffHz < MinCutoffHz || p.CutoffHz > MaxCutoffHz {
			t.Errorf("committed cutoff out of range: %v", p.CutoffHz)
		}

		if p.FeedbackGain < MinFeedbackGain || p.FeedbackGain > MaxFeedbackGain {
			t.Errorf("committed feedback out of range: %v", p.FeedbackGain)
		}
	}

	wg.Wait()

	p, _ := m.Commit(48000, 4)
	if p.CutoffHz != 2099 {
		t.Fatalf("final cutoff = %v, want 2099", p.CutoffHz)
	}

	if p.FeedbackGain != 3.2 {
		t.Fatalf("final feedback = %v, want 3.2", p.FeedbackGain)
	}
}
