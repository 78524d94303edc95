package antialias

import (
	"math"
	"testing"
)

func TestNewIsPassthrough(t *testing.T) {
	f := New()
	for _, x := range []float64{1, -0.25, 0.5} {
		if got := f.ProcessSample(x); got != x {
			t.Fatalf("ProcessSample(%v) = %v before Configure", x, got)
		}
	}
}

func TestConfigureValidation(t *testing.T) {
	tests := []struct {
		name   string
		rate   float64
		cutoff float64
	}{
		{"zero_rate", 0, 1000},
		{"negative_rate", -48000, 1000},
		{"nan_rate", math.NaN(), 1000},
		{"zero_cutoff", 48000, 0},
		{"nyquist_cutoff", 48000, 24000},
		{"nan_cutoff", 48000, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			if err := f.Configure(tt.rate, tt.cutoff); err == nil {
				t.Fatalf("Configure(%v, %v) error = nil, want error", tt.rate, tt.cutoff)
			}

			if f.Rebuilds() != 0 {
				t.Fatalf("Rebuilds() = %d after failed Configure", f.Rebuilds())
			}
		})
	}
}

func TestConfigureCachesCoefficients(t *testing.T) {
	f := New()

	for range 10 {
		if err := f.Configure(192000, 48000); err != nil {
			t.Fatalf("Configure() error = %v", err)
		}
	}

	if got := f.Rebuilds(); got != 1 {
		t.Fatalf("Rebuilds() = %d after repeated Configure, want 1", got)
	}

	if err := f.Configure(192000, 40000); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if got := f.Rebuilds(); got != 2 {
		t.Fatalf("Rebuilds() = %d after cutoff change, want 2", got)
	}
}

func TestCutoffChangeKeepsStateRateChangeResets(t *testing.T) {
	charged := func() *Filter {
		f := New()
		if err := f.Configure(96000, 24000); err != nil {
			t.Fatalf("Configure() error = %v", err)
		}

		for range 8 {
			f.ProcessSample(1)
		}

		return f
	}

	f := charged()
	if err := f.Configure(96000, 20000); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if f.ProcessSample(0) == 0 {
		t.Fatal("cutoff change cleared the delay line")
	}

	f = charged()
	if err := f.Configure(192000, 20000); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if got := f.ProcessSample(0); got != 0 {
		t.Fatalf("output after rate change = %v, want 0", got)
	}
}

func TestMagnitudeDB(t *testing.T) {
	f := New()
	if got := f.MagnitudeDB(1000); got != 0 {
		t.Fatalf("unconfigured MagnitudeDB = %v, want 0", got)
	}

	const rate = 192000.0
	if err := f.Configure(rate, rate*DefaultRatio); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	if got := f.MagnitudeDB(1000); math.Abs(got) > 1e-3 {
		t.Fatalf("passband gain = %v dB, want ~0", got)
	}

	if got := f.MagnitudeDB(rate * DefaultRatio); math.Abs(got+3.0103) > 0.01 {
		t.Fatalf("gain at cutoff = %v dB, want -3.01", got)
	}

	if got := f.MagnitudeDB(94000); got > -40 {
		t.Fatalf("stopband gain = %v dB, want < -40", got)
	}
}

func TestProcessAttenuatesAboveCutoff(t *testing.T) {
	const rate = 192000.0

	f := New()
	if err := f.Configure(rate, rate*DefaultRatio); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	level := func(freq float64) float64 {
		f.Reset()

		buf := make([]float64, 4096)
		for i := range buf {
			buf[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
		}

		f.Process(buf)

		peak := 0.0
		for _, v := range buf[2048:] {
			peak = math.Max(peak, math.Abs(v))
		}

		return peak
	}

	if pass := level(1000); math.Abs(pass-1) > 0.01 {
		t.Fatalf("passband peak = %v, want ~1", pass)
	}

	if stop := level(94000); stop > 0.01 {
		t.Fatalf("stopband peak = %v, want < 0.01", stop)
	}
}

func TestProcessMatchesProcessSample(t *testing.T) {
	a := New()
	b := New()

	for _, f := range []*Filter{a, b} {
		if err := f.Configure(48000, 12000); err != nil {
			t.Fatalf("Configure() error = %v", err)
		}
	}

	buf := []float64{0.5, -1, 0.25, 0.75, 0, 0.1, -0.3}
	want := make([]float64, len(buf))

	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}

	b.Process(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func BenchmarkProcess(b *testing.B) {
	f := New()
	if err := f.Configure(192000, 48000); err != nil {
		b.Fatalf("Configure() error = %v", err)
	}

	buf := make([]float64, 2048)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		if err := f.Configure(192000, 48000); err != nil {
			b.Fatal(err)
		}
		f.Process(buf)
	}
}
