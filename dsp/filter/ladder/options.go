package ladder

import (
	"fmt"
	"math"
)

// DefaultMaxIterations bounds the fixed-point loop per sample.
const DefaultMaxIterations = 50

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	constants      Constants
	resonanceScale float64
	antiAliasRatio float64
	maxIterations  int
	cutoffHz       float64
	feedbackGain   float64
}

func defaultConfig() config {
	return config{
		constants:      DefaultConstants(),
		resonanceScale: DefaultResonanceScale,
		antiAliasRatio: DefaultAntiAliasRatio,
		maxIterations:  DefaultMaxIterations,
		cutoffHz:       DefaultCutoffHz,
		feedbackGain:   DefaultFeedbackGain,
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	return cfg, nil
}

// WithConstants replaces the circuit constants.
func WithConstants(c Constants) Option {
	return func(cfg *config) error {
		if err := c.Validate(); err != nil {
			return err
		}

		cfg.constants = c

		return nil
	}
}

// WithResonanceScale sets the factor between the user feedback gain K and
// the feedback coefficient of the circuit. 1 gives the literal model.
func WithResonanceScale(scale float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(scale, math.SmallestNonzeroFloat64, 4, "resonance scale"); err != nil {
			return err
		}

		cfg.resonanceScale = scale

		return nil
	}
}

// WithAntiAliasRatio sets the anti-aliasing cutoff as a fraction of the
// solver rate, in (0, 0.5).
func WithAntiAliasRatio(ratio float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(ratio, math.SmallestNonzeroFloat64, 0.4999, "anti-alias ratio"); err != nil {
			return err
		}

		cfg.antiAliasRatio = ratio

		return nil
	}
}

// WithMaxIterations sets the fixed-point iteration cap. Must be >= 1.
func WithMaxIterations(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("ladder: max iterations must be >= 1: %d", n)
		}

		cfg.maxIterations = n

		return nil
	}
}

// WithCutoffHz sets the initial cutoff in [50, 20000] Hz.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, MinCutoffHz, MaxCutoffHz, "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithFeedbackGain sets the initial feedback gain in [0, 4].
func WithFeedbackGain(k float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(k, MinFeedbackGain, MaxFeedbackGain, "feedback gain"); err != nil {
			return err
		}

		cfg.feedbackGain = k

		return nil
	}
}

func validateFiniteRange(value, min, max float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("ladder: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("ladder: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}
