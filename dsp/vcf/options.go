package vcf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
	"github.com/cwbudde/algo-vcf/dsp/oversample"
)

const (
	defaultOversampling = 4

	minGainDB = -48.0
	maxGainDB = 24.0
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	oversampling int
	steepness    oversample.Steepness
	inputGainDB  float64
	outputGainDB float64
	ladderOpts   []ladder.Option
}

func defaultConfig() config {
	return config{
		oversampling: defaultOversampling,
		steepness:    oversample.SteepnessDefault,
	}
}

// WithOversampling sets the oversampling factor. Allowed values: 1, 2, 4, 8.
func WithOversampling(factor int) Option {
	return func(cfg *config) error {
		if factor != 1 && factor != 2 && factor != 4 && factor != 8 {
			return fmt.Errorf("vcf: oversampling factor must be one of {1,2,4,8}: %d", factor)
		}

		cfg.oversampling = factor

		return nil
	}
}

// WithSteepness selects the half-band designs of the oversampler.
func WithSteepness(s oversample.Steepness) Option {
	return func(cfg *config) error {
		if s != oversample.SteepnessDefault && s != oversample.SteepnessHigh {
			return fmt.Errorf("vcf: invalid steepness: %d", s)
		}

		cfg.steepness = s

		return nil
	}
}

// WithMaxIterations sets the per-sample iteration cap of the solver.
func WithMaxIterations(n int) Option {
	return ladderOption(ladder.WithMaxIterations(n))
}

// WithAntiAliasRatio sets the anti-aliasing cutoff relative to the
// oversampled rate.
func WithAntiAliasRatio(ratio float64) Option {
	return ladderOption(ladder.WithAntiAliasRatio(ratio))
}

// WithResonanceScale sets the factor between the feedback control and the
// circuit feedback coefficient.
func WithResonanceScale(scale float64) Option {
	return ladderOption(ladder.WithResonanceScale(scale))
}

// WithConstants replaces the circuit constants.
func WithConstants(c ladder.Constants) Option {
	return ladderOption(ladder.WithConstants(c))
}

// WithCutoffHz sets the initial cutoff control.
func WithCutoffHz(hz float64) Option {
	return ladderOption(ladder.WithCutoffHz(hz))
}

// WithFeedbackGain sets the initial feedback control.
func WithFeedbackGain(k float64) Option {
	return ladderOption(ladder.WithFeedbackGain(k))
}

// WithInputGainDB sets a static trim before the ladder in [-48, 24] dB.
func WithInputGainDB(db float64) Option {
	return func(cfg *config) error {
		if err := validateGainDB(db, "input gain"); err != nil {
			return err
		}

		cfg.inputGainDB = db

		return nil
	}
}

// WithOutputGainDB sets a static trim after the ladder in [-48, 24] dB.
func WithOutputGainDB(db float64) Option {
	return func(cfg *config) error {
		if err := validateGainDB(db, "output gain"); err != nil {
			return err
		}

		cfg.outputGainDB = db

		return nil
	}
}

func ladderOption(opt ladder.Option) Option {
	return func(cfg *config) error {
		cfg.ladderOpts = append(cfg.ladderOpts, opt)
		return nil
	}
}

func validateGainDB(db float64, name string) error {
	if math.IsNaN(db) || math.IsInf(db, 0) {
		return fmt.Errorf("vcf: %s must be finite: %v", name, db)
	}

	if db < minGainDB || db > maxGainDB {
		return fmt.Errorf("vcf: %s must be in [%g, %g] dB: %f", name, minGainDB, maxGainDB, db)
	}

	return nil
}
