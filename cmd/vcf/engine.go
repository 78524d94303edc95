package main

import (
	"github.com/cwbudde/algo-vcf/dsp/oversample"
	"github.com/cwbudde/algo-vcf/dsp/vcf"
)

// EngineFlags are the engine settings shared by all commands.
type EngineFlags struct {
	Cutoff        float64 `help:"Cutoff frequency in Hz." default:"${cutoff}"`
	Feedback      float64 `help:"Feedback gain K in [0, 4]." default:"${feedback}"`
	Oversampling  int     `help:"Oversampling factor." enum:"1,2,4,8" default:"4"`
	Steep         bool    `help:"Use the steeper half-band designs."`
	MaxIterations int     `help:"Solver iteration cap per sample." default:"${maxiter}"`
	InputGain     float64 `help:"Input trim in dB." default:"0"`
	OutputGain    float64 `help:"Output trim in dB." default:"0"`
}

func (f EngineFlags) options() []vcf.Option {
	steepness := oversample.SteepnessDefault
	if f.Steep {
		steepness = oversample.SteepnessHigh
	}

	return []vcf.Option{
		vcf.WithCutoffHz(f.Cutoff),
		vcf.WithFeedbackGain(f.Feedback),
		vcf.WithOversampling(f.Oversampling),
		vcf.WithSteepness(steepness),
		vcf.WithMaxIterations(f.MaxIterations),
		vcf.WithInputGainDB(f.InputGain),
		vcf.WithOutputGainDB(f.OutputGain),
	}
}

func (f EngineFlags) newProcessor() (*vcf.Processor, error) {
	return vcf.New(f.options()...)
}
