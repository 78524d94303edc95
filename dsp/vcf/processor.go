package vcf

import (
	"fmt"

	"github.com/tphakala/simd/f64"

	"github.com/cwbudde/algo-vcf/dsp/core"
	"github.com/cwbudde/algo-vcf/dsp/filter/antialias"
	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
	"github.com/cwbudde/algo-vcf/dsp/oversample"
)

// channel is the complete signal path of one audio channel.
type channel struct {
	state ladder.State
	os    *oversample.Oversampler
	pre   *antialias.Filter
	post  *antialias.Filter
}

func (c *channel) reset() {
	c.state = ladder.State{}
	c.os.Reset()
	c.pre.Reset()
	c.post.Reset()
}

// Processor is the multi-channel filter engine.
//
// SetParameter and Diagnostics may be used from any goroutine. All other
// methods belong to the audio thread, or to the host while no audio flows.
type Processor struct {
	factor    int
	steepness oversample.Steepness
	inGain    float64
	outGain   float64

	mapper *ladder.Mapper
	solver ladder.Solver

	latency        float64
	latencySamples int
	attenuations   []float64

	prepared   bool
	sampleRate float64
	maxBlock   int
	channels   []channel
	// scratch holds one planar block per channel for interleaved I/O.
	scratch [][]float64

	diag Diagnostics
}

// New constructs an unprepared processor. Call Prepare before processing.
func New(opts ...Option) (*Processor, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	solver, err := ladder.NewSolver(cfg.ladderOpts...)
	if err != nil {
		return nil, err
	}

	mapper, err := ladder.NewMapper(cfg.ladderOpts...)
	if err != nil {
		return nil, err
	}

	layout, err := oversample.New(cfg.oversampling, 1, oversample.WithSteepness(cfg.steepness))
	if err != nil {
		return nil, fmt.Errorf("vcf: %w", err)
	}

	return &Processor{
		factor:         cfg.oversampling,
		steepness:      cfg.steepness,
		inGain:         core.DBToLinear(cfg.inputGainDB),
		outGain:        core.DBToLinear(cfg.outputGainDB),
		mapper:         mapper,
		solver:         solver,
		latency:        layout.Latency(),
		latencySamples: layout.LatencySamples(),
		attenuations:   layout.Attenuations(),
	}, nil
}

// Prepare sets up per-channel state for a stream and resets it. Channels
// from an earlier Prepare are reused with their oversamplers resized.
// An invalid configuration returns an error wrapping core.ErrInvalidConfig
// and leaves the processor unprepared.
func (p *Processor) Prepare(sampleRate float64, maxBlockSize, channels int) error {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(sampleRate),
		core.WithBlockSize(maxBlockSize),
		core.WithChannels(channels),
	)

	if err := cfg.Validate(); err != nil {
		p.prepared = false
		return err
	}

	params, _ := p.mapper.Commit(cfg.SampleRate, p.factor)

	chans := make([]channel, cfg.Channels)
	scratch := make([][]float64, cfg.Channels)

	for i := range chans {
		c, err := p.prepareChannel(i, cfg.BlockSize, params)
		if err != nil {
			p.prepared = false
			return err
		}

		chans[i] = c

		if i < len(p.scratch) {
			scratch[i] = core.EnsureLen(p.scratch[i], cfg.BlockSize)
		} else {
			scratch[i] = make([]float64, cfg.BlockSize)
		}
	}

	p.sampleRate = cfg.SampleRate
	p.maxBlock = cfg.BlockSize
	p.channels = chans
	p.scratch = scratch
	p.prepared = true

	return nil
}

// prepareChannel returns channel i configured for params and reset. A
// channel from an earlier Prepare keeps its oversampler, resized to
// maxBlock.
func (p *Processor) prepareChannel(i, maxBlock int, params *ladder.Parameters) (channel, error) {
	var c channel

	if i < len(p.channels) {
		c = p.channels[i]
		if err := c.os.Resize(maxBlock); err != nil {
			return channel{}, fmt.Errorf("vcf: %w", err)
		}
	} else {
		ovs, err := oversample.New(p.factor, maxBlock, oversample.WithSteepness(p.steepness))
		if err != nil {
			return channel{}, fmt.Errorf("vcf: %w", err)
		}

		c = channel{os: ovs, pre: antialias.New(), post: antialias.New()}
	}

	for _, f := range []*antialias.Filter{c.pre, c.post} {
		if err := f.Configure(params.SolverRate, params.AntiAliasHz); err != nil {
			return channel{}, fmt.Errorf("vcf: %w", err)
		}
	}

	c.reset()

	return c, nil
}

// Reset clears every channel's ladder state, oversampler and filters.
func (p *Processor) Reset() {
	for i := range p.channels {
		p.channels[i].reset()
	}
}

// SetParameter publishes a control value. Out-of-range values are clamped,
// NaN is ignored. Safe to call from any goroutine.
func (p *Processor) SetParameter(id ladder.ParamID, value float64) error {
	return p.mapper.Set(id, value)
}

// Parameter returns the most recently published value of a control.
func (p *Processor) Parameter(id ladder.ParamID) (float64, error) {
	return p.mapper.Value(id)
}

// Parameters returns the parameters committed for the last block.
func (p *Processor) Parameters() ladder.Parameters {
	return p.mapper.Parameters()
}

// Latency returns the oversampling round-trip delay in oversampled samples.
func (p *Processor) Latency() float64 { return p.latency }

// LatencySamples returns the processing delay in host samples for host
// delay compensation.
func (p *Processor) LatencySamples() int { return p.latencySamples }

// StageAttenuations returns the stopband attenuation in dB of each
// half-band stage, from the host rate upward.
func (p *Processor) StageAttenuations() []float64 {
	return append([]float64(nil), p.attenuations...)
}

// AntiAliasMagnitudeDB returns the analytic gain in dB of the anti-aliasing
// filters around the ladder at host frequency hz. It reads 0 before
// Prepare.
func (p *Processor) AntiAliasMagnitudeDB(hz float64) float64 {
	if !p.prepared || len(p.channels) == 0 {
		return 0
	}

	c := &p.channels[0]

	return c.pre.MagnitudeDB(hz) + c.post.MagnitudeDB(hz)
}

// Oversampling returns the oversampling factor.
func (p *Processor) Oversampling() int { return p.factor }

// Prepared reports whether Prepare succeeded.
func (p *Processor) Prepared() bool { return p.prepared }

// SampleRate returns the prepared host rate, or 0.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// MaxBlockSize returns the prepared block size, or 0.
func (p *Processor) MaxBlockSize() int { return p.maxBlock }

// Channels returns the prepared channel count.
func (p *Processor) Channels() int { return len(p.channels) }

// Diagnostics returns the engine counters.
func (p *Processor) Diagnostics() *Diagnostics { return &p.diag }

// ProcessBlock filters planar channel buffers in place. Blocks longer than
// the prepared size are processed in chunks. Channels beyond the prepared
// count, and every channel before Prepare, are set to silence.
func (p *Processor) ProcessBlock(buf [][]float64) {
	if !p.prepared {
		for _, ch := range buf {
			clear(ch)
		}

		p.diag.unprepared.Add(1)

		return
	}

	params := p.commit()

	var stats blockStats

	for i, x := range buf {
		if i >= len(p.channels) {
			clear(x)
			stats.dropped++

			continue
		}

		for off := 0; off < len(x); off += p.maxBlock {
			end := min(off+p.maxBlock, len(x))
			p.processChunk(&p.channels[i], params, x[off:end], &stats)
		}

		if i == 0 {
			stats.samples = uint64(len(x))
		}
	}

	p.diag.publish(&stats)
}

// ProcessBlockTo filters src into dst. dst must provide at least as many
// channels and samples as src; extra dst channels are silenced.
func (p *Processor) ProcessBlockTo(dst, src [][]float64) {
	for i := range dst {
		if i < len(src) {
			n := copy(dst[i], src[i])
			clear(dst[i][n:])
		} else {
			clear(dst[i])
		}
	}

	p.ProcessBlock(dst)
}

// ProcessInterleaved filters an interleaved buffer of the given channel
// count in place. A trailing partial frame is silenced and counted as
// sanitized.
func (p *Processor) ProcessInterleaved(buf []float64, channels int) {
	if channels <= 0 {
		return
	}

	if !p.prepared {
		clear(buf)
		p.diag.unprepared.Add(1)

		return
	}

	params := p.commit()
	frames := len(buf) / channels
	active := min(channels, len(p.channels))

	var stats blockStats

	for off := 0; off < frames; off += p.maxBlock {
		n := min(p.maxBlock, frames-off)
		block := buf[off*channels : (off+n)*channels]

		for c := range active {
			x := p.scratch[c][:n]
			for i := range x {
				x[i] = block[i*channels+c]
			}

			p.processChunk(&p.channels[c], params, x, &stats)
		}

		if channels == 2 && active == 2 {
			f64.Interleave2(block, p.scratch[0][:n], p.scratch[1][:n])
		} else {
			for c := range channels {
				for i := range n {
					if c < active {
						block[i*channels+c] = p.scratch[c][i]
					} else {
						block[i*channels+c] = 0
					}
				}
			}
		}
	}

	if channels > active {
		stats.dropped = uint64(channels - active)
	}

	// A trailing partial frame cannot be processed.
	if tail := buf[frames*channels:]; len(tail) > 0 {
		clear(tail)
		stats.sanitized += uint64(len(tail))
	}

	stats.samples = uint64(frames)
	p.diag.publish(&stats)
}

// commit applies pending controls and retunes the anti-aliasing filters
// when the parameters changed.
func (p *Processor) commit() *ladder.Parameters {
	params, changed := p.mapper.Commit(p.sampleRate, p.factor)
	if !changed {
		return params
	}

	for i := range p.channels {
		// Rate and ratio were validated by Prepare and New.
		_ = p.channels[i].pre.Configure(params.SolverRate, params.AntiAliasHz)
		_ = p.channels[i].post.Configure(params.SolverRate, params.AntiAliasHz)
	}

	return params
}

func (p *Processor) processChunk(c *channel, params *ladder.Parameters, x []float64, stats *blockStats) {
	for i, v := range x {
		if !core.IsFinite(v) {
			x[i] = 0
			stats.sanitized++
		}
	}

	if p.inGain != 1 {
		f64.Scale(x, x, p.inGain)
	}

	hi := c.os.Up(x)
	c.pre.Process(hi)

	for i, v := range hi {
		step := p.solver.Solve(v, params, &c.state)
		hi[i] = step.Out

		if !step.Converged {
			stats.nonConverged++
		}

		if step.Sanitized {
			stats.sanitized++
		}

		if it := uint64(step.Iterations); it > stats.maxIterations {
			stats.maxIterations = it
		}
	}

	stats.solves += uint64(len(hi))

	c.post.Process(hi)
	c.os.Down(x, hi)

	if p.outGain != 1 {
		f64.Scale(x, x, p.outGain)
	}
}
