package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-vcf/dsp/vcf"
	"github.com/cwbudde/algo-vcf/internal/automation"
	"github.com/cwbudde/algo-vcf/internal/wavio"
)

// RenderCmd filters a WAV file offline.
type RenderCmd struct {
	EngineFlags `embed:""`

	Input      string `arg:"" type:"existingfile" help:"Input WAV file."`
	Output     string `arg:"" type:"path" help:"Output WAV file."`
	Block      int    `help:"Host block size in frames." default:"512"`
	BitDepth   int    `help:"Output bit depth (0 keeps the input depth)." enum:"0,16,24,32" default:"0"`
	Automation string `type:"existingfile" help:"Lua script defining automate(t)."`
}

type renderStats struct {
	Frames  int
	Latency int
	Diag    vcf.DiagnosticsSnapshot
}

// Run implements the render command.
func (c *RenderCmd) Run(logger *slog.Logger) error {
	start := time.Now()

	stats, err := c.render(context.Background(), logger)
	if err != nil {
		return err
	}

	logger.Info("render done",
		slog.String("output", c.Output),
		slog.Int("frames", stats.Frames),
		slog.Int("latency_samples", stats.Latency),
		slog.Uint64("max_iterations", stats.Diag.MaxIterations),
		slog.Uint64("non_converged", stats.Diag.NonConverged),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nil
}

func (c *RenderCmd) render(ctx context.Context, logger *slog.Logger) (renderStats, error) {
	if c.Block < 1 {
		return renderStats{}, fmt.Errorf("block size must be >= 1: %d", c.Block)
	}

	in, err := wavio.Open(c.Input)
	if err != nil {
		return renderStats{}, err
	}
	defer in.Close()

	rate := in.SampleRate()
	channels := in.Channels()

	p, err := c.newProcessor()
	if err != nil {
		return renderStats{}, err
	}

	if err := p.Prepare(float64(rate), c.Block, channels); err != nil {
		return renderStats{}, err
	}

	var script *automation.Script
	if c.Automation != "" {
		script, err = automation.Load(c.Automation)
		if err != nil {
			return renderStats{}, err
		}
		defer script.Close()
	}

	bitDepth := c.BitDepth
	if bitDepth == 0 {
		bitDepth = in.BitDepth()
	}

	out, err := wavio.Create(c.Output, rate, bitDepth, channels)
	if err != nil {
		return renderStats{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	reported := make(chan struct{})

	// stopReporter returns once Run has logged the final interval.
	stopReporter := func() {
		cancel()
		<-reported
	}
	defer stopReporter()

	reporter := vcf.NewReporter(p.Diagnostics(), vcf.WithLogger(logger))
	go func() {
		defer close(reported)
		_ = reporter.Run(ctx)
	}()

	logger.Debug("render start",
		slog.String("input", c.Input),
		slog.Int("rate", rate),
		slog.Int("channels", channels),
		slog.Int("oversampling", p.Oversampling()),
		slog.Int("latency_samples", p.LatencySamples()),
	)

	sink := &latencySink{w: out, skip: p.LatencySamples()}
	buf := planar(channels, c.Block)
	frames := 0

	for {
		n, err := in.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			_ = out.Close()
			return renderStats{}, err
		}

		if script != nil {
			if err := script.Apply(p, float64(frames)/float64(rate)); err != nil {
				_ = out.Close()
				return renderStats{}, err
			}
		}

		block := head(buf, n)
		p.ProcessBlock(block)

		if err := sink.write(block, n); err != nil {
			_ = out.Close()
			return renderStats{}, err
		}

		frames += n
	}

	// Flush the oversampler delay with silence.
	for tail := p.LatencySamples(); tail > 0; {
		n := min(tail, c.Block)
		block := head(buf, n)

		for _, ch := range block {
			clear(ch)
		}

		p.ProcessBlock(block)

		if err := sink.write(block, n); err != nil {
			_ = out.Close()
			return renderStats{}, err
		}

		tail -= n
	}

	stopReporter()

	if err := out.Close(); err != nil {
		return renderStats{}, err
	}

	return renderStats{
		Frames:  frames,
		Latency: p.LatencySamples(),
		Diag:    p.Diagnostics().Snapshot(),
	}, nil
}

// latencySink drops the first skip frames before writing.
type latencySink struct {
	w    *wavio.Writer
	skip int
}

func (s *latencySink) write(block [][]float64, n int) error {
	if s.skip >= n {
		s.skip -= n
		return nil
	}

	off := s.skip
	s.skip = 0

	if off == 0 {
		return s.w.Write(block, n)
	}

	shifted := make([][]float64, len(block))
	for c, ch := range block {
		shifted[c] = ch[off:n]
	}

	return s.w.Write(shifted, n-off)
}

func planar(channels, frames int) [][]float64 {
	buf := make([][]float64, channels)
	for c := range buf {
		buf[c] = make([]float64, frames)
	}

	return buf
}

func head(buf [][]float64, n int) [][]float64 {
	out := make([][]float64, len(buf))
	for c, ch := range buf {
		out[c] = ch[:n]
	}

	return out
}
