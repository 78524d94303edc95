package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cwbudde/algo-vcf/internal/cli"
	"github.com/cwbudde/algo-vcf/measure/response"
)

// AnalyzeCmd prints a stepped-tone magnitude response of the engine.
type AnalyzeCmd struct {
	EngineFlags `embed:""`

	Rate   float64 `help:"Host sample rate in Hz." default:"48000"`
	Points int     `help:"Number of log-spaced test frequencies." default:"24"`
	Low    float64 `help:"Lowest test frequency in Hz." default:"50"`
	High   float64 `help:"Highest test frequency in Hz." default:"20000"`
	Level  float64 `help:"Test tone amplitude." default:"0.01"`
}

// Run implements the analyze command.
func (c *AnalyzeCmd) Run(logger *slog.Logger) error {
	return c.analyze(os.Stdout, logger)
}

func (c *AnalyzeCmd) analyze(w io.Writer, logger *slog.Logger) error {
	p, err := c.newProcessor()
	if err != nil {
		return err
	}

	cfg := response.DefaultSweepConfig(c.Rate)
	cfg.Amplitude = c.Level

	if err := p.Prepare(c.Rate, cfg.BlockSize, 1); err != nil {
		return err
	}

	high := min(c.High, 0.49*c.Rate)
	freqs := response.LogFrequencies(c.Low, high, c.Points)

	points, err := response.SweepWith(p, c.Rate, freqs, cfg)
	if err != nil {
		return err
	}

	rows := make([][]string, len(points))
	for i, pt := range points {
		rows[i] = []string{
			fmt.Sprintf("%.1f", pt.FrequencyHz),
			fmt.Sprintf("%.4f", pt.Gain),
			fmt.Sprintf("%.2f", pt.GainDB),
			fmt.Sprintf("%.3f", p.AntiAliasMagnitudeDB(pt.FrequencyHz)),
		}
	}

	params := p.Parameters()

	fmt.Fprintln(w, cli.TitleStyle.Render("Magnitude response"))
	fmt.Fprintln(w, cli.KeyValue("cutoff", fmt.Sprintf("%.1f Hz", params.CutoffHz)))
	fmt.Fprintln(w, cli.KeyValue("feedback", fmt.Sprintf("%.2f", params.FeedbackGain)))
	fmt.Fprintln(w, cli.KeyValue("solver rate", fmt.Sprintf("%.0f Hz", params.SolverRate)))
	fmt.Fprintln(w, cli.KeyValue("latency", fmt.Sprintf("%d samples (%.3f oversampled)", p.LatencySamples(), p.Latency())))
	fmt.Fprintln(w, cli.KeyValue("image rejection", formatStages(p.StageAttenuations())))
	fmt.Fprintln(w)
	fmt.Fprint(w, cli.Table([]string{"Hz", "gain", "dB", "anti-alias dB"}, rows))

	snap := p.Diagnostics().Snapshot()
	logger.Debug("analyze done",
		slog.Int("points", len(points)),
		slog.Uint64("solves", snap.Solves),
		slog.Uint64("max_iterations", snap.MaxIterations),
	)

	return nil
}

// formatStages lists per-stage attenuations, or "none" without oversampling.
func formatStages(att []float64) string {
	if len(att) == 0 {
		return "none"
	}

	parts := make([]string, len(att))
	for i, a := range att {
		parts[i] = fmt.Sprintf("%.1f", a)
	}

	return strings.Join(parts, " / ") + " dB"
}
