package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/cwbudde/algo-vcf/dsp/vcf"
	"github.com/cwbudde/algo-vcf/internal/player"
	"github.com/cwbudde/algo-vcf/internal/wavio"
)

// PlayCmd plays through the engine in real time.
type PlayCmd struct {
	EngineFlags `embed:""`

	Input    string        `type:"existingfile" help:"WAV file to loop instead of a tone."`
	Tone     float64       `help:"Test tone frequency in Hz." default:"220"`
	Level    float64       `help:"Test tone amplitude." default:"0.5"`
	Rate     int           `help:"Device sample rate for the tone." default:"48000"`
	Block    int           `help:"Audio block size in frames." default:"256"`
	Duration time.Duration `help:"Playback time without a terminal." default:"10s"`
}

// Run implements the play command.
func (c *PlayCmd) Run(logger *slog.Logger) error {
	src, rate, channels, label, err := c.source()
	if err != nil {
		return err
	}

	p, err := c.newProcessor()
	if err != nil {
		return err
	}

	if err := p.Prepare(float64(rate), c.Block, channels); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reporter := vcf.NewReporter(p.Diagnostics(), vcf.WithLogger(logger))
	go func() { _ = reporter.Run(ctx) }()

	dev, err := player.Open(player.NewStream(src, p, channels, c.Block), rate, channels)
	if err != nil {
		return err
	}
	defer dev.Close()

	logger.Info("playing",
		slog.String("source", label),
		slog.Int("rate", rate),
		slog.Int("channels", channels),
		slog.Int("latency_samples", p.LatencySamples()),
	)

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := tea.NewProgram(player.NewModel(p, label), tea.WithContext(ctx)).Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("ui: %w", err)
		}

		return dev.Err()
	}

	select {
	case <-ctx.Done():
	case <-time.After(c.Duration):
	}

	return dev.Err()
}

func (c *PlayCmd) source() (player.Source, int, int, string, error) {
	if c.Input == "" {
		return player.NewTone(c.Tone, float64(c.Rate), c.Level), c.Rate, 2,
			fmt.Sprintf("tone %.1f Hz", c.Tone), nil
	}

	r, err := wavio.Open(c.Input)
	if err != nil {
		return nil, 0, 0, "", err
	}
	defer r.Close()

	data := make([][]float64, r.Channels())
	buf := planar(r.Channels(), 4096)

	for {
		n, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, 0, 0, "", err
		}

		for ch := range data {
			data[ch] = append(data[ch], buf[ch][:n]...)
		}
	}

	if len(data[0]) == 0 {
		return nil, 0, 0, "", fmt.Errorf("%s: no audio frames", c.Input)
	}

	return player.NewLoop(data), r.SampleRate(), r.Channels(), c.Input, nil
}
