// Command vcf runs the analog ladder filter engine as a minimal host.
//
// Usage:
//
//	vcf render in.wav out.wav --cutoff 800 --feedback 3.2
//	vcf render in.wav out.wav --automation sweep.lua
//	vcf analyze --cutoff 2000 --feedback 1
//	vcf play --tone 110 --feedback 3.8
//	vcf version
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
	"github.com/cwbudde/algo-vcf/internal/cli"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	LogLevel string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"info"`

	Render  RenderCmd  `cmd:"" help:"Filter a WAV file."`
	Analyze AnalyzeCmd `cmd:"" help:"Print the magnitude response of the engine."`
	Play    PlayCmd    `cmd:"" help:"Play a tone or file through the engine in real time."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run implements the version command.
func (VersionCmd) Run() error {
	cli.PrintVersion(os.Stdout, version)
	return nil
}

func main() {
	var c CLI

	ctx := kong.Parse(&c,
		kong.Name("vcf"),
		kong.Description("Analog Moog-style ladder filter engine"),
		kong.UsageOnError(),
		kong.Vars{
			"version":  version,
			"cutoff":   fmt.Sprint(ladder.DefaultCutoffHz),
			"feedback": fmt.Sprint(ladder.DefaultFeedbackGain),
			"maxiter":  fmt.Sprint(ladder.DefaultMaxIterations),
		},
	)

	logger := newLogger(c.LogLevel)

	if err := ctx.Run(logger); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
