package player

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
)

// Device is an oto output playing one Stream. Only one Device may exist
// per process.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open starts an oto context and begins pulling from r.
func Open(r io.Reader, sampleRate, channels int) (*Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("player: open device: %w", err)
	}

	<-ready

	p := ctx.NewPlayer(r)
	p.Play()

	return &Device{ctx: ctx, player: p}, nil
}

// Err returns the last playback error, if any.
func (d *Device) Err() error {
	return d.player.Err()
}

// Close stops playback.
func (d *Device) Close() error {
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("player: close: %w", err)
	}

	return nil
}
