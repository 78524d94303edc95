package vcf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-vcf/internal/testutil"
)

// syncBuffer guards a bytes.Buffer shared between a logger and a test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestLogger(buf io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestReporterPollLogsNewEvents(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	// Counted before the reporter exists, so never reported.
	p.ProcessBlock(testutil.Planar(1, 16))

	var out bytes.Buffer
	r := NewReporter(p.Diagnostics(), WithLogger(newTestLogger(&out)))

	assert.False(t, r.Poll())
	assert.Empty(t, out.String())

	require.NoError(t, p.Prepare(48000, 64, 1))
	p.ProcessBlock([][]float64{testutil.Planar(1, 64)[0], testutil.Planar(1, 64)[0]})

	assert.True(t, r.Poll())

	line := out.String()
	assert.Contains(t, line, "level=WARN")
	assert.Contains(t, line, "vcf: degraded processing")
	assert.Contains(t, line, "dropped_channels=1")
	assert.Contains(t, line, "unprepared_calls=0")

	out.Reset()
	p.ProcessBlock(testutil.Planar(1, 64))

	assert.False(t, r.Poll(), "healthy block must not log")
	assert.Empty(t, out.String())
}

func TestReporterRunStopsOnCancel(t *testing.T) {
	var d Diagnostics

	var out syncBuffer
	r := NewReporter(&d, WithLogger(newTestLogger(&out)), WithInterval(time.Millisecond), WithInterval(-1))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() { done <- r.Run(ctx) }()

	d.unprepared.Add(3)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "unprepared_calls=3")
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReporterPollWhileRunning(t *testing.T) {
	var d Diagnostics

	var out syncBuffer
	r := NewReporter(&d, WithLogger(newTestLogger(&out)), WithInterval(time.Microsecond))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() { done <- r.Run(ctx) }()

	for range 200 {
		d.nonConverged.Add(1)
		r.Poll()
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// Every event is reported exactly once across both pollers.
	total := 0
	for _, line := range strings.Split(out.String(), "\n") {
		i := strings.Index(line, "non_converged=")
		if i < 0 {
			continue
		}

		var n int
		_, err := fmt.Sscanf(line[i:], "non_converged=%d", &n)
		require.NoError(t, err)

		total += n
	}

	assert.Equal(t, 200, total)
}

func TestReporterRunPollsOnCancel(t *testing.T) {
	var d Diagnostics

	var out syncBuffer
	r := NewReporter(&d, WithLogger(newTestLogger(&out)), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() { done <- r.Run(ctx) }()

	d.sanitized.Add(5)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Contains(t, out.String(), "sanitized=5")
}
