package wavio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-vcf/internal/testutil"
)

func writeFile(t *testing.T, path string, rate, bitDepth int, planar [][]float64, block int) {
	t.Helper()

	w, err := Create(path, rate, bitDepth, len(planar))
	require.NoError(t, err)

	n := len(planar[0])
	for off := 0; off < n; off += block {
		end := min(off+block, n)

		chunk := make([][]float64, len(planar))
		for c := range planar {
			chunk[c] = planar[c][off:end]
		}

		require.NoError(t, w.Write(chunk, end-off))
	}

	require.NoError(t, w.Close())
}

func readFile(t *testing.T, path string, block int) (*Reader, [][]float64) {
	t.Helper()

	r, err := Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = r.Close() })

	out := make([][]float64, r.Channels())
	buf := testutil.Planar(r.Channels(), block)

	for {
		n, err := r.Read(buf)
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		for c := range out {
			out[c] = append(out[c], buf[c][:n]...)
		}
	}

	return r, out
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		bitDepth int
		channels int
		tol      float64
	}{
		{16, 1, 1.0 / 32767},
		{16, 2, 1.0 / 32767},
		{24, 2, 1.0 / 8388607},
		{24, 3, 1.0 / 8388607},
		{32, 1, 1e-9},
	}

	for _, tt := range tests {
		planar := make([][]float64, tt.channels)
		for c := range planar {
			planar[c] = testutil.Sine(220*float64(c+1), 48000, 0.9, 1000)
		}

		path := filepath.Join(t.TempDir(), "tone.wav")
		writeFile(t, path, 48000, tt.bitDepth, planar, 300)

		r, got := readFile(t, path, 256)
		assert.Equal(t, 48000, r.SampleRate())
		assert.Equal(t, tt.bitDepth, r.BitDepth())
		require.Len(t, got, tt.channels)

		for c := range planar {
			require.Len(t, got[c], len(planar[c]))
			testutil.RequireSliceNearlyEqual(t, got[c], planar[c], tt.tol)
		}
	}
}

func TestWriteClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	writeFile(t, path, 44100, 16, [][]float64{{1.5, -2, 0.5}}, 3)

	_, got := readFile(t, path, 8)
	testutil.RequireSliceNearlyEqual(t, got[0], []float64{1, -1, 0.5}, 1.0/32767)
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "x.wav"), 48000, 12, 1)
	require.ErrorIs(t, err, ErrUnsupportedBitDepth)

	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not a wav file"), 0o600))

	_, err = Open(bogus)
	require.ErrorIs(t, err, ErrInvalidFile)

	_, err = Open(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)

	w, err := Create(filepath.Join(dir, "stereo.wav"), 48000, 16, 2)
	require.NoError(t, err)
	require.ErrorIs(t, w.Write([][]float64{{0}}, 1), ErrChannelMismatch)
	require.NoError(t, w.Write([][]float64{{0.25, 0.5}, {-0.25, -0.5}}, 2))
	require.NoError(t, w.Close())

	r, err := Open(filepath.Join(dir, "stereo.wav"))
	require.NoError(t, err)

	defer r.Close()

	_, err = r.Read(testutil.Planar(1, 4))
	require.ErrorIs(t, err, ErrChannelMismatch)

	buf := testutil.Planar(2, 4)

	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, -0.5, buf[1][1], 1.0/32767)

	_, err = r.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
