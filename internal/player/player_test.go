package player

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
	"github.com/cwbudde/algo-vcf/dsp/vcf"
	"github.com/cwbudde/algo-vcf/internal/testutil"
)

type halve struct{ blocks int }

func (h *halve) ProcessBlock(buf [][]float64) {
	h.blocks++

	for _, ch := range buf {
		for i := range ch {
			ch[i] *= 0.5
		}
	}
}

func decode(b []byte) []float64 {
	out := make([]float64, len(b)/bytesPerSample)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:])))
	}

	return out
}

func TestToneIsContinuous(t *testing.T) {
	tone := NewTone(1000, 48000, 0.5)
	want := testutil.Sine(1000, 48000, 0.5, 96)

	a := testutil.Planar(2, 40)
	b := testutil.Planar(2, 56)
	tone.Fill(a)
	tone.Fill(b)

	got := append(append([]float64(nil), a[0]...), b[0]...)
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	testutil.RequireSliceNearlyEqual(t, b[1], b[0], 0)
}

func TestLoopWraps(t *testing.T) {
	l := NewLoop([][]float64{{1, 2, 3}})

	dst := testutil.Planar(2, 4)
	l.Fill(dst)
	assert.Equal(t, []float64{1, 2, 3, 1}, dst[0])
	assert.Equal(t, []float64{1, 2, 3, 1}, dst[1])

	l.Fill(dst)
	assert.Equal(t, []float64{2, 3, 1, 2}, dst[0])
}

func TestStreamReadArbitrarySizes(t *testing.T) {
	proc := &halve{}
	s := NewStream(NewTone(440, 48000, 0.8), proc, 2, 64)

	var raw []byte

	for _, n := range []int{3, 5, 1000, 1, 2047} {
		p := make([]byte, n)
		m, err := s.Read(p)
		require.NoError(t, err)
		require.Equal(t, n, m)

		raw = append(raw, p...)
	}

	raw = raw[:len(raw)/8*8]
	samples := decode(raw)

	want := testutil.Sine(440, 48000, 0.4, len(samples)/2)
	back := testutil.Deinterleave(samples, 2)

	testutil.RequireSliceNearlyEqual(t, back[0], want, 1e-6)
	testutil.RequireSliceNearlyEqual(t, back[1], want, 1e-6)
	assert.Equal(t, (len(samples)/2+63)/64, proc.blocks)
}

func TestStreamThroughEngine(t *testing.T) {
	p, err := vcf.New(vcf.WithFeedbackGain(3))
	require.NoError(t, err)
	require.NoError(t, p.Prepare(48000, 128, 2))

	s := NewStream(NewTone(220, 48000, 0.5), p, 2, 128)

	raw := make([]byte, 128*2*bytesPerSample*20)
	_, err = io.ReadFull(s, raw)
	require.NoError(t, err)

	back := testutil.Deinterleave(decode(raw), 2)
	testutil.RequireBounded(t, back[0], 1)
	testutil.RequireSliceNearlyEqual(t, back[1], back[0], 0)
	assert.Greater(t, testutil.Peak(back[0]), 0.01)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModelKeysPublishParameters(t *testing.T) {
	p, err := vcf.New()
	require.NoError(t, err)

	var m tea.Model = NewModel(p, "tone 220 Hz")

	m, _ = m.Update(key("up"))
	assert.InDelta(t, 1000*math.Pow(2, 1.0/12), m.(Model).Cutoff(), 1e-9)

	got, err := p.Parameter(ladder.ParamCutoffHz)
	require.NoError(t, err)
	assert.InDelta(t, m.(Model).Cutoff(), got, 0)

	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	assert.Less(t, m.(Model).Cutoff(), 1000.0)

	for range 50 {
		m, _ = m.Update(key("right"))
	}

	assert.InDelta(t, ladder.MaxFeedbackGain, m.(Model).Feedback(), 0)

	m, _ = m.Update(key("left"))
	assert.InDelta(t, ladder.MaxFeedbackGain-feedbackStep, m.(Model).Feedback(), 1e-9)

	assert.Contains(t, m.View(), "cutoff")

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelTickRefreshesDiagnostics(t *testing.T) {
	p, err := vcf.New()
	require.NoError(t, err)
	require.NoError(t, p.Prepare(48000, 8, 1))

	var m tea.Model = NewModel(p, "loop")

	p.ProcessBlock(testutil.Planar(1, 8))

	m, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "blocks")
	assert.Equal(t, uint64(1), m.(Model).diag.Blocks)
}
