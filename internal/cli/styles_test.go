package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlignsColumns(t *testing.T) {
	out := Table([]string{"Hz", "dB"}, [][]string{{"50.0", "-0.10"}, {"20000.0", "-96.50"}})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	for _, l := range lines {
		assert.Contains(t, l, "  ")
	}

	assert.Contains(t, lines[1], "50.0")
	assert.Contains(t, lines[2], "-96.50")
	assert.Equal(t, len(stripANSI(lines[1])), len(stripANSI(lines[2])))
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer

	PrintVersion(&buf, "1.2.3")
	PrintError(&buf, "bad input")

	assert.Contains(t, buf.String(), "1.2.3")
	assert.Contains(t, buf.String(), "bad input")
	assert.Contains(t, KeyValue("latency", "4 samples"), "4 samples")
}

func stripANSI(s string) string {
	var sb strings.Builder

	inEscape := false

	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEscape = false
		case !inEscape:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}
