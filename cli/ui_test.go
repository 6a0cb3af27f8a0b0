package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}

func TestHeaderProducesOutput(t *testing.T) {
	out := captureStderr(t, func() { Header("", "pump") })
	require.Contains(t, out, "pump")
}

func TestSummaryPairsEachLine(t *testing.T) {
	out := captureStderr(t, func() {
		Summary("Mode", "word", "Targets", "1")
	})
	require.Contains(t, out, "Mode")
	require.Contains(t, out, "word")
	require.Contains(t, out, "Targets")
}

func TestSuccessAndErrorTagLines(t *testing.T) {
	require.Contains(t, captureStderr(t, func() { Success("done") }), "done")
	require.Contains(t, captureStderr(t, func() { Error("boom") }), "boom")
	require.Contains(t, captureStderr(t, func() { Warn("careful") }), "careful")
}

func TestBlankProducesNewline(t *testing.T) {
	out := captureStderr(t, func() { Blank() })
	require.Equal(t, "\n", out)
}
