package writer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
	"github.com/stretchr/testify/require"
)

func newTestConfig(ceilings Ceilings, chunkSize int) *Config {
	return &Config{
		Ceilings:  ceilings,
		ChunkSize: chunkSize,
		HashKind:  durability.HashSHA256,
		Retry:     RetryPolicy{IORetries: 2, ErrorBudget: 5},
	}
}

func TestCeilingsDoneDominance(t *testing.T) {
	c := Ceilings{MaxBytes: 100, Size: 50, Times: 10}
	require.True(t, c.Done(100, 0))
	require.True(t, c.Done(0, 50))
	require.True(t, c.Done(0, 0) == false)
	require.True(t, c.Done(0, 10))
}

func TestCeilingsRemainingBytes(t *testing.T) {
	c := Ceilings{Size: 10}
	require.Equal(t, 10, c.RemainingBytes(0, 16))
	require.Equal(t, 4, c.RemainingBytes(6, 16))
	require.Equal(t, 0, c.RemainingBytes(10, 16))

	unbounded := Ceilings{Times: 5}
	require.Equal(t, 16, unbounded.RemainingBytes(1000, 16))
}

func TestCeilingsRemainingTokens(t *testing.T) {
	c := Ceilings{Times: 10}
	require.Equal(t, 10, c.RemainingTokens(0))
	require.Equal(t, 4, c.RemainingTokens(6))
	require.Equal(t, 0, c.RemainingTokens(10))

	unbounded := Ceilings{Size: 100}
	require.Equal(t, 0, unbounded.RemainingTokens(1000))
}

func TestRunStreamExactSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewWord("AB", token.UTF8, token.ScopeNone, token.StyleLF)
	cfg := newTestConfig(Ceilings{Size: 15}, 4)
	res, err := RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Equal(t, int64(15), res.BytesWritten)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 15)
}

func TestRunStreamGzipContainerDecompressesToRawStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gz")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewWord("AB", token.UTF8, token.ScopeNone, token.StyleLF)
	cfg := newTestConfig(Ceilings{Size: 2000}, 64)
	cfg.Gzip = durability.NewGzipSink(f)

	res, err := RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, int64(2000), res.BytesWritten)

	rf, err := os.Open(path)
	require.NoError(t, err)
	defer rf.Close()
	zr, err := gzip.NewReader(rf)
	require.NoError(t, err)
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("AB", 1000), string(raw))
}

func TestRunStreamWordFixedTimesExact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewWord("AB", token.UTF8, token.ScopeWord, token.StyleLF)
	cfg := newTestConfig(Ceilings{Times: 5}, 64)
	res, err := RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Equal(t, int64(5), res.TokensEmitted)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "AB\nAB\nAB\nAB\nAB\n", string(data))
}

func TestRunStreamMaxBytesDominatesSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewFill(0xFF)
	cfg := newTestConfig(Ceilings{MaxBytes: 10, Size: 1000}, 16)
	res, err := RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, int64(10), res.BytesWritten)
}

func TestRunStreamCanceled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)
	defer f.Close()

	src := token.NewFill(0x00)
	cfg := newTestConfig(Ceilings{Size: 1 << 30}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunStream(ctx, f, src, cfg)
	require.ErrorIs(t, err, ErrCanceled)
	require.True(t, res.Interrupted)
}

func TestRunRAMBufferUnderLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewFill(0xAA)
	cfg := newTestConfig(Ceilings{Size: 64}, 16)
	cfg.RAMMax = 1 << 20
	cfg.EstimateLen = 64
	fallbackCalled := false
	res, err := RunRAMBuffer(context.Background(), f, src, cfg, func(string) { fallbackCalled = true })
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.False(t, fallbackCalled)
	require.Equal(t, int64(64), res.BytesWritten)
}

func TestRunRAMBufferFallsBackWhenOverEstimate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewFill(0xAA)
	cfg := newTestConfig(Ceilings{Size: 64}, 16)
	cfg.RAMMax = 10
	cfg.EstimateLen = 64
	fallbackCalled := false
	res, err := RunRAMBuffer(context.Background(), f, src, cfg, func(string) { fallbackCalled = true })
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.True(t, fallbackCalled)
	require.Equal(t, int64(64), res.BytesWritten)
}

func TestRunStreamSparseTruncatesToLogicalSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	src := token.NewFill(0x00)
	cfg := newTestConfig(Ceilings{Size: 1024}, 256)
	cfg.Sparse = true
	res, err := RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Equal(t, int64(1024), res.BytesWritten)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(1024), info.Size())
}

func TestRunMultiWriterSumsTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	newSource := func(i int) token.Source {
		return token.NewWord("X", token.UTF8, token.ScopeNone, token.StyleLF)
	}
	cfg := newTestConfig(Ceilings{Times: 1000}, 32)
	res, err := RunMultiWriter(context.Background(), f, newSource, 4, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.GreaterOrEqual(t, res.TokensEmitted, int64(1000))
	require.LessOrEqual(t, res.TokensEmitted, int64(1000+3)) // at most W-1 overshoot

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), res.BytesWritten)
}

func TestRunPipelineWritesSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	f, err := Open(OpenOptions{Path: path, Disposition: Truncate, Offset: -1})
	require.NoError(t, err)

	newSource := func(i int) token.Source {
		return token.NewFill(0x00)
	}
	cfg := newTestConfig(Ceilings{Size: 4096}, 64)
	res, err := RunPipeline(context.Background(), f, newSource, 3, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.GreaterOrEqual(t, res.BytesWritten, int64(4096))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, res.BytesWritten, info.Size())
}

func TestOpenAppendDisposition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("C"), 0o644))

	f, err := Open(OpenOptions{Path: path, Disposition: Append, Offset: -1, Resume: false})
	require.NoError(t, err)
	_, err = f.Seek(0, 2)
	require.NoError(t, err)

	src := token.NewWord("X", token.UTF8, token.ScopeNone, token.StyleLF)
	cfg := newTestConfig(Ceilings{Times: 5}, 64)
	_, err = RunStream(context.Background(), f, src, cfg)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "CXXXXX", string(data))
}
