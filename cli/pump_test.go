package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/job"
	"github.com/filepump/pump/internal/token"
	"github.com/filepump/pump/internal/writer"
	"github.com/stretchr/testify/require"
)

func baseFlags() *flags {
	return &flags{
		pumpMode:    "word",
		word:        "AB",
		dictOrder:   "sequential",
		markovOrder: 2,
		encoding:    "utf8",
		newlineMode: "none",
		newlineStl:  "lf",
		chunk:       "64KiB",
		concurrency: "single",
		workers:     1,
		generators:  1,
		hash:        "none",
		compress:    "none",
		offset:      -1,
		ioRetries:   3,
		errorBudget: 10,
		diskGuard:   true,
		diskMargin:  "64MiB",
	}
}

func TestToConfigDefaults(t *testing.T) {
	f := baseFlags()
	cfg, err := f.toConfig()
	require.NoError(t, err)
	require.Equal(t, writer.Truncate, cfg.Disposition)
	require.Equal(t, token.ModeWord, cfg.Mode)
	require.Equal(t, "AB", cfg.Word)
	require.Equal(t, token.UTF8, cfg.Encoding)
	require.Equal(t, token.ScopeNone, cfg.NewlineScope)
	require.Equal(t, token.StyleLF, cfg.NewlineStyle)
	require.Equal(t, 64*1024, cfg.ChunkSize)
	require.Equal(t, job.ConcurrencySingle, cfg.Concurrency)
	require.Equal(t, durability.HashNone, cfg.HashKind)
	require.Equal(t, job.CompressionNone, cfg.Compression)
	require.Equal(t, int64(64*1024*1024), cfg.DiskMargin)
}

func TestToConfigSizeAndMaxBytes(t *testing.T) {
	f := baseFlags()
	f.size = "10MiB"
	f.maxBytes = "20MiB"
	cfg, err := f.toConfig()
	require.NoError(t, err)
	require.Equal(t, int64(10*1024*1024), cfg.Size)
	require.Equal(t, int64(20*1024*1024), cfg.MaxBytes)
}

func TestToConfigAppendDisposition(t *testing.T) {
	f := baseFlags()
	f.appendMode = true
	cfg, err := f.toConfig()
	require.NoError(t, err)
	require.Equal(t, writer.Append, cfg.Disposition)
}

func TestToConfigRejectsUnknownPumpMode(t *testing.T) {
	f := baseFlags()
	f.pumpMode = "bogus"
	_, err := f.toConfig()
	require.Error(t, err)
}

func TestToConfigSeedOnlySetWhenNonzero(t *testing.T) {
	f := baseFlags()
	cfg, err := f.toConfig()
	require.NoError(t, err)
	require.False(t, cfg.HasSeed)

	f.seed = 42
	cfg, err = f.toConfig()
	require.NoError(t, err)
	require.True(t, cfg.HasSeed)
	require.Equal(t, int64(42), cfg.Seed)
}

func TestToConfigFsyncEnabledByAnyFsyncFlag(t *testing.T) {
	f := baseFlags()
	f.fsyncEveryN = 5
	cfg, err := f.toConfig()
	require.NoError(t, err)
	require.True(t, cfg.FsyncEnable)
}

func TestResolveTargetsStdout(t *testing.T) {
	f := baseFlags()
	cfg, err := f.toConfig()
	require.NoError(t, err)
	targets, err := resolveTargets("-", f, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"-"}, targets)
}

func TestResolveTargetsDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "out")

	f := baseFlags()
	f.dir = true
	f.times = 3
	cfg, err := f.toConfig()
	require.NoError(t, err)

	targets, err := resolveTargets(sub, f, cfg)
	require.NoError(t, err)
	require.Len(t, targets, 3)

	info, err := os.Stat(sub)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestResolveTargetsFilelist(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("a.txt\n# comment\nb.txt\n"), 0o644))

	f := baseFlags()
	f.filelist = listPath
	cfg, err := f.toConfig()
	require.NoError(t, err)

	targets, err := resolveTargets("ignored", f, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, targets)
}

func TestParsePumpModeAllKnown(t *testing.T) {
	modes := map[string]token.Mode{
		"word": token.ModeWord, "dict": token.ModeDict, "markov": token.ModeMarkov,
		"bin0": token.ModeBin0, "bin1": token.ModeBin1, "randbin": token.ModeRandBin,
		"randutf8": token.ModeRandUTF8, "randhex": token.ModeRandHex, "random": token.ModeRandom,
	}
	for name, want := range modes {
		got, err := parsePumpMode(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := parsePumpMode("nope")
	require.Error(t, err)
}

func TestParseDictOrderAllKnown(t *testing.T) {
	orders := map[string]token.DictOrder{
		"sequential": token.OrderSequential, "reverse": token.OrderReverse,
		"presorted": token.OrderPresorted, "random": token.OrderRandom,
	}
	for name, want := range orders {
		got, err := parseDictOrder(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := parseDictOrder("nope")
	require.Error(t, err)
}

func TestDashed(t *testing.T) {
	require.Equal(t, "max-bytes", dashed("max_bytes"))
	require.Equal(t, "word", dashed("word"))
}
