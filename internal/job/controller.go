package job

import (
	"context"
	"log/slog"
	"os"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/guard"
	"github.com/filepump/pump/internal/targetlist"
	"github.com/filepump/pump/internal/throttle"
	"github.com/filepump/pump/internal/token"
	"github.com/filepump/pump/internal/writer"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGenericError = 1
	ExitNoTargets    = 2
	ExitDiskGuard    = 3
	ExitRAMLimit     = 4
	ExitVerifyFailed = 5
)

// RunTargets drives cfg against each of targets strictly sequentially;
// the aggregate exit status is the first non-zero code encountered.
// Returns the process exit code to use.
func RunTargets(ctx context.Context, cfg Config, targets []string, log *slog.Logger) int {
	if len(targets) == 0 {
		log.Error("no resolvable targets")
		return ExitNoTargets
	}

	if err := guard.CheckMaxTimes(cfg.EffectiveTimes(), cfg.MaxTimes); err != nil {
		log.Error("max-times guard failed", "error", err)
		return ExitDiskGuard
	}

	dict, markov, err := loadDictAndMarkov(cfg)
	if err != nil {
		log.Error("failed to load dictionary", "error", err)
		return ExitGenericError
	}

	if cfg.DiskGuardEnabled {
		dg := guard.NewDiskGuard(cfg.DiskMargin)
		var guardTargets []guard.Target
		estimate := estimateBytes(cfg)
		for _, t := range targets {
			guardTargets = append(guardTargets, guard.Target{Path: t, ExpectedBytes: estimate})
		}
		if err := dg.Check(guardTargets); err != nil {
			log.Error("disk guard failed", "error", err)
			return ExitDiskGuard
		}
	}

	exitCode := ExitSuccess
	for _, target := range targets {
		code := runOneTarget(ctx, cfg, target, dict, markov, log)
		if exitCode == ExitSuccess && code != ExitSuccess {
			exitCode = code
		}
		if err := ctx.Err(); err != nil {
			break
		}
	}
	return exitCode
}

func runOneTarget(ctx context.Context, cfg Config, target string, dict *token.Dictionary, markov *token.MarkovModel, log *slog.Logger) int {
	isStdout := targetlist.IsStdout(target)
	if err := cfg.Validate(target, isStdout); err != nil {
		log.Error("config validation failed", "target", target, "error", err)
		return ExitGenericError
	}

	res, err := runBackend(ctx, cfg, target, isStdout, dict, markov, log)
	if err != nil {
		switch {
		case err == throttle.ErrRAMLimitExceeded:
			log.Error("RAM limit exceeded", "target", target)
			return ExitRAMLimit
		case err == writer.ErrCanceled:
			log.Warn("job canceled, partial output retained", "target", target, "bytes_written", res.BytesWritten)
			return ExitGenericError
		default:
			log.Error("write failed", "target", target, "error", err)
			return ExitGenericError
		}
	}

	log.Info("target complete", "target", target, "bytes_written", res.BytesWritten, "tokens_emitted", res.TokensEmitted, "hash", res.Hash)

	if cfg.Verify && isStdout {
		log.Info("verify skipped for standard-output target", "target", target)
	}

	if cfg.Verify && !isStdout && cfg.Compression == CompressionNone && cfg.HashKind != durability.HashNone {
		if err := durability.Verify(target, cfg.HashKind, res.Hash); err != nil {
			log.Error("verify failed", "target", target, "error", err)
			return ExitVerifyFailed
		}
	}
	return ExitSuccess
}

func runBackend(ctx context.Context, cfg Config, target string, isStdout bool, dict *token.Dictionary, markov *token.MarkovModel, log *slog.Logger) (writer.Result, error) {
	var f *os.File
	if isStdout {
		f = os.Stdout
	} else {
		if cfg.DiskGuardEnabled {
			dg := guard.NewDiskGuard(cfg.DiskMargin)
			if err := dg.CheckOne(guard.Target{Path: target, ExpectedBytes: estimateBytes(cfg)}); err != nil {
				return writer.Result{}, err
			}
		}
		opened, err := writer.Open(writer.OpenOptions{
			Path:        target,
			Disposition: cfg.Disposition,
			TruncateTo:  cfg.TruncateTo,
			FallocateTo: cfg.FallocateTo,
			Offset:      cfg.Offset,
			Resume:      cfg.Resume,
			SizeBound:   cfg.Size > 0,
		})
		if err != nil {
			return writer.Result{}, err
		}
		defer opened.Close()
		f = opened

		if cfg.Sparse && cfg.Compression == CompressionNone {
			if ok, err := durability.SetSparse(f); err != nil || !ok {
				log.Warn("sparse attribute not set, falling back to normal writes", "target", target)
			}
		}
	}

	wcfg := buildWriterConfig(cfg, isStdout, log)
	if cfg.Compression == CompressionGzip {
		wcfg.Gzip = durability.NewGzipSink(f)
	}
	if wcfg.Progress != nil {
		defer wcfg.Progress.Stop()
	}

	newSource := func(i int) token.Source {
		src, err := buildSource(cfg, dict, markov, i)
		if err != nil {
			// Construction already validated config; this path only
			// fires on a programming error, which next_chunk loops can't
			// meaningfully recover from, so a never-yielding source is
			// returned and the error surfaces via the first NextChunk.
			return failingSource{err: err}
		}
		return src
	}

	switch {
	case cfg.Concurrency == ConcurrencyRAMBuffer:
		src := newSource(0)
		return writer.RunRAMBuffer(ctx, f, src, wcfg, func(msg string) { log.Info(msg, "target", target) })
	case cfg.Concurrency == ConcurrencyMultiWriter && cfg.Workers > 1 && cfg.Compression == CompressionNone:
		return writer.RunMultiWriter(ctx, f, newSource, cfg.Workers, wcfg)
	case cfg.Concurrency == ConcurrencyPipeline && cfg.Generators > 1:
		return writer.RunPipeline(ctx, f, newSource, cfg.Generators, wcfg)
	default:
		src := newSource(0)
		return writer.RunStream(ctx, f, src, wcfg)
	}
}

func buildWriterConfig(cfg Config, isStdout bool, log *slog.Logger) *writer.Config {
	fsync := (*durability.FsyncPolicy)(nil)
	if cfg.FsyncEnable {
		fsync = durability.NewFsyncPolicy(cfg.FsyncEveryN, cfg.FsyncEveryB)
	}

	var progress *throttle.Progress
	if cfg.ProgressInterval > 0 {
		ceiling := cfg.MaxBytes
		if ceiling == 0 {
			ceiling = cfg.Size
		}
		progress = throttle.NewProgress(cfg.ProgressInterval, ceiling, func(s throttle.Stats) {
			attrs := []any{"bytes", s.Bytes, "rate_bps", s.RatePerSec, "eta", s.ETA}
			if s.Ceiling > 0 {
				attrs = append(attrs, "percent", float64(s.Bytes)*100/float64(s.Ceiling))
			}
			log.Info("progress", attrs...)
		})
	}

	return &writer.Config{
		Ceilings:    writer.Ceilings{MaxBytes: cfg.MaxBytes, Size: cfg.Size, Times: cfg.EffectiveTimes()},
		ChunkSize:   cfg.ChunkSize,
		Sparse:      cfg.Sparse && !isStdout && cfg.Compression == CompressionNone,
		HashKind:    cfg.HashKind,
		Fsync:       fsync,
		Rate:        throttle.NewLimiter(cfg.RateBPS),
		CPU:         throttle.NewCPUGovernor(cfg.CPUPct, cfg.CPUEvery, cfg.ProgressInterval),
		RAM:         throttle.NewRAMWatch(cfg.RAMLimit, cfg.RAMEvery),
		Progress:    progress,
		Retry:       writer.RetryPolicy{IORetries: cfg.IORetries, ErrorBudget: cfg.ErrorBudget},
		RAMMax:      cfg.RAMMax,
		Workers:     cfg.Workers,
		Generators:  cfg.Generators,
		EstimateLen: estimateBytes(cfg),
	}
}

// estimateBytes gives a best-effort expected-output-bytes figure used
// by the disk guard and the ram-buffer fallback decision. An explicit byte ceiling is authoritative; otherwise a
// count-bound job is estimated from chunk size as a conservative stand-in
// for the data-dependent token length.
func estimateBytes(cfg Config) int64 {
	if cfg.MaxBytes > 0 {
		return cfg.MaxBytes
	}
	if cfg.Size > 0 {
		return cfg.Size
	}
	times := cfg.EffectiveTimes()
	if times > 0 {
		avg := int64(cfg.ChunkSize)
		if avg <= 0 {
			avg = 4096
		}
		return times * avg
	}
	return 0
}

// failingSource surfaces a construction-time error through NextChunk
// rather than at worker-goroutine startup, keeping error propagation on
// the single path every backend already funnels through.
type failingSource struct{ err error }

func (f failingSource) NextChunk(max, maxTokens int) ([]byte, int, error) { return nil, 0, f.err }
func (f failingSource) Restart()                               {}
