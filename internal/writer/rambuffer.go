package writer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
)

// RunRAMBuffer estimates total bytes, and if the estimate fits under
// ram-max, fills one contiguous buffer from src and performs a single
// sequential write. If the estimate exceeds ram-max it falls back to
// the streaming backend with an info message.
func RunRAMBuffer(ctx context.Context, f *os.File, src token.Source, cfg *Config, onFallback func(reason string)) (Result, error) {
	if cfg.RAMMax > 0 && cfg.EstimateLen > cfg.RAMMax {
		if onFallback != nil {
			onFallback(fmt.Sprintf("estimated output %d bytes exceeds ram-max %d bytes, falling back to streaming", cfg.EstimateLen, cfg.RAMMax))
		}
		return RunStream(ctx, f, src, cfg)
	}

	acc, err := durability.NewAccumulator(cfg.HashKind)
	if err != nil {
		return Result{}, err
	}

	var startOffset int64
	if cfg.Sparse {
		startOffset, err = f.Seek(0, io.SeekCurrent)
		if err != nil {
			return Result{}, fmt.Errorf("writer: sparse start offset: %w", err)
		}
	}

	capHint := cfg.EstimateLen
	if capHint <= 0 {
		capHint = int64(cfg.ChunkSize)
	}
	buf := make([]byte, 0, capHint)

	var bytesWritten, tokensEmitted int64
	for {
		if canceled(ctx) {
			return flushBuffer(f, acc, buf, bytesWritten, tokensEmitted, true, cfg, startOffset)
		}
		if cfg.Ceilings.Done(bytesWritten, tokensEmitted) {
			break
		}
		max := cfg.Ceilings.RemainingBytes(bytesWritten, cfg.ChunkSize)
		if max <= 0 {
			break
		}
		maxTokens := cfg.Ceilings.RemainingTokens(tokensEmitted)
		chunk, tokens, err := src.NextChunk(max, maxTokens)
		if err != nil {
			return Result{}, fmt.Errorf("writer: generate chunk: %w", err)
		}
		if len(chunk) == 0 {
			break
		}
		// Hashing runs during fill, not after the single sequential
		// write below.
		acc.Write(chunk)
		buf = append(buf, chunk...)
		bytesWritten += int64(len(chunk))
		tokensEmitted += int64(tokens)
		cfg.Progress.Observe(len(chunk))
	}

	return flushBuffer(f, acc, buf, bytesWritten, tokensEmitted, false, cfg, startOffset)
}

func flushBuffer(f *os.File, acc *durability.Accumulator, buf []byte, bytesWritten, tokensEmitted int64, interrupted bool, cfg *Config, startOffset int64) (Result, error) {
	if len(buf) > 0 {
		if cfg.Gzip != nil {
			if _, err := cfg.Gzip.Write(buf); err != nil {
				return Result{}, fmt.Errorf("writer: buffer dump write: %w", err)
			}
		} else if _, err := f.Write(buf); err != nil {
			return Result{}, fmt.Errorf("writer: buffer dump write: %w", err)
		}
	}
	if cfg.Sparse {
		if err := f.Truncate(startOffset + bytesWritten); err != nil {
			return Result{}, fmt.Errorf("writer: sparse truncate: %w", err)
		}
	}
	if cfg.Gzip != nil {
		if err := cfg.Gzip.Close(); err != nil {
			return Result{}, fmt.Errorf("writer: gzip close: %w", err)
		}
	}
	// fsync-interval is ignored in ram-buffer mode; only one final fsync
	// fires if durability is enabled.
	if cfg.Fsync != nil {
		if err := durability.Sync(f); err != nil {
			return Result{}, fmt.Errorf("writer: final fsync: %w", err)
		}
	}
	res := Result{BytesWritten: bytesWritten, TokensEmitted: tokensEmitted, Hash: acc.Sum(), Interrupted: interrupted}
	if interrupted {
		return res, ErrCanceled
	}
	return res, nil
}
