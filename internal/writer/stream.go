package writer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
)

// OpenOptions describes how the target file is prepared before the
// chunk loop starts.
type OpenOptions struct {
	Path        string
	Disposition Disposition
	TruncateTo  int64 // 0 = no explicit truncate-to size
	FallocateTo int64 // 0 = no preallocation
	Offset      int64 // explicit seek offset, -1 = none given
	Resume      bool  // seek to EOF when size-bound and no explicit offset
	SizeBound   bool
}

// Open prepares f per opts. Stdout targets bypass this entirely; the
// caller passes an *os.File already wrapping os.Stdout and Open is
// never called for it.
func Open(opts OpenOptions) (*os.File, error) {
	flag := os.O_WRONLY | os.O_CREATE
	if opts.Disposition == Truncate {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(opts.Path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("writer: open %s: %w", opts.Path, err)
	}

	if opts.TruncateTo > 0 {
		if err := f.Truncate(opts.TruncateTo); err != nil {
			f.Close()
			return nil, fmt.Errorf("writer: truncate-to: %w", err)
		}
	}
	if opts.FallocateTo > 0 {
		if err := fallocate(f, opts.FallocateTo); err != nil {
			f.Close()
			return nil, fmt.Errorf("writer: fallocate-to: %w", err)
		}
	}

	switch {
	case opts.Offset >= 0:
		if _, err := f.Seek(opts.Offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("writer: seek offset: %w", err)
		}
	case opts.Disposition == Append || (opts.Resume && opts.SizeBound):
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, fmt.Errorf("writer: seek to end: %w", err)
		}
	}

	return f, nil
}

// fallocate preallocates size bytes. Go's stdlib has no portable
// fallocate syscall wrapper; Truncate already extends the logical file
// size (sparse on most filesystems), which is the only portable
// preallocation primitive available without platform-specific build
// tags.
func fallocate(f *os.File, size int64) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= size {
		return nil
	}
	return f.Truncate(size)
}

// RunStream drives the single streaming writer. It pulls
// chunks from src, applies sparse/throttle/hash/fsync bookkeeping via
// writeOne, and stops at the first satisfied ceiling, external cancel,
// or unrecoverable error.
func RunStream(ctx context.Context, f *os.File, src token.Source, cfg *Config) (Result, error) {
	acc, err := durability.NewAccumulator(cfg.HashKind)
	if err != nil {
		return Result{}, err
	}
	errBudget := cfg.Retry.ErrorBudget

	// Sparse-skipped chunks advance the file position without an
	// actual write(); if the tail of the job is sparse-only, the OS
	// never learns the file grew. Recording the starting offset lets
	// finish truncate the file up to its true logical length.
	var startOffset int64
	if cfg.Sparse {
		startOffset, err = f.Seek(0, io.SeekCurrent)
		if err != nil {
			return Result{}, fmt.Errorf("writer: sparse start offset: %w", err)
		}
	}

	var bytesWritten, tokensEmitted int64
	for {
		if canceled(ctx) {
			return finish(f, acc, bytesWritten, tokensEmitted, true, cfg, startOffset)
		}
		if cfg.Ceilings.Done(bytesWritten, tokensEmitted) {
			return finish(f, acc, bytesWritten, tokensEmitted, false, cfg, startOffset)
		}

		max := cfg.Ceilings.RemainingBytes(bytesWritten, cfg.ChunkSize)
		if max <= 0 {
			return finish(f, acc, bytesWritten, tokensEmitted, false, cfg, startOffset)
		}
		maxTokens := cfg.Ceilings.RemainingTokens(tokensEmitted)

		chunk, tokens, err := src.NextChunk(max, maxTokens)
		if err != nil {
			return Result{}, fmt.Errorf("writer: generate chunk: %w", err)
		}
		if len(chunk) == 0 {
			return finish(f, acc, bytesWritten, tokensEmitted, false, cfg, startOffset)
		}

		if err := writeOne(ctx, f, chunk, cfg, acc, &errBudget); err != nil {
			return Result{}, err
		}
		bytesWritten += int64(len(chunk))
		tokensEmitted += int64(tokens)
	}
}

func finish(f *os.File, acc *durability.Accumulator, bytes, tokens int64, interrupted bool, cfg *Config, startOffset int64) (Result, error) {
	if cfg.Sparse {
		if err := f.Truncate(startOffset + bytes); err != nil {
			return Result{}, fmt.Errorf("writer: sparse truncate: %w", err)
		}
	}
	if cfg.Gzip != nil {
		// The gzip footer must be written on every exit path, independent
		// of whether periodic fsync is enabled, or the container is
		// truncated and unreadable by a gzip decoder.
		if err := cfg.Gzip.Close(); err != nil {
			return Result{}, fmt.Errorf("writer: gzip close: %w", err)
		}
	}
	if cfg.Fsync != nil {
		if err := durability.Sync(f); err != nil {
			return Result{}, fmt.Errorf("writer: final fsync: %w", err)
		}
	}
	res := Result{BytesWritten: bytes, TokensEmitted: tokens, Hash: acc.Sum(), Interrupted: interrupted}
	if interrupted {
		return res, ErrCanceled
	}
	return res, nil
}
