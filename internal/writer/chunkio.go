package writer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/filepump/pump/internal/durability"
)

// writeOne performs one chunk's worth of sparse-skip decision, rate/CPU
// throttling, the actual write, hash update, fsync scheduling, and
// progress observation. It is shared by every
// backend's critical section so the bookkeeping rules are applied
// identically regardless of concurrency shape.
func writeOne(ctx context.Context, f *os.File, chunk []byte, cfg *Config, acc *durability.Accumulator, errBudget *int) error {
	if cfg.Rate != nil {
		if err := cfg.Rate.WaitN(ctx, len(chunk)); err != nil {
			return err
		}
	}
	cfg.CPU.Tick()

	if cfg.Gzip != nil {
		if err := writeWithRetry(cfg.Gzip.Write, chunk, cfg.Retry, errBudget); err != nil {
			return err
		}
	} else {
		skip := cfg.Sparse && durability.AllZero(chunk)
		if skip {
			if _, err := f.Seek(int64(len(chunk)), 1); err != nil {
				return fmt.Errorf("writer: sparse seek: %w", err)
			}
		} else if err := writeWithRetry(f.Write, chunk, cfg.Retry, errBudget); err != nil {
			return err
		}
	}

	// Sparse-skipped chunks are zeros; the logical content still
	// includes them, so the hash always runs over the full chunk
	// regardless of whether the bytes were actually written to disk.
	acc.Write(chunk)

	if cfg.Fsync != nil && cfg.Fsync.Observe(len(chunk)) {
		if err := syncTarget(f, cfg); err != nil {
			return fmt.Errorf("writer: fsync: %w", err)
		}
	}

	if cfg.RAM != nil {
		if err := cfg.RAM.Tick(); err != nil {
			return err
		}
	}

	cfg.Progress.Observe(len(chunk))
	return nil
}

// writeWithRetry calls write(chunk), retrying transient errors with a
// bounded exponential backoff up to retry.IORetries times. Each failed
// attempt consumes one unit of the shared error budget; exhaustion is
// fatal.
func writeWithRetry(write func([]byte) (int, error), chunk []byte, retry RetryPolicy, errBudget *int) error {
	var lastErr error
	attempts := retry.IORetries
	if attempts < 0 {
		attempts = 0
	}
	for attempt := 0; attempt <= attempts; attempt++ {
		if _, err := write(chunk); err != nil {
			lastErr = err
			*errBudget--
			if *errBudget < 0 {
				return fmt.Errorf("writer: error budget exhausted: %w", err)
			}
			time.Sleep(backoff(attempt))
			continue
		}
		return nil
	}
	return fmt.Errorf("writer: write failed after %d retries: %w", attempts, lastErr)
}

// syncTarget flushes any buffered gzip output to f before fsyncing it,
// so the fsync-interval cadence still reaches the physical file when the
// output container is gzip.
func syncTarget(f *os.File, cfg *Config) error {
	if cfg.Gzip != nil {
		if err := cfg.Gzip.Flush(); err != nil {
			return err
		}
	}
	return durability.Sync(f)
}
