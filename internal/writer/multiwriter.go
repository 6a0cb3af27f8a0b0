package writer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
	"golang.org/x/sync/errgroup"
)

// sharedState is the counter/hash/error-budget state every multi-writer
// worker mutates under one coarse-grained mutex.
type sharedState struct {
	mu            sync.Mutex
	bytesWritten  int64
	tokensEmitted int64
	errBudget     int
	acc           *durability.Accumulator
}

// RunMultiWriter runs W workers sharing one file handle, each with its
// own independently-seeded Source, contending on a single mutex for
// every write. newSource(i) must return a deterministically-seeded
// Source for worker i.
func RunMultiWriter(ctx context.Context, f *os.File, newSource NewSourceFn, workers int, cfg *Config) (Result, error) {
	acc, err := durability.NewAccumulator(cfg.HashKind)
	if err != nil {
		return Result{}, err
	}
	st := &sharedState{errBudget: cfg.Retry.ErrorBudget, acc: acc}

	var startOffset int64
	if cfg.Sparse {
		var offErr error
		startOffset, offErr = f.Seek(0, io.SeekCurrent)
		if offErr != nil {
			return Result{}, fmt.Errorf("writer: sparse start offset: %w", offErr)
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	var interrupted sync.Map // workerIndex -> struct{}, set when a worker observed cancellation

	for i := 0; i < workers; i++ {
		i := i
		src := newSource(i)
		group.Go(func() error {
			return runMultiWorker(gctx, f, src, st, cfg, &interrupted, i)
		})
	}

	waitErr := group.Wait()
	wasInterrupted := false
	interrupted.Range(func(_, _ any) bool { wasInterrupted = true; return false })

	if waitErr != nil && !wasInterrupted {
		return Result{}, waitErr
	}

	if cfg.Sparse {
		if err := f.Truncate(startOffset + st.bytesWritten); err != nil {
			return Result{}, fmt.Errorf("writer: sparse truncate: %w", err)
		}
	}
	if cfg.Fsync != nil {
		if err := durability.Sync(f); err != nil {
			return Result{}, fmt.Errorf("writer: final fsync: %w", err)
		}
	}

	res := Result{
		BytesWritten:  st.bytesWritten,
		TokensEmitted: st.tokensEmitted,
		Hash:          st.acc.Sum(),
		Interrupted:   wasInterrupted,
	}
	if wasInterrupted {
		return res, ErrCanceled
	}
	return res, nil
}

func runMultiWorker(ctx context.Context, f *os.File, src token.Source, st *sharedState, cfg *Config, interrupted *sync.Map, idx int) error {
	for {
		if canceled(ctx) {
			interrupted.Store(idx, struct{}{})
			return nil
		}

		st.mu.Lock()
		done := cfg.Ceilings.Done(st.bytesWritten, st.tokensEmitted)
		max := cfg.Ceilings.RemainingBytes(st.bytesWritten, cfg.ChunkSize)
		maxTokens := cfg.Ceilings.RemainingTokens(st.tokensEmitted)
		st.mu.Unlock()
		if done || max <= 0 {
			return nil
		}

		// Generation happens outside the lock: only the physical write
		// and bookkeeping need serialization against the shared handle.
		chunk, tokens, err := src.NextChunk(max, maxTokens)
		if err != nil {
			return fmt.Errorf("writer: generate chunk: %w", err)
		}
		if len(chunk) == 0 {
			return nil
		}

		st.mu.Lock()
		// Another worker may have written since the counters were read
		// above: stop if a ceiling is now met, and drop and regenerate a
		// chunk that no longer fits the remaining byte or token budget.
		if cfg.Ceilings.Done(st.bytesWritten, st.tokensEmitted) {
			st.mu.Unlock()
			return nil
		}
		if len(chunk) > cfg.Ceilings.RemainingBytes(st.bytesWritten, cfg.ChunkSize) ||
			(cfg.Ceilings.Times > 0 && tokens > cfg.Ceilings.RemainingTokens(st.tokensEmitted)) {
			st.mu.Unlock()
			continue
		}
		writeErr := writeOne(ctx, f, chunk, cfg, st.acc, &st.errBudget)
		if writeErr == nil {
			st.bytesWritten += int64(len(chunk))
			st.tokensEmitted += int64(tokens)
		}
		st.mu.Unlock()
		if writeErr != nil {
			return writeErr
		}
	}
}
