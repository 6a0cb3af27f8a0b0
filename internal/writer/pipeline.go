package writer

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
	"golang.org/x/sync/errgroup"
)

type pipelineChunk struct {
	data   []byte
	tokens int
}

// RunPipeline runs G generator tasks that push chunks into a bounded
// channel; one writer task drains it in FIFO arrival order and performs
// all writes, hashing, fsync, and sparse decisions alone, so no mutex
// is needed on the write side. The queue depth is a small multiple of
// the generator count, which keeps memory bounded while masking
// generator jitter.
func RunPipeline(ctx context.Context, f *os.File, newSource NewSourceFn, generators int, cfg *Config) (Result, error) {
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

	// genCtx is canceled once the writer reaches a ceiling, so idle
	// generators stop producing without tearing down the job context
	// itself (that distinction matters for the Interrupted flag below).
	genCtx, stopGenerating := context.WithCancel(ctx)
	defer stopGenerating()

	queue := make(chan pipelineChunk, 4*generators)
	group, ggctx := errgroup.WithContext(genCtx)

	// tokensProduced is an approximate, generator-side running total
	// used only to cap each generator's per-chunk token request so a
	// count-bound job's generators collectively taper off near Times
	// instead of each filling its whole byte budget with tokens; the
	// writer loop below still owns the authoritative tokensEmitted.
	var tokensProduced atomic.Int64

	for i := 0; i < generators; i++ {
		i := i
		src := newSource(i)
		group.Go(func() error {
			return runGenerator(ggctx, src, cfg, queue, &tokensProduced)
		})
	}
	go func() {
		group.Wait()
		close(queue)
	}()

	var (
		bytesWritten, tokensEmitted int64
		errBudget                   = cfg.Retry.ErrorBudget
		interrupted                 bool
		writeErr                    error
	)
	for chunk := range queue {
		if canceled(ctx) {
			interrupted = true
			stopGenerating()
			continue
		}
		if cfg.Ceilings.Done(bytesWritten, tokensEmitted) {
			stopGenerating()
			continue
		}
		if writeErr = writeOne(ctx, f, chunk.data, cfg, acc, &errBudget); writeErr != nil {
			stopGenerating()
			continue
		}
		bytesWritten += int64(len(chunk.data))
		tokensEmitted += int64(chunk.tokens)
	}

	if writeErr != nil {
		return Result{}, writeErr
	}
	if genErr := group.Wait(); genErr != nil && genErr != context.Canceled {
		return Result{}, genErr
	}

	if cfg.Sparse {
		if err := f.Truncate(startOffset + bytesWritten); err != nil {
			return Result{}, fmt.Errorf("writer: sparse truncate: %w", err)
		}
	}
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

func runGenerator(ctx context.Context, src token.Source, cfg *Config, queue chan<- pipelineChunk, tokensProduced *atomic.Int64) error {
	for {
		if canceled(ctx) {
			return nil
		}
		maxTokens := 0
		if cfg.Ceilings.Times > 0 {
			remaining := cfg.Ceilings.Times - tokensProduced.Load()
			if remaining <= 0 {
				return nil
			}
			maxTokens = clampTokens(remaining)
		}
		chunk, tokens, err := src.NextChunk(cfg.ChunkSize, maxTokens)
		if err != nil {
			return fmt.Errorf("writer: generate chunk: %w", err)
		}
		if len(chunk) == 0 {
			return nil
		}
		tokensProduced.Add(int64(tokens))
		select {
		case queue <- pipelineChunk{data: chunk, tokens: tokens}:
		case <-ctx.Done():
			return nil
		}
	}
}

func clampTokens(remaining int64) int {
	if remaining > int64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(remaining)
}
