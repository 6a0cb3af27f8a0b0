// Package writer implements the four writing strategies: single
// streaming writer, RAM buffer-then-dump, multi-writer shared-file, and
// a generator pipeline feeding one writer. All four honor the same
// stop-condition ordering and durability/throttle wiring; only the
// concurrency shape differs.
package writer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/throttle"
	"github.com/filepump/pump/internal/token"
)

// Disposition selects how the target file is opened.
type Disposition int

const (
	Truncate Disposition = iota
	Append
)

// Ceilings bundles the three size/count stop conditions a backend must
// honor, in priority order: max-bytes dominates, then size, then times.
type Ceilings struct {
	MaxBytes int64 // 0 = unset
	Size     int64 // 0 = unset (not size-bound)
	Times    int64 // 0 = unset (not count-bound)
}

// Done reports whether the current counters satisfy any configured
// ceiling, applied in dominance order.
func (c Ceilings) Done(bytesWritten, tokensEmitted int64) bool {
	if c.MaxBytes > 0 && bytesWritten >= c.MaxBytes {
		return true
	}
	if c.Size > 0 && bytesWritten >= c.Size {
		return true
	}
	if c.Times > 0 && tokensEmitted >= c.Times {
		return true
	}
	return false
}

// RemainingBytes caps the next chunk request so a streaming writer
// never overshoots max-bytes or size. Count-bound-only configs return chunkSize unchanged,
// since token length is data-dependent and overshoot there is expected.
func (c Ceilings) RemainingBytes(bytesWritten int64, chunkSize int) int {
	limit := int64(0)
	if c.MaxBytes > 0 {
		limit = c.MaxBytes
	}
	if c.Size > 0 && (limit == 0 || c.Size < limit) {
		limit = c.Size
	}
	if limit == 0 {
		return chunkSize
	}
	remaining := limit - bytesWritten
	if remaining <= 0 {
		return 0
	}
	if remaining > int64(chunkSize) {
		return chunkSize
	}
	return int(remaining)
}

// RemainingTokens caps the token count a single NextChunk call may
// emit for a count-bound job, so a source that can fit many tokens in
// one byte budget (word/dict/markov) stops exactly at Times instead of
// overshooting by up to a full chunk. 0 means no cap: either the job
// isn't count-bound, or (by construction) the caller already checked
// Done() and found tokensEmitted < Times, so the computed remainder is
// always positive when Times is set.
func (c Ceilings) RemainingTokens(tokensEmitted int64) int {
	if c.Times <= 0 {
		return 0
	}
	remaining := c.Times - tokensEmitted
	if remaining <= 0 {
		return 0
	}
	if remaining > int64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(remaining)
}

// ErrCanceled is returned when external cancellation stopped the job
// before a ceiling was reached.
var ErrCanceled = errors.New("writer: canceled")

// RetryPolicy bounds per-chunk I/O retry.
type RetryPolicy struct {
	IORetries   int
	ErrorBudget int
}

// Config is everything a backend needs beyond the target handle itself.
type Config struct {
	Ceilings    Ceilings
	ChunkSize   int
	Sparse      bool
	HashKind    durability.HashKind
	Fsync       *durability.FsyncPolicy
	Rate        *throttle.Limiter
	CPU         *throttle.CPUGovernor
	RAM         *throttle.RAMWatch
	Progress    *throttle.Progress
	Retry       RetryPolicy
	RAMMax      int64 // buffer-mode fallback threshold, 0 = no threshold (always buffer)
	Workers     int   // multi-writer worker count, 0/1 = disabled
	Generators  int   // pipeline generator count, 0/1 = disabled
	EstimateLen int64 // estimated total output bytes, for ram-buffer sizing

	// Gzip is non-nil when the job's output container is gzip.
	// Validation forces single-threaded concurrency whenever this is
	// set, so only Stream and RAMBuffer ever see a non-nil value.
	// Sparse-skip is meaningless against a compressed stream and is
	// disabled by the caller whenever Gzip is set.
	Gzip *durability.GzipSink
}

// Result is what a completed (or canceled) backend run reports back to
// the Job Controller.
type Result struct {
	BytesWritten  int64
	TokensEmitted int64
	Hash          string
	Interrupted   bool
}

// NewSourceFn builds a fresh, independently-seeded Token Source for a
// given worker index (0 for single-writer backends). Backends use this
// instead of holding one Source directly so multi-writer and pipeline
// modes can give each worker its own restartable stream.
type NewSourceFn func(workerIndex int) token.Source

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<attempt) * 10 * time.Millisecond
	const cap = 2 * time.Second
	if d > cap {
		d = cap
	}
	return d
}

func canceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
