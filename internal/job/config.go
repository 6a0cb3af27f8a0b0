// Package job implements the controller: it resolves an effective
// configuration, runs the configured guards, builds a token source and
// a writer backend wired to a shared throttle set and durability
// context, and drives each target to completion.
package job

import (
	"fmt"
	"time"

	"github.com/filepump/pump/internal/durability"
	"github.com/filepump/pump/internal/token"
	"github.com/filepump/pump/internal/writer"
)

// Concurrency selects the writer backend shape.
type Concurrency int

const (
	ConcurrencySingle Concurrency = iota
	ConcurrencyRAMBuffer
	ConcurrencyMultiWriter
	ConcurrencyPipeline
)

// Compression selects the output container.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
)

// Config is the immutable, fully-resolved job configuration: the result
// of merging CLI flags over an optional config file and resolving
// every option to its final value.
type Config struct {
	Disposition writer.Disposition

	Mode      token.Mode
	Word      string
	DictPaths []string
	DictOrder token.DictOrder
	MarkovN   int
	Encoding  token.Encoding

	NewlineScope token.NewlineScope
	NewlineStyle token.NewlineStyle

	Times    int64
	TimesMin int64
	TimesMax int64
	Size     int64
	MaxBytes int64

	ChunkSize   int
	Concurrency Concurrency
	Workers     int
	Generators  int

	RateBPS  int64
	CPUPct   float64
	CPUEvery int
	RAMMax   int64
	RAMLimit uint64
	RAMEvery int

	FsyncEnable  bool
	FsyncEveryN  int
	FsyncEveryB  int64
	HashKind     durability.HashKind
	Verify       bool
	Compression  Compression
	Sparse       bool

	Resume      bool
	Offset      int64 // -1 = not given
	TruncateTo  int64
	FallocateTo int64

	IORetries   int
	ErrorBudget int

	Seed    int64
	HasSeed bool

	ProgressInterval time.Duration

	DiskGuardEnabled bool
	DiskMargin       int64
	MaxTimes         int64
}

// EffectiveTimes resolves the times/times-range counting mode to a
// single count-bound target. A times-range with MIN==MAX collapses to
// an exact count. A
// [MIN,MAX] range resolves to MIN; TimesMax is not consulted. The
// result is the writer's count ceiling as well as the figure used for
// disk-guard/RAM estimation.
func (c Config) EffectiveTimes() int64 {
	if c.Times > 0 {
		return c.Times
	}
	if c.TimesMin > 0 {
		return c.TimesMin
	}
	return 0
}

// Validate enforces the JobConfig invariants.
func (c Config) Validate(target string, isStdout bool) error {
	if c.MaxBytes > 0 {
		if c.Size > 0 && c.Size > c.MaxBytes {
			return fmt.Errorf("job: size (%d) exceeds max-bytes (%d)", c.Size, c.MaxBytes)
		}
	}
	if c.Concurrency == ConcurrencyRAMBuffer && (c.Workers > 1 || c.Generators > 1) {
		return fmt.Errorf("job: ram-buffer requires single-threaded concurrency")
	}
	if c.Compression == CompressionGzip && (c.Workers > 1 || c.Generators > 1) {
		return fmt.Errorf("job: compression=gzip requires single-threaded concurrency")
	}
	// Verifying a stream that is never read back from disk has no
	// meaning, so verify on a standard-output target is a no-op rather
	// than an error.
	if c.Verify && !isStdout && c.Compression == CompressionGzip {
		return fmt.Errorf("job: verify requires a regular file target with compression=none")
	}
	if c.Mode == token.ModeWord && c.Word == "" {
		return fmt.Errorf("job: word mode requires --word")
	}
	if c.Mode == token.ModeDict && len(c.DictPaths) == 0 {
		return fmt.Errorf("job: dict mode requires at least one dictionary file")
	}
	if c.Mode == token.ModeMarkov && len(c.DictPaths) == 0 {
		return fmt.Errorf("job: markov mode requires a dictionary to build the model from")
	}
	return nil
}
