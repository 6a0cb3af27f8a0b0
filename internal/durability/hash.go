// Package durability implements the integrity and persistence controls:
// running hash accumulation, fsync scheduling, sparse-region skipping,
// and verify-on-close re-reads.
package durability

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"hash/crc32"

	"github.com/zeebo/xxh3"
)

// HashKind selects the running-hash algorithm.
type HashKind string

const (
	HashNone   HashKind = ""
	HashSHA256 HashKind = "sha256"
	HashCRC32  HashKind = "crc32"
	HashXXH3   HashKind = "xxh3"
)

// Accumulator feeds every written chunk through a running hash so the
// job can report a final digest and, when requested, verify it against
// a re-read of the file.
type Accumulator struct {
	kind HashKind
	h    hash.Hash
	x    *xxh3.Hasher
}

// NewAccumulator builds an accumulator for kind. HashNone returns nil;
// callers nil-check before use so the no-hash path costs nothing.
func NewAccumulator(kind HashKind) (*Accumulator, error) {
	switch kind {
	case HashNone:
		return nil, nil
	case HashSHA256:
		return &Accumulator{kind: kind, h: sha256.New()}, nil
	case HashCRC32:
		return &Accumulator{kind: kind, h: crc32.NewIEEE()}, nil
	case HashXXH3:
		return &Accumulator{kind: kind, x: xxh3.New()}, nil
	default:
		return nil, fmt.Errorf("durability: unknown hash kind %q", kind)
	}
}

// Write feeds p into the running hash. Never returns an error: both
// hash.Hash and xxh3.Hasher implementations are documented to never fail.
func (a *Accumulator) Write(p []byte) {
	if a == nil {
		return
	}
	if a.x != nil {
		a.x.Write(p)
		return
	}
	a.h.Write(p)
}

// Sum returns the final digest as a hex string.
func (a *Accumulator) Sum() string {
	if a == nil {
		return ""
	}
	if a.x != nil {
		return fmt.Sprintf("%016x", a.x.Sum64())
	}
	return fmt.Sprintf("%x", a.h.Sum(nil))
}

// Kind reports which algorithm this accumulator runs, for result output.
func (a *Accumulator) Kind() HashKind {
	if a == nil {
		return HashNone
	}
	return a.kind
}
