package token

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"unicode/utf8"
)

// Dictionary is an ordered sequence of token strings loaded from one or
// more files.
type Dictionary struct {
	tokens []string
}

// LoadDictionary reads tokens (one per line, trailing newline stripped)
// from each path in order, decoding as UTF-8 and falling back to
// Latin-1 if a file fails to decode as valid UTF-8.
func LoadDictionary(paths ...string) (*Dictionary, error) {
	var all []string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("token: read dictionary %s: %w", p, err)
		}
		text := raw
		if !utf8.Valid(raw) {
			text = latin1Decode(raw)
		}
		lines, err := splitLines(text)
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return &Dictionary{tokens: all}, nil
}

func splitLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func latin1Decode(raw []byte) []byte {
	out := make([]rune, len(raw))
	for i, b := range raw {
		out[i] = rune(b)
	}
	return []byte(string(out))
}

// Len reports the number of loaded tokens.
func (d *Dictionary) Len() int { return len(d.tokens) }

// DictOrder selects the draw order for dictionary-backed word sources.
type DictOrder int

const (
	OrderSequential DictOrder = iota
	OrderReverse
	OrderPresorted
	OrderRandom
)

// DictSource draws tokens from a preloaded Dictionary in one of the
// supported orders (sequential, reverse, presorted, or random draw).
type DictSource struct {
	sequence []string // concrete draw order for sequential/reverse/presorted
	mode     DictOrder
	cursor   int
	rng      *rand.Rand
	seed     int64
	hasSeed  bool

	enc   Encoding
	scope NewlineScope
	style NewlineStyle
}

// NewDict builds a dictionary-backed source. seed/hasSeed control the
// random draw order's reproducibility.
func NewDict(d *Dictionary, order DictOrder, enc Encoding, scope NewlineScope, style NewlineStyle, seed int64, hasSeed bool) (*DictSource, error) {
	if d.Len() == 0 {
		return nil, ErrEmptyDictionary
	}
	ds := &DictSource{
		mode:    order,
		enc:     enc,
		scope:   scope,
		style:   style,
		seed:    seed,
		hasSeed: hasSeed,
	}
	switch order {
	case OrderSequential:
		ds.sequence = d.tokens
	case OrderReverse:
		ds.sequence = reversed(d.tokens)
	case OrderPresorted:
		ds.sequence = sortedCopy(d.tokens)
	case OrderRandom:
		ds.sequence = d.tokens
		ds.rng = newRand(seed, hasSeed)
	}
	return ds, nil
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func newRand(seed int64, has bool) *rand.Rand {
	if has {
		return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9E3779B97F4A7C15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// peek returns the next token without advancing the cursor.
func (d *DictSource) peek() string {
	if d.mode == OrderRandom {
		return d.sequence[d.rng.IntN(len(d.sequence))]
	}
	return d.sequence[d.cursor%len(d.sequence)]
}

func (d *DictSource) advance() {
	if d.mode != OrderRandom {
		d.cursor++
	}
}

func (d *DictSource) NextChunk(max int, maxTokens int) ([]byte, int, error) {
	if max <= 0 {
		return nil, 0, nil
	}
	out := make([]byte, 0, max)
	tokens := 0
	for {
		if maxTokens > 0 && tokens >= maxTokens {
			break
		}
		raw := d.peek()
		tok := applyNewline(encode(raw, d.enc), d.scope, d.style)
		if len(out)+len(tok) > max {
			if tokens == 0 {
				n := max
				if n > len(tok) {
					n = len(tok)
				}
				out = append(out, tok[:n]...)
			}
			break
		}
		out = append(out, tok...)
		tokens++
		d.advance()
	}
	return out, tokens, nil
}

func (d *DictSource) Restart() {
	d.cursor = 0
	if d.mode == OrderRandom {
		d.rng = newRand(d.seed, d.hasSeed)
	}
}
