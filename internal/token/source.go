// Package token implements the pluggable token generator described by the
// pump engine: a restartable, conceptually infinite byte stream per pump
// mode. Writers pull chunks until they decide to stop; the source never
// signals end-of-stream on its own except for the dictionary-empty
// configuration error.
package token

import "fmt"

// Encoding identifies the text encoding used to turn a token string into
// bytes. Binary modes ignore it.
type Encoding int

const (
	UTF8 Encoding = iota
	Latin1
)

// NewlineScope controls where newlines are inserted in text pump modes.
type NewlineScope int

const (
	ScopeNone NewlineScope = iota
	ScopeWord
	ScopeChar
)

// NewlineStyle selects the newline byte sequence.
type NewlineStyle int

const (
	StyleLF NewlineStyle = iota
	StyleCR
	StyleCRLF
)

func (s NewlineStyle) Bytes() []byte {
	switch s {
	case StyleCR:
		return []byte{'\r'}
	case StyleCRLF:
		return []byte{'\r', '\n'}
	default:
		return []byte{'\n'}
	}
}

// Mode names one of the supported pump modes.
type Mode int

const (
	ModeWord Mode = iota
	ModeDict
	ModeMarkov
	ModeBin0
	ModeBin1
	ModeRandBin
	ModeRandUTF8
	ModeRandHex
	ModeRandom
)

// Source is the single capability every generator exposes: pull up to
// max_bytes of the (logically infinite) stream. A returned chunk shorter
// than max is legal; a zero-length chunk with a nil error is only legal
// when the underlying data source is empty (construction already rejects
// that case for dictionary-backed sources).
type Source interface {
	// NextChunk returns up to max bytes plus the number of discrete
	// tokens those bytes represent. For word/dict/markov sources a
	// token is one dictionary entry; for binary/random sources a token
	// is one generated chunk (there is no finer natural unit), which is
	// the convention count-bound configs rely on for those modes.
	//
	// maxTokens caps the number of whole tokens a single call may emit,
	// independent of the byte budget; 0 means unbounded (governed by
	// max alone). It lets a count-bound caller stop exactly at its
	// token ceiling instead of filling the whole byte budget with
	// however many tokens fit. Sources whose natural unit is already
	// one token per call (binary/random) ignore it.
	NextChunk(max int, maxTokens int) (data []byte, tokens int, err error)
	// Restart reseeds the stream. With a configured seed the sequence is
	// identical after Restart; otherwise a fresh random state is used.
	Restart()
}

// ErrEmptyDictionary is returned at construction time when a dictionary
// mode has no tokens to draw from — a fatal configuration error.
var ErrEmptyDictionary = fmt.Errorf("token: dictionary has no tokens")

func encode(s string, enc Encoding) []byte {
	if enc == Latin1 {
		b := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xFF {
				r = '?'
			}
			b = append(b, byte(r))
		}
		return b
	}
	return []byte(s)
}

func applyNewline(tok []byte, scope NewlineScope, style NewlineStyle) []byte {
	switch scope {
	case ScopeWord:
		return append(append([]byte{}, tok...), style.Bytes()...)
	case ScopeChar:
		nl := style.Bytes()
		out := make([]byte, 0, len(tok)*(1+len(nl)))
		for _, c := range tok {
			out = append(out, c)
			out = append(out, nl...)
		}
		return out
	default:
		return tok
	}
}
