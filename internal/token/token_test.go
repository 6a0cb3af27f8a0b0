package token

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordSourceScopeWord(t *testing.T) {
	w := NewWord("AB", UTF8, ScopeWord, StyleLF)
	out, tokens, err := w.NextChunk(1024, 0)
	require.NoError(t, err)
	require.Equal(t, 341, tokens)
	require.Equal(t, bytes.Repeat([]byte("AB\n"), 341), out)
}

func TestWordSourceScopeChar(t *testing.T) {
	w := NewWord("AB", UTF8, ScopeChar, StyleLF)
	out, tokens, err := w.NextChunk(len("A\nB\n"), 0)
	require.NoError(t, err)
	require.Equal(t, 1, tokens)
	require.Equal(t, []byte("A\nB\n"), out)
}

func TestWordSourceScopeNone(t *testing.T) {
	w := NewWord("X", UTF8, ScopeNone, StyleLF)
	out, tokens, err := w.NextChunk(5, 0)
	require.NoError(t, err)
	require.Equal(t, 5, tokens)
	require.Equal(t, []byte("XXXXX"), out)
}

func TestWordSourceRespectsMaxTokens(t *testing.T) {
	w := NewWord("AB", UTF8, ScopeWord, StyleLF)
	out, tokens, err := w.NextChunk(1024, 5)
	require.NoError(t, err)
	require.Equal(t, 5, tokens)
	require.Equal(t, []byte("AB\nAB\nAB\nAB\nAB\n"), out)
}

func TestFillSourceBin0(t *testing.T) {
	f := NewFill(0x00)
	out, tokens, err := f.NextChunk(1024, 0)
	require.NoError(t, err)
	require.Equal(t, 1, tokens)
	require.Equal(t, 1024, len(out))
	require.True(t, bytes.Equal(out, make([]byte, 1024)))
}

func TestFillSourceBin1(t *testing.T) {
	f := NewFill(0xFF)
	out, _, err := f.NextChunk(16, 0)
	require.NoError(t, err)
	for _, b := range out {
		require.Equal(t, byte(0xFF), b)
	}
}

func TestRandHexCharsetAndLength(t *testing.T) {
	h := NewRandHex()
	out, _, err := h.NextChunk(101, 0)
	require.NoError(t, err)
	require.Equal(t, 101, len(out))
	for _, c := range out {
		require.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestRandUTF8Printable(t *testing.T) {
	s := NewRandUTF8()
	out, _, err := s.NextChunk(256, 0)
	require.NoError(t, err)
	for _, c := range out {
		require.True(t, c >= ' ' && c <= '~')
	}
}

func TestRandBinLength(t *testing.T) {
	b := NewRandBin()
	out, _, err := b.NextChunk(4096, 0)
	require.NoError(t, err)
	require.Equal(t, 4096, len(out))
}

func TestRandomMixedDelegates(t *testing.T) {
	r := NewRandomMixed()
	for i := 0; i < 50; i++ {
		out, _, err := r.NextChunk(32, 0)
		require.NoError(t, err)
		require.Equal(t, 32, len(out))
	}
}
