package sizeparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBareBytes(t *testing.T) {
	n, err := Parse("2048")
	require.NoError(t, err)
	require.Equal(t, int64(2048), n)
}

func TestParseBinaryUnits(t *testing.T) {
	n, err := Parse("10MiB")
	require.NoError(t, err)
	require.Equal(t, int64(10*1024*1024), n)
}

func TestParseDecimalUnits(t *testing.T) {
	n, err := Parse("1.5GB")
	require.NoError(t, err)
	require.Equal(t, int64(1.5*1_000_000_000), n)
}

func TestParseBareLetterDecimal(t *testing.T) {
	n, err := Parse("4k")
	require.NoError(t, err)
	require.Equal(t, int64(4000), n)
}

func TestParseCaseInsensitive(t *testing.T) {
	n, err := Parse("100mib")
	require.NoError(t, err)
	require.Equal(t, int64(100*1024*1024), n)
}

func TestParseWhitespace(t *testing.T) {
	n, err := Parse("  5 MiB  ")
	require.NoError(t, err)
	require.Equal(t, int64(5*1024*1024), n)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	_, err = Parse("MiB")
	require.Error(t, err)
	_, err = Parse("10xyz")
	require.Error(t, err)
	_, err = Parse("-5MiB")
	require.Error(t, err)
}
