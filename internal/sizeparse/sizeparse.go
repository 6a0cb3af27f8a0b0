// Package sizeparse parses human-readable size strings ("10MiB",
// "1.5GB") into byte counts.
package sizeparse

import (
	"fmt"
	"strconv"
	"strings"
)

var binaryUnits = map[string]int64{
	"":    1,
	"b":   1,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

var decimalUnits = map[string]int64{
	"kb": 1_000,
	"mb": 1_000_000,
	"gb": 1_000_000_000,
	"tb": 1_000_000_000_000,
	"k":  1_000,
	"m":  1_000_000,
	"g":  1_000_000_000,
	"t":  1_000_000_000_000,
}

// Parse converts s (e.g. "10MiB", "1.5GB", "2048", "4k") into a byte
// count. Binary units (KiB/MiB/GiB/TiB) use powers of 1024; decimal
// units (KB/MB/GB/TB, or their bare-letter forms) use powers of 1000.
// A bare number with no unit is taken as raw bytes.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("sizeparse: empty size string")
	}

	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	numPart := s[:i]
	unitPart := strings.ToLower(strings.TrimSpace(s[i:]))
	if numPart == "" {
		return 0, fmt.Errorf("sizeparse: %q has no numeric prefix", s)
	}

	val, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("sizeparse: invalid number in %q: %w", s, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("sizeparse: %q is negative", s)
	}

	mult, ok := binaryUnits[unitPart]
	if !ok {
		mult, ok = decimalUnits[unitPart]
	}
	if !ok {
		return 0, fmt.Errorf("sizeparse: unknown unit %q in %q", unitPart, s)
	}

	return int64(val * float64(mult)), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
