package guard

import (
	"errors"
	"fmt"
)

// ErrMaxTimesExceeded is fatal and aborts before opening any file.
var ErrMaxTimesExceeded = errors.New("guard: times exceeds max-times")

// CheckMaxTimes enforces the configured ceiling on the times counting
// mode. maxTimes <= 0 means no ceiling is configured.
func CheckMaxTimes(times, maxTimes int64) error {
	if maxTimes <= 0 {
		return nil
	}
	if times > maxTimes {
		return fmt.Errorf("%w: %d > %d", ErrMaxTimesExceeded, times, maxTimes)
	}
	return nil
}

// ValidateMaxBytes checks max-bytes, the hard upper bound a writer
// backend must never cross regardless of any other stopping condition.
// The writer package consults that bound per chunk, not here; this
// helper only validates it is well-formed at job-construction time.
func ValidateMaxBytes(maxBytes int64) error {
	if maxBytes < 0 {
		return fmt.Errorf("guard: max-bytes must be >= 0, got %d", maxBytes)
	}
	return nil
}
