package throttle

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrRAMLimitExceeded is fatal and maps to exit code 4.
var ErrRAMLimitExceeded = fmt.Errorf("throttle: RAM limit exceeded")

// RAMWatch samples process RSS every K chunks via gopsutil. If sampling
// is unavailable, it silently disables itself rather than failing the
// job.
type RAMWatch struct {
	proc    *process.Process
	limit   uint64
	every   int
	calls   int
	lastRSS uint64
}

// NewRAMWatch builds a RAM watch; limit of 0 disables it.
func NewRAMWatch(limit uint64, every int) *RAMWatch {
	if limit == 0 || every < 1 {
		return nil
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	return &RAMWatch{proc: proc, limit: limit, every: every}
}

// Tick samples RSS every `every` calls and returns ErrRAMLimitExceeded
// the moment the limit is breached.
func (w *RAMWatch) Tick() error {
	if w == nil {
		return nil
	}
	w.calls++
	if w.calls%w.every != 0 {
		return nil
	}
	info, err := w.proc.MemoryInfo()
	if err != nil {
		return nil
	}
	w.lastRSS = info.RSS
	if w.lastRSS > w.limit {
		return ErrRAMLimitExceeded
	}
	return nil
}

// LastRSS returns the most recently observed RSS, for progress reporting.
func (w *RAMWatch) LastRSS() uint64 {
	if w == nil {
		return 0
	}
	return w.lastRSS
}
